package gemini

import (
	"testing"
	"time"

	"google.golang.org/genai"
)

func TestBackoff_Exponential(t *testing.T) {
	cfg := NewDefaultRetryConfig()

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 2 * time.Second},
		{1, 4 * time.Second},
		{2, 8 * time.Second},
		{3, 16 * time.Second},
		{4, 32 * time.Second},
		{5, 60 * time.Second}, // 64s capped at max
		{6, 60 * time.Second},
	}

	for _, tt := range tests {
		if got := cfg.Backoff(tt.attempt); got != tt.want {
			t.Errorf("Backoff(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestBackoff_CustomMultiplier(t *testing.T) {
	cfg := RetryConfig{
		MaxAttempts:       5,
		InitialBackoff:    time.Second,
		MaxBackoff:        10 * time.Second,
		BackoffMultiplier: 3.0,
	}

	if got := cfg.Backoff(0); got != time.Second {
		t.Errorf("Backoff(0) = %v, want 1s", got)
	}
	if got := cfg.Backoff(1); got != 3*time.Second {
		t.Errorf("Backoff(1) = %v, want 3s", got)
	}
	if got := cfg.Backoff(2); got != 9*time.Second {
		t.Errorf("Backoff(2) = %v, want 9s", got)
	}
	if got := cfg.Backoff(3); got != 10*time.Second {
		t.Errorf("Backoff(3) = %v, want capped at 10s", got)
	}
}

func TestBackoff_InitialAboveMax(t *testing.T) {
	cfg := RetryConfig{
		InitialBackoff:    2 * time.Minute,
		MaxBackoff:        time.Minute,
		BackoffMultiplier: 2.0,
	}
	if got := cfg.Backoff(0); got != time.Minute {
		t.Errorf("Backoff(0) = %v, want capped at 1m", got)
	}
}

func TestExtractTextFromResponse(t *testing.T) {
	// Empty candidate set is an error, not empty text
	if _, err := extractTextFromResponse(&genai.GenerateContentResponse{}); err == nil {
		t.Error("expected error for response with no candidates")
	}

	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{
				Parts: []*genai.Part{
					{Text: "The outlook "},
					{Text: "remains strong."},
				},
			},
		}},
	}
	text, err := extractTextFromResponse(resp)
	if err != nil {
		t.Fatalf("extractTextFromResponse failed: %v", err)
	}
	if text != "The outlook remains strong." {
		t.Errorf("text = %q", text)
	}
}
