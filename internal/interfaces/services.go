// Package interfaces defines the contracts between pipeline components.
package interfaces

import (
	"context"

	"github.com/bobmcallan/thesis/internal/models"
)

// SearchAdapter wraps the search provider behind the cache layer.
type SearchAdapter interface {
	// Fetch returns normalized search results for a ticker/company. On
	// persistent provider failure it returns a degraded result, never an
	// error that would abort the pipeline. force bypasses the cache.
	Fetch(ctx context.Context, ticker, company string, force bool) *models.SearchResult
}

// FinancialAdapter wraps the financial-data provider behind the cache layer.
type FinancialAdapter interface {
	// Fetch returns a normalized financial snapshot for a ticker. On
	// persistent provider failure the snapshot is degraded, never an error.
	// force bypasses the cache.
	Fetch(ctx context.Context, ticker string, force bool) *models.FinancialSnapshot
}

// PromptBuilder assembles LLM-ready prompts from adapter outputs. Pure:
// no network or cache access. Source numbering is deterministic for a
// given search/snapshot pair, so every section prompt and the final
// references list agree on the [n] assignments.
type PromptBuilder interface {
	Build(section models.Section, company, ticker string, search *models.SearchResult, snapshot *models.FinancialSnapshot) models.SectionPrompt

	// Sources returns the numbered citation list backing the prompts built
	// from the same inputs.
	Sources(search *models.SearchResult, snapshot *models.FinancialSnapshot) []models.Citation
}

// PipelineStage identifies one stage of a report run for progress reporting.
type PipelineStage string

const (
	StageStart            PipelineStage = "start"
	StageFetchData        PipelineStage = "fetch_data"
	StageBuildPrompts     PipelineStage = "build_prompts"
	StageGenerateSections PipelineStage = "generate_sections"
	StageAssembleReport   PipelineStage = "assemble_report"
	StageRenderDocument   PipelineStage = "render_document"
	StageDone             PipelineStage = "done"
	StageFailed           PipelineStage = "failed"
)

// ProgressFunc receives per-stage progress updates during a run.
type ProgressFunc func(stage PipelineStage, message string)

// ReportService orchestrates the full pipeline for one ticker.
type ReportService interface {
	// GenerateReport runs fetch -> prompts -> sections -> assemble -> render
	// and returns the rendered document. Section-level failures are absorbed;
	// invalid input, run timeout, and render failure are fatal.
	GenerateReport(ctx context.Context, ticker string, opts ReportOptions) (*models.Report, *models.RenderedDocument, error)
}

// ReportOptions configures one report run.
type ReportOptions struct {
	ForceRefresh bool         // bypass the cache layer
	Progress     ProgressFunc // optional per-stage progress callback
}

// DocumentRenderer converts an assembled report into on-disk artifacts.
type DocumentRenderer interface {
	// Render writes the markdown and PDF artifacts under outDir. Writes are
	// atomic: a failure leaves no partial file at the target paths.
	Render(ctx context.Context, report *models.Report, outDir string) (*models.RenderedDocument, error)
}
