package models

import "time"

// Section names one of the eight fixed report sections.
type Section string

// The canonical report sections, in the only order they may appear.
const (
	SectionExecutiveSummary Section = "Executive Summary"
	SectionCompanyOverview  Section = "Company Overview"
	SectionIndustry         Section = "Industry & Competitive Landscape"
	SectionFinancials       Section = "Financial Analysis"
	SectionGrowth           Section = "Growth Catalysts & Outlook"
	SectionValuation        Section = "Valuation"
	SectionRisks            Section = "Risk Factors"
	SectionConclusion       Section = "Investment Conclusion"
)

// CanonicalSections is the fixed eight-section order. The report assembler
// emits sections in this order regardless of generation completion order.
var CanonicalSections = [8]Section{
	SectionExecutiveSummary,
	SectionCompanyOverview,
	SectionIndustry,
	SectionFinancials,
	SectionGrowth,
	SectionValuation,
	SectionRisks,
	SectionConclusion,
}

// SectionPrompt is a fully substituted, LLM-ready prompt for one section.
type SectionPrompt struct {
	Section Section
	Text    string
}

// Citation is one numbered source reference carried into the report.
type Citation struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	URL    string `json:"url"`
}

// SectionResult is one generated report section. Failed sections keep their
// place in the canonical order and render a generation-failure notice.
type SectionResult struct {
	Section    Section    `json:"section"`
	Body       string     `json:"body"`
	Citations  []Citation `json:"citations,omitempty"`
	Failed     bool       `json:"failed"`
	FailReason string     `json:"fail_reason,omitempty"`
}

// Report is the assembled eight-section result for one ticker.
type Report struct {
	Ticker      string             `json:"ticker"`
	Company     string             `json:"company"`
	GeneratedAt time.Time          `json:"generated_at"`
	Sections    [8]SectionResult   `json:"sections"`
	Sources     []Citation         `json:"sources,omitempty"`
	Markdown    string             `json:"-"`
	Snapshot    *FinancialSnapshot `json:"-"`
}

// FailedSections returns the names of sections whose generation failed.
func (r *Report) FailedSections() []Section {
	var failed []Section
	for _, s := range r.Sections {
		if s.Failed {
			failed = append(failed, s.Section)
		}
	}
	return failed
}

// RenderedDocument is the on-disk artifact pair produced by one run.
// The files are never mutated after creation.
type RenderedDocument struct {
	Ticker       string    `json:"ticker"`
	MarkdownPath string    `json:"markdown_path"`
	PDFPath      string    `json:"pdf_path"`
	PDFSize      int64     `json:"pdf_size"`
	RenderedAt   time.Time `json:"rendered_at"`
}
