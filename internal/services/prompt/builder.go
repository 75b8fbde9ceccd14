// Package prompt assembles LLM-ready section prompts from the adapter
// outputs. It is pure: no network, no cache, no clock beyond the injected
// date source.
package prompt

import (
	"fmt"
	"strings"
	"time"

	"github.com/bobmcallan/thesis/internal/interfaces"
	"github.com/bobmcallan/thesis/internal/models"
)

const promptTemplate = `You are an equity research analyst writing one section of an investment thesis report on %s (%s).
Today's date is %s.

Section to write: "%s"

Section focus:
%s

Rules:
- Formal, analytical tone. Precise and objective language.
- Synthesize across sources and identify trends. Do not merely summarize.
- 300 to 500 words of markdown body text.
- Every factual claim, number, or statement must carry a numbered citation like [1] or [2] matching the sources below. Use the exact source numbers as given. Never invent or renumber sources.
- Output only the section body in markdown. Do not repeat the section title. Do not add any preamble.

%s

Sources (cite by number):
---
%s
---
`

// sectionFocus carries the analytical brief for each canonical section.
var sectionFocus = map[models.Section]string{
	models.SectionExecutiveSummary: `Distill the most critical findings into a standalone overview: a clear
investment stance, the two or three strongest supporting arguments, the
primary risks, and the near-term outlook.`,
	models.SectionCompanyOverview: `Explain what the company does: its business model, core operations,
revenue streams, and how it makes money.`,
	models.SectionIndustry: `Analyze the company's market, its competitive positioning, the competitive
moat if one exists, and the industry trends shaping its prospects.`,
	models.SectionFinancials: `Examine the financial statements and key performance indicators: revenue
and earnings trajectory, margins, balance-sheet strength, and cash
generation.`,
	models.SectionGrowth: `Identify the potential growth drivers and forward-looking opportunities,
with expected timelines where the sources support them.`,
	models.SectionValuation: `Assess the current valuation against peers and intrinsic value, using the
valuation multiples and market data in the sources.`,
	models.SectionRisks: `Give a clear-eyed view of the potential risks and headwinds: operational,
competitive, financial, and regulatory.`,
	models.SectionConclusion: `Synthesize the full analysis into a final investment outlook and
recommendation, weighing the catalysts against the risks.`,
}

// Builder implements interfaces.PromptBuilder.
type Builder struct {
	now func() time.Time
}

// NewBuilder creates the prompt builder.
func NewBuilder() *Builder {
	return &Builder{now: time.Now}
}

// Build assembles the prompt for one section. Missing inputs are stated
// explicitly so the model does not hallucinate absent data.
func (b *Builder) Build(section models.Section, company, ticker string, search *models.SearchResult, snapshot *models.FinancialSnapshot) models.SectionPrompt {
	if company == "" {
		company = ticker
	}
	blocks := buildSources(search, snapshot)

	text := fmt.Sprintf(promptTemplate,
		company,
		ticker,
		b.now().Format("2006-01-02"),
		string(section),
		sectionFocus[section],
		dataNotices(search, snapshot),
		renderSourceBlocks(blocks),
	)
	return models.SectionPrompt{Section: section, Text: text}
}

// Sources returns the citation list matching the numbering Build uses.
func (b *Builder) Sources(search *models.SearchResult, snapshot *models.FinancialSnapshot) []models.Citation {
	blocks := buildSources(search, snapshot)
	citations := make([]models.Citation, len(blocks))
	for i, blk := range blocks {
		citations[i] = blk.citation
	}
	return citations
}

// dataNotices states which inputs are missing or partial so the model
// acknowledges the gap instead of inventing figures.
func dataNotices(search *models.SearchResult, snapshot *models.FinancialSnapshot) string {
	var notes []string
	switch {
	case search == nil || search.Status == models.SourceUnavailable:
		notes = append(notes, "Recent web research data is unavailable for this report.")
	case search.Status == models.SourceDegraded:
		notes = append(notes, "Recent web research data is partial: "+search.Notice+".")
	}
	switch {
	case snapshot == nil || snapshot.Status == models.SourceUnavailable:
		notes = append(notes, "Financial statement and market data is unavailable for this report.")
	case snapshot.Status == models.SourceDegraded:
		notes = append(notes, "Financial data is partial: "+snapshot.Notice+".")
	}
	if len(notes) == 0 {
		return "All data sources are available."
	}
	notes = append(notes, "Acknowledge missing data where it limits the analysis. Do not fabricate figures.")
	return "Data availability:\n- " + strings.Join(notes, "\n- ")
}

var _ interfaces.PromptBuilder = (*Builder)(nil)
