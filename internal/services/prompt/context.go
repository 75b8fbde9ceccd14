package prompt

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bobmcallan/thesis/internal/models"
)

// sourceBlock is one numbered context entry presented to the model.
type sourceBlock struct {
	citation models.Citation
	text     string
}

// buildSources numbers the web hits first, then the financial data blocks,
// deduplicating web hits by case-insensitive title. Numbering depends only
// on the inputs, so every section prompt sees the same [n] assignments.
func buildSources(search *models.SearchResult, snapshot *models.FinancialSnapshot) []sourceBlock {
	var blocks []sourceBlock
	n := 1
	seen := make(map[string]bool)

	if search != nil {
		for _, item := range search.Items {
			title := strings.TrimSpace(item.Title)
			if title != "" && seen[strings.ToLower(title)] {
				continue
			}
			if item.Snippet == "" {
				continue
			}
			text := item.Snippet
			if title != "" {
				text = title + "\n" + text
				seen[strings.ToLower(title)] = true
			}
			blocks = append(blocks, sourceBlock{
				citation: models.Citation{Number: n, Title: title, URL: item.URL},
				text:     text,
			})
			n++
		}
	}

	if snapshot != nil && snapshot.Status != models.SourceUnavailable {
		for _, text := range financialBlocks(snapshot) {
			blocks = append(blocks, sourceBlock{
				citation: models.Citation{
					Number: n,
					Title:  fmt.Sprintf("EODHD financial data for %s", snapshot.Ticker),
				},
				text: text,
			})
			n++
		}
	}
	return blocks
}

// financialBlocks renders the snapshot into citable plain-text blocks:
// key statistics, one per statement family, and recent headlines.
func financialBlocks(snapshot *models.FinancialSnapshot) []string {
	var out []string

	var b strings.Builder
	fmt.Fprintf(&b, "Company profile for %s (%s)\n", snapshot.CompanyName(), snapshot.Ticker)
	if snapshot.Sector != "" {
		fmt.Fprintf(&b, "Sector: %s | Industry: %s\n", snapshot.Sector, snapshot.Industry)
	}
	if snapshot.Description != "" {
		fmt.Fprintf(&b, "%s\n", snapshot.Description)
	}
	if f := snapshot.Fundamentals; f != nil {
		fmt.Fprintf(&b, "Key statistics: market cap %s, P/E %.2f, P/B %.2f, EPS %.2f, dividend yield %.2f%%, beta %.2f\n",
			humanizeAmount(f.MarketCap), f.PE, f.PB, f.EPS, f.DividendYield*100, f.Beta)
	}
	if len(snapshot.Bars) > 0 {
		last := snapshot.Bars[len(snapshot.Bars)-1]
		first := snapshot.Bars[0]
		fmt.Fprintf(&b, "Share price: %.2f as of %s (%.2f one year earlier)\n",
			last.Close, last.Date.Format("2006-01-02"), first.Close)
	}
	out = append(out, strings.TrimRight(b.String(), "\n"))

	for _, st := range []struct {
		kind  models.StatementType
		label string
	}{
		{models.StatementIncome, "Income statement"},
		{models.StatementBalance, "Balance sheet"},
		{models.StatementCashFlow, "Cash flow statement"},
	} {
		periods := snapshot.Statements[st.kind]
		if len(periods) == 0 {
			continue
		}
		out = append(out, formatStatement(st.label, snapshot.Ticker, periods))
	}

	if len(snapshot.News) > 0 {
		var nb strings.Builder
		fmt.Fprintf(&nb, "Recent news headlines for %s:\n", snapshot.Ticker)
		for _, item := range snapshot.News {
			line := "- " + item.Title
			if item.Sentiment != "" {
				line += fmt.Sprintf(" (%s)", item.Sentiment)
			}
			if !item.PublishedAt.IsZero() {
				line += " [" + item.PublishedAt.Format("2006-01-02") + "]"
			}
			nb.WriteString(line + "\n")
		}
		out = append(out, strings.TrimRight(nb.String(), "\n"))
	}
	return out
}

func formatStatement(label, ticker string, periods []models.StatementPeriod) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s for %s (annual, most recent first):\n", label, ticker)
	for _, p := range periods {
		keys := make([]string, 0, len(p.Values))
		for k := range p.Values {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Fprintf(&b, "%s:", p.Date)
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%s", k, humanizeAmount(p.Values[k]))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// humanizeAmount compacts large dollar figures so prompts stay readable.
func humanizeAmount(v float64) string {
	abs := v
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs >= 1e12:
		return fmt.Sprintf("%.2fT", v/1e12)
	case abs >= 1e9:
		return fmt.Sprintf("%.2fB", v/1e9)
	case abs >= 1e6:
		return fmt.Sprintf("%.2fM", v/1e6)
	default:
		return fmt.Sprintf("%.2f", v)
	}
}

// renderSourceBlocks emits the "Source [n]:" sections the system prompt
// tells the model to cite.
func renderSourceBlocks(blocks []sourceBlock) string {
	if len(blocks) == 0 {
		return "No source material is available for this company."
	}
	var b strings.Builder
	for _, blk := range blocks {
		fmt.Fprintf(&b, "Source [%d]:\n%s\n\n", blk.citation.Number, blk.text)
	}
	return strings.TrimRight(b.String(), "\n")
}
