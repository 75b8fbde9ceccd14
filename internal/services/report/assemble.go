package report

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/bobmcallan/thesis/internal/models"
)

// ChartPlaceholderPrice and ChartPlaceholderVolume mark where the renderer
// injects the generated charts.
const (
	ChartPlaceholderPrice  = "{{chart:price}}"
	ChartPlaceholderVolume = "{{chart:volume}}"
)

// sectionCharts maps sections to the chart placeholder appended after their
// body. Only sections with market data relevance carry one.
var sectionCharts = map[models.Section]string{
	models.SectionFinancials: ChartPlaceholderPrice,
	models.SectionValuation:  ChartPlaceholderVolume,
}

var citationPattern = regexp.MustCompile(`\[(\d+)\]`)

// assembleMarkdown builds the final document: title block, table of
// contents, the eight sections in canonical order with HTML anchors, and a
// trailing references section for every source actually cited.
func assembleMarkdown(r *models.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s (%s) Investment Thesis\n\n", r.Company, r.Ticker)
	fmt.Fprintf(&b, "*Generated %s*\n\n", r.GeneratedAt.Format("2 January 2006"))
	b.WriteString("---\n\n")

	b.WriteString("<a id=\"table-of-contents\"></a>\n\n## Table of Contents\n\n")
	for _, s := range r.Sections {
		fmt.Fprintf(&b, "- [%s](#%s)\n", s.Section, sectionAnchor(s.Section))
	}
	b.WriteString("- [References](#references)\n\n---\n\n")

	for _, s := range r.Sections {
		fmt.Fprintf(&b, "<a id=\"%s\"></a>\n\n## %s\n\n", sectionAnchor(s.Section), s.Section)
		if s.Failed {
			fmt.Fprintf(&b, "*Section generation failed: %s.*\n\n", s.FailReason)
		} else {
			b.WriteString(strings.TrimSpace(s.Body) + "\n\n")
		}
		if placeholder, ok := sectionCharts[s.Section]; ok && hasBars(r) {
			b.WriteString(placeholder + "\n\n")
		}
	}

	b.WriteString(referencesSection(r))
	return strings.TrimRight(b.String(), "\n") + "\n"
}

// sectionAnchor derives the HTML anchor id for a section title.
func sectionAnchor(s models.Section) string {
	anchor := strings.ToLower(string(s))
	anchor = strings.ReplaceAll(anchor, "&", "and")
	anchor = strings.ReplaceAll(anchor, " ", "-")
	anchor = strings.ReplaceAll(anchor, "--", "-")
	return anchor
}

// citedNumbers returns the unique sorted [n] markers across all generated
// section bodies.
func citedNumbers(r *models.Report) []int {
	seen := make(map[int]bool)
	for _, s := range r.Sections {
		if s.Failed {
			continue
		}
		for _, m := range citationPattern.FindAllStringSubmatch(s.Body, -1) {
			var n int
			fmt.Sscanf(m[1], "%d", &n)
			if n > 0 {
				seen[n] = true
			}
		}
	}
	nums := make([]int, 0, len(seen))
	for n := range seen {
		nums = append(nums, n)
	}
	sort.Ints(nums)
	return nums
}

// referencesSection lists every cited source. Citations with no matching
// source keep their number with a placeholder so numbering stays intact.
func referencesSection(r *models.Report) string {
	cited := citedNumbers(r)
	if len(cited) == 0 {
		return ""
	}
	byNumber := make(map[int]models.Citation, len(r.Sources))
	for _, c := range r.Sources {
		byNumber[c.Number] = c
	}

	var b strings.Builder
	b.WriteString("---\n\n<a id=\"references\"></a>\n\n## References\n\n")
	for _, n := range cited {
		c, ok := byNumber[n]
		if !ok {
			fmt.Fprintf(&b, "**[%d]** Source information unavailable\n\n", n)
			continue
		}
		switch {
		case c.URL != "" && c.Title != "":
			fmt.Fprintf(&b, "**[%d]** (%s) [link](%s)\n\n", n, c.Title, c.URL)
		case c.URL != "":
			fmt.Fprintf(&b, "**[%d]** %s\n\n", n, c.URL)
		default:
			fmt.Fprintf(&b, "**[%d]** %s\n\n", n, c.Title)
		}
	}
	return b.String()
}

// sectionCitations maps the [n] markers in one body back to the source list.
func sectionCitations(body string, sources []models.Citation) []models.Citation {
	byNumber := make(map[int]models.Citation, len(sources))
	for _, c := range sources {
		byNumber[c.Number] = c
	}
	seen := make(map[int]bool)
	var nums []int
	for _, m := range citationPattern.FindAllStringSubmatch(body, -1) {
		var n int
		fmt.Sscanf(m[1], "%d", &n)
		if n > 0 && !seen[n] {
			seen[n] = true
			nums = append(nums, n)
		}
	}
	sort.Ints(nums)
	var out []models.Citation
	for _, n := range nums {
		if c, ok := byNumber[n]; ok {
			out = append(out, c)
		}
	}
	return out
}

func hasBars(r *models.Report) bool {
	return r.Snapshot != nil && len(r.Snapshot.Bars) > 0
}
