// Package report orchestrates the full thesis pipeline for one ticker:
// validate, fetch, prompt, generate, assemble, render.
package report

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bobmcallan/thesis/internal/common"
	"github.com/bobmcallan/thesis/internal/interfaces"
	"github.com/bobmcallan/thesis/internal/models"
)

const defaultSectionConcurrency = 4

// Service implements interfaces.ReportService.
type Service struct {
	search    interfaces.SearchAdapter
	financial interfaces.FinancialAdapter
	prompts   interfaces.PromptBuilder
	llm       interfaces.LLMClient
	renderer  interfaces.DocumentRenderer
	logger    *common.Logger

	outputDir   string
	timeout     time.Duration
	concurrency int
	now         func() time.Time
}

// NewService creates the report service.
func NewService(
	search interfaces.SearchAdapter,
	financial interfaces.FinancialAdapter,
	prompts interfaces.PromptBuilder,
	llm interfaces.LLMClient,
	renderer interfaces.DocumentRenderer,
	cfg *common.Config,
	logger *common.Logger,
) *Service {
	concurrency := cfg.Pipeline.SectionConcurrency
	if concurrency <= 0 {
		concurrency = defaultSectionConcurrency
	}
	return &Service{
		search:      search,
		financial:   financial,
		prompts:     prompts,
		llm:         llm,
		renderer:    renderer,
		logger:      logger,
		outputDir:   cfg.OutputDir,
		timeout:     cfg.Pipeline.GetTimeout(),
		concurrency: concurrency,
		now:         time.Now,
	}
}

// GenerateReport runs the full pipeline. Section-level generation failures
// are absorbed into failure markers; invalid tickers, the run timeout, and
// render failures are fatal.
func (s *Service) GenerateReport(ctx context.Context, rawTicker string, opts interfaces.ReportOptions) (*models.Report, *models.RenderedDocument, error) {
	progress := opts.Progress
	if progress == nil {
		progress = func(interfaces.PipelineStage, string) {}
	}

	ticker, err := models.ValidateTicker(rawTicker)
	if err != nil {
		return nil, nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := s.now()
	progress(interfaces.StageStart, fmt.Sprintf("Generating report for %s", ticker))
	s.logger.Info().Str("ticker", ticker).Bool("force", opts.ForceRefresh).Msg("Report run started")

	progress(interfaces.StageFetchData, "Fetching web research and financial data")
	search, snapshot := s.fetchData(ctx, ticker, opts.ForceRefresh)
	if err := ctx.Err(); err != nil {
		progress(interfaces.StageFailed, "Run cancelled during data fetch")
		return nil, nil, fmt.Errorf("fetching data for %s: %w", ticker, err)
	}
	if search.Status == models.SourceUnavailable && snapshot.Status == models.SourceUnavailable {
		progress(interfaces.StageFailed, "All data sources unavailable")
		return nil, nil, fmt.Errorf("generating report for %s: no data source available", ticker)
	}

	company := snapshot.CompanyName()

	progress(interfaces.StageBuildPrompts, "Building section prompts")
	prompts := make([]models.SectionPrompt, len(models.CanonicalSections))
	for i, section := range models.CanonicalSections {
		prompts[i] = s.prompts.Build(section, company, ticker, search, snapshot)
	}
	sources := s.prompts.Sources(search, snapshot)

	progress(interfaces.StageGenerateSections, fmt.Sprintf("Generating %d sections", len(prompts)))
	report := &models.Report{
		Ticker:      ticker,
		Company:     company,
		GeneratedAt: start,
		Sources:     sources,
		Snapshot:    snapshot,
	}
	s.generateSections(ctx, report, prompts)
	if err := ctx.Err(); err != nil {
		progress(interfaces.StageFailed, "Run cancelled during section generation")
		return nil, nil, fmt.Errorf("generating sections for %s: %w", ticker, err)
	}
	if failed := report.FailedSections(); len(failed) == len(report.Sections) {
		progress(interfaces.StageFailed, "Every section failed to generate")
		return nil, nil, fmt.Errorf("generating report for %s: all sections failed", ticker)
	}

	progress(interfaces.StageAssembleReport, "Assembling report")
	report.Markdown = assembleMarkdown(report)

	progress(interfaces.StageRenderDocument, "Rendering markdown and PDF")
	doc, err := s.renderer.Render(ctx, report, s.outputDir)
	if err != nil {
		progress(interfaces.StageFailed, "Render failed")
		return report, nil, fmt.Errorf("rendering report for %s: %w", ticker, err)
	}

	elapsed := s.now().Sub(start)
	progress(interfaces.StageDone, fmt.Sprintf("Report ready: %s", doc.PDFPath))
	s.logger.Info().Str("ticker", ticker).
		Dur("elapsed", elapsed).
		Int("failed_sections", len(report.FailedSections())).
		Str("pdf", doc.PDFPath).
		Msg("Report run complete")
	return report, doc, nil
}

// fetchData runs the two adapters in parallel. Adapters degrade instead of
// erroring, so the group never returns an error.
func (s *Service) fetchData(ctx context.Context, ticker string, force bool) (*models.SearchResult, *models.FinancialSnapshot) {
	var (
		search   *models.SearchResult
		snapshot *models.FinancialSnapshot
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		search = s.search.Fetch(gctx, ticker, "", force)
		return nil
	})
	g.Go(func() error {
		snapshot = s.financial.Fetch(gctx, ticker, force)
		return nil
	})
	g.Wait()
	return search, snapshot
}

// generateSections runs the section generations concurrently, bounded, and
// writes each outcome into its canonical slot.
func (s *Service) generateSections(ctx context.Context, report *models.Report, prompts []models.SectionPrompt) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, p := range prompts {
		g.Go(func() error {
			body, err := s.llm.GenerateContent(gctx, p.Text)
			if err != nil {
				s.logger.Warn().Str("ticker", report.Ticker).
					Str("section", string(p.Section)).
					Err(err).
					Msg("Section generation failed")
				report.Sections[i] = models.SectionResult{
					Section:    p.Section,
					Failed:     true,
					FailReason: err.Error(),
				}
				return nil
			}
			report.Sections[i] = models.SectionResult{
				Section:   p.Section,
				Body:      body,
				Citations: sectionCitations(body, report.Sources),
			}
			return nil
		})
	}
	g.Wait()
}

var _ interfaces.ReportService = (*Service)(nil)
