// Package render turns an assembled report into on-disk artifacts: the
// markdown document, generated charts, and the final PDF.
package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bobmcallan/thesis/internal/common"
	"github.com/bobmcallan/thesis/internal/interfaces"
	"github.com/bobmcallan/thesis/internal/models"
)

const (
	priceChartFile  = "price.png"
	volumeChartFile = "volume.png"
	markdownFile    = "report.md"
	pdfFile         = "report.pdf"

	runDirFormat = "20060102-150405"
)

// Service implements interfaces.DocumentRenderer.
type Service struct {
	logger *common.Logger
	now    func() time.Time
}

// NewService creates the document renderer.
func NewService(logger *common.Logger) *Service {
	return &Service{logger: logger, now: time.Now}
}

// Render writes the run artifacts under <outDir>/<TICKER>/<timestamp>/.
// Everything is built in memory first and written atomically, so a failed
// run leaves no partial artifact behind.
func (s *Service) Render(ctx context.Context, report *models.Report, outDir string) (*models.RenderedDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := s.now()
	images, markdown, err := s.prepare(report)
	if err != nil {
		return nil, err
	}

	pdfBytes, err := buildPDF(markdown, images)
	if err != nil {
		return nil, fmt.Errorf("rendering pdf for %s: %w", report.Ticker, err)
	}

	runDir := filepath.Join(outDir, report.Ticker, now.Format(runDirFormat))
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating run directory: %w", err)
	}

	files := make(map[string][]byte, len(images)+2)
	for name, data := range images {
		files[name] = data
	}
	files[markdownFile] = []byte(markdown)
	files[pdfFile] = pdfBytes

	written := make([]string, 0, len(files))
	for name, data := range files {
		target := filepath.Join(runDir, name)
		if err := writeFileAtomic(target, data); err != nil {
			for _, p := range written {
				os.Remove(p)
			}
			return nil, fmt.Errorf("writing %s: %w", name, err)
		}
		written = append(written, target)
	}

	doc := &models.RenderedDocument{
		Ticker:       report.Ticker,
		MarkdownPath: filepath.Join(runDir, markdownFile),
		PDFPath:      filepath.Join(runDir, pdfFile),
		PDFSize:      int64(len(pdfBytes)),
		RenderedAt:   now,
	}
	s.logger.Info().Str("ticker", report.Ticker).
		Str("dir", runDir).
		Int64("pdf_bytes", doc.PDFSize).
		Msg("Report artifacts written")
	return doc, nil
}

// prepare renders the charts and resolves the chart placeholders in the
// markdown. Placeholders without enough price data are stripped.
func (s *Service) prepare(report *models.Report) (map[string][]byte, string, error) {
	markdown := report.Markdown
	images := make(map[string][]byte)

	var bars []models.EODBar
	if report.Snapshot != nil {
		bars = report.Snapshot.Bars
	}

	for placeholder, spec := range map[string]struct {
		file   string
		alt    string
		render func(string, []models.EODBar) ([]byte, error)
	}{
		"{{chart:price}}":  {priceChartFile, "share price chart", renderPriceChart},
		"{{chart:volume}}": {volumeChartFile, "trading volume chart", renderVolumeChart},
	} {
		if !strings.Contains(markdown, placeholder) {
			continue
		}
		if len(bars) < 2 {
			markdown = strings.ReplaceAll(markdown, placeholder+"\n\n", "")
			markdown = strings.ReplaceAll(markdown, placeholder, "")
			continue
		}
		png, err := spec.render(report.Ticker, bars)
		if err != nil {
			return nil, "", fmt.Errorf("rendering chart for %s: %w", report.Ticker, err)
		}
		images[spec.file] = png
		markdown = strings.ReplaceAll(markdown, placeholder,
			fmt.Sprintf("![%s %s](%s)", report.Ticker, spec.alt, spec.file))
	}
	return images, markdown, nil
}

// writeFileAtomic writes data via a temp file in the target directory and
// renames it into place.
func writeFileAtomic(target string, data []byte) error {
	dir := filepath.Dir(target)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

var _ interfaces.DocumentRenderer = (*Service)(nil)
