package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

const (
	pdfBodyFont  = "Arial"
	pdfBodySize  = 10.0
	pdfLineH     = 5.0
	pdfPageWidth = 190.0 // A4 width minus margins
)

// buildPDF converts assembled report markdown into PDF bytes. Chart images
// referenced by filename are resolved from the images map.
func buildPDF(markdown string, images map[string][]byte) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(true, 12)
	pdf.AddPage()
	pdf.SetFont(pdfBodyFont, "", pdfBodySize)

	md := goldmark.New(
		goldmark.WithExtensions(extension.Table, extension.Strikethrough, extension.Linkify),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	)
	source := []byte(markdown)
	doc := md.Parser().Parse(text.NewReader(source))

	w := &docWriter{pdf: pdf, source: source, images: images}
	if err := ast.Walk(doc, w.walk); err != nil {
		return nil, fmt.Errorf("walking markdown: %w", err)
	}
	if pdf.Err() {
		return nil, fmt.Errorf("building pdf: %w", pdf.Error())
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("writing pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// docWriter walks the goldmark AST and lays the document out with fpdf.
type docWriter struct {
	pdf    *fpdf.Fpdf
	source []byte
	images map[string][]byte

	bold      bool
	italic    bool
	inLink    bool
	listLevel int
}

func (w *docWriter) walk(n ast.Node, entering bool) (ast.WalkStatus, error) {
	switch n.Kind() {
	case ast.KindHeading:
		w.heading(n.(*ast.Heading), entering)
	case ast.KindParagraph:
		if !entering {
			w.pdf.Ln(7)
		}
	case ast.KindText:
		if entering {
			w.pdf.Write(pdfLineH, string(n.Text(w.source)))
		}
	case ast.KindEmphasis:
		if n.(*ast.Emphasis).Level == 2 {
			w.bold = entering
		} else {
			w.italic = entering
		}
		w.applyFont()
	case ast.KindLink:
		w.inLink = entering
		w.applyFont()
	case ast.KindImage:
		if entering {
			w.image(n.(*ast.Image))
			return ast.WalkSkipChildren, nil
		}
	case ast.KindCodeSpan:
		if entering {
			w.pdf.SetFont("Courier", "", pdfBodySize)
			for c := n.FirstChild(); c != nil; c = c.NextSibling() {
				if t, ok := c.(*ast.Text); ok {
					w.pdf.Write(pdfLineH, string(t.Segment.Value(w.source)))
				}
			}
			w.applyFont()
			return ast.WalkSkipChildren, nil
		}
	case ast.KindFencedCodeBlock:
		if entering {
			w.codeBlock(n.(*ast.FencedCodeBlock).Lines())
			return ast.WalkSkipChildren, nil
		}
	case ast.KindCodeBlock:
		if entering {
			w.codeBlock(n.(*ast.CodeBlock).Lines())
			return ast.WalkSkipChildren, nil
		}
	case ast.KindList:
		if entering {
			w.listLevel++
		} else {
			w.listLevel--
			if w.listLevel == 0 {
				w.pdf.Ln(3)
			}
		}
	case ast.KindListItem:
		if entering {
			w.pdf.Ln(pdfLineH)
			w.pdf.SetX(12 + float64(w.listLevel)*4)
			w.pdf.Write(pdfLineH, "- ")
		}
	case ast.KindThematicBreak:
		if entering {
			w.pdf.Ln(3)
			w.pdf.SetDrawColor(180, 180, 180)
			w.pdf.Line(12, w.pdf.GetY(), 198, w.pdf.GetY())
			w.pdf.SetDrawColor(0, 0, 0)
			w.pdf.Ln(3)
		}
	case ast.KindHTMLBlock, ast.KindRawHTML:
		// Anchors and page-break divs carry no PDF layout.
		return ast.WalkSkipChildren, nil
	case extast.KindTable:
		if entering {
			w.table(n.(*extast.Table))
			return ast.WalkSkipChildren, nil
		}
	}
	return ast.WalkContinue, nil
}

func (w *docWriter) applyFont() {
	style := ""
	if w.bold {
		style += "B"
	}
	if w.italic {
		style += "I"
	}
	w.pdf.SetFont(pdfBodyFont, style, pdfBodySize)
	if w.inLink {
		w.pdf.SetTextColor(37, 99, 235)
	} else {
		w.pdf.SetTextColor(0, 0, 0)
	}
}

func (w *docWriter) heading(n *ast.Heading, entering bool) {
	if entering {
		w.pdf.Ln(6)
		size := map[int]float64{1: 16, 2: 13, 3: 11.5}[n.Level]
		if size == 0 {
			size = 10.5
		}
		w.pdf.SetFont(pdfBodyFont, "B", size)
		return
	}
	w.pdf.Ln(7)
	w.applyFont()
}

func (w *docWriter) image(n *ast.Image) {
	name := string(n.Destination)
	data, ok := w.images[name]
	if !ok {
		w.pdf.Write(pdfLineH, fmt.Sprintf("[missing image: %s]", name))
		return
	}
	w.pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(data))
	w.pdf.Ln(3)
	w.pdf.ImageOptions(name, 12, -1, pdfPageWidth-4, 0, true, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	w.pdf.Ln(3)
}

func (w *docWriter) codeBlock(lines *text.Segments) {
	w.pdf.Ln(2)
	w.pdf.SetFont("Courier", "", 9)
	w.pdf.SetFillColor(245, 245, 245)
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		w.pdf.MultiCell(0, 4.5, string(seg.Value(w.source)), "", "L", true)
	}
	w.pdf.SetFillColor(255, 255, 255)
	w.applyFont()
	w.pdf.Ln(2)
}

// table lays out a markdown table with proportional column widths capped to
// the page. Long cells wrap; header rows are shaded.
func (w *docWriter) table(n *extast.Table) {
	rows := w.tableRows(n)
	if len(rows) == 0 || len(rows[0]) == 0 {
		return
	}
	cols := len(rows[0])
	widths := w.columnWidths(rows, cols)

	w.pdf.Ln(2)
	fontSize := 8.5
	lineH := 4.0
	for i, row := range rows {
		if i == 0 {
			w.pdf.SetFont(pdfBodyFont, "B", fontSize)
			w.pdf.SetFillColor(230, 230, 230)
		} else {
			w.pdf.SetFont(pdfBodyFont, "", fontSize)
			w.pdf.SetFillColor(255, 255, 255)
		}

		height := lineH + 2
		for j, cell := range row {
			if j >= cols {
				break
			}
			if h := float64(w.wrapLines(cell, widths[j]-2))*lineH + 2; h > height {
				height = h
			}
		}

		startX, startY := w.pdf.GetX(), w.pdf.GetY()
		if startY+height > 285 {
			w.pdf.AddPage()
			startX, startY = w.pdf.GetX(), w.pdf.GetY()
		}
		x := startX
		for j, cell := range row {
			if j >= cols {
				break
			}
			fill := "D"
			if i == 0 {
				fill = "FD"
			}
			w.pdf.Rect(x, startY, widths[j], height, fill)
			w.pdf.SetXY(x+1, startY+1)
			w.writeWrapped(cell, widths[j]-2, lineH)
			x += widths[j]
		}
		w.pdf.SetXY(startX, startY+height)
	}
	w.pdf.Ln(3)
	w.applyFont()
}

func (w *docWriter) tableRows(n *extast.Table) [][]string {
	var rows [][]string
	var collect func(node ast.Node)
	collect = func(node ast.Node) {
		for c := node.FirstChild(); c != nil; c = c.NextSibling() {
			switch row := c.(type) {
			case *extast.TableRow:
				rows = append(rows, w.rowCells(row))
			case *extast.TableHeader:
				collect(row)
			}
		}
	}
	collect(n)
	return rows
}

func (w *docWriter) rowCells(n *extast.TableRow) []string {
	var cells []string
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if _, ok := c.(*extast.TableCell); ok {
			cells = append(cells, string(c.Text(w.source)))
		}
	}
	return cells
}

func (w *docWriter) columnWidths(rows [][]string, cols int) []float64 {
	widths := make([]float64, cols)
	for _, row := range rows {
		for j, cell := range row {
			if j >= cols {
				break
			}
			if wd := w.pdf.GetStringWidth(cell) + 4; wd > widths[j] {
				widths[j] = wd
			}
		}
	}
	total := 0.0
	for j := range widths {
		if widths[j] < 14 {
			widths[j] = 14
		}
		if widths[j] > pdfPageWidth/2 {
			widths[j] = pdfPageWidth / 2
		}
		total += widths[j]
	}
	if total > pdfPageWidth {
		scale := pdfPageWidth / total
		for j := range widths {
			widths[j] *= scale
		}
	}
	return widths
}

func (w *docWriter) wrapLines(s string, width float64) int {
	if width <= 0 {
		return 1
	}
	return len(w.wrap(s, width))
}

func (w *docWriter) writeWrapped(s string, width, lineH float64) {
	for _, line := range w.wrap(s, width) {
		w.pdf.CellFormat(width, lineH, line, "", 2, "L", false, 0, "")
	}
}

func (w *docWriter) wrap(s string, width float64) []string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return []string{""}
	}
	space := w.pdf.GetStringWidth(" ")
	var lines []string
	line := words[0]
	lineW := w.pdf.GetStringWidth(words[0])
	for _, word := range words[1:] {
		wordW := w.pdf.GetStringWidth(word)
		if lineW+space+wordW <= width {
			line += " " + word
			lineW += space + wordW
			continue
		}
		lines = append(lines, line)
		line = word
		lineW = wordW
	}
	return append(lines, line)
}
