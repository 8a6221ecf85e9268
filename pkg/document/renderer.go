package document

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"proposal-intake-be/internal/pkg/logger"
	"proposal-intake-be/pkg/markup"

	"github.com/go-pdf/fpdf"
)

var errZeroColumns = errors.New("table has no columns")

// Option tweaks a Renderer.
type Option func(*Options)

type Options struct {
	FooterText string
	Author     string
	Compress   bool
	Clock      func() time.Time
}

func WithFooter(text string) Option {
	return func(o *Options) {
		o.FooterText = text
	}
}

func WithAuthor(author string) Option {
	return func(o *Options) {
		o.Author = author
	}
}

// WithoutCompression leaves page streams readable, which tests rely on.
func WithoutCompression() Option {
	return func(o *Options) {
		o.Compress = false
	}
}

func WithClock(clock func() time.Time) Option {
	return func(o *Options) {
		o.Clock = clock
	}
}

// Renderer lays out proposal markup as a paginated A4 PDF.
type Renderer struct {
	opts   Options
	logger logger.ILogger
}

func NewRenderer(logger logger.ILogger, options ...Option) *Renderer {
	opts := Options{
		Compress: true,
		Clock:    time.Now,
	}
	for _, opt := range options {
		opt(&opts)
	}
	return &Renderer{opts: opts, logger: logger}
}

// Render parses markupText and writes the PDF to w. Nothing is written to w
// unless the whole document was produced.
func (r *Renderer) Render(markupText string, w io.Writer) error {
	if strings.TrimSpace(markupText) == "" {
		return NewRenderError(EmptyContent, nil)
	}
	blocks := markup.Parse(markupText)
	if len(blocks) == 0 {
		return NewRenderError(EmptyContent, errors.New("markup produced no blocks"))
	}
	return r.RenderBlocks(blocks, w)
}

func (r *Renderer) RenderBlocks(blocks []markup.Block, w io.Writer) error {
	if len(blocks) == 0 {
		return NewRenderError(EmptyContent, nil)
	}
	return r.render(blocks, w, false)
}

func (r *Renderer) render(blocks []markup.Block, w io.Writer, reduced bool) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("DOCUMENT", "Recovered from layout panic", map[string]interface{}{
				"error": fmt.Sprint(rec),
			})
			err = NewRenderError(Internal, fmt.Errorf("panic: %v", rec))
		}
	}()

	l := r.newLayout()
	if reduced {
		l.headingColor = colorNotice
	}
	for _, b := range blocks {
		if reduced && b.Kind == markup.BlockTable {
			continue
		}
		if err := l.block(b); err != nil {
			return NewRenderError(Internal, err)
		}
	}
	if l.pdf.Err() {
		return NewRenderError(Internal, l.pdf.Error())
	}

	var buf bytes.Buffer
	if err := l.pdf.Output(&buf); err != nil {
		return NewRenderError(Internal, err)
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return NewRenderError(Internal, fmt.Errorf("write document: %w", err))
	}

	r.logger.Debug("DOCUMENT", "Document rendered", map[string]interface{}{
		"blocks": len(blocks),
		"pages":  l.pdf.PageNo(),
		"bytes":  buf.Len(),
	})
	return nil
}

type layout struct {
	pdf          *fpdf.Fpdf
	tr           func(string) string
	headingColor rgb
}

func (r *Renderer) newLayout() *layout {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(marginSide, marginTop, marginSide)
	pdf.SetAutoPageBreak(true, marginBottom)
	pdf.SetCompression(r.opts.Compress)
	pdf.SetCreationDate(r.opts.Clock())
	if r.opts.Author != "" {
		pdf.SetAuthor(r.opts.Author, true)
		pdf.SetCreator(r.opts.Author, true)
	}

	footer := r.opts.FooterText
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont(fontFamily, "", footerSize)
		pdf.SetTextColor(colorFooter.R, colorFooter.G, colorFooter.B)
		text := fmt.Sprintf("Page %d", pdf.PageNo())
		if footer != "" {
			text += " | " + footer
		}
		pdf.CellFormat(0, 6, text, "", 0, "C", false, 0, "")
	})

	pdf.AddPage()
	return &layout{
		pdf:          pdf,
		tr:           pdf.UnicodeTranslatorFromDescriptor(""),
		headingColor: colorAccent,
	}
}

func (l *layout) block(b markup.Block) error {
	switch b.Kind {
	case markup.BlockTitle:
		l.title(b.Text())
	case markup.BlockHeading:
		l.heading(b.Text(), l.headingColor)
	case markup.BlockChecklist:
		l.listItem(b.Spans, true)
	case markup.BlockBullet:
		l.listItem(b.Spans, false)
	case markup.BlockTable:
		return l.table(b)
	default:
		l.paragraph(b.Spans)
	}
	return nil
}

func (l *layout) title(text string) {
	l.pdf.SetFont(fontFamily, "B", titleSize)
	l.pdf.SetTextColor(colorAccent.R, colorAccent.G, colorAccent.B)
	l.pdf.MultiCell(0, 8, l.tr(text), "", "C", false)
	l.pdf.Ln(4)
}

func (l *layout) heading(text string, color rgb) {
	l.pdf.Ln(3)
	l.pdf.SetFont(fontFamily, "B", headingSize)
	l.pdf.SetTextColor(color.R, color.G, color.B)
	l.pdf.MultiCell(0, 7, l.tr(text), "", "L", false)
	l.pdf.Ln(2)
}

func (l *layout) paragraph(spans []markup.Span) {
	l.pdf.SetX(marginSide)
	l.spans(spans)
	l.pdf.Ln(lineHeight + 1.5)
}

func (l *layout) listItem(spans []markup.Span, check bool) {
	left := marginSide + listIndent
	l.pdf.SetX(left)
	if check {
		l.pdf.SetFont("ZapfDingbats", "", bodySize)
		l.pdf.SetTextColor(colorAccent.R, colorAccent.G, colorAccent.B)
		l.pdf.CellFormat(markerWidth, lineHeight, "4", "", 0, "L", false, 0, "")
	} else {
		l.pdf.SetFont(fontFamily, "", bodySize)
		l.pdf.SetTextColor(colorText.R, colorText.G, colorText.B)
		l.pdf.CellFormat(markerWidth, lineHeight, l.tr("•"), "", 0, "L", false, 0, "")
	}

	l.pdf.SetLeftMargin(left + markerWidth)
	l.spans(spans)
	l.pdf.SetLeftMargin(marginSide)
	l.pdf.Ln(lineHeight + 0.5)
}

func (l *layout) spans(spans []markup.Span) {
	l.pdf.SetTextColor(colorText.R, colorText.G, colorText.B)
	for _, s := range spans {
		style := ""
		if s.Bold {
			style = "B"
		}
		l.pdf.SetFont(fontFamily, style, bodySize)
		l.pdf.Write(lineHeight, l.tr(s.Text))
	}
}

// table splits the content width evenly over the columns and repeats the
// header row after every page break.
func (l *layout) table(b markup.Block) error {
	cols := b.Columns()
	if cols == 0 {
		return errZeroColumns
	}
	if cols > markup.MaxTableColumns {
		cols = markup.MaxTableColumns
	}
	colWidth := contentWidth / float64(cols)

	l.pdf.SetDrawColor(colorGrid.R, colorGrid.G, colorGrid.B)
	l.pdf.SetLineWidth(gridWidth)
	l.pdf.Ln(1)

	header := b.Header()
	l.row(header, cols, colWidth, true)
	for _, row := range b.Body() {
		h := l.rowHeight(row, cols, colWidth, false)
		if l.pdf.GetY()+h > pageHeight-marginBottom {
			l.pdf.AddPage()
			l.row(header, cols, colWidth, true)
		}
		l.row(row, cols, colWidth, false)
	}
	l.pdf.Ln(3)
	return nil
}

func (l *layout) cellFont(header bool) {
	if header {
		l.pdf.SetFont(fontFamily, "B", tableHead)
		l.pdf.SetTextColor(colorAccent.R, colorAccent.G, colorAccent.B)
		l.pdf.SetFillColor(colorHeaderFill.R, colorHeaderFill.G, colorHeaderFill.B)
		return
	}
	l.pdf.SetFont(fontFamily, "", tableBody)
	l.pdf.SetTextColor(colorText.R, colorText.G, colorText.B)
}

func (l *layout) rowHeight(row []string, cols int, colWidth float64, header bool) float64 {
	l.cellFont(header)
	maxLines := 1
	for i := 0; i < cols && i < len(row); i++ {
		lines := l.pdf.SplitLines([]byte(l.tr(row[i])), colWidth-2*cellPadding)
		if len(lines) > maxLines {
			maxLines = len(lines)
		}
	}
	return float64(maxLines)*(lineHeight-0.5) + 2*cellPadding
}

func (l *layout) row(row []string, cols int, colWidth float64, header bool) {
	h := l.rowHeight(row, cols, colWidth, header)
	if l.pdf.GetY()+h > pageHeight-marginBottom {
		l.pdf.AddPage()
	}
	l.cellFont(header)

	style := "D"
	if header {
		style = "FD"
	}
	x0, y := marginSide, l.pdf.GetY()
	for i := 0; i < cols; i++ {
		text := ""
		if i < len(row) {
			text = row[i]
		}
		x := x0 + float64(i)*colWidth
		l.pdf.Rect(x, y, colWidth, h, style)
		l.pdf.SetXY(x+cellPadding, y+cellPadding)
		l.pdf.MultiCell(colWidth-2*cellPadding, lineHeight-0.5, l.tr(text), "", "L", false)
	}
	l.pdf.SetXY(x0, y+h)
}
