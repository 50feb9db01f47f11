// Package pdfwriter prints composed pages to PDF.
package pdfwriter

import (
	"bytes"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/dpp-pk/constructor-backend/internal/document/compose"
	"github.com/dpp-pk/constructor-backend/internal/document/layout"
	"github.com/dpp-pk/constructor-backend/internal/platform/logger"
)

const (
	family = "Go"

	marginLeft   = 25.0
	marginTop    = 15.0
	marginRight  = 15.0
	marginBottom = 20.0

	baseSize   = 11.0
	lineHeight = 5.5
	listIndent = 7.0
	ptToMM     = 0.3528
)

var a4 = fpdf.SizeType{Wd: 210, Ht: 297}

type Writer struct {
	log *logger.Logger
}

func NewWriter(log *logger.Logger) *Writer {
	if log == nil {
		log = logger.Nop()
	}
	return &Writer{log: log.With("component", "PDFWriter")}
}

// sheetState follows the composed page across physical sheets. fpdf runs the footer of the
// previous sheet before the header of the next one, so a new page is only adopted in the header.
type sheetState struct {
	cur   *compose.Page
	next  *compose.Page
	sheet int
}

// SheetLabel is the footer text for the given sheet of a composed page.
func SheetLabel(number, sheet int) string {
	if sheet <= 1 {
		return fmt.Sprintf("%d", number)
	}
	return fmt.Sprintf("%d-%d", number, sheet)
}

func (w *Writer) Write(out io.Writer, pages []compose.Page) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("ДПП ПК", true)
	pdf.SetCreator("constructor-backend", true)
	pdf.AddUTF8FontFromBytes(family, "", goregular.TTF)
	pdf.AddUTF8FontFromBytes(family, "B", gobold.TTF)
	pdf.AddUTF8FontFromBytes(family, "I", goitalic.TTF)
	pdf.AddUTF8FontFromBytes(family, "BI", gobolditalic.TTF)
	pdf.SetMargins(marginLeft, marginTop, marginRight)
	pdf.SetAutoPageBreak(true, marginBottom)

	st := &sheetState{}
	pdf.SetHeaderFunc(func() {
		if st.next != nil {
			st.cur, st.next, st.sheet = st.next, nil, 1
			return
		}
		st.sheet++
	})
	pdf.SetFooterFunc(func() {
		if st.cur == nil || st.cur.HideNumber {
			return
		}
		pdf.SetY(-12)
		pdf.SetFont(family, "", 9)
		pdf.CellFormat(0, 6, SheetLabel(st.cur.Number, st.sheet), "", 0, "C", false, 0, "")
	})

	if len(pages) == 0 {
		pdf.AddPage()
	}
	for i := range pages {
		p := &pages[i]
		st.next = p
		orientation := "P"
		if p.Landscape {
			orientation = "L"
		}
		pdf.AddPageFormat(orientation, a4)
		if p.Title != "" {
			pdf.Bookmark(p.Title, 0, -1)
		}
		r := &pageRenderer{pdf: pdf, log: w.log}
		for _, b := range p.Blocks {
			r.block(b)
		}
		if err := pdf.Error(); err != nil {
			return fmt.Errorf("render page %q: %w", p.Name, err)
		}
	}
	if err := pdf.Output(out); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

type pageRenderer struct {
	pdf    *fpdf.Fpdf
	log    *logger.Logger
	indent float64
}

func (r *pageRenderer) contentWidth() float64 {
	w, _ := r.pdf.GetPageSize()
	return w - marginLeft - marginRight - r.indent
}

func (r *pageRenderer) setIndent(v float64) {
	r.indent = v
	r.pdf.SetLeftMargin(marginLeft + v)
	r.pdf.SetX(marginLeft + v)
}

func alignStr(a layout.Align) string {
	switch a {
	case layout.AlignCenter:
		return "C"
	case layout.AlignRight:
		return "R"
	case layout.AlignJustify:
		return "J"
	default:
		return "L"
	}
}

func styleOf(t layout.Text) string {
	s := ""
	if t.Bold {
		s += "B"
	}
	if t.Italic {
		s += "I"
	}
	if t.Underline || t.Link != "" {
		s += "U"
	}
	return s
}

func (r *pageRenderer) block(b layout.Block) {
	switch v := b.(type) {
	case layout.Heading:
		size := baseSize + 1
		switch v.Level {
		case 1:
			size = 16
		case 2:
			size = 14
		}
		r.pdf.Ln(2)
		r.pdf.SetFont(family, "B", size)
		r.pdf.MultiCell(0, size*ptToMM*1.3, layout.InlineText(v.Inlines), "", alignStr(v.Align), false)
		r.pdf.Ln(1.5)
	case layout.Paragraph:
		r.paragraph(v)
	case layout.List:
		r.list(v)
	case layout.Table:
		r.table(v)
	case layout.Image:
		r.image(v.Src)
	case layout.Spacer:
		r.pdf.Ln(v.Height * ptToMM)
	case layout.KeyValue:
		r.pdf.SetFont(family, "B", baseSize)
		if v.Key != "" {
			r.pdf.Write(lineHeight, v.Key+": ")
		}
		r.pdf.SetFont(family, "", baseSize)
		r.pdf.Write(lineHeight, v.Value)
		r.pdf.Ln(lineHeight + 1)
	}
}

// uniform reports whether every inline is plain text sharing one style.
func uniform(inl []layout.Inline) (string, bool) {
	style, first := "", true
	for _, in := range inl {
		t, ok := in.(layout.Text)
		if !ok || t.Link != "" {
			return "", false
		}
		if first {
			style, first = styleOf(t), false
		} else if styleOf(t) != style {
			return "", false
		}
	}
	return style, true
}

func (r *pageRenderer) paragraph(p layout.Paragraph) {
	if len(p.Inlines) == 0 {
		return
	}
	if style, ok := uniform(p.Inlines); ok {
		r.pdf.SetFont(family, style, baseSize)
		if p.Indent > 0 {
			r.pdf.SetX(r.pdf.GetX() + float64(p.Indent)*listIndent)
		}
		r.pdf.MultiCell(0, lineHeight, layout.InlineText(p.Inlines), "", alignStr(p.Align), false)
		r.pdf.Ln(1)
		return
	}
	for _, in := range p.Inlines {
		switch v := in.(type) {
		case layout.Text:
			r.pdf.SetFont(family, styleOf(v), baseSize)
			if v.Link != "" {
				r.pdf.WriteLinkString(lineHeight, v.Value, v.Link)
			} else {
				r.pdf.Write(lineHeight, v.Value)
			}
		case layout.LineBreak:
			r.pdf.Ln(lineHeight)
		case layout.InlineImage:
			r.pdf.Ln(lineHeight)
			r.image(v.Src)
		}
	}
	r.pdf.Ln(lineHeight + 1)
}

func (r *pageRenderer) list(l layout.List) {
	prev := r.indent
	for i, item := range l.Items {
		marker := "•"
		if l.Ordered {
			marker = fmt.Sprintf("%d.", i+1)
		}
		r.setIndent(prev)
		r.pdf.SetFont(family, "", baseSize)
		r.pdf.CellFormat(listIndent, lineHeight, marker, "", 0, "L", false, 0, "")
		r.setIndent(prev + listIndent)
		r.pdf.SetX(marginLeft + r.indent)
		for _, b := range item.Blocks {
			r.block(b)
		}
	}
	r.setIndent(prev)
	r.pdf.Ln(1)
}

func (r *pageRenderer) columnWidths(t layout.Table) []float64 {
	n := len(t.Columns)
	if n == 0 {
		for _, row := range t.Rows {
			if len(row.Cells) > n {
				n = len(row.Cells)
			}
		}
	}
	if n == 0 {
		return nil
	}
	weights := make([]float64, n)
	sum := 0.0
	for i := range weights {
		weights[i] = 1
		if i < len(t.Columns) && t.Columns[i].Weight > 0 {
			weights[i] = t.Columns[i].Weight
		}
		sum += weights[i]
	}
	total := r.contentWidth()
	out := make([]float64, n)
	for i, wt := range weights {
		out[i] = total * wt / sum
	}
	return out
}

func (r *pageRenderer) table(t layout.Table) {
	widths := r.columnWidths(t)
	if widths == nil {
		return
	}
	var header *layout.Row
	if t.Header && len(t.Columns) > 0 {
		h := layout.Row{}
		for _, c := range t.Columns {
			h.Cells = append(h.Cells, layout.Cell{Text: c.Title, Bold: true, Align: layout.AlignCenter})
		}
		header = &h
		r.row(h, widths, true)
	}
	for _, row := range t.Rows {
		if r.overflows(row, widths) {
			r.pdf.AddPageFormat(r.orientation(), a4)
			if header != nil {
				r.row(*header, widths, true)
			}
		}
		r.row(row, widths, false)
	}
	r.pdf.Ln(2)
}

func (r *pageRenderer) orientation() string {
	w, h := r.pdf.GetPageSize()
	if w > h {
		return "L"
	}
	return "P"
}

type placedCell struct {
	cell  layout.Cell
	width float64
	lines []string
}

func (r *pageRenderer) layoutRow(row layout.Row, widths []float64) ([]placedCell, float64) {
	var out []placedCell
	col, maxLines := 0, 1
	for _, c := range row.Cells {
		if col >= len(widths) {
			break
		}
		span := c.ColSpan
		if span < 1 {
			span = 1
		}
		w := 0.0
		for i := 0; i < span && col < len(widths); i++ {
			w += widths[col]
			col++
		}
		style := ""
		if c.Bold {
			style = "B"
		}
		r.pdf.SetFont(family, style, baseSize-1)
		lines := wrap(r.pdf, c.Text, w-2)
		if len(lines) > maxLines {
			maxLines = len(lines)
		}
		out = append(out, placedCell{cell: c, width: w, lines: lines})
	}
	for ; col < len(widths); col++ {
		out = append(out, placedCell{width: widths[col]})
	}
	return out, float64(maxLines)*(lineHeight-0.5) + 2
}

func (r *pageRenderer) overflows(row layout.Row, widths []float64) bool {
	_, h := r.layoutRow(row, widths)
	_, pageH := r.pdf.GetPageSize()
	return r.pdf.GetY()+h > pageH-marginBottom
}

func (r *pageRenderer) row(row layout.Row, widths []float64, header bool) {
	cells, h := r.layoutRow(row, widths)
	x, y := marginLeft+r.indent, r.pdf.GetY()
	for _, pc := range cells {
		if header {
			r.pdf.SetFillColor(235, 235, 235)
			r.pdf.Rect(x, y, pc.width, h, "FD")
		} else {
			r.pdf.Rect(x, y, pc.width, h, "D")
		}
		style := ""
		if pc.cell.Bold || header {
			style = "B"
		}
		r.pdf.SetFont(family, style, baseSize-1)
		for i, line := range pc.lines {
			r.pdf.SetXY(x+1, y+1+float64(i)*(lineHeight-0.5))
			r.pdf.CellFormat(pc.width-2, lineHeight-0.5, line, "", 0, alignStr(pc.cell.Align), false, 0, "")
		}
		x += pc.width
	}
	r.pdf.SetXY(marginLeft+r.indent, y+h)
}

// wrap breaks text into lines no wider than width using the current font.
func wrap(pdf *fpdf.Fpdf, text string, width float64) []string {
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		cur := words[0]
		for _, word := range words[1:] {
			if pdf.GetStringWidth(cur+" "+word) <= width {
				cur += " " + word
				continue
			}
			lines = append(lines, cur)
			cur = word
		}
		lines = append(lines, cur)
	}
	return lines
}

func (r *pageRenderer) image(src string) {
	kind, data, err := decodeDataURI(src)
	if err != nil {
		r.log.Warn("image skipped", "error", err)
		return
	}
	sum := sha1.Sum(data)
	name := hex.EncodeToString(sum[:])
	info := r.pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: kind, ReadDpi: true}, bytes.NewReader(data))
	if r.pdf.Err() || info == nil {
		r.log.Warn("image skipped", "error", r.pdf.Error())
		r.pdf.ClearError()
		return
	}
	w := info.Width()
	if limit := r.contentWidth(); w > limit {
		w = limit
	}
	r.pdf.ImageOptions(name, marginLeft+r.indent, -1, w, 0, true, fpdf.ImageOptions{ImageType: kind}, 0, "")
	r.pdf.Ln(1)
}

func decodeDataURI(src string) (string, []byte, error) {
	const prefix = "data:image/"
	if !strings.HasPrefix(src, prefix) {
		return "", nil, fmt.Errorf("unsupported image source")
	}
	meta, payload, ok := strings.Cut(src[len(prefix):], ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return "", nil, fmt.Errorf("image is not base64 encoded")
	}
	kind := strings.ToUpper(strings.TrimSuffix(meta, ";base64"))
	switch kind {
	case "JPEG":
		kind = "JPG"
	case "PNG", "JPG", "GIF":
	default:
		return "", nil, fmt.Errorf("unsupported image type %q", kind)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("decode image: %w", err)
	}
	return kind, data, nil
}
