package richtext

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/dpp-pk/constructor-backend/internal/document/layout"
	"github.com/dpp-pk/constructor-backend/internal/platform/logger"
)

// Renderer turns editor HTML into layout blocks. Failures never escape Render.
type Renderer struct {
	log *logger.Logger
}

func NewRenderer(log *logger.Logger) *Renderer {
	if log == nil {
		log = logger.Nop()
	}
	return &Renderer{log: log.With("component", "RichTextRenderer")}
}

type inlineStyle struct {
	bold      bool
	italic    bool
	underline bool
	link      string
}

func (r *Renderer) Render(src string) (blocks []layout.Block) {
	if IsBlank(src) {
		return nil
	}
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Warn("rich text render panicked", "panic", fmt.Sprint(rec), "input_len", len(src))
			blocks = nil
		}
	}()
	nodes, err := Parse(Sanitize(src))
	if err != nil {
		r.log.Warn("rich text parse failed", "error", err, "input_len", len(src))
		return nil
	}
	return walkBlocks(nodes)
}

// PlainText renders src and flattens the result.
func (r *Renderer) PlainText(src string) string {
	return layout.PlainText(r.Render(src))
}

// IsBlank reports whether src has no visible content: empty, whitespace, &nbsp; or empty
// editor markers such as <p><br></p>.
func IsBlank(src string) bool {
	if strings.TrimFunc(src, isBlankRune) == "" {
		return true
	}
	nodes, err := Parse(Sanitize(src))
	if err != nil {
		return true
	}
	for _, n := range nodes {
		if hasVisible(n) {
			return false
		}
	}
	return true
}

func isBlankRune(r rune) bool {
	return unicode.IsSpace(r) || r == '\u00a0' || r == '\u200b' || r == '\ufeff'
}

func hasVisible(n *Node) bool {
	if n.Kind == TextNode {
		return strings.TrimFunc(n.Text, isBlankRune) != ""
	}
	if IsImage(n) && n.Attr("src") != "" {
		return true
	}
	for _, c := range n.Children {
		if hasVisible(c) {
			return true
		}
	}
	return false
}

func walkBlocks(nodes []*Node) []layout.Block {
	var (
		out     []layout.Block
		pending []layout.Inline
	)
	flush := func() {
		if p, ok := paragraph(pending, layout.AlignLeft); ok {
			out = append(out, p)
		}
		pending = nil
	}

	for _, n := range nodes {
		if n.Kind == TextNode {
			pending = append(pending, walkInlines([]*Node{n}, inlineStyle{})...)
			continue
		}
		if lvl, ok := HeadingLevel(n); ok {
			flush()
			if inl := trimInlines(walkInlines(n.Children, inlineStyle{bold: true})); len(inl) > 0 {
				out = append(out, layout.Heading{Level: lvl, Inlines: inl})
			}
			continue
		}
		if ordered, ok := ListKind(n); ok {
			flush()
			if l, ok := list(n, ordered); ok {
				out = append(out, l)
			}
			continue
		}
		if IsTable(n) {
			flush()
			if t, ok := table(n); ok {
				out = append(out, t)
			}
			continue
		}
		if IsParagraph(n) {
			flush()
			if hasBlockDescendant(n) {
				out = append(out, walkBlocks(n.Children)...)
				continue
			}
			if p, ok := paragraph(walkInlines(n.Children, inlineStyle{}), layout.AlignLeft); ok {
				out = append(out, p)
			}
			continue
		}
		if IsImage(n) {
			flush()
			if src := n.Attr("src"); src != "" {
				out = append(out, layout.Image{Src: src, Alt: n.Attr("alt")})
			}
			continue
		}
		// Inline markup and unknown tags: unknown containers of block content render
		// their children only.
		if !isInlineTag(n) && hasBlockDescendant(n) {
			flush()
			out = append(out, walkBlocks(n.Children)...)
			continue
		}
		pending = append(pending, walkInlines([]*Node{n}, inlineStyle{})...)
	}
	flush()
	return out
}

func isInlineTag(n *Node) bool {
	return IsBold(n) || IsItalic(n) || IsUnderline(n) || IsLink(n) || IsLineBreak(n)
}

func walkInlines(nodes []*Node, st inlineStyle) []layout.Inline {
	var out []layout.Inline
	for _, n := range nodes {
		switch {
		case n.Kind == TextNode:
			text := collapseSpace(n.Text)
			if text == "" {
				continue
			}
			out = append(out, layout.Text{Value: text, Bold: st.bold, Italic: st.italic, Underline: st.underline, Link: st.link})
		case IsLineBreak(n):
			out = append(out, layout.LineBreak{})
		case IsImage(n):
			if src := n.Attr("src"); src != "" {
				out = append(out, layout.InlineImage{Src: src, Alt: n.Attr("alt")})
			}
		case IsBold(n):
			inner := st
			inner.bold = true
			out = append(out, walkInlines(n.Children, inner)...)
		case IsItalic(n):
			inner := st
			inner.italic = true
			out = append(out, walkInlines(n.Children, inner)...)
		case IsUnderline(n):
			inner := st
			inner.underline = true
			out = append(out, walkInlines(n.Children, inner)...)
		case IsLink(n):
			inner := st
			inner.link = n.Attr("href")
			out = append(out, walkInlines(n.Children, inner)...)
		default:
			out = append(out, walkInlines(n.Children, st)...)
		}
	}
	return out
}

func paragraph(inl []layout.Inline, align layout.Align) (layout.Paragraph, bool) {
	inl = trimInlines(inl)
	if len(inl) == 0 {
		return layout.Paragraph{}, false
	}
	return layout.Paragraph{Inlines: inl, Align: align}, true
}

func list(n *Node, ordered bool) (layout.List, bool) {
	l := layout.List{Ordered: ordered}
	for _, c := range n.Children {
		var blocks []layout.Block
		switch {
		case IsListItem(c):
			blocks = walkBlocks(c.Children)
		case c.Kind == TextNode && strings.TrimFunc(c.Text, isBlankRune) == "":
			continue
		default:
			blocks = walkBlocks([]*Node{c})
		}
		if len(blocks) > 0 {
			l.Items = append(l.Items, layout.ListItem{Blocks: blocks})
		}
	}
	return l, len(l.Items) > 0
}

func table(n *Node) (layout.Table, bool) {
	var rows []*Node
	for _, c := range n.Children {
		switch {
		case IsTableRow(c):
			rows = append(rows, c)
		case isTableSection(c):
			for _, r := range c.Children {
				if IsTableRow(r) {
					rows = append(rows, r)
				}
			}
		}
	}

	t := layout.Table{}
	width := 0
	for i, r := range rows {
		row := layout.Row{}
		allHeader := true
		for _, c := range r.Children {
			if !IsHeaderCell(c) && !IsBodyCell(c) {
				continue
			}
			span, _ := strconv.Atoi(c.Attr("colspan"))
			if span < 1 {
				span = 1
			}
			row.Cells = append(row.Cells, layout.Cell{
				Text:    strings.TrimSpace(layout.PlainText(walkBlocks(c.Children))),
				Bold:    IsHeaderCell(c),
				ColSpan: span,
			})
			allHeader = allHeader && IsHeaderCell(c)
		}
		if len(row.Cells) == 0 {
			continue
		}
		w := 0
		for _, c := range row.Cells {
			w += c.ColSpan
		}
		if w > width {
			width = w
		}
		if i == 0 && allHeader && !t.Header {
			t.Header = true
			for _, c := range row.Cells {
				t.Columns = append(t.Columns, layout.Column{Title: c.Text, Weight: float64(c.ColSpan)})
			}
			continue
		}
		t.Rows = append(t.Rows, row)
	}
	if width == 0 {
		return t, false
	}
	if !t.Header {
		t.Columns = layout.Cols(make([]string, width)...)
	}
	return t, true
}

func collapseSpace(s string) string {
	var b strings.Builder
	space := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			space = true
			continue
		}
		if space {
			b.WriteByte(' ')
			space = false
		}
		b.WriteRune(r)
	}
	if space {
		b.WriteByte(' ')
	}
	return b.String()
}

// trimInlines removes leading and trailing blank text so a run of only whitespace or
// line breaks collapses to nothing.
func trimInlines(inl []layout.Inline) []layout.Inline {
	visible := func(in layout.Inline) bool {
		switch v := in.(type) {
		case layout.Text:
			return strings.TrimFunc(v.Value, isBlankRune) != ""
		case layout.InlineImage:
			return true
		}
		return false
	}
	start, end := 0, len(inl)
	for start < end && !visible(inl[start]) {
		start++
	}
	for end > start && !visible(inl[end-1]) {
		end--
	}
	if start == end {
		return nil
	}
	out := append([]layout.Inline(nil), inl[start:end]...)
	if t, ok := out[0].(layout.Text); ok {
		t.Value = strings.TrimLeftFunc(t.Value, unicode.IsSpace)
		out[0] = t
	}
	if t, ok := out[len(out)-1].(layout.Text); ok {
		t.Value = strings.TrimRightFunc(t.Value, unicode.IsSpace)
		out[len(out)-1] = t
	}
	return out
}
