package richtext

import (
	"strings"
	"testing"

	"github.com/dpp-pk/constructor-backend/internal/document/layout"
	"github.com/dpp-pk/constructor-backend/internal/platform/logger"
)

func newRenderer() *Renderer { return NewRenderer(logger.Nop()) }

func TestBlankInputRendersNothing(t *testing.T) {
	for _, in := range []string{
		"",
		"   \n\t",
		"&nbsp;",
		"<p><br></p>",
		"<p>&nbsp;</p><p><br/></p>",
		"<div> <span> </span></div>",
		"<ul><li> </li></ul>",
	} {
		if !IsBlank(in) {
			t.Fatalf("IsBlank(%q) = false", in)
		}
		if got := newRenderer().Render(in); len(got) != 0 {
			t.Fatalf("Render(%q) = %+v, want no blocks", in, got)
		}
	}
	if IsBlank(`<p><img src="https://example.org/a.png"></p>`) {
		t.Fatalf("image-only content is not blank")
	}
}

func TestSanitizeRemovesDangerousElements(t *testing.T) {
	inputs := []string{
		`<script>alert(1)</script><p>ok</p>`,
		`<SCRIPT type="text/javascript">alert(1)</SCRIPT><p>ok</p>`,
		`<ScRiPt>alert(1)</sCrIpT><p>ok</p>`,
		`<style>p{color:red}</style><p>ok</p>`,
		`<iframe src="https://evil.example"></iframe><p>ok</p>`,
		`<object data="x.swf"></object><embed src="x.swf"><p>ok</p>`,
		`<scr<script>ipt>alert(1)</script><p>ok</p>`,
		`<p onclick="alert(1)">ok</p>`,
		`<a href="javascript:alert(1)">ok</a>`,
	}
	for _, in := range inputs {
		out := strings.ToLower(Sanitize(in))
		for _, bad := range []string{"<script", "<style", "<iframe", "<object", "<embed", "onclick", "javascript:"} {
			if strings.Contains(out, bad) {
				t.Fatalf("Sanitize(%q) = %q still contains %q", in, out, bad)
			}
		}
		if !strings.Contains(out, "ok") {
			t.Fatalf("Sanitize(%q) lost safe content: %q", in, out)
		}
	}
	if out := Sanitize(`<script>alert(1)</script>`); strings.Contains(out, "alert") {
		t.Fatalf("script content must be dropped, got %q", out)
	}
}

func TestUnknownTagsRenderChildren(t *testing.T) {
	blocks := newRenderer().Render(`<custom>Привет <b>мир</b></custom><section><p>Абзац</p></section>`)
	text := layout.PlainText(blocks)
	if !strings.Contains(text, "Привет мир") || !strings.Contains(text, "Абзац") {
		t.Fatalf("unknown tag content lost: %q", text)
	}
}

func TestRenderBlocks(t *testing.T) {
	blocks := newRenderer().Render(`
		<h2>Цель</h2>
		<p>Текст <strong>жирный</strong> и <em>курсив</em><br>после переноса <a href="https://example.org">ссылка</a></p>
		<ol><li>первый</li><li>второй<ul><li>вложенный</li></ul></li></ol>
		<table><thead><tr><th>Модуль</th><th>Часы</th></tr></thead><tbody><tr><td>М1</td><td>16</td></tr></tbody></table>
	`)
	if len(blocks) != 4 {
		t.Fatalf("expected 4 blocks, got %d: %+v", len(blocks), blocks)
	}

	h, ok := blocks[0].(layout.Heading)
	if !ok || h.Level != 2 || layout.InlineText(h.Inlines) != "Цель" {
		t.Fatalf("unexpected heading: %+v", blocks[0])
	}

	p, ok := blocks[1].(layout.Paragraph)
	if !ok {
		t.Fatalf("expected paragraph, got %T", blocks[1])
	}
	var bold, italic, link, br bool
	for _, in := range p.Inlines {
		switch v := in.(type) {
		case layout.Text:
			bold = bold || (v.Bold && v.Value == "жирный")
			italic = italic || (v.Italic && v.Value == "курсив")
			link = link || (v.Link == "https://example.org" && v.Value == "ссылка")
		case layout.LineBreak:
			br = true
		}
	}
	if !bold || !italic || !link || !br {
		t.Fatalf("inline marks missing: bold=%v italic=%v link=%v br=%v", bold, italic, link, br)
	}

	l, ok := blocks[2].(layout.List)
	if !ok || !l.Ordered || len(l.Items) != 2 {
		t.Fatalf("unexpected list: %+v", blocks[2])
	}
	nested, ok := l.Items[1].Blocks[1].(layout.List)
	if !ok || nested.Ordered {
		t.Fatalf("nested unordered list missing: %+v", l.Items[1].Blocks)
	}

	tbl, ok := blocks[3].(layout.Table)
	if !ok || !tbl.Header || len(tbl.Columns) != 2 || tbl.Columns[0].Title != "Модуль" || len(tbl.Rows) != 1 || tbl.Rows[0].Cells[1].Text != "16" {
		t.Fatalf("unexpected table: %+v", blocks[3])
	}
}

func TestStrayInlineContentBecomesParagraph(t *testing.T) {
	blocks := newRenderer().Render(`просто текст <i>и курсив</i><p>абзац</p>хвост`)
	if len(blocks) != 3 {
		t.Fatalf("expected 3 blocks, got %+v", blocks)
	}
	for _, b := range blocks {
		if _, ok := b.(layout.Paragraph); !ok {
			t.Fatalf("expected paragraphs, got %T", b)
		}
	}
}

func TestRenderNeverPanicsOnMalformedInput(t *testing.T) {
	for _, in := range []string{
		"<p><b>unclosed",
		"</div></p></li>",
		"<table><td>no row",
		"<ul><p>not an item</p></ul>",
		strings.Repeat("<div>", 500) + "deep",
		"<h7>fake heading</h7>",
	} {
		_ = newRenderer().Render(in)
	}
}

func TestPredicates(t *testing.T) {
	nodes, err := Parse(`<h3>x</h3><ol></ol><ul></ul><strong></strong><em></em><td></td>`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if lvl, ok := HeadingLevel(nodes[0]); !ok || lvl != 3 {
		t.Fatalf("HeadingLevel = %d %v", lvl, ok)
	}
	if ordered, ok := ListKind(nodes[1]); !ok || !ordered {
		t.Fatalf("ol must be ordered")
	}
	if ordered, ok := ListKind(nodes[2]); !ok || ordered {
		t.Fatalf("ul must be unordered")
	}
	if !IsBold(nodes[3]) || !IsItalic(nodes[4]) {
		t.Fatalf("bold/italic predicates failed")
	}
	if _, ok := HeadingLevel(&Node{Kind: TagNode, Name: "hr"}); ok {
		t.Fatalf("hr is not a heading")
	}
}
