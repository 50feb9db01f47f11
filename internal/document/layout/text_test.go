package layout

import "testing"

func TestPlainTextDistinguishesListKinds(t *testing.T) {
	blocks := []Block{
		H(1, "Заголовок"),
		List{Ordered: true, Items: []ListItem{
			{Blocks: []Block{P("один")}},
			{Blocks: []Block{P("два"), List{Items: []ListItem{{Blocks: []Block{P("вложенный")}}}}}},
		}},
		Table{Columns: Cols("A", "B"), Header: true, Rows: []Row{TextRow("1", "2")}},
	}
	want := "Заголовок\n1. один\n2. два\n  • вложенный\nA | B\n1 | 2"
	if got := PlainText(blocks); got != want {
		t.Fatalf("PlainText =\n%q\nwant\n%q", got, want)
	}
}

func TestCenter(t *testing.T) {
	if p := Center(P("x")).(Paragraph); p.Align != AlignCenter {
		t.Fatalf("paragraph not centered")
	}
	if _, ok := Center(Spacer{}).(Spacer); !ok {
		t.Fatalf("spacer must pass through")
	}
}
