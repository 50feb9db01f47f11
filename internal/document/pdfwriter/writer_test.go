package pdfwriter

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/ledongthuc/pdf"

	"github.com/dpp-pk/constructor-backend/internal/document/compose"
	"github.com/dpp-pk/constructor-backend/internal/document/layout"
)

func numPages(t *testing.T, data []byte) int {
	t.Helper()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("read pdf: %v", err)
	}
	return r.NumPage()
}

func write(t *testing.T, pages []compose.Page) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := NewWriter(nil).Write(&buf, pages); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
		t.Fatalf("output is not a pdf")
	}
	return buf.Bytes()
}

func TestWriteOneSheetPerShortPage(t *testing.T) {
	pages := []compose.Page{
		{Name: "title", Title: "Титульный лист", HideNumber: true, Number: 1, Total: 3, Blocks: []layout.Block{
			layout.H(1, "«Цифровая грамотность»"),
			layout.KeyValue{Key: "Ректор", Value: "________ Сидоров С.С."},
			layout.Spacer{Height: 40},
		}},
		{Name: "explanatory", Title: "Пояснительная записка", Number: 2, Total: 3, Blocks: []layout.Block{
			layout.H(2, "Пояснительная записка"),
			layout.Paragraph{Inlines: []layout.Inline{
				layout.Text{Value: "Программа "},
				layout.Text{Value: "актуальна", Bold: true},
				layout.LineBreak{},
				layout.Text{Value: "ссылка", Link: "https://example.org"},
			}},
			layout.List{Ordered: true, Items: []layout.ListItem{
				{Blocks: []layout.Block{layout.P("первый")}},
				{Blocks: []layout.Block{layout.P("второй"), layout.List{Items: []layout.ListItem{{Blocks: []layout.Block{layout.P("вложенный")}}}}}},
			}},
		}},
		{Name: "syllabus", Title: "Учебный план", Landscape: true, Number: 3, Total: 3, Blocks: []layout.Block{
			layout.Table{Columns: layout.Cols("№", "Модуль", "Часы"), Header: true, Rows: []layout.Row{
				layout.TextRow("1", "Нормативная база", "6"),
				{Cells: []layout.Cell{{Text: "Итого", Bold: true, ColSpan: 2}, {Text: "6"}}},
			}},
		}},
	}
	if n := numPages(t, write(t, pages)); n != 3 {
		t.Fatalf("pages = %d, want 3", n)
	}
}

func TestWriteLongTableContinuesOnNextSheet(t *testing.T) {
	rows := make([]layout.Row, 0, 120)
	for i := 0; i < 120; i++ {
		rows = append(rows, layout.TextRow(fmt.Sprint(i+1), "Тема занятия с достаточно длинным названием", "2"))
	}
	pages := []compose.Page{{Name: "thematic", Title: "План", Number: 1, Total: 1, Blocks: []layout.Block{
		layout.Table{Columns: layout.Cols("№", "Тема", "Часы"), Header: true, Rows: rows},
	}}}
	if n := numPages(t, write(t, pages)); n < 2 {
		t.Fatalf("pages = %d, want continuation sheets", n)
	}
}

func TestWriteNoPages(t *testing.T) {
	if n := numPages(t, write(t, nil)); n != 1 {
		t.Fatalf("pages = %d, want a single blank sheet", n)
	}
}

func TestSheetLabel(t *testing.T) {
	if got := SheetLabel(3, 1); got != "3" {
		t.Fatalf("first sheet label = %q", got)
	}
	if got := SheetLabel(3, 2); got != "3-2" {
		t.Fatalf("continuation label = %q", got)
	}
}

func TestDecodeDataURI(t *testing.T) {
	if _, _, err := decodeDataURI("https://example.org/a.png"); err == nil {
		t.Fatalf("remote image accepted")
	}
	kind, data, err := decodeDataURI("data:image/jpeg;base64,AAEC")
	if err != nil || kind != "JPG" || len(data) != 3 {
		t.Fatalf("decode = %q %v %v", kind, data, err)
	}
	if _, _, err := decodeDataURI("data:image/svg+xml;base64,AAEC"); err == nil {
		t.Fatalf("svg accepted")
	}
}
