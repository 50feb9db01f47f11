package preview

import (
	"bytes"
	"image/png"
	"strings"
	"testing"

	"github.com/dpp-pk/constructor-backend/internal/document/compose"
	"github.com/dpp-pk/constructor-backend/internal/document/layout"
)

func TestPNGDimensions(t *testing.T) {
	r, err := NewRenderer(nil, 200)
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	page := compose.Page{Title: "Учебный план", Number: 2, Blocks: []layout.Block{layout.P("Модуль 1")}}

	var buf bytes.Buffer
	if err := r.PNG(&buf, page); err != nil {
		t.Fatalf("PNG: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 200 || b.Dy() != 282 {
		t.Fatalf("portrait size = %v", b)
	}

	page.Landscape = true
	if w, h := r.Size(page); w != 200 || h != 141 {
		t.Fatalf("landscape size = %dx%d", w, h)
	}
}

func TestLongPageIsTruncated(t *testing.T) {
	r, err := NewRenderer(nil, 0)
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	blocks := []layout.Block{}
	for i := 0; i < 500; i++ {
		blocks = append(blocks, layout.P(strings.Repeat("строка ", 20)))
	}
	var buf bytes.Buffer
	if err := r.PNG(&buf, compose.Page{Blocks: blocks}); err != nil {
		t.Fatalf("PNG: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatalf("empty png")
	}
}
