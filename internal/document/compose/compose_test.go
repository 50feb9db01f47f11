package compose

import (
	"reflect"
	"testing"

	"github.com/dpp-pk/constructor-backend/internal/document/layout"
	"github.com/dpp-pk/constructor-backend/internal/platform/logger"
	"github.com/dpp-pk/constructor-backend/internal/program"
)

func slot(name string, present bool) Template {
	return TemplateFunc{TemplateName: name, BuildFunc: func(*program.Document) *Page {
		if !present {
			return nil
		}
		return &Page{Title: name, Blocks: []layout.Block{layout.P(name)}}
	}}
}

func numbers(pages []Page) []int {
	out := make([]int, len(pages))
	for i, p := range pages {
		out[i] = p.Number
	}
	return out
}

func TestOmittedSlotsDoNotConsumeNumbers(t *testing.T) {
	templates := []Template{
		slot("s1", true),
		slot("s2", false),
		slot("s3", true),
		slot("s4", false),
		slot("s5", true),
	}
	pages := NewComposer(logger.Nop()).Compose(&program.Document{}, templates)

	if got := numbers(pages); !reflect.DeepEqual(got, []int{1, 2, 3}) {
		t.Fatalf("numbers = %v, want [1 2 3]", got)
	}
	for _, p := range pages {
		if p.Total != 3 {
			t.Fatalf("page %s total = %d, want 3", p.Name, p.Total)
		}
	}
	if pages[1].Name != "s3" || pages[2].Name != "s5" {
		t.Fatalf("unexpected order: %s %s", pages[1].Name, pages[2].Name)
	}
}

func TestPanickingTemplateIsOmitted(t *testing.T) {
	boom := TemplateFunc{TemplateName: "boom", BuildFunc: func(doc *program.Document) *Page {
		_ = doc.Modules[10]
		return &Page{}
	}}
	pages := NewComposer(logger.Nop()).Compose(&program.Document{}, []Template{slot("a", true), boom, slot("b", true)})
	if got := numbers(pages); !reflect.DeepEqual(got, []int{1, 2}) {
		t.Fatalf("numbers = %v, want [1 2]", got)
	}
}

func TestHiddenNumberStillCounts(t *testing.T) {
	cover := TemplateFunc{TemplateName: "cover", BuildFunc: func(*program.Document) *Page {
		return &Page{HideNumber: true}
	}}
	pages := NewComposer(logger.Nop()).Compose(nil, []Template{cover, slot("body", true)})
	if len(pages) != 2 || !pages[0].HideNumber || pages[1].Number != 2 {
		t.Fatalf("unexpected pages: %+v", pages)
	}
}
