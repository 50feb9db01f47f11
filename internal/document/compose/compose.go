// Package compose assembles page templates into a numbered document.
package compose

import (
	"fmt"

	"github.com/dpp-pk/constructor-backend/internal/document/layout"
	"github.com/dpp-pk/constructor-backend/internal/platform/logger"
	"github.com/dpp-pk/constructor-backend/internal/program"
)

type Page struct {
	Name      string
	Title     string
	Blocks    []layout.Block
	Landscape bool
	// HideNumber suppresses the footer number; the page still counts.
	HideNumber bool
	Number     int
	Total      int
}

// Template builds one page from the document, or nil when it has nothing to show.
type Template interface {
	Name() string
	Build(doc *program.Document) *Page
}

// TemplateFunc adapts a function to Template.
type TemplateFunc struct {
	TemplateName string
	BuildFunc    func(doc *program.Document) *Page
}

func (t TemplateFunc) Name() string                      { return t.TemplateName }
func (t TemplateFunc) Build(doc *program.Document) *Page { return t.BuildFunc(doc) }

type Composer struct {
	log *logger.Logger
}

func NewComposer(log *logger.Logger) *Composer {
	if log == nil {
		log = logger.Nop()
	}
	return &Composer{log: log.With("component", "DocumentComposer")}
}

// Compose builds every template in order and numbers the pages that were actually produced,
// so omitted sections never leave gaps.
func (c *Composer) Compose(doc *program.Document, templates []Template) []Page {
	if doc == nil {
		doc = &program.Document{}
	}
	pages := make([]Page, 0, len(templates))
	for _, t := range templates {
		p := c.build(t, doc)
		if p == nil {
			continue
		}
		if p.Name == "" {
			p.Name = t.Name()
		}
		pages = append(pages, *p)
	}
	for i := range pages {
		pages[i].Number = i + 1
		pages[i].Total = len(pages)
	}
	return pages
}

func (c *Composer) build(t Template, doc *program.Document) (page *Page) {
	defer func() {
		if rec := recover(); rec != nil {
			c.log.Warn("page template failed, section omitted", "template", t.Name(), "panic", fmt.Sprint(rec))
			page = nil
		}
	}()
	return t.Build(doc)
}
