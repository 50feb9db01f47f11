package compose

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dpp-pk/constructor-backend/internal/document/layout"
	"github.com/dpp-pk/constructor-backend/internal/document/richtext"
	"github.com/dpp-pk/constructor-backend/internal/program"
)

// DefaultTemplates returns the program pages in document order.
func DefaultTemplates(rt *richtext.Renderer) []Template {
	if rt == nil {
		rt = richtext.NewRenderer(nil)
	}
	return []Template{
		TemplateFunc{"title", buildTitle},
		TemplateFunc{"approval", buildApproval},
		TemplateFunc{"abbreviations", buildAbbreviations},
		TemplateFunc{"explanatory", func(doc *program.Document) *Page { return buildExplanatory(rt, doc) }},
		TemplateFunc{"syllabus", buildSyllabus},
		TemplateFunc{"calendar", buildCalendar},
		TemplateFunc{"thematic", buildThematic},
		TemplateFunc{"evaluation", func(doc *program.Document) *Page { return buildEvaluation(rt, doc) }},
		TemplateFunc{"organization", func(doc *program.Document) *Page { return buildOrganization(rt, doc) }},
		TemplateFunc{"literature", buildLiterature},
	}
}

// richSection renders a titled rich-text field, or nothing when the field is blank.
func richSection(rt *richtext.Renderer, title, html string) []layout.Block {
	body := rt.Render(html)
	if len(body) == 0 {
		return nil
	}
	return append([]layout.Block{layout.H(3, title)}, body...)
}

func textSection(title, text string) []layout.Block {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	return []layout.Block{layout.H(3, title), layout.P(text)}
}

func listSection(title string, items []string, ordered bool) []layout.Block {
	l := layout.List{Ordered: ordered}
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			l.Items = append(l.Items, layout.ListItem{Blocks: []layout.Block{layout.P(it)}})
		}
	}
	if len(l.Items) == 0 {
		return nil
	}
	return []layout.Block{layout.H(3, title), l}
}

func hoursLabel(n int) string {
	mod10, mod100 := n%10, n%100
	switch {
	case mod10 == 1 && mod100 != 11:
		return fmt.Sprintf("%d час", n)
	case mod10 >= 2 && mod10 <= 4 && (mod100 < 12 || mod100 > 14):
		return fmt.Sprintf("%d часа", n)
	default:
		return fmt.Sprintf("%d часов", n)
	}
}

func itoa(n int) string {
	if n == 0 {
		return "—"
	}
	return strconv.Itoa(n)
}

func buildTitle(doc *program.Document) *Page {
	if strings.TrimSpace(doc.Title) == "" {
		return nil
	}
	blocks := []layout.Block{}
	if inst := doc.InstitutionName(); inst != "" {
		blocks = append(blocks, layout.Center(layout.Bold(inst)), layout.Spacer{Height: 20})
	}
	if a := doc.Approval; a != nil && (a.Name != "" || a.Position != "") {
		blocks = append(blocks,
			layout.Paragraph{Inlines: []layout.Inline{layout.Text{Value: "УТВЕРЖДАЮ", Bold: true}}, Align: layout.AlignRight},
			layout.KeyValue{Key: a.Position, Value: "________________ " + a.Name},
		)
		if a.Date != "" {
			blocks = append(blocks, layout.Paragraph{Inlines: []layout.Inline{layout.Text{Value: a.Date}}, Align: layout.AlignRight})
		}
	}
	kind := doc.ProgramType
	if kind == "" {
		kind = "Дополнительная профессиональная программа повышения квалификации"
	}
	blocks = append(blocks,
		layout.Spacer{Height: 60},
		layout.Center(layout.P(kind)),
		layout.H(1, "«"+strings.TrimSpace(doc.Title)+"»"),
	)
	if doc.Explanatory.AudienceCategory != "" {
		blocks = append(blocks, layout.Center(layout.P("Категория слушателей: "+doc.Explanatory.AudienceCategory)))
	}
	hours := doc.Explanatory.StudyHours
	if hours == 0 {
		hours = program.ComputeTotals(doc).All().Total()
	}
	if hours > 0 {
		blocks = append(blocks, layout.Center(layout.P("Объём программы: "+hoursLabel(hours))))
	}
	var authors []string
	if doc.Author != "" {
		authors = append(authors, doc.Author)
	}
	for _, ca := range doc.CoAuthors {
		if ca.Name != "" {
			authors = append(authors, ca.Name)
		}
	}
	if len(authors) > 0 {
		blocks = append(blocks, layout.Spacer{Height: 40}, layout.KeyValue{Key: "Авторы-составители", Value: strings.Join(authors, ", ")})
	}
	footer := strings.TrimSpace(strings.Join([]string{doc.City, yearString(doc.Year)}, " "))
	if footer != "" {
		blocks = append(blocks, layout.Spacer{Height: 80}, layout.Center(layout.P(footer)))
	}
	return &Page{Title: "Титульный лист", Blocks: blocks, HideNumber: true}
}

func yearString(y int) string {
	if y == 0 {
		return ""
	}
	return strconv.Itoa(y)
}

func buildApproval(doc *program.Document) *Page {
	if len(doc.Expertises) == 0 {
		return nil
	}
	t := layout.Table{
		Columns: []layout.Column{{Title: "Эксперт", Weight: 2}, {Title: "Решение", Weight: 1}, {Title: "Заключение", Weight: 3}, {Title: "Дата", Weight: 1}},
		Header:  true,
	}
	for _, e := range doc.Expertises {
		verdict := "на доработку"
		if e.Approved {
			verdict = "одобрено"
		}
		date := ""
		if e.CompletedAt != nil {
			date = e.CompletedAt.Format("02.01.2006")
		}
		t.Rows = append(t.Rows, layout.TextRow(e.ExpertName, verdict, e.Conclusion, date))
	}
	return &Page{Title: "Лист согласования", Blocks: []layout.Block{layout.H(2, "Лист согласования"), t}}
}

func buildAbbreviations(doc *program.Document) *Page {
	t := layout.Table{Columns: []layout.Column{{Title: "Сокращение", Weight: 1}, {Title: "Полное наименование", Weight: 3}}, Header: true}
	for _, a := range doc.Abbreviations {
		if strings.TrimSpace(a.Abbreviation) == "" {
			continue
		}
		t.Rows = append(t.Rows, layout.Row{Cells: []layout.Cell{{Text: a.Abbreviation, Bold: true}, {Text: a.Fullname}}})
	}
	if len(t.Rows) == 0 {
		return nil
	}
	return &Page{Title: "Список сокращений", Blocks: []layout.Block{layout.H(2, "Список сокращений"), t}}
}

func buildExplanatory(rt *richtext.Renderer, doc *program.Document) *Page {
	e := doc.Explanatory
	var body []layout.Block
	body = append(body, richSection(rt, "Актуальность программы", e.Relevance)...)
	body = append(body, richSection(rt, "Цель программы", e.Goal)...)
	body = append(body, textSection("Нормативная основа", e.StandardType)...)
	body = append(body, richSection(rt, "Трудовые функции", e.LaborFunctions)...)
	body = append(body, richSection(rt, "Трудовые действия", e.LaborActions)...)
	body = append(body, richSection(rt, "Должностные обязанности", e.Duties)...)
	body = append(body, listSection("Слушатель должен знать", e.Knowledge, false)...)
	body = append(body, listSection("Слушатель должен уметь", e.Skills, false)...)
	body = append(body, textSection("Категория слушателей", e.AudienceCategory)...)
	if e.StudyHours > 0 || e.StudyForm != "" {
		term := []string{}
		if e.StudyHours > 0 {
			term = append(term, hoursLabel(e.StudyHours))
		}
		if e.StudyForm != "" {
			term = append(term, "форма обучения: "+e.StudyForm)
		}
		body = append(body, textSection("Срок освоения", strings.Join(term, ", "))...)
	}
	if len(body) == 0 {
		return nil
	}
	return &Page{Title: "Пояснительная записка", Blocks: append([]layout.Block{layout.H(2, "1. Пояснительная записка")}, body...)}
}
