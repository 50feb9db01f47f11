package compose

import (
	"strconv"

	"github.com/dpp-pk/constructor-backend/internal/document/layout"
	"github.com/dpp-pk/constructor-backend/internal/program"
)

func hoursCells(h program.Hours, bold bool) []layout.Cell {
	return []layout.Cell{
		{Text: strconv.Itoa(h.Total()), Bold: bold, Align: layout.AlignCenter},
		{Text: itoa(h.Lecture), Bold: bold, Align: layout.AlignCenter},
		{Text: itoa(h.Practice), Bold: bold, Align: layout.AlignCenter},
		{Text: itoa(h.Distance), Bold: bold, Align: layout.AlignCenter},
	}
}

func buildSyllabus(doc *program.Document) *Page {
	if len(doc.Modules) == 0 {
		return nil
	}
	t := layout.Table{
		Columns: []layout.Column{
			{Title: "№", Weight: 0.6},
			{Title: "Наименование разделов и модулей", Weight: 5},
			{Title: "Всего, ч", Weight: 1},
			{Title: "Лекции", Weight: 1},
			{Title: "Практика", Weight: 1},
			{Title: "Дистант", Weight: 1},
			{Title: "Форма контроля", Weight: 2},
		},
		Header: true,
	}
	totals := program.ComputeTotals(doc)
	bySection := program.ModulesBySection(doc)
	linked := map[string]bool{}

	for si, section := range program.Sections {
		modules := bySection[section]
		if len(modules) == 0 {
			continue
		}
		row := layout.Row{Cells: []layout.Cell{{Text: strconv.Itoa(si + 1), Bold: true}, {Text: section.Title(), Bold: true}}}
		row.Cells = append(row.Cells, hoursCells(totals.BySection[section], true)...)
		row.Cells = append(row.Cells, layout.Cell{})
		t.Rows = append(t.Rows, row)

		for mi, m := range modules {
			code := m.Code
			if code == "" {
				code = strconv.Itoa(si+1) + "." + strconv.Itoa(mi+1)
			}
			mrow := layout.Row{Cells: []layout.Cell{{Text: code}, {Text: m.Name}}}
			mrow.Cells = append(mrow.Cells, hoursCells(m.Hours, false)...)
			mrow.Cells = append(mrow.Cells, layout.Cell{})
			t.Rows = append(t.Rows, mrow)

			if m.Code == "" {
				continue
			}
			for _, a := range program.AttestationsFor(doc, m.Code) {
				linked[a.Name+"\x00"+a.ModuleCode] = true
				t.Rows = append(t.Rows, attestationRow(a))
			}
		}
	}
	for _, a := range doc.Attestations {
		if linked[a.Name+"\x00"+a.ModuleCode] {
			continue
		}
		t.Rows = append(t.Rows, attestationRow(a))
	}

	total := layout.Row{Cells: []layout.Cell{{}, {Text: "Итого", Bold: true}}}
	total.Cells = append(total.Cells, hoursCells(totals.All(), true)...)
	total.Cells = append(total.Cells, layout.Cell{})
	t.Rows = append(t.Rows, total)

	return &Page{
		Title:     "Учебный план",
		Landscape: true,
		Blocks:    []layout.Block{layout.H(2, "2. Учебный план"), t},
	}
}

func attestationRow(a program.Attestation) layout.Row {
	r := layout.Row{Cells: []layout.Cell{{}, {Text: a.Name}}}
	r.Cells = append(r.Cells, hoursCells(a.Hours, false)...)
	r.Cells = append(r.Cells, layout.Cell{Text: a.Form})
	return r
}

// buildCalendar lays contact days out sequentially across modules. Hours of a module are
// spread evenly over its days with the remainder on the first days.
func buildCalendar(doc *program.Document) *Page {
	t := layout.Table{
		Columns: []layout.Column{{Title: "Учебный день", Weight: 1}, {Title: "Модуль", Weight: 4}, {Title: "Часы", Weight: 1}},
		Header:  true,
	}
	day := 0
	for _, m := range doc.Modules {
		contactHours := m.Lecture + m.Practice
		if m.ContactDays <= 0 {
			if m.Total() > 0 {
				t.Rows = append(t.Rows, layout.TextRow("дистанционно", m.Name, strconv.Itoa(m.Total())))
			}
			continue
		}
		per, rem := contactHours/m.ContactDays, contactHours%m.ContactDays
		for d := 0; d < m.ContactDays; d++ {
			day++
			h := per
			if d < rem {
				h++
			}
			t.Rows = append(t.Rows, layout.TextRow("День "+strconv.Itoa(day), m.Name, strconv.Itoa(h)))
		}
		if m.Distance > 0 {
			t.Rows = append(t.Rows, layout.TextRow("дистанционно", m.Name, strconv.Itoa(m.Distance)))
		}
	}
	if day == 0 {
		return nil
	}
	return &Page{
		Title:  "Календарный учебный график",
		Blocks: []layout.Block{layout.H(2, "3. Календарный учебный график"), t},
	}
}

func buildThematic(doc *program.Document) *Page {
	if len(doc.Topics) == 0 {
		return nil
	}
	t := layout.Table{
		Columns: []layout.Column{
			{Title: "№", Weight: 0.6},
			{Title: "Тема", Weight: 5},
			{Title: "Всего, ч", Weight: 1},
			{Title: "Лекции", Weight: 1},
			{Title: "Практика", Weight: 1},
			{Title: "Дистант", Weight: 1},
		},
		Header: true,
	}
	for i, tp := range doc.Topics {
		r := layout.Row{Cells: []layout.Cell{{Text: strconv.Itoa(i + 1)}, {Text: tp.Name}}}
		r.Cells = append(r.Cells, hoursCells(tp.Hours, false)...)
		t.Rows = append(t.Rows, r)
	}
	total := layout.Row{Cells: []layout.Cell{{}, {Text: "Итого", Bold: true}}}
	total.Cells = append(total.Cells, hoursCells(program.ComputeTotals(doc).Topics, true)...)
	t.Rows = append(t.Rows, total)
	return &Page{
		Title:     "Учебно-тематический план",
		Landscape: true,
		Blocks:    []layout.Block{layout.H(2, "Учебно-тематический план"), t},
	}
}
