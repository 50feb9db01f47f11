package compose

import (
	"github.com/dpp-pk/constructor-backend/internal/document/layout"
	"github.com/dpp-pk/constructor-backend/internal/document/richtext"
	"github.com/dpp-pk/constructor-backend/internal/program"
)

func buildEvaluation(rt *richtext.Renderer, doc *program.Document) *Page {
	e := doc.Evaluation
	var body []layout.Block
	body = append(body, richSection(rt, "Требования к результатам освоения", e.Requirements)...)
	body = append(body, richSection(rt, "Критерии оценивания", e.Criteria)...)
	body = append(body, richSection(rt, "Примеры оценочных материалов", e.Examples)...)
	body = append(body, richSection(rt, "Количество попыток", e.Attempts)...)
	if len(body) == 0 {
		return nil
	}
	return &Page{
		Title:  "Оценка качества освоения программы",
		Blocks: append([]layout.Block{layout.H(2, "4. Оценка качества освоения программы")}, body...),
	}
}

func buildOrganization(rt *richtext.Renderer, doc *program.Document) *Page {
	o := doc.Organization
	var body []layout.Block
	body = append(body, richSection(rt, "Кадровое обеспечение", o.Staffing)...)
	body = append(body, richSection(rt, "Учебно-методическое обеспечение", o.Methodical)...)
	body = append(body, richSection(rt, "Материально-техническое обеспечение", o.Material)...)
	body = append(body, listSection("Оборудование", o.Equipment, false)...)
	body = append(body, listSection("Программное обеспечение", o.Software, false)...)
	body = append(body, richSection(rt, "Дистанционные образовательные технологии", o.Distance)...)
	if o.HasNetworkPartner {
		body = append(body, textSection("Сетевая форма реализации", o.NetworkPartner)...)
	}
	if len(body) == 0 {
		return nil
	}
	return &Page{
		Title:  "Организационно-педагогические условия",
		Blocks: append([]layout.Block{layout.H(2, "5. Организационно-педагогические условия")}, body...),
	}
}

func buildLiterature(doc *program.Document) *Page {
	lit := doc.Organization.Literature
	if lit.Empty() {
		return nil
	}
	var body []layout.Block
	body = append(body, listSection("Основная литература", lit.Required, true)...)
	body = append(body, listSection("Дополнительная литература", lit.Additional, true)...)
	body = append(body, listSection("Интернет-ресурсы", lit.Internet, true)...)
	if len(body) == 0 {
		return nil
	}
	return &Page{
		Title:  "Список литературы",
		Blocks: append([]layout.Block{layout.H(2, "Список литературы")}, body...),
	}
}
