package compose

import (
	"strings"
	"testing"

	"github.com/dpp-pk/constructor-backend/internal/document/layout"
	"github.com/dpp-pk/constructor-backend/internal/document/richtext"
	"github.com/dpp-pk/constructor-backend/internal/program"
)

func fullDocument() *program.Document {
	return &program.Document{
		Title:       "Цифровая грамотность педагога",
		Institution: "ГАОУ ДПО Институт развития образования",
		ProgramType: "Дополнительная профессиональная программа повышения квалификации",
		City:        "Казань",
		Year:        2026,
		Author:      "Иванова И.И.",
		CoAuthors:   []program.CoAuthorRef{{Name: "Петров П.П."}},
		Approval:    &program.Approval{Position: "Ректор", Name: "Сидоров С.С.", Date: "01.09.2026"},
		Abbreviations: []program.Abbreviation{
			{Abbreviation: "ДПП", Fullname: "дополнительная профессиональная программа"},
		},
		Explanatory: program.Explanatory{
			Relevance:        "<p>Программа <b>актуальна</b>.</p>",
			Goal:             "<p>Совершенствование компетенций.</p>",
			AudienceCategory: "учителя",
			Knowledge:        []string{"основы ИКТ"},
			Skills:           []string{"работать с ЭОР"},
			StudyHours:       36,
			StudyForm:        "очно-заочная",
		},
		Modules: []program.Module{
			{Section: program.SectionNormative, Code: "1.1", Name: "Нормативная база", Hours: program.Hours{Lecture: 4, Practice: 2}, ContactDays: 1},
			{Section: program.SectionSubjectMethodical, Code: "2.1", Name: "Цифровые инструменты", Hours: program.Hours{Lecture: 6, Practice: 12, Distance: 6}, ContactDays: 3},
		},
		Attestations: []program.Attestation{
			{Name: "Тест", Hours: program.Hours{Practice: 2}, Form: "тестирование", ModuleCode: "2.1"},
			{Name: "Итоговая аттестация", Hours: program.Hours{Practice: 4}, Form: "защита проекта"},
		},
		Topics: []program.Topic{
			{Name: "Введение", Hours: program.Hours{Lecture: 2}},
			{Name: "Практикум", Hours: program.Hours{Practice: 4}},
		},
		Organization: program.Organization{
			Staffing:  "<p>Преподаватели института.</p>",
			Equipment: []string{"проектор"},
			Literature: program.Literature{
				Required: []string{"Закон об образовании"},
			},
		},
		Evaluation: program.Evaluation{Requirements: "<p>Зачёт по итогам.</p>"},
	}
}

func pageNames(pages []Page) []string {
	out := make([]string, len(pages))
	for i, p := range pages {
		out[i] = p.Name
	}
	return out
}

func TestDefaultTemplatesFullDocument(t *testing.T) {
	pages := NewComposer(nil).Compose(fullDocument(), DefaultTemplates(richtext.NewRenderer(nil)))
	want := []string{"title", "abbreviations", "explanatory", "syllabus", "calendar", "thematic", "evaluation", "organization", "literature"}
	got := pageNames(pages)
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("pages = %v, want %v", got, want)
	}
	if !pages[0].HideNumber {
		t.Fatalf("title page should hide its number")
	}
	if !pages[3].Landscape {
		t.Fatalf("syllabus should be landscape")
	}
	for i, p := range pages {
		if p.Number != i+1 || p.Total != len(want) {
			t.Fatalf("page %q numbered %d/%d", p.Name, p.Number, p.Total)
		}
	}
}

func TestDefaultTemplatesEmptyDocument(t *testing.T) {
	pages := NewComposer(nil).Compose(&program.Document{}, DefaultTemplates(nil))
	if len(pages) != 0 {
		t.Fatalf("empty document produced pages %v", pageNames(pages))
	}
}

func TestSyllabusTotals(t *testing.T) {
	p := buildSyllabus(fullDocument())
	text := layout.PlainText(p.Blocks)
	for _, want := range []string{"Нормативный раздел", "Предметно-методический раздел", "Тест", "Итоговая аттестация", "Итого | 36 | 10 | 20 | 6"} {
		if !strings.Contains(text, want) {
			t.Fatalf("syllabus missing %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "Вариативный раздел") {
		t.Fatalf("empty section rendered:\n%s", text)
	}
	// linked attestation sits after its module and is not repeated at the end
	if strings.Count(text, "Тест") != 1 {
		t.Fatalf("linked attestation repeated:\n%s", text)
	}
}

func TestCalendarSpreadsContactHours(t *testing.T) {
	p := buildCalendar(fullDocument())
	text := layout.PlainText(p.Blocks)
	for _, want := range []string{"День 1 | Нормативная база | 6", "День 2 | Цифровые инструменты | 6", "День 4 | Цифровые инструменты | 6", "дистанционно | Цифровые инструменты | 6"} {
		if !strings.Contains(text, want) {
			t.Fatalf("calendar missing %q:\n%s", want, text)
		}
	}
}

func TestApprovalPageListsExpertises(t *testing.T) {
	doc := fullDocument()
	if buildApproval(doc) != nil {
		t.Fatalf("approval page without expertises")
	}
	doc.Expertises = []program.ExpertiseRef{{ExpertName: "Эксперт Э.Э.", Approved: true, Conclusion: "рекомендуется"}}
	text := layout.PlainText(buildApproval(doc).Blocks)
	if !strings.Contains(text, "Эксперт Э.Э. | одобрено | рекомендуется") {
		t.Fatalf("approval text:\n%s", text)
	}
}

func TestNetworkPartnerOnlyWhenEnabled(t *testing.T) {
	doc := fullDocument()
	doc.Organization.NetworkPartner = "Университет"
	rt := richtext.NewRenderer(nil)
	if strings.Contains(layout.PlainText(buildOrganization(rt, doc).Blocks), "Университет") {
		t.Fatalf("partner shown while disabled")
	}
	doc.Organization.HasNetworkPartner = true
	if !strings.Contains(layout.PlainText(buildOrganization(rt, doc).Blocks), "Университет") {
		t.Fatalf("partner hidden while enabled")
	}
}

func TestHoursLabel(t *testing.T) {
	cases := map[int]string{1: "1 час", 2: "2 часа", 5: "5 часов", 11: "11 часов", 21: "21 час", 36: "36 часов", 72: "72 часа"}
	for n, want := range cases {
		if got := hoursLabel(n); got != want {
			t.Errorf("hoursLabel(%d) = %q, want %q", n, got, want)
		}
	}
}
