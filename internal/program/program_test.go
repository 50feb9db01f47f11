package program

import (
	"strings"
	"testing"
)

func validDocument() *Document {
	return &Document{
		Title:       "Цифровая образовательная среда",
		Institution: "ГАУ ДПО ИРО",
		ProgramType: "ДПП ПК",
		Explanatory: Explanatory{Relevance: "<p>Актуально</p>", Goal: "Совершенствование компетенций", AudienceCategory: "Учителя"},
		Modules: []Module{
			{Section: SectionNormative, Code: "М1", Name: "Нормативная база", Hours: Hours{Lecture: 2, Practice: 2}, ContactDays: 1},
			{Section: SectionSubjectMethodical, Code: "М2", Name: "Методика", Hours: Hours{Lecture: 4, Practice: 10, Distance: 6}, ContactDays: 2},
		},
		Attestations: []Attestation{{Name: "Итоговая аттестация", Hours: Hours{Practice: 2}, Form: "зачет"}},
		Organization: Organization{Staffing: "<p>Преподаватели</p>"},
		Evaluation:   Evaluation{Requirements: "<p>Требования</p>"},
	}
}

func TestValidateAcceptsCompleteDocument(t *testing.T) {
	if errs := Validate(validDocument()); len(errs) != 0 {
		t.Fatalf("unexpected errors: %+v", errs)
	}
}

func TestValidateReportsJSONPaths(t *testing.T) {
	doc := validDocument()
	doc.Title = ""
	doc.Modules[1].Lecture = -1
	doc.Organization.HasNetworkPartner = true

	errs := Validate(doc)
	got := map[string]bool{}
	for _, e := range errs {
		got[e.Field] = true
	}
	for _, want := range []string{"title", "modules[1].lecture_hours", "organization.network_partner"} {
		if !got[want] {
			t.Fatalf("missing error for %q in %+v", want, errs)
		}
	}
}

func TestValidateFieldsIsPartial(t *testing.T) {
	doc := &Document{Title: "X"}
	if errs := ValidateFields(doc, "Title"); len(errs) != 0 {
		t.Fatalf("unexpected errors: %+v", errs)
	}
	errs := ValidateFields(doc, "Explanatory.Goal")
	if len(errs) != 1 || errs[0].Field != "explanatory.goal" {
		t.Fatalf("unexpected errors: %+v", errs)
	}
}

func TestInstitutionRequiresOneOfTwo(t *testing.T) {
	doc := validDocument()
	doc.Institution = ""
	if errs := ValidateFields(doc, "Institution"); len(errs) != 1 {
		t.Fatalf("expected institution error, got %+v", errs)
	}
	doc.CustomInstitution = "Школа №1"
	if errs := ValidateFields(doc, "Institution"); len(errs) != 0 {
		t.Fatalf("custom name must satisfy institution: %+v", errs)
	}
	if doc.InstitutionName() != "Школа №1" {
		t.Fatalf("InstitutionName = %q", doc.InstitutionName())
	}
}

func TestComputeTotals(t *testing.T) {
	tot := ComputeTotals(validDocument())
	if tot.Modules.Total() != 24 || tot.Attestations.Total() != 2 || tot.All().Total() != 26 {
		t.Fatalf("unexpected totals: %+v", tot)
	}
	if tot.BySection[SectionSubjectMethodical].Distance != 6 || tot.ContactDays != 3 {
		t.Fatalf("unexpected section totals: %+v", tot.BySection)
	}
}

func TestDecodeRejectsUnknownKeys(t *testing.T) {
	if _, err := Decode([]byte(`{"title":"X","modulez":[]}`)); err == nil || !strings.Contains(err.Error(), "modulez") {
		t.Fatalf("expected unknown field error, got %v", err)
	}
	doc, err := Decode([]byte(`{"title":"X","modules":[{"section":"variative","name":"M","lecture_hours":3}]}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if doc.Modules[0].Lecture != 3 {
		t.Fatalf("embedded hours not decoded: %+v", doc.Modules[0])
	}
}

func TestValidateFieldsDivesIntoNamedSlices(t *testing.T) {
	doc := &Document{Modules: []Module{
		{Section: SectionVariative, Name: "ok"},
		{Section: "other", Name: "", Hours: Hours{Practice: -2}},
	}}
	errs := ValidateFields(doc, "Modules")
	got := map[string]bool{}
	for _, e := range errs {
		got[e.Field] = true
	}
	for _, want := range []string{"modules[1].section", "modules[1].name", "modules[1].practice_hours"} {
		if !got[want] {
			t.Fatalf("missing %q in %+v", want, errs)
		}
	}
	if got["modules[0].name"] {
		t.Fatalf("valid element reported: %+v", errs)
	}
}
