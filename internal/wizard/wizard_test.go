package wizard

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/dpp-pk/constructor-backend/internal/platform/apierr"
	"github.com/dpp-pk/constructor-backend/internal/program"
)

func patch(t *testing.T, v map[string]any) Patch {
	t.Helper()
	p := Patch{}
	for k, val := range v {
		raw, err := json.Marshal(val)
		if err != nil {
			t.Fatalf("marshal %s: %v", k, err)
		}
		p[k] = raw
	}
	return p
}

func TestMergeKeepsUntouchedKeys(t *testing.T) {
	seed := program.Document{
		Title:   "X",
		Modules: []program.Module{{Section: program.SectionNormative, Name: "m1"}},
	}
	got, err := Merge(seed, patch(t, map[string]any{
		"abbreviations": []map[string]string{{"abbreviation": "a1", "fullname": "A one"}},
	}))
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if got.Title != "X" || len(got.Modules) != 1 || got.Modules[0].Name != "m1" {
		t.Fatalf("seed lost: %+v", got)
	}
	if len(got.Abbreviations) != 1 || got.Abbreviations[0].Abbreviation != "a1" {
		t.Fatalf("abbreviations = %+v", got.Abbreviations)
	}
	if len(seed.Abbreviations) != 0 {
		t.Fatalf("seed mutated")
	}
}

func TestMergeReplacesWholeKey(t *testing.T) {
	seed := program.Document{Explanatory: program.Explanatory{Goal: "g", Relevance: "r"}}
	got, err := Merge(seed, patch(t, map[string]any{"explanatory": map[string]any{"goal": "new"}}))
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if got.Explanatory.Goal != "new" || got.Explanatory.Relevance != "" {
		t.Fatalf("explanatory = %+v", got.Explanatory)
	}
}

func TestMergeNullClears(t *testing.T) {
	seed := program.Document{Title: "X", Topics: []program.Topic{{Name: "t"}}}
	got, err := Merge(seed, Patch{"topics": json.RawMessage("null")})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if len(got.Topics) != 0 || got.Title != "X" {
		t.Fatalf("got %+v", got)
	}
}

func TestMergeRejectsUnknownAndMisshapen(t *testing.T) {
	cases := map[string]Patch{
		"unknown_key":    {"colour": json.RawMessage(`"red"`)},
		"nested_unknown": {"explanatory": json.RawMessage(`{"goal":"g","extra":1}`)},
		"wrong_shape":    {"modules": json.RawMessage(`{"name":"m"}`)},
		"wrong_type":     {"year": json.RawMessage(`"2026"`)},
	}
	for name, p := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Merge(program.Document{}, p)
			if !errors.Is(err, apierr.ErrInvalidArgument) {
				t.Fatalf("err = %v, want invalid argument", err)
			}
		})
	}
}

func TestUpdateRejectsForeignKeys(t *testing.T) {
	w := New(program.Document{})
	err := w.Update(patch(t, map[string]any{"title": "T", "topics": []any{}}))
	if !errors.Is(err, apierr.ErrInvalidArgument) {
		t.Fatalf("err = %v", err)
	}
	if w.Document().Title != "" {
		t.Fatalf("partial update applied")
	}
}

func TestNextValidatesOnlyCurrentStep(t *testing.T) {
	w := New(program.Document{})
	err := w.Next()
	var verr *StepValidationError
	if !errors.As(err, &verr) || verr.Step != StepGeneral {
		t.Fatalf("err = %v", err)
	}
	fields := map[string]bool{}
	for _, f := range verr.Fields {
		fields[f.Field] = true
	}
	if !fields["title"] || !fields["program_type"] || !fields["institution"] {
		t.Fatalf("fields = %+v", verr.Fields)
	}
	if fields["modules"] || fields["explanatory.goal"] {
		t.Fatalf("later steps validated: %+v", verr.Fields)
	}

	if err := w.Update(patch(t, map[string]any{"title": "T", "program_type": "ДПП ПК", "custom_institution": "Школа"})); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := w.Next(); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if w.Current() != StepAbbreviations {
		t.Fatalf("step = %s", w.Current())
	}
}

func TestBackNeverValidates(t *testing.T) {
	w := Restore(State{Step: StepExplanatory.Index()})
	if !w.Back() || w.Current() != StepAbbreviations {
		t.Fatalf("step = %s", w.Current())
	}
	w = New(program.Document{})
	if w.Back() {
		t.Fatalf("Back on first step moved")
	}
}

func TestNextOnPreviewIsLastStep(t *testing.T) {
	w := Restore(State{Step: 99})
	if w.Current() != StepPreview {
		t.Fatalf("step = %s", w.Current())
	}
	if err := w.Next(); !errors.Is(err, ErrLastStep) {
		t.Fatalf("err = %v", err)
	}
}

func TestNetworkPartnerRequiredOnlyWhenEnabled(t *testing.T) {
	w := Restore(State{Step: StepOrganization.Index()})
	if err := w.Update(patch(t, map[string]any{"organization": map[string]any{"staffing": "<p>x</p>"}})); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if verr := w.Validate(); verr != nil {
		t.Fatalf("unexpected: %v", verr)
	}
	if err := w.Update(patch(t, map[string]any{"organization": map[string]any{"staffing": "<p>x</p>", "has_network_partner": true}})); err != nil {
		t.Fatalf("Update: %v", err)
	}
	verr := w.Validate()
	if verr == nil || len(verr.Fields) != 1 || verr.Fields[0].Field != "organization.network_partner" {
		t.Fatalf("verr = %+v", verr)
	}
}

func TestFinishValidatesWholeDocument(t *testing.T) {
	w := New(program.Document{Title: "T", ProgramType: "ДПП", Institution: "ИРО"})
	_, err := w.Finish()
	var verr *StepValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v", err)
	}
	if verr.Step != StepExplanatory {
		t.Fatalf("first failing step = %s", verr.Step)
	}
}

func TestStepForField(t *testing.T) {
	cases := map[string]Step{
		"title":                   StepGeneral,
		"modules[0].name":         StepSyllabus,
		"attestations[1].form":    StepSyllabus,
		"organization.staffing":   StepOrganization,
		"evaluation.requirements": StepEvaluation,
		"nothing":                 StepPreview,
	}
	for path, want := range cases {
		if got := StepForField(path); got != want {
			t.Errorf("StepForField(%q) = %s, want %s", path, got, want)
		}
	}
}
