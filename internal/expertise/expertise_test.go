package expertise

import (
	"encoding/json"
	"errors"
	"testing"

	types "github.com/dpp-pk/constructor-backend/internal/domain"
	"github.com/dpp-pk/constructor-backend/internal/platform/apierr"
)

func TestCatalogShape(t *testing.T) {
	c := DefaultCatalog()
	if c.Len() != 18 {
		t.Fatalf("criteria = %d, want 18", c.Len())
	}
	want := map[string]int{"general": 5, "content": 5, "evaluation": 4, "organization": 4}
	if len(c.Sections) != len(want) {
		t.Fatalf("sections = %d", len(c.Sections))
	}
	for _, s := range c.Sections {
		if len(s.Criteria) != want[s.Key] {
			t.Errorf("section %s has %d criteria, want %d", s.Key, len(s.Criteria), want[s.Key])
		}
	}
}

func TestParseCatalogRejectsDuplicates(t *testing.T) {
	_, err := ParseCatalog([]byte("sections:\n- key: a\n  criteria:\n  - key: x\n  - key: x\n"))
	if err == nil {
		t.Fatalf("duplicate key accepted")
	}
}

func TestFreshFormDefaultsToAffirmed(t *testing.T) {
	f := NewForm(nil, nil)
	for _, k := range DefaultCatalog().Keys() {
		if f.Visible(k) {
			t.Fatalf("%s shows comment inputs on a fresh form", k)
		}
	}
	sub := f.Submission()
	if len(sub.Criteria) != 18 {
		t.Fatalf("submission has %d criteria", len(sub.Criteria))
	}
	for k, ans := range sub.Criteria {
		if _, ok := ans.(Affirmed); !ok {
			t.Fatalf("%s = %#v, want Affirmed", k, ans)
		}
	}
	if VerdictOf(sub) != VerdictApproved {
		t.Fatalf("all affirmed should approve")
	}
}

func TestStaleCommentKeptInDraftButNotSubmitted(t *testing.T) {
	f := NewForm(nil, nil)
	if err := f.Set("staffing", false); err != nil {
		t.Fatal(err)
	}
	if !f.Visible("staffing") {
		t.Fatalf("declined criterion should show inputs")
	}
	if err := f.SetComment("staffing", "X"); err != nil {
		t.Fatal(err)
	}
	if err := f.Set("staffing", true); err != nil {
		t.Fatal(err)
	}
	if c, _ := f.Draft("staffing"); c != "X" {
		t.Fatalf("draft comment = %q", c)
	}
	if _, ok := f.Submission().Criteria["staffing"].(Affirmed); !ok {
		t.Fatalf("toggled-back criterion should submit as Affirmed")
	}

	if err := f.Set("staffing", false); err != nil {
		t.Fatal(err)
	}
	got, ok := f.Submission().Criteria["staffing"].(Declined)
	if !ok || got.Comment != "X" {
		t.Fatalf("restored answer = %#v", f.Submission().Criteria["staffing"])
	}
	if VerdictOf(f.Submission()) != VerdictRejected {
		t.Fatalf("a declined criterion should reject")
	}
}

func TestCommentOnlyWhileDeclined(t *testing.T) {
	f := NewForm(nil, nil)
	if err := f.SetComment("staffing", "x"); !errors.Is(err, ErrNotDeclined) {
		t.Fatalf("err = %v", err)
	}
	if err := f.SetRecommendation("nope", "x"); !errors.Is(err, ErrUnknownCriterion) {
		t.Fatalf("err = %v", err)
	}
}

func TestPriorAnswersAreLoaded(t *testing.T) {
	f := NewForm(nil, Answers{"calendar_plan": Declined{Comment: "нет графика"}})
	if !f.Visible("calendar_plan") || f.Visible("staffing") {
		t.Fatalf("visibility does not follow prior answers")
	}
}

func TestAnswerJSON(t *testing.T) {
	raw, err := json.Marshal(Answers{"a": Affirmed{}, "b": Declined{Comment: "c", Recommendation: "r"}})
	if err != nil {
		t.Fatal(err)
	}
	want := `{"a":{"value":true},"b":{"value":false,"comment":"c","recommendation":"r"}}`
	if string(raw) != want {
		t.Fatalf("json = %s", raw)
	}

	var back Answers
	if err := json.Unmarshal([]byte(`{"a":{"value":true,"comment":"stale"},"b":{"value":false,"comment":" c "}}`), &back); err != nil {
		t.Fatal(err)
	}
	if _, ok := back["a"].(Affirmed); !ok {
		t.Fatalf("a = %#v", back["a"])
	}
	if d, ok := back["b"].(Declined); !ok || d.Comment != "c" {
		t.Fatalf("b = %#v", back["b"])
	}
	if err := json.Unmarshal([]byte(`{"a":{"comment":"x"}}`), &back); err == nil {
		t.Fatalf("missing value accepted")
	}
}

func TestAnswersCheck(t *testing.T) {
	c := DefaultCatalog()
	full := NewForm(c, nil).Submission().Criteria
	if err := full.Check(c); err != nil {
		t.Fatalf("full set: %v", err)
	}
	delete(full, "staffing")
	if err := full.Check(c); err == nil {
		t.Fatalf("missing criterion accepted")
	}
	full["staffing"] = Affirmed{}
	full["bogus"] = Affirmed{}
	if err := full.Check(c); err == nil {
		t.Fatalf("unknown criterion accepted")
	}
}

func TestTransitions(t *testing.T) {
	steps := []struct {
		from   string
		action Action
		to     string
	}{
		{types.ExpertiseStatusPending, ActionSave, types.ExpertiseStatusInProgress},
		{types.ExpertiseStatusInProgress, ActionSubmit, types.ExpertiseStatusCompleted},
		{types.ExpertiseStatusCompleted, ActionReject, types.ExpertiseStatusRejected},
		{types.ExpertiseStatusRejected, ActionSendForRevision, types.ExpertiseStatusRejected},
		{types.ExpertiseStatusRejected, ActionReopen, types.ExpertiseStatusPending},
		{types.ExpertiseStatusCompleted, ActionApprove, types.ExpertiseStatusApproved},
	}
	for _, s := range steps {
		got, err := Transition(s.from, s.action)
		if err != nil || got != s.to {
			t.Errorf("%s --%s--> %q, %v; want %s", s.from, s.action, got, err, s.to)
		}
	}
	if _, err := Transition(types.ExpertiseStatusApproved, ActionSave); !errors.Is(err, apierr.ErrConflict) {
		t.Fatalf("editing an approved expertise: %v", err)
	}
}
