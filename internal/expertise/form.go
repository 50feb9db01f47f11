package expertise

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownCriterion = errors.New("unknown criterion")
	ErrNotDeclined      = errors.New("criterion is not declined")
)

type draft struct {
	value          bool
	comment        string
	recommendation string
}

// Form is the expert's working copy. Text typed for a declined criterion survives toggling
// the criterion back and forth but only reaches the Submission while it is declined.
type Form struct {
	catalog *Catalog
	entries map[string]*draft

	AdditionalRecommendation string
	Conclusion               string
	Feedback                 string
}

// NewForm opens a form over prior answers. Criteria without a prior answer start affirmed.
func NewForm(c *Catalog, prior Answers) *Form {
	if c == nil {
		c = DefaultCatalog()
	}
	f := &Form{catalog: c, entries: make(map[string]*draft, c.Len())}
	for _, k := range c.Keys() {
		d := &draft{value: true}
		if ans, ok := prior[k]; ok {
			if dec, ok := ans.(Declined); ok {
				d = &draft{value: false, comment: dec.Comment, recommendation: dec.Recommendation}
			}
		}
		f.entries[k] = d
	}
	return f
}

func (f *Form) entry(key string) (*draft, error) {
	d, ok := f.entries[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCriterion, key)
	}
	return d, nil
}

func (f *Form) Set(key string, value bool) error {
	d, err := f.entry(key)
	if err != nil {
		return err
	}
	d.value = value
	return nil
}

func (f *Form) SetComment(key, text string) error {
	d, err := f.entry(key)
	if err != nil {
		return err
	}
	if d.value {
		return fmt.Errorf("%w: %s", ErrNotDeclined, key)
	}
	d.comment = strings.TrimSpace(text)
	return nil
}

func (f *Form) SetRecommendation(key, text string) error {
	d, err := f.entry(key)
	if err != nil {
		return err
	}
	if d.value {
		return fmt.Errorf("%w: %s", ErrNotDeclined, key)
	}
	d.recommendation = strings.TrimSpace(text)
	return nil
}

// Visible reports whether the comment and recommendation inputs are shown for key.
func (f *Form) Visible(key string) bool {
	d, ok := f.entries[key]
	return ok && !d.value
}

// Draft returns the text kept for key, shown or not.
func (f *Form) Draft(key string) (comment, recommendation string) {
	if d, ok := f.entries[key]; ok {
		return d.comment, d.recommendation
	}
	return "", ""
}

func (f *Form) Answer(key string) (Answer, bool) {
	d, ok := f.entries[key]
	if !ok {
		return nil, false
	}
	if d.value {
		return Affirmed{}, true
	}
	return Declined{Comment: d.comment, Recommendation: d.recommendation}, true
}

// Apply copies answers onto the form. Unknown keys fail before anything changes.
func (f *Form) Apply(answers Answers) error {
	for k := range answers {
		if !f.catalog.Has(k) {
			return fmt.Errorf("%w: %s", ErrUnknownCriterion, k)
		}
	}
	for k, ans := range answers {
		d := f.entries[k]
		switch v := ans.(type) {
		case Declined:
			d.value, d.comment, d.recommendation = false, v.Comment, v.Recommendation
		default:
			d.value = true
		}
	}
	return nil
}

// Submission is the payload sent when the expert finishes the review.
type Submission struct {
	Criteria                 Answers `json:"criteria"`
	AdditionalRecommendation string  `json:"additional_recommendation,omitempty"`
	Conclusion               string  `json:"conclusion,omitempty"`
	Feedback                 string  `json:"feedback,omitempty"`
}

// Submission always carries every catalog criterion.
func (f *Form) Submission() Submission {
	out := Submission{
		Criteria:                 make(Answers, len(f.entries)),
		AdditionalRecommendation: strings.TrimSpace(f.AdditionalRecommendation),
		Conclusion:               strings.TrimSpace(f.Conclusion),
		Feedback:                 strings.TrimSpace(f.Feedback),
	}
	for _, k := range f.catalog.Keys() {
		out.Criteria[k], _ = f.Answer(k)
	}
	return out
}

type Verdict string

const (
	VerdictApproved Verdict = "approved"
	VerdictRejected Verdict = "rejected"
)

// VerdictOf approves only when every criterion is affirmed.
func VerdictOf(sub Submission) Verdict {
	for _, ans := range sub.Criteria {
		if ans == nil || !ans.Value() {
			return VerdictRejected
		}
	}
	return VerdictApproved
}
