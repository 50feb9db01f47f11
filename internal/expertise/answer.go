package expertise

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Answer is either Affirmed or Declined. Only a declined criterion carries text.
type Answer interface {
	Value() bool
	isAnswer()
}

type Affirmed struct{}

type Declined struct {
	Comment        string
	Recommendation string
}

func (Affirmed) Value() bool { return true }
func (Declined) Value() bool { return false }
func (Affirmed) isAnswer()   {}
func (Declined) isAnswer()   {}

type answerJSON struct {
	Value          bool   `json:"value"`
	Comment        string `json:"comment,omitempty"`
	Recommendation string `json:"recommendation,omitempty"`
}

func (Affirmed) MarshalJSON() ([]byte, error) {
	return json.Marshal(answerJSON{Value: true})
}

func (d Declined) MarshalJSON() ([]byte, error) {
	return json.Marshal(answerJSON{Value: false, Comment: d.Comment, Recommendation: d.Recommendation})
}

// DecodeAnswer reads the {"value","comment","recommendation"} shape. Text sent alongside
// value=true is dropped.
func DecodeAnswer(raw []byte) (Answer, error) {
	var in struct {
		Value          *bool  `json:"value"`
		Comment        string `json:"comment"`
		Recommendation string `json:"recommendation"`
	}
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, fmt.Errorf("decode criterion answer: %w", err)
	}
	if in.Value == nil {
		return nil, fmt.Errorf("decode criterion answer: value is required")
	}
	if *in.Value {
		return Affirmed{}, nil
	}
	return Declined{Comment: strings.TrimSpace(in.Comment), Recommendation: strings.TrimSpace(in.Recommendation)}, nil
}

// Answers maps criterion keys to answers.
type Answers map[string]Answer

func (a *Answers) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode criteria: %w", err)
	}
	out := make(Answers, len(raw))
	for k, v := range raw {
		ans, err := DecodeAnswer(v)
		if err != nil {
			return fmt.Errorf("criterion %s: %w", k, err)
		}
		out[k] = ans
	}
	*a = out
	return nil
}

// Check reports keys unknown to c and keys of c that are missing.
func (a Answers) Check(c *Catalog) error {
	var unknown, missing []string
	for k := range a {
		if !c.Has(k) {
			unknown = append(unknown, k)
		}
	}
	for _, k := range c.Keys() {
		if _, ok := a[k]; !ok {
			missing = append(missing, k)
		}
	}
	sort.Strings(unknown)
	switch {
	case len(unknown) > 0:
		return fmt.Errorf("unknown criteria: %s", strings.Join(unknown, ", "))
	case len(missing) > 0:
		return fmt.Errorf("missing criteria: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Declined returns the keys answered negatively, in catalog order.
func (a Answers) Declined(c *Catalog) []string {
	var out []string
	for _, k := range c.Keys() {
		if ans, ok := a[k]; ok && !ans.Value() {
			out = append(out, k)
		}
	}
	return out
}
