// Package wizard accumulates a program document over a fixed sequence of steps.
package wizard

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dpp-pk/constructor-backend/internal/platform/apierr"
	"github.com/dpp-pk/constructor-backend/internal/program"
)

var ErrLastStep = errors.New("wizard is at its last step")

// StepValidationError carries inline messages for the fields that block a transition.
type StepValidationError struct {
	Step   Step                 `json:"step"`
	Fields []program.FieldError `json:"fields"`
}

func (e *StepValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		names = append(names, f.Field)
	}
	return fmt.Sprintf("step %s has invalid fields: %s", e.Step, strings.Join(names, ", "))
}

func (e *StepValidationError) StepName() string { return string(e.Step) }

func (e *StepValidationError) Unwrap() error { return &apierr.ValidationError{Fields: e.Fields} }

type State struct {
	Step     int              `json:"step"`
	Document program.Document `json:"document"`
}

type Wizard struct {
	state State
}

func New(doc program.Document) *Wizard {
	return &Wizard{state: State{Document: doc}}
}

// Restore resumes a saved state, clamping an out of range step.
func Restore(st State) *Wizard {
	if st.Step < 0 {
		st.Step = 0
	}
	if st.Step >= len(Steps) {
		st.Step = len(Steps) - 1
	}
	return &Wizard{state: st}
}

func (w *Wizard) State() State { return w.state }

func (w *Wizard) Current() Step { return Steps[w.state.Step] }

func (w *Wizard) Document() program.Document { return w.state.Document }

// Update merges patch into the document. Keys owned by other steps are rejected.
func (w *Wizard) Update(patch Patch) error {
	step := w.Current()
	var foreign []string
	for _, k := range patch.Keys() {
		if !step.owns(k) {
			foreign = append(foreign, k)
		}
	}
	if len(foreign) > 0 {
		return apierr.Invalid("foreign_keys", fmt.Sprintf("step %s does not own %s", step, strings.Join(foreign, ", ")))
	}
	doc, err := Merge(w.state.Document, patch)
	if err != nil {
		return err
	}
	w.state.Document = doc
	return nil
}

// Validate checks the current step's fields only.
func (w *Wizard) Validate() *StepValidationError {
	step := w.Current()
	fields := defs[step].fields
	if len(fields) == 0 {
		return nil
	}
	if errs := program.ValidateFields(&w.state.Document, fields...); len(errs) > 0 {
		return &StepValidationError{Step: step, Fields: errs}
	}
	return nil
}

// Next validates the current step and advances.
func (w *Wizard) Next() error {
	if w.state.Step >= len(Steps)-1 {
		return ErrLastStep
	}
	if verr := w.Validate(); verr != nil {
		return verr
	}
	w.state.Step++
	return nil
}

// Back returns to the previous step without validating. It reports false on the first step.
func (w *Wizard) Back() bool {
	if w.state.Step == 0 {
		return false
	}
	w.state.Step--
	return true
}

// Finish validates the whole document once. On failure the error names the earliest step
// holding an invalid field.
func (w *Wizard) Finish() (program.Document, error) {
	errs := program.Validate(&w.state.Document)
	if len(errs) == 0 {
		return w.state.Document, nil
	}
	first := StepPreview
	for _, fe := range errs {
		if s := StepForField(fe.Field); s.Index() < first.Index() {
			first = s
		}
	}
	return w.state.Document, &StepValidationError{Step: first, Fields: errs}
}
