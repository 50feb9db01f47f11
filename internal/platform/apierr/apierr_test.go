package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatusOf(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		wantCode int
		wantStr  string
	}{
		{"typed", New(http.StatusTeapot, "brew", nil), http.StatusTeapot, "brew"},
		{"typed_no_code", New(http.StatusConflict, "", nil), http.StatusConflict, "Conflict"},
		{"wrapped_typed", fmt.Errorf("outer: %w", NotFound("program")), http.StatusNotFound, "not_found"},
		{"sentinel", fmt.Errorf("x: %w", ErrForbidden), http.StatusForbidden, "forbidden"},
		{"plain", errors.New("boom"), http.StatusInternalServerError, "internal"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, code := StatusOf(tc.err)
			if status != tc.wantCode || code != tc.wantStr {
				t.Fatalf("StatusOf: got=(%d,%q) want=(%d,%q)", status, code, tc.wantCode, tc.wantStr)
			}
		})
	}
}

func TestHelpersWrapSentinels(t *testing.T) {
	if !errors.Is(NotFound("user"), ErrNotFound) {
		t.Fatalf("NotFound should wrap ErrNotFound")
	}
	if !errors.Is(Invalid("bad", "nope"), ErrInvalidArgument) {
		t.Fatalf("Invalid should wrap ErrInvalidArgument")
	}
	if !errors.Is(Conflict("dup", "exists"), ErrConflict) {
		t.Fatalf("Conflict should wrap ErrConflict")
	}
}

func TestValidationMapsTo422(t *testing.T) {
	if Validation(nil) != nil {
		t.Fatalf("empty field list should be nil")
	}
	err := fmt.Errorf("save: %w", Validation([]FieldError{{Field: "title", Message: "обязательное поле"}}))
	status, code := StatusOf(err)
	if status != http.StatusUnprocessableEntity || code != "validation_failed" {
		t.Fatalf("StatusOf = (%d,%q)", status, code)
	}
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("validation error should wrap ErrInvalidArgument")
	}
}
