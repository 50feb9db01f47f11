package validate

import (
	"errors"
	"testing"

	"github.com/dpp-pk/constructor-backend/internal/platform/apierr"
)

type loginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Nested   struct {
		Code string `json:"code" validate:"required"`
	} `json:"nested"`
}

func TestStructUsesJSONPaths(t *testing.T) {
	in := loginInput{Email: "not-an-email", Password: "short"}
	got := map[string]string{}
	for _, fe := range Struct(in) {
		got[fe.Field] = fe.Message
	}
	want := map[string]string{
		"email":       "некорректный адрес электронной почты",
		"password":    "не короче 8 символов",
		"nested.code": "обязательное поле",
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s: got %q want %q", k, got[k], v)
		}
	}
}

func TestCheck(t *testing.T) {
	in := loginInput{Email: "a@b.ru", Password: "long enough"}
	in.Nested.Code = "x"
	if err := Check(in); err != nil {
		t.Fatalf("valid input: %v", err)
	}
	var verr *apierr.ValidationError
	if err := Check(loginInput{}); !errors.As(err, &verr) || len(verr.Fields) != 3 {
		t.Fatalf("err = %v", err)
	}
}
