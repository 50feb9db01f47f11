// Package validate wraps go-playground/validator with JSON field paths and Russian messages.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/dpp-pk/constructor-backend/internal/platform/apierr"
)

var (
	once     sync.Once
	instance *validator.Validate
)

func Instance() *validator.Validate {
	once.Do(func() {
		instance = validator.New()
		instance.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			switch name {
			case "-":
				return ""
			case "":
				return fld.Name
			}
			return name
		})
	})
	return instance
}

// Struct validates v and returns the failures as field errors.
func Struct(v any) []apierr.FieldError {
	return Collect(Instance().Struct(v))
}

// Check is Struct wrapped into an *apierr.ValidationError, or nil.
func Check(v any) error {
	return apierr.Validation(Struct(v))
}

func Collect(err error) []apierr.FieldError {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []apierr.FieldError{{Field: "", Message: err.Error()}}
	}
	out := make([]apierr.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, apierr.FieldError{Field: FieldPath(fe.Namespace()), Message: Message(fe)})
	}
	return out
}

// FieldPath drops the root type name and embedded struct names from a validator namespace.
func FieldPath(ns string) string {
	parts := strings.Split(ns, ".")
	out := make([]string, 0, len(parts))
	for i, p := range parts {
		if i == 0 || p == "Hours" {
			continue
		}
		out = append(out, p)
	}
	return strings.Join(out, ".")
}

func Message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return "обязательное поле"
	case "required_without":
		return "заполните это поле или альтернативное"
	case "email":
		return "некорректный адрес электронной почты"
	case "min":
		switch fe.Kind() {
		case reflect.Slice:
			return fmt.Sprintf("добавьте не менее %s записей", fe.Param())
		case reflect.String:
			return fmt.Sprintf("не короче %s символов", fe.Param())
		}
		return fmt.Sprintf("значение должно быть не меньше %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("не длиннее %s символов", fe.Param())
		}
		return fmt.Sprintf("значение должно быть не больше %s", fe.Param())
	case "oneof":
		return "недопустимое значение"
	case "uuid":
		return "некорректный идентификатор"
	default:
		return fmt.Sprintf("не прошло проверку %q", fe.Tag())
	}
}
