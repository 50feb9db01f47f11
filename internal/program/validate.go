package program

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/dpp-pk/constructor-backend/internal/platform/apierr"
	"github.com/dpp-pk/constructor-backend/internal/platform/validate"
)

type FieldError = apierr.FieldError

// Validate checks the whole document.
func Validate(doc *Document) []FieldError {
	if doc == nil {
		return []FieldError{{Field: "", Message: "документ отсутствует"}}
	}
	return validate.Struct(doc)
}

// ValidateFields checks only the named struct fields, e.g. "Title" or "Explanatory.Goal".
// Nested structs must be named down to their leaves. Elements of a named top-level slice
// are validated in full.
func ValidateFields(doc *Document, fields ...string) []FieldError {
	if doc == nil {
		return []FieldError{{Field: "", Message: "документ отсутствует"}}
	}
	if len(fields) == 0 {
		return nil
	}
	out := validate.Collect(validate.Instance().StructPartial(doc, fields...))

	rv := reflect.ValueOf(doc).Elem()
	rt := rv.Type()
	for _, name := range fields {
		if strings.Contains(name, ".") {
			continue
		}
		sf, ok := rt.FieldByName(name)
		if !ok || sf.Type.Kind() != reflect.Slice || sf.Type.Elem().Kind() != reflect.Struct {
			continue
		}
		jsonName := strings.SplitN(sf.Tag.Get("json"), ",", 2)[0]
		list := rv.FieldByIndex(sf.Index)
		for i := 0; i < list.Len(); i++ {
			prefix := fmt.Sprintf("%s[%d]", jsonName, i)
			for _, fe := range validate.Struct(list.Index(i).Interface()) {
				fe.Field = prefix + "." + fe.Field
				out = append(out, fe)
			}
		}
	}
	return out
}
