package validator

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var v *validator.Validate

func init() {
	v = validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonFieldName)
}

func Instance() *validator.Validate {
	return v
}

// FieldError is one failed rule, in the order the validator reported it
// (struct fields first, struct-level rules last).
type FieldError struct {
	Field  string
	Tag    string
	Reason string
}

// Validate returns field -> reason, or nil when i is valid.
func Validate(i any) map[string]string {
	errs, err := Check(i)
	if err != nil {
		return map[string]string{"_error": "validation_failed"}
	}
	if len(errs) == 0 {
		return nil
	}
	out := make(map[string]string, len(errs))
	for _, e := range errs {
		out[e.Field] = e.Reason
	}
	return out
}

// Check is the ordered form of Validate. The error is non-nil only when i
// cannot be validated at all (nil or non-struct value).
func Check(i any) ([]FieldError, error) {
	err := v.Struct(i)
	if err == nil {
		return nil, nil
	}
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return nil, err
	}
	out := make([]FieldError, 0, len(errs))
	for _, e := range errs {
		out = append(out, FieldError{
			Field:  e.Field(),
			Tag:    e.Tag(),
			Reason: mapTagToCode(e.Tag()),
		})
	}
	return out, nil
}

// RegisterStructRule attaches a struct-level rule to the given types. Call it
// from package init only: the underlying validator is not safe for
// registration after first use.
func RegisterStructRule(fn validator.StructLevelFunc, types ...any) {
	v.RegisterStructValidation(fn, types...)
}

// RegisterReason maps a custom tag (usually one reported by a struct rule) to a reason code.
func RegisterReason(tag, reason string) {
	tagMap[tag] = reason
}

func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	switch name {
	case "-":
		return ""
	case "":
		return fld.Name
	default:
		return name
	}
}
