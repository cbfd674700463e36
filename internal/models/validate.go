package models

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// FieldError names a field and the reason it was rejected, e.g. "missing".
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (f FieldError) String() string {
	return fmt.Sprintf("%s: %s", f.Field, f.Reason)
}

var Validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	return v
}

// Check validates a record against its validate tags. Field names are the
// json names, prefixed with prefix when it is not empty.
func Check(record any, prefix string) []FieldError {
	err := Validate.Struct(record)
	if err == nil {
		return nil
	}

	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return []FieldError{{Field: prefix, Reason: err.Error()}}
	}

	out := make([]FieldError, 0, len(errs))
	for _, e := range errs {
		field := e.Field()
		if prefix != "" {
			field = prefix + "." + field
		}
		reason := e.Tag()
		if reason == "required" {
			reason = "missing"
		}
		out = append(out, FieldError{Field: field, Reason: reason})
	}
	return out
}
