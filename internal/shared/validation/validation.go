// Package validation builds the request validator shared by handlers.
package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	MinGradYear = 1900
	MaxGradYear = 2100
)

// FieldIssue is one failed rule, reported in error details.
type FieldIssue struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

// New returns a validator that reports JSON field names and knows the
// gradyear tag.
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("gradyear", validGradYear)
	return v
}

func validGradYear(fl validator.FieldLevel) bool {
	field := fl.Field()
	switch field.Kind() {
	case reflect.Int, reflect.Int32, reflect.Int64:
		year := field.Int()
		return year == 0 || (year >= MinGradYear && year <= MaxGradYear)
	}
	return false
}

// Issues flattens validator errors into field issues. Other errors yield a
// single issue on "body".
func Issues(err error) []FieldIssue {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldIssue{{Field: "body", Issue: "invalid"}}
	}
	out := make([]FieldIssue, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldIssue{Field: fe.Field(), Issue: issueFor(fe)})
	}
	return out
}

func issueFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "max":
		return "too_long"
	case "gradyear":
		return "out_of_range"
	case "required":
		return "required"
	}
	return fe.Tag()
}
