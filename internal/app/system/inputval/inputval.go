// Package inputval validates user-submitted form input against struct tags.
//
// Fields are annotated with a `validate` tag listing rules and an optional
// `label` tag used in error messages shown to the user:
//
//	type CreateInput struct {
//		Title    string `validate:"required,max=120" label:"Заголовок"`
//		District string `validate:"required,district" label:"Район"`
//	}
//
// Validation stops at the first failing rule per field, so a missing value
// produces one "is required" message rather than a cascade.
package inputval

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/ufarent/ufarent/internal/domain/models"
)

// FieldError is a single validation failure for one field.
type FieldError struct {
	Field   string
	Message string
}

// Result collects validation failures for a struct.
type Result struct {
	Errors []FieldError
}

// HasErrors reports whether any field failed validation.
func (r *Result) HasErrors() bool { return len(r.Errors) > 0 }

// First returns the first error message, or "" if there are none.
func (r *Result) First() string {
	if len(r.Errors) == 0 {
		return ""
	}
	return r.Errors[0].Message
}

// All joins every error message with "; ".
func (r *Result) All() string {
	if len(r.Errors) == 0 {
		return ""
	}
	msgs := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		msgs = append(msgs, e.Message)
	}
	return strings.Join(msgs, "; ")
}

// Validate checks every string field of v that carries a `validate` tag.
// v may be a struct or a pointer to one. Non-string fields are skipped.
func Validate(v any) *Result {
	res := &Result{}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return res
	}

	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		tag := field.Tag.Get("validate")
		if tag == "" {
			continue
		}
		if field.Type.Kind() != reflect.String {
			continue
		}

		label := field.Tag.Get("label")
		if label == "" {
			label = field.Name
		}

		value := strings.TrimSpace(rv.Field(i).String())
		for _, rule := range strings.Split(tag, ",") {
			if msg := applyRule(rule, label, value); msg != "" {
				res.Errors = append(res.Errors, FieldError{Field: field.Name, Message: msg})
				break
			}
		}
	}
	return res
}

// applyRule returns an error message if value violates the rule, "" otherwise.
// Every rule except "required" passes on an empty value; pair optional fields
// with format rules only.
func applyRule(rule, label, value string) string {
	if rule == "required" {
		if value == "" {
			return fmt.Sprintf("%s is required.", label)
		}
		return ""
	}
	if value == "" {
		return ""
	}

	switch {
	case strings.HasPrefix(rule, "max="):
		n, err := strconv.Atoi(strings.TrimPrefix(rule, "max="))
		if err != nil {
			return ""
		}
		if utf8.RuneCountInString(value) > n {
			return fmt.Sprintf("%s must be at most %d characters.", label, n)
		}
	case rule == "email":
		if !IsValidEmail(value) {
			return "A valid email address is required."
		}
	case rule == "httpurl":
		if !IsValidHTTPURL(value) {
			return fmt.Sprintf("%s must be a valid http or https URL.", label)
		}
	case rule == "objectid":
		if !IsValidObjectID(value) {
			return fmt.Sprintf("%s must be a valid id.", label)
		}
	case rule == "uuid":
		if !IsValidUUID(value) {
			return fmt.Sprintf("%s must be a valid id.", label)
		}
	case rule == "district":
		if !models.IsValidDistrict(value) {
			return fmt.Sprintf("%s must be a known district.", label)
		}
	case rule == "propertytype":
		if !models.IsValidPropertyType(value) {
			return fmt.Sprintf("%s must be a known property type.", label)
		}
	case rule == "role":
		if !models.IsValidRole(value) {
			return fmt.Sprintf("%s must be a known role.", label)
		}
	}
	return ""
}
