package validation

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError maps a json field path (e.g. "pickup.latitude") to what is wrong with it.
type ValidationError struct {
	Errors map[string]string `json:"errors"`
}

// Error joins the messages in field order so it reads the same every time.
func (v *ValidationError) Error() string {
	fields := make([]string, 0, len(v.Errors))
	for f := range v.Errors {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = v.Errors[f]
	}
	return strings.Join(parts, "; ")
}

// NewValidationError converts validator output, keeping the first problem per field.
func NewValidationError(errs validator.ValidationErrors) *ValidationError {
	v := &ValidationError{Errors: make(map[string]string, len(errs))}
	for _, fe := range errs {
		path := fieldPath(fe)
		if _, seen := v.Errors[path]; !seen {
			v.Errors[path] = describe(path, fe)
		}
	}
	return v
}

// fieldPath drops the root struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func describe(path string, fe validator.FieldError) string {
	p := fe.Param()
	switch fe.Tag() {
	case "required":
		return path + " is required"
	case "nonblank":
		return path + " cannot be blank"
	case "min", "max":
		bound := "at least"
		if fe.Tag() == "max" {
			bound = "at most"
		}
		switch fe.Kind() {
		case reflect.String:
			return fmt.Sprintf("%s must be %s %s characters", path, bound, p)
		case reflect.Slice, reflect.Array, reflect.Map:
			return fmt.Sprintf("%s must have %s %s items", path, bound, p)
		}
		return fmt.Sprintf("%s must be %s %s", path, bound, p)
	case "gte":
		return fmt.Sprintf("%s must be %s or more", path, p)
	case "lte":
		return fmt.Sprintf("%s must be %s or less", path, p)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", path, p)
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", path, strings.Join(strings.Fields(p), ", "))
	case "latitude":
		return path + " must be a latitude between -90 and 90"
	case "longitude":
		return path + " must be a longitude between -180 and 180"
	case "url":
		return path + " must be a URL"
	case "ride_status":
		return path + " is not a known ride status"
	case "ride_rating":
		return path + " must be 1 (negative) or 2 (positive)"
	}
	return path + " is invalid"
}

// AddError records message for field, replacing any earlier one.
func (v *ValidationError) AddError(field, message string) {
	if v.Errors == nil {
		v.Errors = make(map[string]string)
	}
	v.Errors[field] = message
}

// HasErrors reports whether any field failed
func (v *ValidationError) HasErrors() bool {
	return len(v.Errors) > 0
}

// GetFieldError returns the message for field
func (v *ValidationError) GetFieldError(field string) (string, bool) {
	msg, ok := v.Errors[field]
	return msg, ok
}
