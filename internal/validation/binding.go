// Package validation turns request-binding failures into the field-level messages
// returned with HTTP 400 responses.
//
// Importing the package registers a tag-name function on gin's validator so that
// reported field names are the JSON names clients send (firstName, not FirstName).
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(jsonFieldName)
	}
}

func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}

// FieldError is a single rejected field
type FieldError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"error"`
}

func (e *FieldError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// FromBindError converts the error returned by gin's ShouldBind* into the first
// offending field. Malformed JSON has no field.
func FromBindError(err error) *FieldError {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &FieldError{Field: fe.Field(), Message: fe.Field() + " " + describe(fe)}
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return &FieldError{Field: typeErr.Field, Message: typeErr.Field + " has the wrong type"}
	}

	return &FieldError{Message: "Invalid request body"}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be an absolute URL"
	case "uuid", "uuid4":
		return "must be a valid id"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "gte", "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "lte", "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	default:
		return "is invalid"
	}
}

// Required rejects a value that is empty once surrounding whitespace is removed.
// Binding's required tag accepts whitespace-only strings.
func Required(field, value string) *FieldError {
	if strings.TrimSpace(value) == "" {
		return &FieldError{Field: field, Message: field + " is required"}
	}
	return nil
}

// OneOf rejects a non-empty value outside the allowed set
func OneOf(field, value string, valid func(string) bool) *FieldError {
	if value == "" || valid(value) {
		return nil
	}
	return &FieldError{Field: field, Message: field + " has an invalid value"}
}

// First returns the first non-nil error
func First(errs ...*FieldError) *FieldError {
	for _, e := range errs {
		if e != nil {
			return e
		}
	}
	return nil
}
