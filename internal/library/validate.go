package library

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report JSON names so messages match the wire format.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

// ValidateBook checks the required fields of a create or update body.
func ValidateBook(in BookInput) error {
	return check(in)
}

// ValidateBorrow checks a borrow body. The due date must be strictly after
// now.
func ValidateBorrow(in BorrowInput, now time.Time) error {
	err := check(in)
	if in.DueDate.IsZero() {
		return addField(err, "dueDate", "is required")
	}
	if !in.DueDate.After(now) {
		return addField(err, "dueDate", "must be in the future")
	}
	return err
}

func check(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	out := &ValidationError{Fields: make(map[string]string, len(fieldErrs))}
	for _, fe := range fieldErrs {
		out.Fields[fe.Field()] = friendlyMessage(fe)
	}
	return out
}

func addField(err error, field, msg string) error {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		validationErr.Fields[field] = msg
		return validationErr
	}
	if err != nil {
		return err
	}
	return &ValidationError{Fields: map[string]string{field: msg}}
}

func friendlyMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
