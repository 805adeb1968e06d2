// Package validation checks request bodies and configuration before they
// reach the layout engine.
package validation

import (
	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
)

// ErrInvalid marks every validation failure.
var ErrInvalid = errors.New("validation failed")

// validate is a singleton validator instance
var validate = validator.New()

// Struct validates v against its `validate` tags and returns the first
// failure in a readable form, marked with ErrInvalid.
func Struct(v any) error {
	if v == nil {
		return errors.Mark(errors.New("value cannot be nil"), ErrInvalid)
	}
	if err := validate.Struct(v); err != nil {
		return errors.Mark(formatValidationError(err), ErrInvalid)
	}
	return nil
}

// formatValidationError converts validator errors to a more user-friendly format
func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) || len(validationErrs) == 0 {
		return err
	}

	e := validationErrs[0]
	field, param := e.Namespace(), e.Param()
	switch e.Tag() {
	case "required":
		return errors.Newf("%s: field is required", field)
	case "min", "gte":
		return errors.Newf("%s: must be at least %s", field, param)
	case "max", "lte":
		return errors.Newf("%s: must not exceed %s", field, param)
	case "oneof":
		return errors.Newf("%s: must be one of [%s]", field, param)
	default:
		return errors.Newf("%s: validation failed (%s)", field, e.Tag())
	}
}
