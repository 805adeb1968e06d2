package validation

import (
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
)

// ConfigValidator checks rules that struct tags cannot express, such as
// fields required only for one source kind. It collects every failure
// rather than stopping at the first.
type ConfigValidator struct {
	errors []error
	name   string
}

// NewConfigValidator creates a validator whose messages are prefixed with
// configName.
func NewConfigValidator(configName string) *ConfigValidator {
	return &ConfigValidator{name: configName}
}

func (cv *ConfigValidator) fail(field, format string, args ...any) {
	cv.errors = append(cv.errors, errors.Newf("%s.%s: %s", cv.name, field, fmt.Sprintf(format, args...)))
}

// Required validates that a string field is not empty.
func (cv *ConfigValidator) Required(field, value string) *ConfigValidator {
	if value == "" {
		cv.fail(field, "required field is empty")
	}
	return cv
}

// RangeInt validates that an int field is within [min, max].
func (cv *ConfigValidator) RangeInt(field string, value, min, max int) *ConfigValidator {
	if value < min || value > max {
		cv.fail(field, "value %d is outside range [%d, %d]", value, min, max)
	}
	return cv
}

// RangeFloat validates that a float field is within [min, max].
func (cv *ConfigValidator) RangeFloat(field string, value, min, max float64) *ConfigValidator {
	if value < min || value > max {
		cv.fail(field, "value %g is outside range [%g, %g]", value, min, max)
	}
	return cv
}

// MinDuration validates that a duration is at least min.
func (cv *ConfigValidator) MinDuration(field string, value, min time.Duration) *ConfigValidator {
	if value < min {
		cv.fail(field, "duration %v is below minimum %v", value, min)
	}
	return cv
}

// OneOf validates that a string field is one of the allowed values.
func (cv *ConfigValidator) OneOf(field, value string, allowed []string) *ConfigValidator {
	for _, a := range allowed {
		if value == a {
			return cv
		}
	}
	cv.fail(field, "value %q must be one of %v", value, allowed)
	return cv
}

// When conditionally applies validations if the condition is true.
func (cv *ConfigValidator) When(condition bool, validations func(*ConfigValidator)) *ConfigValidator {
	if condition {
		validations(cv)
	}
	return cv
}

// Errors returns all validation errors.
func (cv *ConfigValidator) Errors() []error {
	return cv.errors
}

// Validate returns every failure joined into one error marked with
// ErrInvalid, or nil.
func (cv *ConfigValidator) Validate() error {
	if len(cv.errors) == 0 {
		return nil
	}
	return errors.Mark(errors.Join(cv.errors...), ErrInvalid)
}
