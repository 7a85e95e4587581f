package gomedia

import (
	"errors"
	"fmt"
	"strings"
)

// Violation is one failed validation rule.
type Violation struct {
	Field   string
	Message string
	Params  map[string]string
}

// String renders the message with its parameters substituted.
func (v Violation) String() string {
	msg := v.Message
	for k, p := range v.Params {
		msg = strings.ReplaceAll(msg, k, p)
	}
	return msg
}

// ErrorElement collects violations raised by Validate.
type ErrorElement struct {
	violations []Violation
}

// AddViolation records a violation on field.
func (e *ErrorElement) AddViolation(field, message string, params map[string]string) {
	e.violations = append(e.violations, Violation{Field: field, Message: message, Params: params})
}

func (e *ErrorElement) Violations() []Violation { return e.violations }

func (e *ErrorElement) HasViolations() bool { return len(e.violations) > 0 }

// Err joins the violations into a single error, nil when there are none.
func (e *ErrorElement) Err() error {
	if len(e.violations) == 0 {
		return nil
	}

	errs := make([]error, 0, len(e.violations))
	for _, v := range e.violations {
		errs = append(errs, fmt.Errorf("%s: %s", v.Field, v))
	}
	return errors.Join(errs...)
}
