package core

import "github.com/pkg/errors"

type (
	// FieldError ties an error message to one input field, using the
	// field's JSON name.
	FieldError struct {
		Field string
		Error string
	}

	// ValidationError carries per-field messages for bad input. The API
	// error handler flattens Fields into the response body.
	ValidationError struct {
		Err    error
		Fields []FieldError
	}
)

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{Err: err, Fields: flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// shutdown signals that the app cannot keep serving and the main loop
// should terminate with a non-zero status.
type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string { return s.message }

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
