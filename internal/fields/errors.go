package fields

import (
	"errors"
	"fmt"
)

// ErrNotInteractable means a field was found but could not accept input.
var ErrNotInteractable = errors.New("field not interactable")

// FillError reports a field that could not be filled.
type FillError struct {
	Field   string
	Message string
	Cause   error
}

func (e *FillError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fill %s: %s: %v", e.Field, e.Message, e.Cause)
	}
	return fmt.Sprintf("fill %s: %s", e.Field, e.Message)
}

func (e *FillError) Unwrap() error {
	return e.Cause
}

func notInteractable(f Field, msg string, cause error) error {
	return &FillError{Field: f.Describe(), Message: msg, Cause: fmt.Errorf("%w: %w", ErrNotInteractable, cause)}
}
