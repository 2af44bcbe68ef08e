package browser

import (
	"errors"
	"fmt"
)

var (
	// ErrDetached means the handle no longer refers to an element in the page.
	ErrDetached = errors.New("element detached")
	// ErrNotInteractable means the element exists but cannot accept the action.
	ErrNotInteractable = errors.New("element not interactable")
	// ErrUnsupportedLocator means the driver cannot evaluate this locator kind.
	ErrUnsupportedLocator = errors.New("unsupported locator")
	// ErrNoWindow means the window handle is unknown.
	ErrNoWindow = errors.New("no such window")
)

// ActionError reports a failed element action.
type ActionError struct {
	Handle  Handle
	Action  Action
	Message string
	Cause   error
}

func (e *ActionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("browser action %s on %s: %s: %v", e.Action, e.Handle, e.Message, e.Cause)
	}
	return fmt.Sprintf("browser action %s on %s: %s", e.Action, e.Handle, e.Message)
}

func (e *ActionError) Unwrap() error {
	return e.Cause
}

// NavigationError reports a failed page load.
type NavigationError struct {
	URL   string
	Cause error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("navigation to %s failed: %v", e.URL, e.Cause)
}

func (e *NavigationError) Unwrap() error {
	return e.Cause
}
