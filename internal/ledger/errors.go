package ledger

import (
	"errors"
	"fmt"
)

// ErrDuplicate is returned by Append when the signature is already recorded.
var ErrDuplicate = errors.New("signature already recorded")

// StoreError reports a failure of the backing store.
type StoreError struct {
	Op      string
	Message string
	Cause   error
}

func (e *StoreError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("ledger %s: %s: %v", e.Op, e.Message, e.Cause)
	}
	return fmt.Sprintf("ledger %s: %s", e.Op, e.Message)
}

func (e *StoreError) Unwrap() error {
	return e.Cause
}
