package cart

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSnapshot is returned by Storage.Load when nothing is stored under the key.
	ErrNoSnapshot = errors.New("no cart snapshot stored")
	// ErrCorruptSnapshot indicates stored bytes that do not decode to a valid cart.
	ErrCorruptSnapshot = errors.New("corrupt cart snapshot")
)

// StorageError reports a failed read or write against the persistence
// backend, including stored data that could not be parsed.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("cart storage %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// ValidationError reports caller input that cannot be applied to a cart,
// such as a quantity that is not an integer.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
