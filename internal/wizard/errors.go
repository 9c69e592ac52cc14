package wizard

import (
	"errors"
	"fmt"
)

var (
	ErrSessionNotFound    = errors.New("wizard session not mounted")
	ErrInvalidSession     = errors.New("invalid wizard session id")
	ErrUnsupportedVersion = errors.New("unsupported snapshot version")
	ErrInvalidStep        = errors.New("snapshot step out of range")
)

// StorageError reports a handoff store read or write failure. Callers log it
// and continue with default state.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("handoff %s key=%s: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
