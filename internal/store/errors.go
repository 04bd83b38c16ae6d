package store

import (
	"errors"
	"fmt"
)

// ErrStoreLocked is returned when another run holds the store lock.
var ErrStoreLocked = errors.New("fingerprint store is locked by another run")

// StoreCorruptError reports a store file that exists but cannot be parsed.
type StoreCorruptError struct {
	Path   string
	Line   int // 0 when the problem is not tied to a line
	Reason string
	Cause  error
}

func (e *StoreCorruptError) Error() string {
	msg := fmt.Sprintf("fingerprint store %s is corrupt", e.Path)
	if e.Line > 0 {
		msg += fmt.Sprintf(" (line %d)", e.Line)
	}
	msg += ": " + e.Reason
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *StoreCorruptError) Unwrap() error {
	return e.Cause
}

// StoreWriteError reports a failed save. The previous file is left in place.
type StoreWriteError struct {
	Path  string
	Cause error
}

func (e *StoreWriteError) Error() string {
	return fmt.Sprintf("failed to write fingerprint store %s: %v", e.Path, e.Cause)
}

func (e *StoreWriteError) Unwrap() error {
	return e.Cause
}
