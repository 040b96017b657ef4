// internal/domain/mention/errors.go

package mention

import (
	"errors"
	"fmt"
)

var (
	// ErrTransient marks network faults that may succeed on a later attempt
	ErrTransient = errors.New("transient source error")

	// ErrMalformedItem marks an item whose shape cannot produce a record
	ErrMalformedItem = errors.New("malformed item")

	// ErrUnknownChannel is returned when no source serves a channel
	ErrUnknownChannel = errors.New("unknown channel")

	// ErrNoResults is returned by the reporter for an empty dataset
	ErrNoResults = errors.New("no relevant results")
)

// TransientError wraps a timeout or transport failure reported by a source
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrTransient) match any TransientError
func (e *TransientError) Is(target error) bool {
	return target == ErrTransient
}

// Transient wraps err as a TransientError for operation op
func Transient(op string, err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Op: op, Err: err}
}

// IsTransient reports whether err is a transient source failure
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}
