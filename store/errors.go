package store

import (
	"errors"
	"fmt"
)

var (
	// ErrConfigurationMissing is returned by Open when the backend credential is not set.
	ErrConfigurationMissing = errors.New("store: connection credential not configured")
	// ErrStoreUnavailable is returned by every operation of an uninitialized adapter.
	ErrStoreUnavailable = errors.New("store: unavailable")
	// ErrDuplicateKey is returned by Append when the record id already exists in its partition.
	ErrDuplicateKey = errors.New("store: duplicate key")
)

// TransientError reports a network or service fault during a store call.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("store: %s failed: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

func transient(op string, err error) error {
	return &TransientError{Op: op, Err: err}
}

func duplicate(partition, id string) error {
	return fmt.Errorf("%w: partition=%s id=%s", ErrDuplicateKey, partition, id)
}
