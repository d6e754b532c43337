package auth

import (
	"errors"
	"fmt"
)

// ErrPersistence matches every *PersistenceError
var ErrPersistence = errors.New("session storage failure")

// PersistenceError reports a failed read or write of durable session storage.
// The in-memory state is left as it was before the failing operation.
type PersistenceError struct {
	Op  string
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}

func persistenceError(op, key string, err error) error {
	return &PersistenceError{Op: op, Key: key, Err: err}
}
