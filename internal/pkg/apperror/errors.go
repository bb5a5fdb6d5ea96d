package apperror

import (
	"errors"
	"fmt"
)

// ErrUnauthenticated is returned when an operation needs a caller identity and none is present.
var ErrUnauthenticated = &AuthenticationError{Reason: "user not authenticated"}

type AuthenticationError struct {
	Reason string
}

func (e *AuthenticationError) Error() string {
	return e.Reason
}

// StoreError wraps a failed query or transaction with the operation that issued it.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func NewStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}

func IsAuthentication(err error) bool {
	var ae *AuthenticationError
	return errors.As(err, &ae)
}

func IsStore(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}
