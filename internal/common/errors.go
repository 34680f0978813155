// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Pipeline errors.
	ErrSettleTimeout     = errors.New("file never settled")
	ErrLookupFailure     = errors.New("lookup failed")
	ErrUnrecognizedLabel = errors.New("title does not match label grammar")
	ErrUnidentified      = errors.New("file provenance not recognized")
	ErrNotLoggedIn       = errors.New("not logged in")

	// ErrAlreadyClaimed signals that another task owns the path. It is a
	// normal no-op signal, not a failure.
	ErrAlreadyClaimed = errors.New("path already claimed")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// MoveError reports an unrecoverable filesystem failure while moving a file
// into its destination. The source file is left in place and the move is
// never retried automatically.
type MoveError struct {
	Err    error
	Source string
	Target string
}

func (e *MoveError) Error() string {
	return fmt.Sprintf("move %s to %s: %v", e.Source, e.Target, e.Err)
}

func (e *MoveError) Unwrap() error {
	return e.Err
}

// NewMoveError wraps err with the move's source and target context.
func NewMoveError(source, target string, err error) error {
	return &MoveError{Source: source, Target: target, Err: err}
}

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{UserMessage: userMessage, Err: err}
}
