// Package errors contains the error helpers shared by the gpxsync packages.
// Errors are wrapped with a short description of the failed step so that the
// final message reads like a trace of what the CLI was doing.
package errors

import (
	goerrors "errors"
	"fmt"
)

// New creates an error from the format string and arguments.
func New(format string, args ...interface{}) error {
	if len(args) == 0 {
		return goerrors.New(format)
	}
	return fmt.Errorf(format, args...)
}

// contextError annotates an error with the operation that was being attempted
// when it occurred.
type contextError struct {
	context string
	err     error
}

func (err contextError) Error() string {
	return fmt.Sprintf("%s: %s", err.context, err.err)
}

func (err contextError) Unwrap() error {
	return err.err
}

// WithContext wraps `err` with a description of what was being done.
func WithContext(err error, context string) error {
	return contextError{context: context, err: err}
}

// FriendlyError is an error whose message is meant to be read directly by the
// user, without the context that it was wrapped in.
type FriendlyError struct {
	msg string
}

// NewFriendlyError creates a FriendlyError from the format string and
// arguments.
func NewFriendlyError(template string, args ...interface{}) error {
	return FriendlyError{fmt.Sprintf(template, args...)}
}

func (err FriendlyError) Error() string {
	return err.msg
}

// FriendlyMessage returns the message to show to the user.
func (err FriendlyError) FriendlyMessage() string {
	return err.msg
}

type friendlyMessager interface {
	FriendlyMessage() string
}

// GetPrintableMessage returns the message that should be shown to the user for
// `err`. If any error in the chain has a friendly message, it's used in favor
// of the full error string.
func GetPrintableMessage(err error) string {
	var friendly friendlyMessager
	if goerrors.As(err, &friendly) {
		return friendly.FriendlyMessage()
	}
	return err.Error()
}

// RootCause returns the innermost error in the chain.
func RootCause(err error) error {
	for {
		next := goerrors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return goerrors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return goerrors.As(err, target)
}
