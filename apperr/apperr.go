// Package apperr defines the three error kinds the application distinguishes
// when deciding how to present a failure to the user.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	// KindUnknown is reported for errors that did not come through this package.
	KindUnknown Kind = iota
	// KindConfiguration is fatal: required configuration is missing.
	KindConfiguration
	// KindValidation blocks only the current submit.
	KindValidation
	// KindRemoteCall covers database and language model failures.
	KindRemoteCall
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindValidation:
		return "validation"
	case KindRemoteCall:
		return "remote_call"
	default:
		return "unknown"
	}
}

// Error carries a user-facing Message next to the wrapped cause.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	case e.Op != "":
		return e.Op + ": " + e.Message
	default:
		return e.Message
	}
}

func (e *Error) Unwrap() error { return e.Err }

func Configuration(message string) *Error {
	return &Error{Kind: KindConfiguration, Message: message}
}

func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// Remote wraps a failed call to the database or the language model.
func Remote(op string, err error, message string) *Error {
	return &Error{Kind: KindRemoteCall, Op: op, Message: message, Err: err}
}

// KindOf reports the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// UserMessage returns the message meant for the UI, falling back to err.Error().
// The cause of a remote call error is never included; callers log it.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
