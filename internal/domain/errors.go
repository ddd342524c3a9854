package domain

import "errors"

// Error kinds surfaced to the end user. Match them with errors.Is.
var (
	ErrValidation           = errors.New("validation error")
	ErrAuthentication       = errors.New("authentication error")
	ErrConflict             = errors.New("conflict")
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrInsufficientHoldings = errors.New("insufficient holdings")
	ErrQuoteUnavailable     = errors.New("quote unavailable")
	ErrNoHistory            = errors.New("no history")
	ErrBalanceUnavailable   = errors.New("balance unavailable")
)

// Error pairs an error kind with the message shown to the user and an optional cause.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

// NewError returns an *Error of the given kind.
func NewError(kind error, message string) error {
	return &Error{Kind: kind, Message: message}
}

// WrapError returns an *Error of the given kind caused by err.
func WrapError(kind error, message string, err error) error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Message returns the user-facing message of err, or "" when err carries none.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return ""
}
