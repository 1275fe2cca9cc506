package service

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a business-rule failure
type ErrorKind string

const (
	KindValidation        ErrorKind = "validation"
	KindInsufficientFunds ErrorKind = "insufficient_funds"
	KindTimerClosed       ErrorKind = "timer_closed"
	KindIneligibleActor   ErrorKind = "ineligible_actor"
	KindAlreadySettled    ErrorKind = "already_settled"
	KindNotFound          ErrorKind = "not_found"
)

// WagerError is returned when a command is rejected by the rules. Anything
// else coming out of the service is an infrastructure failure.
type WagerError struct {
	Kind    ErrorKind
	Message string
}

func (e *WagerError) Error() string {
	return e.Message
}

// Is matches any WagerError of the same kind, so errors.Is(err, ErrTimerClosed)
// works for every timer rejection regardless of message.
func (e *WagerError) Is(target error) bool {
	t, ok := target.(*WagerError)
	return ok && t.Kind == e.Kind
}

var (
	ErrValidation        = &WagerError{Kind: KindValidation, Message: "validation failed"}
	ErrInsufficientFunds = &WagerError{Kind: KindInsufficientFunds, Message: "insufficient funds"}
	ErrTimerClosed       = &WagerError{Kind: KindTimerClosed, Message: "timer closed"}
	ErrIneligibleActor   = &WagerError{Kind: KindIneligibleActor, Message: "actor is not eligible"}
	ErrAlreadySettled    = &WagerError{Kind: KindAlreadySettled, Message: "wager already settled"}
	ErrNotFound          = &WagerError{Kind: KindNotFound, Message: "not found"}
)

func newError(kind ErrorKind, format string, args ...any) *WagerError {
	return &WagerError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func validationError(format string, args ...any) error {
	return newError(KindValidation, format, args...)
}

func timerClosedError(format string, args ...any) error {
	return newError(KindTimerClosed, format, args...)
}

func ineligibleError(format string, args ...any) error {
	return newError(KindIneligibleActor, format, args...)
}

func notFoundError(format string, args ...any) error {
	return newError(KindNotFound, format, args...)
}

// KindOf returns the business kind of err, or "" for infrastructure errors
func KindOf(err error) ErrorKind {
	var we *WagerError
	if errors.As(err, &we) {
		return we.Kind
	}
	return ""
}
