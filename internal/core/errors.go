package core

import (
	"errors"
	"fmt"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrTransport  = errors.New("attendance store unreachable")

	// ErrMutationInFlight rejects a second status change for a (user, date)
	// pair while the first one has not settled.
	ErrMutationInFlight = errors.New("a status change for this day is already in progress")
)

// ValidationError reports a rejected input.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return e.Field + " " + e.Msg
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NotFoundError reports a user or date the store does not recognize.
type NotFoundError struct {
	Kind string
	ID   string
	Msg  string
}

func (e *NotFoundError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// TransportError reports a network failure or an unusable store response.
type TransportError struct {
	Op         string
	StatusCode int // 0 when no response was received
	Detail     string
	Err        error
}

func (e *TransportError) Error() string {
	msg := e.Op
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(": status %d", e.StatusCode)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// UserMessage turns err into a single notice suitable for the admin.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var ve *ValidationError
	var nf *NotFoundError
	switch {
	case errors.As(err, &ve):
		return "Invalid input: " + ve.Error()
	case errors.As(err, &nf):
		return nf.Error()
	case errors.Is(err, ErrMutationInFlight):
		return "Please wait, this day is still being updated."
	case errors.Is(err, ErrTransport):
		return "The attendance server could not be reached. Please try again."
	}
	return "Something went wrong. Please try again."
}
