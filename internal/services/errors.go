package services

import (
	"context"
	"errors"
	"strings"

	"match-service/internal/models"
	"match-service/internal/repositories"
)

// Error kinds returned by every service operation. Match them with errors.Is.
var (
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
	ErrValidation = errors.New("validation error")
	ErrStorage    = errors.New("storage error")
)

// Error carries the kind, the failing operation and the underlying cause.
type Error struct {
	Kind error
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	b.WriteString(": ")
	if e.Msg != "" {
		b.WriteString(e.Msg)
	} else {
		b.WriteString(e.Kind.Error())
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func notFound(op, msg string) error {
	return &Error{Kind: ErrNotFound, Op: op, Msg: msg}
}

func forbidden(op, msg string) error {
	return &Error{Kind: ErrForbidden, Op: op, Msg: msg}
}

func invalid(op, msg string) error {
	return &Error{Kind: ErrValidation, Op: op, Msg: msg}
}

// storeError converts a repository failure into one of the service kinds.
func storeError(op string, err error) error {
	if err == nil {
		return nil
	}
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return err
	}

	switch {
	case errors.Is(err, repositories.ErrGroupNotFound):
		return &Error{Kind: ErrNotFound, Op: op, Msg: "group not found", Err: err}
	case errors.Is(err, repositories.ErrMatchNotFound):
		return &Error{Kind: ErrNotFound, Op: op, Msg: "match not found", Err: err}
	case errors.Is(err, repositories.ErrUserNotFound):
		return &Error{Kind: ErrNotFound, Op: op, Msg: "user not found", Err: err}
	case errors.Is(err, repositories.ErrSelfLike):
		return &Error{Kind: ErrValidation, Op: op, Msg: "a group cannot like itself", Err: err}
	case errors.Is(err, repositories.ErrUserHasGroup):
		return &Error{Kind: ErrValidation, Op: op, Msg: "user already has a group", Err: err}
	case errors.Is(err, models.ErrInvalidRecord):
		return &Error{Kind: ErrValidation, Op: op, Msg: "stored record is invalid", Err: err}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return &Error{Kind: ErrStorage, Op: op, Msg: "request cancelled", Err: err}
	}
	return &Error{Kind: ErrStorage, Op: op, Msg: "storage unavailable", Err: err}
}

// PublicMessage returns the caller-safe text of a service error.
func PublicMessage(err error) string {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		if svcErr.Msg != "" {
			return svcErr.Msg
		}
		return svcErr.Kind.Error()
	}
	return "internal error"
}
