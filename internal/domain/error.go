package domain

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	CodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	CodeNotFound        ErrorCode = "NOT_FOUND"
	CodeFailedPrecond   ErrorCode = "FAILED_PRECONDITION"
	CodeInternal        ErrorCode = "INTERNAL"
	CodeCanceled        ErrorCode = "CANCELED"
)

var (
	ErrToolNotFound  = errors.New("tool not found")
	ErrBuildFailed   = errors.New("build failed")
	ErrInvalidStatus = errors.New("invalid status filter")
)

// Error is the surfaced failure type of the registry.
// Message is what callers show to users; Cause keeps the chain for errors.Is.
type Error struct {
	Code    ErrorCode
	Op      string
	Message string
	Cause   error
	Meta    map[string]string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if msg == "" && e.Cause != nil {
		msg = e.Cause.Error()
	}
	if msg == "" {
		return string(e.Code)
	}
	return msg
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func E(code ErrorCode, op, msg string, cause error) *Error {
	if msg == "" && cause != nil {
		msg = cause.Error()
	}
	return &Error{
		Code:    code,
		Op:      op,
		Message: msg,
		Cause:   cause,
	}
}

func Wrap(code ErrorCode, op string, err error) *Error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) {
		if existing.Op != "" || op == "" {
			return existing
		}
		return &Error{
			Code:    existing.Code,
			Op:      op,
			Message: existing.Message,
			Cause:   existing.Cause,
			Meta:    existing.Meta,
		}
	}
	return E(code, op, "", err)
}

// ToolNotFound builds the error returned when a lookup misses the current scan.
func ToolNotFound(op, name string) *Error {
	return &Error{
		Code:    CodeNotFound,
		Op:      op,
		Message: fmt.Sprintf("Tool %s not found", name),
		Cause:   ErrToolNotFound,
		Meta:    map[string]string{"tool": name},
	}
}

func CodeFrom(err error) (ErrorCode, bool) {
	if err == nil {
		return "", false
	}
	var domainErr *Error
	if errors.As(err, &domainErr) && domainErr.Code != "" {
		return domainErr.Code, true
	}
	switch {
	case errors.Is(err, ErrInvalidStatus):
		return CodeInvalidArgument, true
	case errors.Is(err, ErrToolNotFound):
		return CodeNotFound, true
	case errors.Is(err, ErrBuildFailed):
		return CodeFailedPrecond, true
	default:
		return "", false
	}
}
