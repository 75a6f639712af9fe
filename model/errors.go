package model

import (
	"fmt"

	"xdao.co/sbkit/sb"
	"xdao.co/sbkit/storage"
)

type ErrorCode string

const (
	ErrMalformed ErrorCode = "MALFORMED"
	ErrNotFound  ErrorCode = "NOT_FOUND"
	ErrIO        ErrorCode = "IO"
	ErrInternal  ErrorCode = "INTERNAL"
)

// CodedError is a stable error with a machine-readable code and a human
// message, for callers embedding the toolkit behind their own API.
type CodedError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func (e *CodedError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewError(code ErrorCode, message string) *CodedError {
	return &CodedError{Code: code, Message: message}
}

// FromError maps library errors onto coded errors. Unrecognized errors
// become ErrInternal; nil maps to nil.
func FromError(err error) *CodedError {
	if err == nil {
		return nil
	}
	switch {
	case storage.IsNotFound(err):
		return NewError(ErrNotFound, err.Error())
	case sb.IsKind(err, sb.KindMalformed):
		return NewError(ErrMalformed, err.Error())
	case sb.IsKind(err, sb.KindIO):
		return NewError(ErrIO, err.Error())
	}
	return NewError(ErrInternal, err.Error())
}
