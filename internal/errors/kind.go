package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind 에러 분류 (호출자에게 노출되는 구조화된 에러 종류)
type Kind string

const (
	KindInvalidInput     Kind = "INVALID_INPUT"
	KindNotFound         Kind = "NOT_FOUND"
	KindAlreadyProcessed Kind = "ALREADY_PROCESSED"
	KindAlreadyPending   Kind = "ALREADY_PENDING"
	KindUnauthorized     Kind = "UNAUTHORIZED"
	KindPersistence      Kind = "PERSISTENCE_ERROR"
	KindDeliveryFailure  Kind = "DELIVERY_FAILURE"
)

// Error 서비스 계층 에러
// Code는 codes.go의 상세 코드, Fields는 필드별 검증 메시지
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by kind, and by code when the target carries one.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Code == "" || t.Code == e.Code
}

// New creates an error of the given kind with a detail code.
func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Wrap attaches a cause to a new error of the given kind.
func Wrap(kind Kind, code, message string, err error) *Error {
	return &Error{Kind: kind, Code: code, Message: message, Err: err}
}

// Persistence wraps a storage failure.
func Persistence(message string, err error) *Error {
	return Wrap(KindPersistence, InternalDatabaseError, message, err)
}

// Invalid builds an INVALID_INPUT error from per-field messages.
func Invalid(fields map[string]string) *Error {
	return &Error{
		Kind:    KindInvalidInput,
		Code:    ValidationInvalidInput,
		Message: "입력값이 올바르지 않습니다",
		Fields:  fields,
	}
}

// KindOf returns the kind of err, or "" when err is not a service error.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Kind sentinels for errors.Is checks on kind alone.
var (
	ErrInvalidInput     = &Error{Kind: KindInvalidInput}
	ErrNotFound         = &Error{Kind: KindNotFound}
	ErrAlreadyProcessed = &Error{Kind: KindAlreadyProcessed}
	ErrAlreadyPending   = &Error{Kind: KindAlreadyPending}
	ErrUnauthorized     = &Error{Kind: KindUnauthorized}
	ErrPersistence      = &Error{Kind: KindPersistence}
	ErrDeliveryFailure  = &Error{Kind: KindDeliveryFailure}
)
