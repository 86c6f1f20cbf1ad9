package utils

import (
	"errors"
	"net/http"
)

type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindNotFound
	KindUnauthorized
	KindForbidden
	KindValidation
	KindConflict
	KindStorageUnavailable
	KindTransactionFailed
	KindFulfillmentFailed
)

// AppError is the error type crossing the service boundary. Message is safe to
// show to callers; Err keeps the cause for logs only.
type AppError struct {
	Kind    ErrorKind
	Message string
	Err     error

	// ReportURL is set on fulfillment failures.
	ReportURL string
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// Is matches any AppError of the same kind, so the sentinels below work with errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Kind == e.Kind
}

var (
	ErrNotFound           = &AppError{Kind: KindNotFound, Message: "not found"}
	ErrUnauthorized       = &AppError{Kind: KindUnauthorized, Message: "unauthorized"}
	ErrForbidden          = &AppError{Kind: KindForbidden, Message: "unauthorized"}
	ErrValidation         = &AppError{Kind: KindValidation, Message: "invalid request"}
	ErrConflict           = &AppError{Kind: KindConflict, Message: "conflict"}
	ErrStorageUnavailable = &AppError{Kind: KindStorageUnavailable, Message: "storage unavailable"}
	ErrTransactionFailed  = &AppError{Kind: KindTransactionFailed, Message: "transaction failed"}
	ErrFulfillmentFailed  = &AppError{Kind: KindFulfillmentFailed, Message: "fulfillment failed"}
)

func NotFound(msg string) error   { return &AppError{Kind: KindNotFound, Message: msg} }
func Validation(msg string) error { return &AppError{Kind: KindValidation, Message: msg} }
func Conflict(msg string) error   { return &AppError{Kind: KindConflict, Message: msg} }
func Forbidden(msg string) error  { return &AppError{Kind: KindForbidden, Message: msg} }

func Unauthorized(msg string) error {
	return &AppError{Kind: KindUnauthorized, Message: msg}
}

func StorageUnavailable(err error) error {
	return &AppError{Kind: KindStorageUnavailable, Message: "storage unavailable", Err: err}
}

func TransactionFailed(msg string, err error) error {
	return &AppError{Kind: KindTransactionFailed, Message: msg, Err: err}
}

func Internal(msg string, err error) error {
	return &AppError{Kind: KindInternal, Message: msg, Err: err}
}

// KindOf returns the kind of the first AppError in err's chain, KindInternal otherwise.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// StatusCode maps an error to the HTTP status the routing layer answers with.
func StatusCode(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindStorageUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is the text shown to callers; causes never leak.
func PublicMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "internal server error"
}
