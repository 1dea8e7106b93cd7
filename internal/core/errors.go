package core

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for callers that must map it to a transport status.
type Kind int

const (
	KindInternal Kind = iota
	KindUnauthorized
	KindForbidden
	KindConflict
	KindNotFound
	KindValidation
	KindOAuth
	KindLDAP
	KindNotConfigured
)

func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation_error"
	case KindOAuth:
		return "oauth_error"
	case KindLDAP:
		return "ldap_error"
	case KindNotConfigured:
		return "not_configured"
	default:
		return "internal_error"
	}
}

// HTTPStatus maps the kind to the status code returned at the boundary
func (k Kind) HTTPStatus() int {
	switch k {
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation, KindOAuth, KindLDAP, KindNotConfigured:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Error is the tagged error carried across provider and store boundaries.
// Message is safe to show to a caller; Err holds the internal cause and is
// only ever logged.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Message != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Message)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrConflict)
// works regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrUnauthorized  = &Error{Kind: KindUnauthorized}
	ErrForbidden     = &Error{Kind: KindForbidden}
	ErrConflict      = &Error{Kind: KindConflict}
	ErrNotFound      = &Error{Kind: KindNotFound}
	ErrValidation    = &Error{Kind: KindValidation}
	ErrOAuth         = &Error{Kind: KindOAuth}
	ErrLDAP          = &Error{Kind: KindLDAP}
	ErrNotConfigured = &Error{Kind: KindNotConfigured}
	ErrInternal      = &Error{Kind: KindInternal}
)

func newError(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Err: cause}
}

func Unauthorized(msg string) error { return newError(KindUnauthorized, msg, nil) }
func Forbidden(msg string) error    { return newError(KindForbidden, msg, nil) }
func Conflict(msg string) error     { return newError(KindConflict, msg, nil) }
func NotFound(msg string) error     { return newError(KindNotFound, msg, nil) }
func Validation(msg string) error   { return newError(KindValidation, msg, nil) }
func OAuth(msg string) error        { return newError(KindOAuth, msg, nil) }
func LDAP(msg string) error         { return newError(KindLDAP, msg, nil) }

// NotConfigured reports that an optional provider has no configuration
func NotConfigured(provider string) error {
	return newError(KindNotConfigured, provider+" is not configured", nil)
}

// Internal wraps a fault that is not attributable to the caller
func Internal(msg string, cause error) error {
	return newError(KindInternal, msg, cause)
}

// KindOf extracts the Kind of err. Errors outside the taxonomy are internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// PublicMessage returns the caller-safe message for err. Internal errors
// never expose their cause.
func PublicMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) || e.Kind == KindInternal {
		return "internal server error"
	}
	if e.Message == "" {
		return e.Kind.String()
	}
	return e.Message
}
