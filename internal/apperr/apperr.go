// internal/apperr/apperr.go
//
// Application error taxonomy.
//
// Context
// -------
// Every failure that crosses a package boundary is classified by Kind so
// the HTTP layer can map it to a status code without string matching.
// Business-rule and validation failures are expected and travel to the
// client unmodified; ContextMissing marks a programming defect (a scoped
// query attempted without an established tenant scope) and must never be
// shown to a client beyond a generic 500.
//
// Usage
// -----
//	return apperr.New(apperr.BusinessRuleViolation, "tenant already has an owner")
//	if apperr.KindOf(err) == apperr.TenantNotFound { … }
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an application error.
type Kind uint8

const (
	Internal Kind = iota // fallthrough for unclassified failures
	TenantNotFound
	TenantRequired
	MembershipNotFound
	InsufficientPermissions
	BusinessRuleViolation
	ValidationError
	ContextMissing
	NotFound // generic sub-resource absence (settings keys, etc.)
)

// String returns the wire name of the kind, used in JSON error payloads.
func (k Kind) String() string {
	switch k {
	case TenantNotFound:
		return "tenant_not_found"
	case TenantRequired:
		return "tenant_required"
	case MembershipNotFound:
		return "membership_not_found"
	case InsufficientPermissions:
		return "insufficient_permissions"
	case BusinessRuleViolation:
		return "business_rule_violation"
	case ValidationError:
		return "validation_error"
	case ContextMissing:
		return "context_missing"
	case NotFound:
		return "not_found"
	default:
		return "internal"
	}
}

// HTTPStatus maps the kind to its response status code.
func (k Kind) HTTPStatus() int {
	switch k {
	case TenantNotFound, MembershipNotFound, NotFound:
		return http.StatusNotFound
	case TenantRequired, ValidationError:
		return http.StatusBadRequest
	case InsufficientPermissions:
		return http.StatusForbidden
	case BusinessRuleViolation:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error carries a Kind, a client-safe message, optional per-field detail
// (ValidationError only), and an optional wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Kind.String() + ": " + e.Message + ": " + e.Err.Error()
	}
	return e.Kind.String() + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// WithField attaches one key/value of client-visible detail and returns
// the receiver for chaining.
func (e *Error) WithField(key, value string) *Error {
	if e.Fields == nil {
		e.Fields = make(map[string]string, 1)
	}
	e.Fields[key] = value
	return e
}

// New builds an Error with no cause.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Newf builds an Error with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a cause so call sites keep the full chain for logs while
// clients only ever see Message.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// Invalid builds a ValidationError carrying field-level detail.
func Invalid(msg string, fields map[string]string) *Error {
	return &Error{Kind: ValidationError, Message: msg, Fields: fields}
}

// KindOf extracts the Kind from err, walking the wrap chain.  Unclassified
// errors report Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// FieldsOf returns the field detail map when err is a ValidationError,
// nil otherwise.
func FieldsOf(err error) map[string]string {
	var e *Error
	if errors.As(err, &e) {
		return e.Fields
	}
	return nil
}

// MessageOf returns the client-safe message for err.  Internal and
// ContextMissing collapse to a generic message so no internals leak.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		switch e.Kind {
		case Internal, ContextMissing:
			return "internal error"
		default:
			return e.Message
		}
	}
	return "internal error"
}
