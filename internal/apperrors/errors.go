package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for HTTP mapping and operator alerting.
type Kind int

const (
	// KindValidation: malformed or missing input, caller can correct and retry.
	KindValidation Kind = iota
	// KindAuthentication: signature mismatch on a payment callback. Logged as a
	// security event, never retried automatically.
	KindAuthentication
	// KindGateway: upstream payment provider failure. A human may start a new
	// attempt; never auto-retried (a blind retry can create a duplicate intent).
	KindGateway
	// KindConflict: duplicate commit attempt. The coordinator treats this as
	// success; it only surfaces to internal callers.
	KindConflict
	// KindPersistence: store write failed after verification succeeded. Money has
	// moved with no record; requires operator attention.
	KindPersistence
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthentication:
		return "authentication"
	case KindGateway:
		return "gateway"
	case KindConflict:
		return "conflict"
	case KindPersistence:
		return "persistence"
	}
	return "unknown"
}

// Error is the application error type. Message is safe to log; user-facing
// bodies are decided by the HTTP error handler, which hides the detail for
// authentication and persistence failures.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Msg: msg}
}

func Validationf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

func Authentication(msg string) *Error {
	return &Error{Kind: KindAuthentication, Msg: msg}
}

func Gateway(msg string, err error) *Error {
	return &Error{Kind: KindGateway, Msg: msg, Err: err}
}

func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Msg: msg}
}

func Persistence(msg string, err error) *Error {
	return &Error{Kind: KindPersistence, Msg: msg, Err: err}
}

// KindOf returns the Kind of err, or ok=false for foreign errors.
func KindOf(err error) (Kind, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind, true
	}
	return 0, false
}

func IsKind(err error, k Kind) bool {
	kind, ok := KindOf(err)
	return ok && kind == k
}

// HTTPStatus maps an error to the status code the API should return.
// Conflicts map to 200 territory at the call sites that absorb them; if one
// escapes to the error handler it is reported as 409.
func HTTPStatus(err error) int {
	kind, ok := KindOf(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindGateway:
		return http.StatusBadGateway
	case KindConflict:
		return http.StatusConflict
	case KindPersistence:
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}

// PublicMessage is what the end user may see. Validation and gateway errors
// carry an actionable message; authentication and persistence details stay in
// server logs only.
func PublicMessage(err error) string {
	kind, ok := KindOf(err)
	if !ok {
		return "Something went wrong. Please try again later."
	}
	switch kind {
	case KindValidation:
		var ae *Error
		errors.As(err, &ae)
		return ae.Msg
	case KindGateway:
		return "Could not reach the payment provider. Please try again."
	case KindConflict:
		return "This payment was already recorded."
	default:
		return "Something went wrong. Please try again later."
	}
}
