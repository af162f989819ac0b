package apierrors

import (
	"errors"
	"fmt"
	"net/http"
	"sort"

	verrors "github.com/pb33f/libopenapi-validator/errors"
)

// Kind discriminates the failure categories produced by the routing,
// validation and authorization steps.
type Kind int

const (
	KindInternal Kind = iota
	KindBadRequest
	KindNotFound
	KindNotImplemented
	KindUnauthorized
	KindHTTP
)

func (k Kind) String() string {
	switch k {
	case KindBadRequest:
		return "bad request"
	case KindNotFound:
		return "not found"
	case KindNotImplemented:
		return "not implemented"
	case KindUnauthorized:
		return "unauthorized"
	case KindHTTP:
		return "http"
	default:
		return "internal"
	}
}

// Violation is a single schema validation failure with its location
type Violation struct {
	Location string `json:"location,omitempty"`
	Message  string `json:"message"`
}

// Error is the tagged error value used throughout the pipeline. The Kind
// decides both the routing behaviour (fall through vs abort) and the
// default HTTP mapping.
type Error struct {
	Kind    Kind
	Message string

	// Status carries an explicit status code for KindHTTP errors, or an
	// authorizer-supplied override for KindUnauthorized.
	Status int

	// Violations lists schema failures for KindBadRequest.
	Violations []Violation

	// SchemeErrors holds the per-scheme failures collected while
	// evaluating security requirement alternatives.
	SchemeErrors map[string]error

	// Data is the user-supplied response body for KindHTTP.
	Data any

	Err error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the status code this error maps to by default
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindNotImplemented:
		return http.StatusNotImplemented
	case KindUnauthorized:
		if e.Status != 0 {
			return e.Status
		}
		return http.StatusUnauthorized
	case KindHTTP:
		if e.Status != 0 {
			return e.Status
		}
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// BadRequest creates a request validation error carrying each violation
func BadRequest(violations []Violation) *Error {
	return &Error{
		Kind:       KindBadRequest,
		Message:    "request validation failed",
		Violations: violations,
	}
}

// NotFound signals that no path and method matched the request
func NotFound(method, path string) *Error {
	return &Error{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("no operation matches %s %s", method, path),
	}
}

// NotImplemented signals a matched operation with no registered handler
func NotImplemented(operationID string) *Error {
	return &Error{
		Kind:    KindNotImplemented,
		Message: fmt.Sprintf("no handler registered for operation %q", operationID),
	}
}

// Unauthorized signals that every security requirement alternative failed.
// If any scheme error carries an explicit status, the first one in scheme
// name order overrides the default 401.
func Unauthorized(schemeErrors map[string]error) *Error {
	e := &Error{
		Kind:         KindUnauthorized,
		Message:      "authorization failed",
		SchemeErrors: schemeErrors,
	}
	names := make([]string, 0, len(schemeErrors))
	for name := range schemeErrors {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		var httpErr *Error
		if errors.As(schemeErrors[name], &httpErr) && httpErr.Kind == KindHTTP && httpErr.Status != 0 {
			e.Status = httpErr.Status
			break
		}
	}
	return e
}

// Internal wraps any unexpected failure; details are logged, not leaked
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Err: err}
}

// Internalf creates an internal error from a format string
func Internalf(format string, v ...interface{}) *Error {
	return &Error{Kind: KindInternal, Message: fmt.Sprintf(format, v...)}
}

// HTTP creates a user-thrown error with an explicit status and body
func HTTP(status int, data any) *Error {
	return &Error{
		Kind:    KindHTTP,
		Message: fmt.Sprintf("handler returned status %d", status),
		Status:  status,
		Data:    data,
	}
}

// KindOf extracts the Kind from an error chain; anything that is not an
// *Error counts as internal
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsNotFound reports whether routing failed because no path or method
// matched, which allows the router to try the next definition
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

// FromValidationErrors flattens raw validator output into violations,
// expanding nested schema failures. Schema failure reasons alone do not name
// the failing parameter or field, so each one is prefixed with the outer
// error's message.
func FromValidationErrors(validationErrors []*verrors.ValidationError) []Violation {
	var violations []Violation
	for _, ve := range validationErrors {
		if len(ve.SchemaValidationErrors) > 0 {
			for _, sve := range ve.SchemaValidationErrors {
				message := sve.Reason
				if ve.Message != "" {
					message = fmt.Sprintf("%s: %s", ve.Message, sve.Reason)
				}
				location := sve.FieldPath
				if location == "" {
					location = sve.KeywordLocation
				}
				violations = append(violations, Violation{
					Location: location,
					Message:  message,
				})
			}
			continue
		}
		violations = append(violations, Violation{
			Location: string(ve.ValidationType),
			Message:  ve.Message,
		})
	}
	return violations
}
