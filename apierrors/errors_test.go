package apierrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	verrors "github.com/pb33f/libopenapi-validator/errors"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected int
	}{
		{name: "bad request", err: BadRequest(nil), expected: http.StatusBadRequest},
		{name: "not found", err: NotFound("GET", "/nope"), expected: http.StatusNotFound},
		{name: "not implemented", err: NotImplemented("getPet"), expected: http.StatusNotImplemented},
		{name: "unauthorized", err: Unauthorized(nil), expected: http.StatusUnauthorized},
		{name: "internal", err: Internal(errors.New("boom")), expected: http.StatusInternalServerError},
		{name: "http with explicit status", err: HTTP(409, nil), expected: 409},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.HTTPStatus())
		})
	}
}

func TestUnauthorizedStatusOverride(t *testing.T) {
	err := Unauthorized(map[string]error{
		"ApiKey": HTTP(http.StatusForbidden, nil),
	})
	assert.Equal(t, http.StatusForbidden, err.HTTPStatus())

	// plain scheme errors keep the default
	err = Unauthorized(map[string]error{
		"ApiKey": errors.New("missing key"),
	})
	assert.Equal(t, http.StatusUnauthorized, err.HTTPStatus())
}

func TestUnauthorizedStatusOverrideIsDeterministic(t *testing.T) {
	// competing overrides resolve in scheme name order, not map order
	for i := 0; i < 20; i++ {
		err := Unauthorized(map[string]error{
			"Alpha": HTTP(http.StatusForbidden, nil),
			"Beta":  HTTP(http.StatusUnavailableForLegalReasons, nil),
		})
		require.Equal(t, http.StatusForbidden, err.HTTPStatus())
	}
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "request validation failed", BadRequest(nil).Error())
	assert.Equal(t, "boom", Internal(errors.New("boom")).Error())
	assert.Equal(t, "internal", (&Error{Kind: KindInternal}).Error())
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	wrapped := fmt.Errorf("context: %w", Internal(cause))

	var e *Error
	require.True(t, errors.As(wrapped, &e))
	assert.ErrorIs(t, wrapped, cause)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(NotFound("GET", "/x")))
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
	assert.Equal(t, KindBadRequest, KindOf(fmt.Errorf("wrapped: %w", BadRequest(nil))))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(NotFound("GET", "/x")))
	assert.False(t, IsNotFound(BadRequest(nil)))
	assert.False(t, IsNotFound(errors.New("plain")))
}

func TestFromValidationErrors(t *testing.T) {
	violations := FromValidationErrors([]*verrors.ValidationError{
		{
			ValidationType: "parameter",
			Message:        "query parameter 'limit' failed",
		},
		{
			Message: "POST request body failed",
			SchemaValidationErrors: []*verrors.SchemaValidationFailure{
				{FieldPath: "$.name", Reason: "missing property 'name'"},
				{KeywordLocation: "/properties/age/type", Reason: "expected integer"},
			},
		},
	})

	require.Len(t, violations, 3)
	assert.Equal(t, Violation{Location: "parameter", Message: "query parameter 'limit' failed"}, violations[0])
	assert.Equal(t, "$.name", violations[1].Location)
	assert.Equal(t, "/properties/age/type", violations[2].Location)
	// schema failure reasons alone do not name the failing field, so the
	// outer message is kept as a prefix
	assert.Equal(t, "POST request body failed: missing property 'name'", violations[1].Message)
	assert.Equal(t, "POST request body failed: expected integer", violations[2].Message)
}

func TestFromValidationErrorsNamesParameter(t *testing.T) {
	violations := FromValidationErrors([]*verrors.ValidationError{
		{
			Message: "Query parameter 'limit' is not a valid number",
			SchemaValidationErrors: []*verrors.SchemaValidationFailure{
				{Reason: "Value 'INVALID' is not a valid number"},
			},
		},
	})

	require.Len(t, violations, 1)
	assert.Contains(t, violations[0].Message, "limit")
	assert.Contains(t, violations[0].Message, "INVALID")
}
