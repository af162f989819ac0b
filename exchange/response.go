package exchange

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// ResponseState is the mutable pending response handed to interceptors and
// handlers. At finalize time the status code is always set and header values
// are coerced to strings for wire transmission.
type ResponseState struct {
	StatusCode int
	Headers    map[string]any

	body    any
	bodySet bool
}

// NewResponseState creates an empty pending response
func NewResponseState() *ResponseState {
	return &ResponseState{
		Headers: make(map[string]any),
	}
}

// SetBody sets the response body explicitly. Once called, the handler's
// return value no longer contributes to the response.
func (rs *ResponseState) SetBody(body any) {
	rs.body = body
	rs.bodySet = true
}

// Body returns the pending response body
func (rs *ResponseState) Body() any {
	return rs.body
}

// BodySet reports whether the body was set explicitly
func (rs *ResponseState) BodySet() bool {
	return rs.bodySet
}

// SetHeader sets a single response header value
func (rs *ResponseState) SetHeader(name string, value any) {
	rs.Headers[name] = value
}

// HasHeader reports whether a header is set, case-insensitively
func (rs *ResponseState) HasHeader(name string) bool {
	canonical := http.CanonicalHeaderKey(name)
	for key := range rs.Headers {
		if http.CanonicalHeaderKey(key) == canonical {
			return true
		}
	}
	return false
}

// RawResponse is the finalized wire-shaped response.
type RawResponse struct {
	StatusCode int
	Headers    map[string][]string
	Body       []byte
}

// MarshalBody serializes a body value for the wire. Byte slices and strings
// pass through untouched; everything else is JSON-encoded.
func MarshalBody(body any) (data []byte, encoded bool, err error) {
	switch b := body.(type) {
	case nil:
		return nil, false, nil
	case []byte:
		return b, false, nil
	case string:
		return []byte(b), false, nil
	case json.RawMessage:
		return b, true, nil
	default:
		data, err := json.Marshal(b)
		return data, true, err
	}
}

// WireHeaders returns the pending headers in their stringified wire shape
func (rs *ResponseState) WireHeaders() map[string][]string {
	headers := make(map[string][]string, len(rs.Headers))
	for key, value := range rs.Headers {
		headers[key] = stringifyHeader(value)
	}
	return headers
}

// Finalize converts the pending state into a RawResponse. Header values are
// stringified; JSON-encoded bodies gain a content type if none was set.
func (rs *ResponseState) Finalize() (*RawResponse, error) {
	headers := rs.WireHeaders()

	body, encoded, err := MarshalBody(rs.body)
	if err != nil {
		return nil, fmt.Errorf("cannot serialize response body: %w", err)
	}
	if encoded && !rs.HasHeader("Content-Type") {
		headers["Content-Type"] = []string{"application/json"}
	}

	return &RawResponse{
		StatusCode: rs.StatusCode,
		Headers:    headers,
		Body:       body,
	}, nil
}

func stringifyHeader(value any) []string {
	switch v := value.(type) {
	case string:
		return []string{v}
	case []string:
		return v
	case []any:
		out := make([]string, len(v))
		for i := range v {
			out[i] = fmt.Sprintf("%v", v[i])
		}
		return out
	default:
		return []string{fmt.Sprintf("%v", v)}
	}
}
