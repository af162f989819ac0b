package exchange

import (
	"bytes"
	"net/http"
	"net/url"
	"strings"

	"github.com/apiroute-project/apiroute-go/openapi"
)

// RawRequest is the transport-agnostic inbound request. All parameter values
// are strings or string arrays in their wire shape. A RawRequest is immutable
// once received.
type RawRequest struct {
	Method  string
	Path    string
	Query   map[string][]string
	Headers map[string][]string
	Body    []byte
}

// Header returns the first value for a header name, case-insensitively
func (r *RawRequest) Header(name string) string {
	canonical := http.CanonicalHeaderKey(name)
	for key, values := range r.Headers {
		if http.CanonicalHeaderKey(key) == canonical && len(values) > 0 {
			return values[0]
		}
	}
	return ""
}

// ToHTTPRequest converts the raw request into an http.Request so it can be
// fed to the route matching and validation library
func (r *RawRequest) ToHTTPRequest() (*http.Request, error) {
	path := r.Path
	if unescaped, err := url.PathUnescape(path); err == nil {
		// accept both decoded and percent-encoded inbound paths
		path = unescaped
	}
	target := &url.URL{
		Path:     path,
		RawQuery: url.Values(r.Query).Encode(),
	}

	req, err := http.NewRequest(strings.ToUpper(r.Method), target.String(), bytes.NewReader(r.Body))
	if err != nil {
		return nil, err
	}
	for key, values := range r.Headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	return req, nil
}

// Request is the typed view of a matched request: parameter values have been
// coerced against the operation's schemas and the body decoded.
type Request struct {
	Method  string
	Path    string
	Params  map[string]any
	Query   map[string]any
	Headers map[string]any
	Cookies map[string]any
	Body    any
}

// SecurityResult holds the values returned by the authorizers of the first
// fully-satisfied security requirement alternative, keyed by scheme name.
type SecurityResult struct {
	Results map[string]any
}

// Context carries the state scoped to one handled request. A fresh Context
// is created per request and is never shared across concurrent requests.
type Context struct {
	Raw      *RawRequest
	Request  *Request
	Response *ResponseState

	// Operation is set once routing has resolved the request
	Operation *openapi.Operation

	// Security is populated after authorization succeeds
	Security *SecurityResult

	// Data is the caller-supplied value passed unchanged into every
	// handler, authorizer and interceptor invocation
	Data any
}

// NewContext creates the per-request context with a fresh pending response
func NewContext(raw *RawRequest, data any) *Context {
	return &Context{
		Raw:      raw,
		Response: NewResponseState(),
		Data:     data,
	}
}
