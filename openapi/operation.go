package openapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/pb33f/libopenapi/datamodel/high/base"
	v3 "github.com/pb33f/libopenapi/datamodel/high/v3"
)

// Operation is an immutable descriptor of one API operation. It is owned by
// its Definition and treated as read-only input by the dispatch pipeline.
type Operation struct {
	ID     string
	Method string
	Path   string

	op       *v3.Operation
	pathItem *v3.PathItem
	doc      *v3.Document
}

// SecurityRequirement names one security scheme together with the scopes the
// current operation demands under that scheme.
type SecurityRequirement struct {
	Name   string
	Scheme *v3.SecurityScheme
	Scopes []string
}

// Parameters returns the parameters declared for the given location,
// merging path-item level declarations with operation level ones.
// Operation level declarations win on a (name, in) clash.
func (o *Operation) Parameters(in string) []*v3.Parameter {
	merged := make([]*v3.Parameter, 0)
	seen := make(map[string]bool)

	for _, p := range o.op.Parameters {
		if p.In != in {
			continue
		}
		merged = append(merged, p)
		seen[p.Name] = true
	}
	if o.pathItem != nil {
		for _, p := range o.pathItem.Parameters {
			if p.In != in || seen[p.Name] {
				continue
			}
			merged = append(merged, p)
		}
	}
	return merged
}

// HasRequestBody reports whether the operation declares a request body
func (o *Operation) HasRequestBody() bool {
	return o.op.RequestBody != nil
}

// SecurityAlternatives resolves the security requirements that apply to this
// operation. Each element is one acceptable alternative: every scheme within
// it must be satisfied. Operation-level security overrides document-level
// security entirely when declared; an explicit empty list disables security.
func (o *Operation) SecurityAlternatives() [][]SecurityRequirement {
	declared := o.op.Security
	if declared == nil {
		declared = o.doc.Security
	}

	alternatives := make([][]SecurityRequirement, 0, len(declared))
	for _, requirement := range declared {
		if requirement == nil {
			continue
		}
		if requirement.Requirements == nil || requirement.Requirements.Len() == 0 {
			// an empty requirement object permits anonymous access
			alternatives = append(alternatives, []SecurityRequirement{})
			continue
		}
		var set []SecurityRequirement
		for name, scopes := range requirement.Requirements.FromOldest() {
			set = append(set, SecurityRequirement{
				Name:   name,
				Scheme: o.securityScheme(name),
				Scopes: scopes,
			})
		}
		alternatives = append(alternatives, set)
	}
	return alternatives
}

// securityScheme resolves a named scheme from the document components
func (o *Operation) securityScheme(name string) *v3.SecurityScheme {
	if o.doc.Components == nil || o.doc.Components.SecuritySchemes == nil {
		return nil
	}
	for schemeName, scheme := range o.doc.Components.SecuritySchemes.FromOldest() {
		if schemeName == name {
			return scheme
		}
	}
	return nil
}

// ResponseCodes returns the numeric status codes declared for the operation
func (o *Operation) ResponseCodes() []int {
	if o.op.Responses == nil || o.op.Responses.Codes == nil {
		return nil
	}
	var codes []int
	for code := range o.op.Responses.Codes.FromOldest() {
		status, err := strconv.Atoi(code)
		if err != nil {
			// range keys such as "2XX" and "default" carry no single code
			continue
		}
		codes = append(codes, status)
	}
	return codes
}

// ImplicitStatusCode returns the status code a handler may omit: the single
// declared code in the [200,400) range. The second return is false when zero
// or multiple such codes are declared.
func (o *Operation) ImplicitStatusCode() (int, bool) {
	var found int
	var count int
	for _, code := range o.ResponseCodes() {
		if code >= http.StatusOK && code < http.StatusBadRequest {
			found = code
			count++
		}
	}
	if count != 1 {
		return 0, false
	}
	return found, true
}

// Response returns the declared response for a status code, falling back to
// the default response when no exact match exists
func (o *Operation) Response(statusCode int) *v3.Response {
	if o.op.Responses == nil {
		return nil
	}
	if o.op.Responses.Codes != nil {
		want := strconv.Itoa(statusCode)
		for code, resp := range o.op.Responses.Codes.FromOldest() {
			if code == want {
				return resp
			}
		}
	}
	return o.op.Responses.Default
}

// Media picks the media type to validate or mock a response body against,
// preferring JSON over whatever is declared first
func (o *Operation) Media(statusCode int) (string, *v3.MediaType) {
	resp := o.Response(statusCode)
	if resp == nil || resp.Content == nil || resp.Content.Len() == 0 {
		return "", nil
	}
	var firstType string
	var firstMedia *v3.MediaType
	for contentType, media := range resp.Content.FromOldest() {
		if firstMedia == nil {
			firstType, firstMedia = contentType, media
		}
		if strings.HasPrefix(contentType, "application/json") {
			return contentType, media
		}
	}
	return firstType, firstMedia
}

// ResponseSchema returns the body schema declared for a status code, or nil
func (o *Operation) ResponseSchema(statusCode int) *base.Schema {
	_, media := o.Media(statusCode)
	if media == nil || media.Schema == nil {
		return nil
	}
	return media.Schema.Schema()
}

// ResponseHeaders returns the headers declared for a status code
func (o *Operation) ResponseHeaders(statusCode int) map[string]*v3.Header {
	resp := o.Response(statusCode)
	if resp == nil || resp.Headers == nil {
		return nil
	}
	headers := make(map[string]*v3.Header, resp.Headers.Len())
	for name, header := range resp.Headers.FromOldest() {
		headers[name] = header
	}
	return headers
}
