package openapi

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	verrors "github.com/pb33f/libopenapi-validator/errors"
	"github.com/pb33f/libopenapi/datamodel/high/base"
)

// ValidateResponseBody validates a serialized response body against the
// schema declared for the resolved status code. The originating request is
// needed so the validator can locate the operation. The pending response
// headers must be carried over: the validator also checks declared response
// headers, and would otherwise report every required header as missing. An
// empty body against a declared schema is a violation.
func (d *Definition) ValidateResponseBody(req *http.Request, statusCode int, contentType string, headers map[string][]string, body []byte) []*verrors.ValidationError {
	header := http.Header{}
	for name, values := range headers {
		for _, value := range values {
			header.Add(name, value)
		}
	}
	header.Set("Content-Type", contentType)

	var respBody io.ReadCloser = http.NoBody
	if len(body) > 0 {
		respBody = io.NopCloser(bytes.NewReader(body))
	}
	resp := &http.Response{
		StatusCode: statusCode,
		Header:     header,
		Body:       respBody,
		Request:    req,
	}
	ok, errs := d.respValidator.ValidateResponseBody(req, resp)
	if ok {
		return nil
	}
	return errs
}

// ValidateResponseHeaders checks the pending response headers against the
// headers declared for the status code. The match is a superset match:
// undeclared headers are tolerated, declared required headers must be
// present, and declared headers that are present must coerce to their type.
func (o *Operation) ValidateResponseHeaders(statusCode int, headers map[string]any) []error {
	declared := o.ResponseHeaders(statusCode)
	if len(declared) == 0 {
		return nil
	}

	var errs []error
	for name, header := range declared {
		value, present := lookupHeader(headers, name)
		if !present {
			if header.Required {
				errs = append(errs, fmt.Errorf("missing required response header %q", name))
			}
			continue
		}
		if header.Schema == nil {
			continue
		}
		if _, err := coerceScalar(fmt.Sprintf("%v", value), header.Schema.Schema()); err != nil {
			errs = append(errs, fmt.Errorf("response header %q: %w", name, err))
		}
	}
	return errs
}

func lookupHeader(headers map[string]any, name string) (any, bool) {
	canonical := http.CanonicalHeaderKey(name)
	for key, value := range headers {
		if http.CanonicalHeaderKey(key) == canonical {
			return value, true
		}
	}
	return nil, false
}

// TrimAdditionalProperties strips object properties not declared in the
// schema from a decoded body, recursing through nested objects and arrays.
// Values that are not plain decoded JSON are returned unchanged.
func TrimAdditionalProperties(value any, schema *base.Schema) any {
	if schema == nil || value == nil {
		return value
	}

	switch schemaType(schema) {
	case "array":
		arr, ok := value.([]any)
		if !ok {
			return value
		}
		items := itemsSchema(schema)
		trimmed := make([]any, len(arr))
		for i := range arr {
			trimmed[i] = TrimAdditionalProperties(arr[i], items)
		}
		return trimmed

	default:
		obj, ok := value.(map[string]any)
		if !ok {
			return value
		}
		if schema.Properties == nil || schema.Properties.Len() == 0 {
			return value
		}
		trimmed := make(map[string]any, schema.Properties.Len())
		for name, propSchema := range schema.Properties.FromOldest() {
			if v, present := obj[name]; present {
				trimmed[name] = TrimAdditionalProperties(v, propSchema.Schema())
			}
		}
		return trimmed
	}
}
