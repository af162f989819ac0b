// Package mock builds response bodies for operations straight from their
// OpenAPI definition, preferring declared examples and falling back to
// values synthesized from the response schema.
package mock

import (
	"net/http"

	"github.com/pb33f/libopenapi/datamodel/high/base"

	"github.com/apiroute-project/apiroute-go/exchange"
	"github.com/apiroute-project/apiroute-go/openapi"
	"github.com/apiroute-project/apiroute-go/pkg/logger"
)

// ResponseForOperation picks the response status for an operation and builds
// a body for it. The status is the operation's implicit success code when it
// has one, otherwise the lowest declared success code, otherwise 200.
func ResponseForOperation(op *openapi.Operation) (int, any) {
	status := mockStatus(op)

	_, media := op.Media(status)
	if media == nil {
		return status, nil
	}

	if media.Example != nil {
		logger.Debugf("returning example from OpenAPI spec for operation %q", op.ID)
		return status, yamlNodeToObj(media.Example)
	}
	if media.Examples != nil && media.Examples.Len() > 0 {
		example := media.Examples.Oldest().Value
		if example != nil && example.Value != nil {
			logger.Debugf("returning named example from OpenAPI spec for operation %q", op.ID)
			return status, yamlNodeToObj(example.Value)
		}
	}
	if media.Schema != nil {
		logger.Debugf("generating example from schema for operation %q", op.ID)
		return status, generateFromSchema(media.Schema.Schema(), 0)
	}
	return status, nil
}

func mockStatus(op *openapi.Operation) int {
	if code, unambiguous := op.ImplicitStatusCode(); unambiguous {
		return code
	}
	lowest := 0
	for _, code := range op.ResponseCodes() {
		if code >= http.StatusOK && code < http.StatusBadRequest {
			if lowest == 0 || code < lowest {
				lowest = code
			}
		}
	}
	if lowest != 0 {
		return lowest
	}
	return http.StatusOK
}

// Handler returns an operation handler serving mock responses derived from
// the matched operation
func Handler() func(c *exchange.Context) (any, error) {
	return func(c *exchange.Context) (any, error) {
		status, body := ResponseForOperation(c.Operation)
		c.Response.StatusCode = status
		return body, nil
	}
}

func schemaType(schema *base.Schema) string {
	if schema == nil || len(schema.Type) == 0 {
		return ""
	}
	return schema.Type[0]
}
