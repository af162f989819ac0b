package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apiroute-project/apiroute-go/exchange"
)

const itemsSpec = `
openapi: 3.0.3
info:
  title: Items
  version: 1.0.0
paths:
  /items:
    get:
      operationId: listItems
      responses:
        "200":
          description: one item
          content:
            application/json:
              schema:
                type: object
                required:
                  - id
                properties:
                  id:
                    type: string
                  label:
                    type: string
  /strict:
    get:
      operationId: getStrict
      responses:
        "200":
          description: closed object
          headers:
            X-Count:
              required: true
              schema:
                type: integer
          content:
            application/json:
              schema:
                type: object
                additionalProperties: false
                required:
                  - id
                properties:
                  id:
                    type: string
`

func newItemsBackend(body map[string]any, headers map[string]any, opts ...Option) *Backend {
	handler := func(c *exchange.Context) (any, error) {
		for name, value := range headers {
			c.Response.SetHeader(name, value)
		}
		return body, nil
	}
	return New(opts...).Register([]byte(itemsSpec), map[string]Handler{
		"listItems": handler,
		"getStrict": handler,
	}, nil, "")
}

func TestResponseValidationWarnByDefault(t *testing.T) {
	// "id" is required but missing; warn keeps the response intact
	b := newItemsBackend(map[string]any{"label": "x"}, nil)

	resp := doRequest(b, "GET", "/items", nil, nil)

	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, map[string]any{"label": "x"}, decodeJSON(t, resp.Body))
}

func TestResponseValidationFail(t *testing.T) {
	b := newItemsBackend(map[string]any{"label": "x"}, nil, WithResponseValidation(ValidationBehaviourFail))

	resp := doRequest(b, "GET", "/items", nil, nil)

	assert.Equal(t, 500, resp.StatusCode)
	assert.Equal(t, "internal server error", decodeJSON(t, resp.Body)["message"])
}

func TestResponseValidationFailOnMissingBody(t *testing.T) {
	// a nil handler return against a declared schema is a violation too
	b := newItemsBackend(nil, nil, WithResponseValidation(ValidationBehaviourFail))

	resp := doRequest(b, "GET", "/items", nil, nil)

	assert.Equal(t, 500, resp.StatusCode)
	assert.Equal(t, "internal server error", decodeJSON(t, resp.Body)["message"])
}

func TestResponseValidationFailOnHeaders(t *testing.T) {
	body := map[string]any{"id": "1"}

	// the declared X-Count header is missing
	b := newItemsBackend(body, nil, WithResponseValidation(ValidationBehaviourFail))
	resp := doRequest(b, "GET", "/strict", nil, nil)
	assert.Equal(t, 500, resp.StatusCode)

	b = newItemsBackend(body, map[string]any{"X-Count": 3}, WithResponseValidation(ValidationBehaviourFail))
	resp = doRequest(b, "GET", "/strict", nil, nil)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, []string{"3"}, resp.Headers["X-Count"])
}

func TestTrimAll(t *testing.T) {
	// "extra" is tolerated by the open schema but trimmed anyway
	b := newItemsBackend(map[string]any{"id": "1", "label": "x", "extra": true}, nil, WithTrimming(TrimAll))

	resp := doRequest(b, "GET", "/items", nil, nil)

	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, map[string]any{"id": "1", "label": "x"}, decodeJSON(t, resp.Body))
}

func TestTrimNoneKeepsUndeclaredProperties(t *testing.T) {
	b := newItemsBackend(map[string]any{"id": "1", "extra": true}, nil)

	resp := doRequest(b, "GET", "/items", nil, nil)

	require.Equal(t, 200, resp.StatusCode)
	assert.Contains(t, decodeJSON(t, resp.Body), "extra")
}

func TestTrimFailingOnlyTrimsInvalidBodies(t *testing.T) {
	// valid despite the undeclared property: no trim happens
	b := newItemsBackend(map[string]any{"id": "1", "extra": true}, nil, WithTrimming(TrimFailing))
	resp := doRequest(b, "GET", "/items", nil, nil)
	require.Equal(t, 200, resp.StatusCode)
	assert.Contains(t, decodeJSON(t, resp.Body), "extra")

	// the closed schema rejects the extra property, so it is trimmed away
	b = newItemsBackend(map[string]any{"id": "1", "extra": true}, map[string]any{"X-Count": 1}, WithTrimming(TrimFailing))
	resp = doRequest(b, "GET", "/strict", nil, nil)
	require.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, map[string]any{"id": "1"}, decodeJSON(t, resp.Body))
}

func TestTrimCuresFailingResponse(t *testing.T) {
	// with fail behaviour, trimming removes the offending property before
	// the violation is escalated
	b := newItemsBackend(
		map[string]any{"id": "1", "extra": true},
		map[string]any{"X-Count": 1},
		WithResponseValidation(ValidationBehaviourFail),
		WithTrimming(TrimFailing),
	)

	resp := doRequest(b, "GET", "/strict", nil, nil)

	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, map[string]any{"id": "1"}, decodeJSON(t, resp.Body))
}
