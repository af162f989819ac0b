package awslambda

import (
	"encoding/json"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apiroute-project/apiroute-go/backend"
	"github.com/apiroute-project/apiroute-go/exchange"
)

const pingSpec = `
openapi: 3.0.3
info:
  title: Ping
  version: 1.0.0
paths:
  /ping:
    get:
      operationId: ping
      parameters:
        - name: count
          in: query
          schema:
            type: integer
      responses:
        "200":
          description: pong
          content:
            application/json:
              schema:
                type: object
`

func newAdapter(t *testing.T) (*Adapter, *any) {
	t.Helper()
	var gotCount any
	b := backend.New().Register([]byte(pingSpec), map[string]backend.Handler{
		"ping": func(c *exchange.Context) (any, error) {
			gotCount = c.Request.Query["count"]
			return map[string]any{"pong": true}, nil
		},
	}, nil, "")
	return New(b), &gotCount
}

func TestHandleAPIGatewayEvent(t *testing.T) {
	a, gotCount := newAdapter(t)

	event, err := json.Marshal(events.APIGatewayProxyRequest{
		HTTPMethod:                      "GET",
		Path:                            "/ping",
		MultiValueQueryStringParameters: map[string][]string{"count": {"3"}},
		Headers:                         map[string]string{"Accept": "application/json"},
	})
	require.NoError(t, err)

	result, err := a.handleEvent(event)
	require.NoError(t, err)

	resp, ok := result.(events.APIGatewayProxyResponse)
	require.True(t, ok)
	assert.Equal(t, 200, resp.StatusCode)
	assert.JSONEq(t, `{"pong":true}`, resp.Body)
	assert.Equal(t, "application/json", resp.Headers["Content-Type"])
	assert.Equal(t, int64(3), *gotCount)
}

func TestHandleFunctionURLEvent(t *testing.T) {
	a, gotCount := newAdapter(t)

	event, err := json.Marshal(events.LambdaFunctionURLRequest{
		RawPath:               "/ping",
		QueryStringParameters: map[string]string{"count": "5"},
		RequestContext: events.LambdaFunctionURLRequestContext{
			HTTP: events.LambdaFunctionURLRequestContextHTTPDescription{
				Method: "GET",
			},
		},
	})
	require.NoError(t, err)

	result, err := a.handleEvent(event)
	require.NoError(t, err)

	resp, ok := result.(events.LambdaFunctionURLResponse)
	require.True(t, ok)
	assert.Equal(t, 200, resp.StatusCode)
	assert.JSONEq(t, `{"pong":true}`, resp.Body)
	assert.Equal(t, int64(5), *gotCount)
}

func TestHandleUnsupportedEvent(t *testing.T) {
	a, _ := newAdapter(t)

	result, err := a.handleEvent(json.RawMessage(`{"Records":[]}`))
	require.NoError(t, err)

	resp, ok := result.(events.LambdaFunctionURLResponse)
	require.True(t, ok)
	assert.Equal(t, 400, resp.StatusCode)
}

func TestMergeMultiValue(t *testing.T) {
	multi := map[string][]string{"a": {"1", "2"}}
	assert.Equal(t, multi, mergeMultiValue(map[string]string{"a": "ignored"}, multi))

	assert.Equal(t, map[string][]string{"b": {"x"}}, mergeMultiValue(map[string]string{"b": "x"}, nil))
}

func TestSplitQueryParameters(t *testing.T) {
	out := splitQueryParameters(map[string]string{"tags": "a,b", "q": "one"})
	assert.Equal(t, map[string][]string{"tags": {"a", "b"}, "q": {"one"}}, out)
}

func TestFlattenHeaders(t *testing.T) {
	out := flattenHeaders(map[string][]string{"Set-Cookie": {"a=1", "b=2"}, "X-One": {"v"}})
	assert.Equal(t, map[string]string{"Set-Cookie": "a=1,b=2", "X-One": "v"}, out)
}
