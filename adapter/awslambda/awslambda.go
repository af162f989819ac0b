// Package awslambda serves a backend as an AWS Lambda function, accepting
// both API Gateway proxy events and Lambda Function URL events.
package awslambda

import (
	"encoding/json"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/apiroute-project/apiroute-go/backend"
	"github.com/apiroute-project/apiroute-go/exchange"
	"github.com/apiroute-project/apiroute-go/pkg/logger"
)

// Adapter serves a backend from the Lambda runtime.
type Adapter struct {
	Backend *backend.Backend
}

// New creates a Lambda adapter for the given backend
func New(b *backend.Backend) *Adapter {
	return &Adapter{Backend: b}
}

// Start begins the Lambda runtime
func (a *Adapter) Start() error {
	lambda.Start(a.handleEvent)
	return nil
}

// handleEvent routes incoming Lambda events to the backend, detecting the
// event shape from its payload
func (a *Adapter) handleEvent(event json.RawMessage) (interface{}, error) {
	var apiGatewayReq events.APIGatewayProxyRequest
	var functionURLReq events.LambdaFunctionURLRequest

	if err := json.Unmarshal(event, &apiGatewayReq); err == nil && apiGatewayReq.HTTPMethod != "" {
		return a.handleAPIGatewayRequest(apiGatewayReq), nil
	}
	if err := json.Unmarshal(event, &functionURLReq); err == nil && functionURLReq.RequestContext.HTTP.Method != "" {
		return a.handleFunctionURLRequest(functionURLReq), nil
	}
	return events.LambdaFunctionURLResponse{StatusCode: 400, Body: "Unsupported request type"}, nil
}

func (a *Adapter) handleAPIGatewayRequest(req events.APIGatewayProxyRequest) events.APIGatewayProxyResponse {
	raw := &exchange.RawRequest{
		Method:  req.HTTPMethod,
		Path:    req.Path,
		Query:   mergeMultiValue(req.QueryStringParameters, req.MultiValueQueryStringParameters),
		Headers: mergeMultiValue(req.Headers, req.MultiValueHeaders),
		Body:    []byte(req.Body),
	}
	logger.Tracef("request: %s %s", raw.Method, raw.Path)

	resp := a.Backend.Handle(raw, nil)
	logger.Tracef("response: %d", resp.StatusCode)

	return events.APIGatewayProxyResponse{
		StatusCode:        resp.StatusCode,
		Headers:           flattenHeaders(resp.Headers),
		MultiValueHeaders: resp.Headers,
		Body:              string(resp.Body),
	}
}

func (a *Adapter) handleFunctionURLRequest(req events.LambdaFunctionURLRequest) events.LambdaFunctionURLResponse {
	raw := &exchange.RawRequest{
		Method:  req.RequestContext.HTTP.Method,
		Path:    req.RawPath,
		Query:   splitQueryParameters(req.QueryStringParameters),
		Headers: mergeMultiValue(req.Headers, nil),
		Body:    []byte(req.Body),
	}
	logger.Tracef("request: %s %s", raw.Method, raw.Path)

	resp := a.Backend.Handle(raw, nil)
	logger.Tracef("response: %d", resp.StatusCode)

	return events.LambdaFunctionURLResponse{
		StatusCode: resp.StatusCode,
		Headers:    flattenHeaders(resp.Headers),
		Body:       string(resp.Body),
	}
}

// mergeMultiValue prefers the multi-value map when the event carries one
func mergeMultiValue(single map[string]string, multi map[string][]string) map[string][]string {
	if len(multi) > 0 {
		return multi
	}
	out := make(map[string][]string, len(single))
	for key, value := range single {
		out[key] = []string{value}
	}
	return out
}

// splitQueryParameters expands the comma-joined values of Function URL events
func splitQueryParameters(params map[string]string) map[string][]string {
	out := make(map[string][]string, len(params))
	for key, value := range params {
		out[key] = strings.Split(value, ",")
	}
	return out
}

// flattenHeaders joins multi-value headers for event shapes that only carry
// single-value maps
func flattenHeaders(headers map[string][]string) map[string]string {
	out := make(map[string]string, len(headers))
	for key, values := range headers {
		out[key] = strings.Join(values, ",")
	}
	return out
}
