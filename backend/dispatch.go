package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/apiroute-project/apiroute-go/apierrors"
	"github.com/apiroute-project/apiroute-go/exchange"
	"github.com/apiroute-project/apiroute-go/openapi"
	"github.com/apiroute-project/apiroute-go/pkg/logger"
)

// dispatch executes the per-operation pipeline: parse, authorize, invoke the
// handler, resolve the body and status code, then validate the response.
func (b *Backend) dispatch(c *exchange.Context, api *registeredAPI, match *openapi.MatchResult, httpReq *http.Request) error {
	op := match.Operation
	c.Operation = op

	typed, err := parseRequest(c.Raw, match, httpReq)
	if err != nil {
		// the request already passed schema validation, so a coercion
		// failure here is an invariant violation
		return apierrors.Internal(err)
	}
	c.Request = typed

	if err := b.authorize(c, api, op); err != nil {
		return err
	}

	handler, registered := api.handlers[op.ID]
	if !registered {
		return apierrors.NotImplemented(op.ID)
	}

	returned, err := handler(c)
	if err != nil {
		var apiErr *apierrors.Error
		if errors.As(err, &apiErr) {
			return apiErr
		}
		return apierrors.Internal(err)
	}

	if !c.Response.BodySet() {
		// the handler's return value becomes the body, even when nil
		c.Response.SetBody(returned)
	}

	if c.Response.StatusCode == 0 {
		code, unambiguous := op.ImplicitStatusCode()
		if !unambiguous {
			return apierrors.Internalf("cannot determine implicit status code for operation %q", op.ID)
		}
		c.Response.StatusCode = code
	}

	return b.validateResponse(c, api, httpReq)
}

// parseRequest coerces the raw parameters into the typed request and decodes
// the body
func parseRequest(raw *exchange.RawRequest, match *openapi.MatchResult, httpReq *http.Request) (*exchange.Request, error) {
	op := match.Operation

	rawPath := make(map[string][]string, len(match.PathParams))
	for name, value := range match.PathParams {
		rawPath[name] = []string{value}
	}

	var coerceErrs []error
	params, errs := openapi.CoerceParams(rawPath, op.Parameters("path"), "path")
	coerceErrs = append(coerceErrs, errs...)
	query, errs := openapi.CoerceParams(raw.Query, op.Parameters("query"), "query")
	coerceErrs = append(coerceErrs, errs...)
	headers, errs := openapi.CoerceParams(raw.Headers, op.Parameters("header"), "header")
	coerceErrs = append(coerceErrs, errs...)
	cookies, errs := openapi.CoerceParams(cookieValues(httpReq), op.Parameters("cookie"), "cookie")
	coerceErrs = append(coerceErrs, errs...)

	if len(coerceErrs) > 0 {
		return nil, fmt.Errorf("parameter coercion failed after validation: %w", errors.Join(coerceErrs...))
	}

	return &exchange.Request{
		Method:  raw.Method,
		Path:    raw.Path,
		Params:  params,
		Query:   query,
		Headers: headers,
		Cookies: cookies,
		Body:    decodeBody(raw),
	}, nil
}

// cookieValues extracts cookies from the converted request
func cookieValues(httpReq *http.Request) map[string][]string {
	cookies := httpReq.Cookies()
	if len(cookies) == 0 {
		return nil
	}
	out := make(map[string][]string, len(cookies))
	for _, cookie := range cookies {
		out[cookie.Name] = append(out[cookie.Name], cookie.Value)
	}
	return out
}

// decodeBody unmarshals JSON bodies; anything else passes through as a string
func decodeBody(raw *exchange.RawRequest) any {
	if len(raw.Body) == 0 {
		return nil
	}
	contentType := raw.Header("Content-Type")
	if contentType == "" || strings.Contains(contentType, "json") {
		var decoded any
		if err := json.Unmarshal(raw.Body, &decoded); err == nil {
			return decoded
		}
	}
	return string(raw.Body)
}

// validateResponse checks the pending body and headers against the schema
// declared for the resolved status code, applies the trimming strategy, and
// enforces the configured failure behaviour.
func (b *Backend) validateResponse(c *exchange.Context, api *registeredAPI, httpReq *http.Request) error {
	op := c.Operation
	status := c.Response.StatusCode
	schema := op.ResponseSchema(status)

	data, encoded, err := exchange.MarshalBody(c.Response.Body())
	if err != nil {
		return apierrors.Internal(err)
	}

	var bodyViolations []apierrors.Violation
	contentType, _ := op.Media(status)
	if contentType == "" {
		contentType = "application/json"
	}
	if schema != nil {
		// an empty body against a declared schema is itself a violation
		verrs := api.definition.ValidateResponseBody(httpReq, status, contentType, c.Response.WireHeaders(), data)
		bodyViolations = apierrors.FromValidationErrors(verrs)
	}

	var headerViolations []apierrors.Violation
	for _, headerErr := range op.ValidateResponseHeaders(status, c.Response.Headers) {
		headerViolations = append(headerViolations, apierrors.Violation{
			Location: "header",
			Message:  headerErr.Error(),
		})
	}

	if b.shouldTrim(len(bodyViolations) > 0) && schema != nil && encoded && len(data) > 0 {
		var decoded any
		if err := json.Unmarshal(data, &decoded); err == nil {
			trimmed := openapi.TrimAdditionalProperties(decoded, schema)
			c.Response.SetBody(trimmed)

			if len(bodyViolations) > 0 {
				// re-check: trimming may have removed the offending properties
				if reencoded, _, err := exchange.MarshalBody(trimmed); err == nil {
					verrs := api.definition.ValidateResponseBody(httpReq, status, contentType, c.Response.WireHeaders(), reencoded)
					bodyViolations = apierrors.FromValidationErrors(verrs)
				}
			}
		}
	}

	violations := append(bodyViolations, headerViolations...)
	if len(violations) == 0 {
		return nil
	}

	for _, violation := range violations {
		logger.Warnf("response validation failed for operation %q: %s: %s", op.ID, violation.Location, violation.Message)
	}
	if b.responseBehaviour == ValidationBehaviourFail {
		return apierrors.Internalf("response validation failed for operation %q with %d violations", op.ID, len(violations))
	}
	return nil
}

func (b *Backend) shouldTrim(bodyFailed bool) bool {
	switch b.trimStrategy {
	case TrimAll:
		return true
	case TrimFailing:
		return bodyFailed
	default:
		return false
	}
}
