package openapi

import (
	"errors"
	"net/http"
	"strings"

	verrors "github.com/pb33f/libopenapi-validator/errors"
	"github.com/pb33f/libopenapi-validator/paths"

	"github.com/apiroute-project/apiroute-go/pkg/logger"
)

// ErrNotFound signals that no path and method in the definition matches the
// request; the caller may try another definition.
var ErrNotFound = errors.New("no matching operation in definition")

// MatchResult is the routing context produced for a matched request.
type MatchResult struct {
	Operation  *Operation
	PathParams map[string]string

	// ValidationErrors holds the raw validation failures for the request
	// parameters and body; an empty slice means the request is valid.
	ValidationErrors []*verrors.ValidationError
}

// Match resolves a request to an operation and validates it against the
// declared parameter and body schemas. It returns ErrNotFound when neither
// the path nor the method is declared in this definition.
func (d *Definition) Match(req *http.Request) (*MatchResult, error) {
	pathItem, _, pathValue := paths.FindPath(req, &d.model.Model, d.valOptions)
	if pathItem == nil {
		logger.Tracef("no path matches %s %s", req.Method, req.URL.Path)
		return nil, ErrNotFound
	}

	op := d.operationFor(pathValue, req.Method)
	if op == nil {
		logger.Tracef("path %s matched but method %s is not declared", pathValue, req.Method)
		return nil, ErrNotFound
	}

	result := &MatchResult{
		Operation:        op,
		PathParams:       extractPathParams(pathValue, req.URL.Path),
		ValidationErrors: d.validateRequest(req, op),
	}
	return result, nil
}

// validateRequest collects every parameter and body validation failure so a
// single response can list all of them
func (d *Definition) validateRequest(req *http.Request, op *Operation) []*verrors.ValidationError {
	var out []*verrors.ValidationError

	if ok, errs := d.paramValidator.ValidatePathParams(req); !ok {
		out = append(out, errs...)
	}
	if ok, errs := d.paramValidator.ValidateQueryParams(req); !ok {
		out = append(out, errs...)
	}
	if ok, errs := d.paramValidator.ValidateHeaderParams(req); !ok {
		out = append(out, errs...)
	}
	if ok, errs := d.paramValidator.ValidateCookieParams(req); !ok {
		out = append(out, errs...)
	}
	if op.HasRequestBody() {
		if ok, errs := d.bodyValidator.ValidateRequestBody(req); !ok {
			out = append(out, errs...)
		}
	}

	if len(out) > 0 {
		for _, validationErr := range out {
			logger.Warnf("request validation error: %s", validationErr.Message)
		}
	}
	return out
}

// extractPathParams captures template variables from the matched path. The
// request path is already URL-decoded by the time it reaches here.
func extractPathParams(template, actual string) map[string]string {
	params := make(map[string]string)
	templateSegments := strings.Split(strings.Trim(template, "/"), "/")
	actualSegments := strings.Split(strings.Trim(actual, "/"), "/")
	if len(templateSegments) != len(actualSegments) {
		return params
	}
	for i, segment := range templateSegments {
		if strings.HasPrefix(segment, "{") && strings.HasSuffix(segment, "}") {
			name := segment[1 : len(segment)-1]
			params[name] = actualSegments[i]
		}
	}
	return params
}
