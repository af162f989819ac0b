package backend

import (
	"errors"
	"strings"

	"github.com/apiroute-project/apiroute-go/apierrors"
	"github.com/apiroute-project/apiroute-go/exchange"
	"github.com/apiroute-project/apiroute-go/openapi"
	"github.com/apiroute-project/apiroute-go/pkg/logger"
)

// route runs the interceptors and then probes each registered definition in
// registration order. A not-found result falls through to the next
// definition; any other failure aborts immediately.
func (b *Backend) route(c *exchange.Context) error {
	if err := b.ready(); err != nil {
		return apierrors.Internal(err)
	}

	for _, interceptor := range b.interceptors {
		if err := interceptor(c); err != nil {
			return err
		}
	}

	if len(b.apis) == 0 {
		return noAPIsRegistered()
	}

	var notFound error
	for _, api := range b.apis {
		err := b.tryAPI(c, api)
		if err == nil {
			return nil
		}
		if apierrors.IsNotFound(err) {
			notFound = err
			continue
		}
		return err
	}
	return notFound
}

// tryAPI attempts to route and dispatch the request against one definition
func (b *Backend) tryAPI(c *exchange.Context, api *registeredAPI) error {
	path, mounted := stripPrefix(c.Raw.Path, api.prefix)
	if !mounted {
		return apierrors.NotFound(c.Raw.Method, c.Raw.Path)
	}

	httpReq, err := (&exchange.RawRequest{
		Method:  c.Raw.Method,
		Path:    path,
		Query:   c.Raw.Query,
		Headers: c.Raw.Headers,
		Body:    c.Raw.Body,
	}).ToHTTPRequest()
	if err != nil {
		return apierrors.Internal(err)
	}

	match, err := api.definition.Match(httpReq)
	if err != nil {
		if errors.Is(err, openapi.ErrNotFound) {
			return apierrors.NotFound(c.Raw.Method, c.Raw.Path)
		}
		return apierrors.Internal(err)
	}

	if len(match.ValidationErrors) > 0 {
		return apierrors.BadRequest(apierrors.FromValidationErrors(match.ValidationErrors))
	}

	logger.Debugf("matched %s %s to operation %q", c.Raw.Method, c.Raw.Path, match.Operation.ID)
	return b.dispatch(c, api, match, httpReq)
}

// stripPrefix removes a mount prefix from the request path, requiring a
// segment boundary so that /v1x does not match the /v1 mount
func stripPrefix(path, prefix string) (string, bool) {
	if prefix == "" || prefix == "/" {
		return path, true
	}
	prefix = strings.TrimSuffix(prefix, "/")
	if !strings.HasPrefix(path, prefix) {
		return "", false
	}
	rest := path[len(prefix):]
	if rest == "" {
		return "/", true
	}
	if rest[0] != '/' {
		return "", false
	}
	return rest, true
}
