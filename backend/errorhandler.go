package backend

import (
	"errors"
	"net/http"

	"github.com/apiroute-project/apiroute-go/apierrors"
	"github.com/apiroute-project/apiroute-go/exchange"
	"github.com/apiroute-project/apiroute-go/pkg/logger"
)

// errorResponse is the JSON body shape the default error handler produces
type errorResponse struct {
	Message string `json:"message"`
	Errors  any    `json:"errors,omitempty"`
}

// DefaultErrorHandler maps a pipeline error onto the pending response using
// the default taxonomy: validation failures list each violation, failed
// authorization lists the per-scheme errors, and internal failures are
// logged without leaking details to the caller.
func DefaultErrorHandler(c *exchange.Context, err error) {
	var apiErr *apierrors.Error
	if !errors.As(err, &apiErr) {
		apiErr = apierrors.Internal(err)
	}

	c.Response.StatusCode = apiErr.HTTPStatus()
	if !c.Response.HasHeader("Content-Type") {
		c.Response.SetHeader("Content-Type", "application/json")
	}

	switch apiErr.Kind {
	case apierrors.KindBadRequest:
		c.Response.SetBody(errorResponse{
			Message: "request validation failed",
			Errors:  apiErr.Violations,
		})

	case apierrors.KindUnauthorized:
		schemeErrors := make(map[string]string, len(apiErr.SchemeErrors))
		for name, schemeErr := range apiErr.SchemeErrors {
			schemeErrors[name] = schemeErr.Error()
		}
		c.Response.SetBody(errorResponse{
			Message: "authorization failed",
			Errors:  schemeErrors,
		})

	case apierrors.KindNotFound, apierrors.KindNotImplemented:
		c.Response.SetBody(errorResponse{Message: apiErr.Error()})

	case apierrors.KindHTTP:
		if apiErr.Data != nil {
			c.Response.SetBody(apiErr.Data)
		} else {
			c.Response.SetBody(errorResponse{Message: http.StatusText(apiErr.HTTPStatus())})
		}

	default:
		logger.Errorf("internal error handling %s %s: %v", c.Raw.Method, c.Raw.Path, internalDetail(apiErr))
		c.Response.SetBody(errorResponse{Message: "internal server error"})
	}
}

func internalDetail(apiErr *apierrors.Error) string {
	if apiErr.Err != nil {
		return apiErr.Err.Error()
	}
	return apiErr.Error()
}
