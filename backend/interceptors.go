package backend

import (
	"net/http"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/apiroute-project/apiroute-go/apierrors"
	"github.com/apiroute-project/apiroute-go/exchange"
	"github.com/apiroute-project/apiroute-go/pkg/logger"
)

const requestIDHeader = "X-Request-Id"

// RequestID returns an interceptor that tags every response with a request
// identifier, echoing an inbound one when present
func RequestID() Interceptor {
	return func(c *exchange.Context) error {
		id := c.Raw.Header(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Response.SetHeader(requestIDHeader, id)
		return nil
	}
}

// RateLimit returns an interceptor that rejects requests beyond the given
// sustained rate and burst with a 429 response
func RateLimit(rps float64, burst int) Interceptor {
	limiter := rate.NewLimiter(rate.Limit(rps), burst)
	return func(c *exchange.Context) error {
		if !limiter.Allow() {
			logger.Warnf("rate limit exceeded for %s %s", c.Raw.Method, c.Raw.Path)
			return apierrors.HTTP(http.StatusTooManyRequests, errorResponse{Message: "rate limit exceeded"})
		}
		return nil
	}
}

// AccessLog returns an interceptor that logs each inbound request
func AccessLog() Interceptor {
	return func(c *exchange.Context) error {
		logger.Infof("request: %s %s", c.Raw.Method, c.Raw.Path)
		return nil
	}
}
