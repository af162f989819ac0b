// Package backend routes transport-agnostic requests against registered
// OpenAPI definitions: it matches each request to an operation, coerces and
// validates its parameters and body, authorizes it through pluggable
// security handlers, dispatches it to the registered operation handler, and
// validates the resulting response. Any failure along the way is converted
// into a well-formed response by a pluggable error handler.
package backend

import (
	"net/http"
	"sync"

	"github.com/apiroute-project/apiroute-go/apierrors"
	"github.com/apiroute-project/apiroute-go/exchange"
	"github.com/apiroute-project/apiroute-go/openapi"
	"github.com/apiroute-project/apiroute-go/pkg/logger"
)

// Handler serves one operation. It may mutate the pending response and/or
// return a body value; the return value becomes the body when the handler
// did not set one explicitly, even when it is nil.
type Handler func(c *exchange.Context) (any, error)

// Authorizer evaluates one named security scheme for a request. The returned
// value is collected into the per-scheme security results; a non-nil error
// marks the scheme as failed.
type Authorizer func(c *exchange.Context, requirement openapi.SecurityRequirement) (any, error)

// Interceptor runs before routing for every request. It may mutate the
// pending response, or return an error to abort routing entirely.
type Interceptor func(c *exchange.Context) error

// ErrorHandler converts an error into a response. It must leave the status
// code set; Handle forces 500 as a last resort if it does not.
type ErrorHandler func(c *exchange.Context, err error)

// ValidationBehaviour controls what happens when a produced response fails
// validation against the operation's response schema.
type ValidationBehaviour string

const (
	// ValidationBehaviourWarn logs response validation failures and
	// returns the response unchanged. This is the default.
	ValidationBehaviourWarn ValidationBehaviour = "warn"
	// ValidationBehaviourFail escalates response validation failures to
	// an internal error.
	ValidationBehaviourFail ValidationBehaviour = "fail"
)

// TrimStrategy controls whether body properties not declared in the response
// schema are stripped before the response is returned.
type TrimStrategy string

const (
	TrimNone    TrimStrategy = "none"
	TrimFailing TrimStrategy = "failing"
	TrimAll     TrimStrategy = "all"
)

// Backend is the public entry point of the pipeline. Definitions,
// interceptors and authorizers are registered during a startup phase; once
// Handle has been called the registered state is read-only, so concurrent
// Handle calls need no locking.
type Backend struct {
	pending      []*pendingAPI
	apis         []*registeredAPI
	interceptors []Interceptor

	errorHandler      ErrorHandler
	responseBehaviour ValidationBehaviour
	trimStrategy      TrimStrategy

	readyOnce sync.Once
	readyErr  error
}

// registeredAPI is one initialized definition with its handler and
// authorizer maps, mounted at a path prefix
type registeredAPI struct {
	definition  *openapi.Definition
	handlers    map[string]Handler
	authorizers map[string]Authorizer
	prefix      string
}

// pendingAPI tracks one in-flight asynchronous registration
type pendingAPI struct {
	done chan struct{}
	api  *registeredAPI
	err  error
}

// Option configures a Backend at construction time.
type Option func(*Backend)

// WithErrorHandler replaces the default error handler
func WithErrorHandler(h ErrorHandler) Option {
	return func(b *Backend) { b.errorHandler = h }
}

// WithResponseValidation sets the response validation failure behaviour
func WithResponseValidation(behaviour ValidationBehaviour) Option {
	return func(b *Backend) { b.responseBehaviour = behaviour }
}

// WithTrimming sets the response body trimming strategy
func WithTrimming(strategy TrimStrategy) Option {
	return func(b *Backend) { b.trimStrategy = strategy }
}

// New creates a Backend with the default error handler, warn-only response
// validation and no response trimming
func New(opts ...Option) *Backend {
	b := &Backend{
		errorHandler:      DefaultErrorHandler,
		responseBehaviour: ValidationBehaviourWarn,
		trimStrategy:      TrimNone,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Register begins asynchronous initialization of one definition from raw
// spec bytes and returns the backend for chaining. All registrations are
// joined before the first request is routed, so Register must be called
// before Handle. The operations map is keyed by operationId, authorizers by
// security scheme name; prefix mounts the definition under a path prefix
// (empty for the root).
func (b *Backend) Register(spec []byte, operations map[string]Handler, authorizers map[string]Authorizer, prefix string) *Backend {
	return b.registerAsync(func() (*openapi.Definition, error) {
		return openapi.NewDefinition(spec)
	}, operations, authorizers, prefix)
}

// RegisterFile is Register for a definition loaded from a file path or URL
func (b *Backend) RegisterFile(location string, operations map[string]Handler, authorizers map[string]Authorizer, prefix string) *Backend {
	return b.registerAsync(func() (*openapi.Definition, error) {
		return openapi.LoadDefinition(location)
	}, operations, authorizers, prefix)
}

// RegisterDefinition registers an already-initialized definition
func (b *Backend) RegisterDefinition(definition *openapi.Definition, operations map[string]Handler, authorizers map[string]Authorizer, prefix string) *Backend {
	return b.registerAsync(func() (*openapi.Definition, error) {
		return definition, nil
	}, operations, authorizers, prefix)
}

func (b *Backend) registerAsync(initialize func() (*openapi.Definition, error), operations map[string]Handler, authorizers map[string]Authorizer, prefix string) *Backend {
	p := &pendingAPI{done: make(chan struct{})}
	b.pending = append(b.pending, p)

	go func() {
		defer close(p.done)
		definition, err := initialize()
		if err != nil {
			p.err = err
			return
		}
		p.api = &registeredAPI{
			definition:  definition,
			handlers:    operations,
			authorizers: authorizers,
			prefix:      prefix,
		}
	}()
	return b
}

// Intercept appends request interceptors, executed in registration order
// before routing
func (b *Backend) Intercept(interceptors ...Interceptor) *Backend {
	b.interceptors = append(b.interceptors, interceptors...)
	return b
}

// ready joins all pending registrations, preserving registration order. The
// first registration failure is remembered and fails every request.
func (b *Backend) ready() error {
	b.readyOnce.Do(func() {
		for _, p := range b.pending {
			<-p.done
			if p.err != nil {
				if b.readyErr == nil {
					b.readyErr = p.err
				}
				logger.Errorf("definition registration failed: %v", p.err)
				continue
			}
			b.apis = append(b.apis, p.api)
		}
	})
	return b.readyErr
}

// Handle is the single external entry point. It routes the raw request
// through interceptors, definition matching, authorization, the operation
// handler and response validation, funnelling any error into the error
// handler. It always produces a finalized response and never fails.
func (b *Backend) Handle(raw *exchange.RawRequest, data any) *exchange.RawResponse {
	c := exchange.NewContext(raw, data)

	if err := b.route(c); err != nil {
		b.errorHandler(c, err)
	}
	if c.Response.StatusCode == 0 {
		// last resort: the error handler must leave a status set
		c.Response.StatusCode = http.StatusInternalServerError
	}

	rawResp, err := c.Response.Finalize()
	if err != nil {
		logger.Errorf("failed to finalize response for %s %s: %v", raw.Method, raw.Path, err)
		return &exchange.RawResponse{
			StatusCode: http.StatusInternalServerError,
			Headers:    map[string][]string{"Content-Type": {"application/json"}},
			Body:       []byte(`{"message":"internal server error"}`),
		}
	}
	return rawResp
}

// noAPIsRegistered distinguishes an unconfigured backend from a 404
func noAPIsRegistered() error {
	return apierrors.Internalf("no APIs registered")
}
