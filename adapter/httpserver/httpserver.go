// Package httpserver serves a backend over net/http, converting each
// http.Request into the transport-agnostic raw request shape and writing the
// finalized raw response back.
package httpserver

import (
	"io"
	"net/http"

	"github.com/apiroute-project/apiroute-go/backend"
	"github.com/apiroute-project/apiroute-go/exchange"
	"github.com/apiroute-project/apiroute-go/pkg/logger"
)

// Server adapts a backend to net/http.
type Server struct {
	Addr    string
	Backend *backend.Backend

	// Data, when set, derives the caller-supplied value passed to every
	// handler invocation from the inbound request
	Data func(r *http.Request) any
}

// New creates an HTTP server adapter for the given backend
func New(addr string, b *backend.Backend) *Server {
	return &Server{
		Addr:    addr,
		Backend: b,
	}
}

// Start begins listening for HTTP requests
func (s *Server) Start() error {
	logger.Infof("server is listening on %s", s.Addr)
	return http.ListenAndServe(s.Addr, s)
}

// ServeHTTP handles one request through the backend pipeline
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	raw := &exchange.RawRequest{
		Method:  r.Method,
		Path:    r.URL.Path,
		Query:   r.URL.Query(),
		Headers: r.Header,
		Body:    body,
	}

	var data any
	if s.Data != nil {
		data = s.Data(r)
	}

	resp := s.Backend.Handle(raw, data)
	writeResponse(w, resp)
}

func writeResponse(w http.ResponseWriter, resp *exchange.RawResponse) {
	for key, values := range resp.Headers {
		for _, value := range values {
			w.Header().Add(key, value)
		}
	}
	w.WriteHeader(resp.StatusCode)
	if len(resp.Body) > 0 {
		if _, err := w.Write(resp.Body); err != nil {
			logger.Warnf("failed to write response body: %v", err)
		}
	}
}
