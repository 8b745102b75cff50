package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

// ShutdownTimeout controls how long to wait for graceful shutdowns.
var ShutdownTimeout = 10 * time.Second

// Options tunes the server timeouts. Media uploads stream whole files through
// a single request, so the write timeout is much longer than the header one.
type Options struct {
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
}

// DefaultOptions are used for zero fields of Options.
var DefaultOptions = Options{
	ReadHeaderTimeout: 5 * time.Second,
	WriteTimeout:      10 * time.Minute,
	IdleTimeout:       2 * time.Minute,
}

// Server wraps the http.Server with sensible defaults.
type Server struct {
	inner *http.Server
}

// New constructs a server listening on the provided port.
func New(port int, handler http.Handler, opts Options) *Server {
	if opts.ReadHeaderTimeout <= 0 {
		opts.ReadHeaderTimeout = DefaultOptions.ReadHeaderTimeout
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = DefaultOptions.WriteTimeout
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = DefaultOptions.IdleTimeout
	}

	return &Server{
		inner: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           handler,
			ReadHeaderTimeout: opts.ReadHeaderTimeout,
			WriteTimeout:      opts.WriteTimeout,
			IdleTimeout:       opts.IdleTimeout,
		},
	}
}

// Start begins serving HTTP traffic. It returns nil once Shutdown completes.
func (s *Server) Start() error {
	return s.Serve(nil)
}

// Serve accepts connections on l, or on the configured address when l is nil.
func (s *Server) Serve(l net.Listener) error {
	var err error
	if l == nil {
		err = s.inner.ListenAndServe()
	} else {
		err = s.inner.Serve(l)
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully terminates the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
