package server

import (
	"crypto/tls"
	"log/slog"
	"time"
)

// Option configures server behavior.
type Option func(*Server)

// WithTLS configures TLS settings for HTTPS.
func WithTLS(config *tls.Config) Option {
	return func(s *Server) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.tlsConfig = config
	}
}

// WithLogger sets a custom logger for server operations.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.logger = logger
	}
}

// WithShutdownTimeout sets the maximum time to wait for graceful shutdown.
func WithShutdownTimeout(timeout time.Duration) Option {
	return func(s *Server) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.shutdown = timeout
	}
}

// WithOnShutdown registers a callback run once Stop has finished closing
// the HTTP listener. cmd/controlplane uses this to cancel the processor
// registry's context and wait for every spawned processor task to return,
// so no processor goroutine outlives the binary's own shutdown sequence.
func WithOnShutdown(fn func()) Option {
	return func(s *Server) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.onShutdown = fn
	}
}
