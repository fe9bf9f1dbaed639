// Package devserver is a local stand-in for the remote itinerary API. It
// serves the customization endpoints the editor talks to, backed by sqlite
// or postgres.
package devserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Server owns the HTTP listener and the document store.
type Server struct {
	store Store
	http  *http.Server
	log   zerolog.Logger
}

// New returns a Server for addr.
func New(addr string, store Store, log zerolog.Logger) *Server {
	return &Server{
		store: store,
		log:   log,
		http: &http.Server{
			Addr:              addr,
			Handler:           NewRouter(store, log),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully. The store
// is closed when Run returns.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		_ = s.store.Close()
		return err
	}
	s.log.Info().Str("addr", ln.Addr().String()).Msg("dev server listening")

	errCh := make(chan error, 1)
	go func() { errCh <- s.http.Serve(ln) }()

	select {
	case err := <-errCh:
		_ = s.store.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.log.Info().Msg("dev server stopped")
	return s.store.Close()
}
