package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/bridgehealth/consentbridge/internal/observability/logger"
)

// Server envuelve http.Server con arranque y apagado controlados.
type Server struct {
	srv *http.Server
}

// ServerOptions configura los timeouts del servidor.
type ServerOptions struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// NewServer crea el servidor con el handler dado.
func NewServer(handler http.Handler, opts ServerOptions) *Server {
	return &Server{
		srv: &http.Server{
			Addr:         opts.Addr,
			Handler:      handler,
			ReadTimeout:  opts.ReadTimeout,
			WriteTimeout: opts.WriteTimeout,
		},
	}
}

// Start bloquea sirviendo requests hasta Shutdown o error.
func (s *Server) Start() error {
	logger.L().Info("http server listening", logger.String("addr", s.srv.Addr))
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drena conexiones en curso dentro del deadline del contexto.
func (s *Server) Shutdown(ctx context.Context) error {
	logger.L().Info("http server shutting down")
	return s.srv.Shutdown(ctx)
}
