package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/aleister1102/sitewatch/internal/config"
	"github.com/aleister1102/sitewatch/internal/datastore"
	"github.com/aleister1102/sitewatch/internal/monitor"
	"github.com/aleister1102/sitewatch/internal/notifier"
	"github.com/aleister1102/sitewatch/internal/rslimiter"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// shutdownTimeout bounds graceful shutdown after the context is cancelled.
const shutdownTimeout = 5 * time.Second

// Server translates HTTP requests into monitor service and store calls.
type Server struct {
	cfg         config.APIConfig
	service     *monitor.Service
	siteStore   *datastore.SiteStore
	updateStore *datastore.UpdateStore
	broadcaster *notifier.Broadcaster
	resources   *rslimiter.ResourceMonitor
	logger      zerolog.Logger
	mux         *http.ServeMux
	httpServer  *http.Server
}

// NewServer wires up routes and returns a ready-to-start Server.
func NewServer(
	cfg config.APIConfig,
	service *monitor.Service,
	siteStore *datastore.SiteStore,
	updateStore *datastore.UpdateStore,
	broadcaster *notifier.Broadcaster,
	resources *rslimiter.ResourceMonitor,
	logger zerolog.Logger,
) *Server {
	s := &Server{
		cfg:         cfg,
		service:     service,
		siteStore:   siteStore,
		updateStore: updateStore,
		broadcaster: broadcaster,
		resources:   resources,
		logger:      logger.With().Str("component", "APIServer").Logger(),
		mux:         http.NewServeMux(),
	}
	s.routes()

	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /api/health", s.handleHealth)

	s.mux.HandleFunc("GET /api/sites", s.handleListSites)
	s.mux.HandleFunc("POST /api/sites", s.handleAddSite)
	s.mux.HandleFunc("DELETE /api/sites/{id}", s.handleRemoveSite)
	s.mux.HandleFunc("GET /api/sites/{id}/updates", s.handleListUpdates)

	s.mux.HandleFunc("GET /api/content/{siteID}/{ref}", s.handleGetContent)
	s.mux.HandleFunc("GET /api/updates/stream", s.handleUpdatesStream)

	s.mux.HandleFunc("GET /api/system", s.handleSystem)
	s.mux.HandleFunc("GET /api/reset-db", s.handleResetDB)
}

// ServeHTTP makes Server satisfy http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Start binds the listener and begins serving in the background. It
// returns once the port is bound, so a taken port fails fast. Request
// contexts derive from ctx; cancelling it drains SSE streams and shuts
// the server down gracefully.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind to port %d: %w", s.cfg.Port, err)
	}

	s.httpServer = &http.Server{
		Handler: s.mux,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("HTTP server error")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error().Err(err).Msg("HTTP server shutdown error")
		}
	}()

	s.logger.Info().Str("addr", addr).Msg("API server listening")
	return nil
}
