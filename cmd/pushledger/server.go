package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"pushledger/internal/metrics"
	"pushledger/internal/middleware"
	"pushledger/internal/models"
	"pushledger/internal/service"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

type Server struct {
	cfg        *models.Config
	router     *mux.Router
	logger     *logrus.Logger
	registry   *metrics.Registry
	msgService service.MessageService
	server     *http.Server
}

func NewServer(cfg *models.Config, msgService service.MessageService, logger *logrus.Logger, registry *metrics.Registry) *Server {
	s := &Server{
		cfg:        cfg,
		router:     mux.NewRouter(),
		logger:     logger,
		registry:   registry,
		msgService: msgService,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.Observability(s.logger, s.registry))

	s.router.HandleFunc("/webhook", s.handleWebhook()).Methods(http.MethodPost)
	s.router.HandleFunc("/messages", s.handleMessages()).Methods(http.MethodGet)
	s.router.HandleFunc("/stats", s.handleStats()).Methods(http.MethodGet)
	s.router.HandleFunc("/metrics", s.handleMetrics()).Methods(http.MethodGet)

	s.router.HandleFunc("/health/live", s.handleHealthLive()).Methods(http.MethodGet)
	s.router.HandleFunc("/health/ready", s.handleHealthReady()).Methods(http.MethodGet)
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Server.Port),
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.cfg.Server.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(s.cfg.Server.WriteTimeoutSec) * time.Second,
		IdleTimeout:  time.Duration(s.cfg.Server.IdleTimeoutSec) * time.Second,
	}

	s.logger.Infof("Starting server on port %d", s.cfg.Server.Port)
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealthLive() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "live"})
	}
}

func (s *Server) handleHealthReady() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.Webhook.Secret == "" {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
			return
		}
		if err := s.msgService.Ready(r.Context()); err != nil {
			s.logger.WithError(err).Warn("Readiness check failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}
