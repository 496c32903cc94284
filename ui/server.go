package ui

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ttlearn/app"
	"ttlearn/internal"
	"ttlearn/internal/api"
	"ttlearn/internal/config"
	"ttlearn/internal/observability"
	"ttlearn/internal/worker"
)

// Server exposes the analysis HTTP API.
type Server struct {
	router   *gin.Engine
	analysis *app.AnalysisService
	history  *app.HistoryService
	worker   *worker.Worker
	hub      *api.SSEHub
	events   *api.RunEventBroadcaster
	metrics  *observability.Metrics
	defaults config.AnalysisConfig
	logger   *internal.Logger
}

// NewServer wires the API routes over the analysis services. The worker, hub
// and metrics may each be nil; the corresponding features degrade to
// synchronous execution or no-op reporting.
func NewServer(cfg config.Config, analysisSvc *app.AnalysisService, historySvc *app.HistoryService, w *worker.Worker, hub *api.SSEHub, metrics *observability.Metrics) *Server {
	if cfg.Server.GinMode != "" {
		gin.SetMode(cfg.Server.GinMode)
	}

	s := &Server{
		router:   gin.New(),
		analysis: analysisSvc,
		history:  historySvc,
		worker:   w,
		hub:      hub,
		metrics:  metrics,
		defaults: cfg.Analysis,
		logger:   internal.NewDefaultLogger(),
	}
	if hub != nil {
		s.events = api.NewRunEventBroadcaster(hub, metrics)
	}

	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures Gin middleware
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	if s.metrics != nil {
		s.router.Use(s.metrics.GinMiddleware())
	}
}

// setupRoutes configures the application routes
func (s *Server) setupRoutes() {
	s.router.POST("/api/runs", s.handleCreateRun)
	s.router.GET("/api/runs", s.handleListRuns)
	s.router.GET("/api/runs/latest", s.handleLatestRun)
	s.router.GET("/api/runs/:id", s.handleGetRun)
	s.router.GET("/api/runs/:id/export", s.handleExportRun)
	s.router.GET("/api/runs/:id/report", s.handleRunReport)

	if s.hub != nil {
		s.router.GET("/events", s.hub.HandleSSE)
	}
}

// Handler returns the underlying HTTP handler for serving and tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the API server
func (s *Server) Start(addr string) error {
	s.logger.Info("Starting analysis API on http://%s", addr)
	return s.router.Run(addr)
}
