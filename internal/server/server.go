package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Yashwin-i/NetWatch/internal/browser"
	"github.com/Yashwin-i/NetWatch/internal/classify"
	"github.com/Yashwin-i/NetWatch/internal/config"
	"github.com/Yashwin-i/NetWatch/internal/geo"
	"github.com/Yashwin-i/NetWatch/internal/history"
	"github.com/Yashwin-i/NetWatch/internal/logging"
	"github.com/Yashwin-i/NetWatch/internal/middleware"
	"github.com/Yashwin-i/NetWatch/internal/monitoring"
	"github.com/Yashwin-i/NetWatch/internal/scan"
	"github.com/Yashwin-i/NetWatch/internal/ws"
)

// Server wraps the HTTP server and its dependencies.
type Server struct {
	router     *gin.Engine
	cfg        *config.Config
	logger     *logging.Logger
	controller *scan.Controller
}

// NewServer builds the full dependency graph and registers all routes.
func NewServer(cfg *config.Config, logger *logging.Logger) (*Server, error) {
	if logger == nil {
		logger = logging.NewDefault()
	}

	metrics := monitoring.NewMetrics()

	rules, err := classify.LoadRules(cfg.Classify.RulesFile)
	if err != nil {
		return nil, err
	}
	classifier := classify.New(rules, logger)

	enricher := geo.New(cfg.Geo.Endpoint, cfg.Geo.Timeout, logger,
		geo.WithMetrics(metrics),
	)

	hist := history.New()
	hub := ws.NewHub(logger, metrics)
	renderer := browser.New(cfg.Browser, logger)
	controller := scan.NewController(renderer, classifier, enricher, hist, hub, logger, metrics)
	wsHandler := ws.NewHandler(hub, hist, controller, logger)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	router.Use(monitoring.Middleware(metrics))
	if cfg.Rate.Enabled {
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.Rate.RequestsPerSecond,
			Burst:             cfg.Rate.Burst,
		}))
	}

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service": "netwatch",
			"status":  "running",
		})
	})
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"scan":      string(controller.State()),
			"observers": hub.ObserverCount(),
			"events":    hist.Len(),
		})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	router.GET("/stream", wsHandler.HandleConnection)

	return &Server{
		router:     router,
		cfg:        cfg,
		logger:     logger,
		controller: controller,
	}, nil
}

// Run starts the server and blocks until it stops.
func (s *Server) Run(addr string) error {
	s.logger.Info("starting netwatch", zap.String("addr", addr))
	return s.router.Run(addr)
}

// Close stops any active scan.
func (s *Server) Close() error {
	s.controller.Stop()
	return nil
}

// Router exposes the gin engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}
