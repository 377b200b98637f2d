package server

import (
	"context"
	"net/http"
	"time"

	"github.com/civicgate/filingpilot/internal/config"
	"github.com/civicgate/filingpilot/internal/logging"
	"github.com/civicgate/filingpilot/internal/types"
	"github.com/civicgate/filingpilot/internal/workflow"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Runner runs one workflow per call.
type Runner interface {
	Run(ctx context.Context, app *types.Application) *types.Result
}

var _ Runner = (*workflow.Orchestrator)(nil)

// Server is the REST surface around the workflow engine.
type Server struct {
	router *gin.Engine
	runner Runner
	log    *logging.Logger
	http   *http.Server
}

// New creates a server with routes registered.
func New(cfg config.ServerConfig, runner Runner, log *logging.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST"},
		AllowHeaders: []string{"Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	s := &Server{
		router: router,
		runner: runner,
		log:    log,
		http: &http.Server{
			Addr:    cfg.Host + ":" + cfg.Port,
			Handler: router,
		},
	}

	router.GET("/health", s.health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.POST("/v1/filings", s.submitFiling)
	return s
}

// Run blocks serving HTTP until the listener fails or Shutdown is called.
func (s *Server) Run() error {
	s.log.Info("server listening", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests. Aborting a mid-run workflow leaves an
// orphaned remote wizard session; the drain timeout is generous for that
// reason.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// submitFiling runs one complete workflow synchronously. The binding layer
// rejects structurally invalid applications before any portal exchange.
func (s *Server) submitFiling(c *gin.Context) {
	var app types.Application
	if err := c.ShouldBindJSON(&app); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result := s.runner.Run(c.Request.Context(), &app)

	status := http.StatusOK
	if !result.Success {
		// The workflow ran; the filing failed. 502 for portal-side trouble,
		// 422 for input the portal rejected.
		switch result.ErrorCode {
		case types.ErrFieldValidation:
			status = http.StatusUnprocessableEntity
		default:
			status = http.StatusBadGateway
		}
	}
	c.JSON(status, result)
}
