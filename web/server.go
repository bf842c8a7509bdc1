// Package web serves plans over HTTP and streams search progress over a
// websocket.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"threatnav-go/core"
	"threatnav-go/planner"
	"threatnav-go/search"
	"threatnav-go/threat"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// maxCompareRuns caps a single comparison request.
const maxCompareRuns = 200

// PlanService is what the server needs from the planner.
type PlanService interface {
	Plan(ctx context.Context, req planner.PlanRequest, observer search.Observer) (*planner.Plan, error)
	CompareWait(ctx context.Context, runs int) ([]planner.SimResult, error)
	Scenario() *planner.Scenario
}

// Message is the envelope of every websocket message.
type Message struct {
	Type string        `json:"type"`
	Step *search.Step  `json:"step,omitempty"`
	Plan *planner.Plan `json:"plan,omitempty"`
}

// ScenarioView is the JSON form of the loaded scenario.
type ScenarioView struct {
	Grid    core.GridConfig             `json:"grid"`
	Time    core.TimeConfig             `json:"time"`
	Costs   core.CostConfig             `json:"costs"`
	Route   core.RouteConfig            `json:"route"`
	Offset  float64                     `json:"offset"`
	Threats []threat.GaussDynamicThreat `json:"threats"`
	Nodes   int                         `json:"nodes"`
}

// CompareRequest is the body of POST /api/compare.
type CompareRequest struct {
	Runs int `json:"runs"`
}

// Server exposes a PlanService over HTTP.
type Server struct {
	cfg         core.ServerConfig
	planner     PlanService
	hub         *Hub
	metrics     *core.Metrics
	logger      *zap.Logger
	engine      *gin.Engine
	defaultRuns int
}

// NewServer creates the HTTP server and its routes.
func NewServer(cfg core.ServerConfig, svc PlanService, hub *Hub, metrics *core.Metrics, logger *zap.Logger) *Server {
	s := &Server{
		cfg:         cfg,
		planner:     svc,
		hub:         hub,
		metrics:     metrics,
		logger:      logger,
		defaultRuns: svc.Scenario().Config.Experiment.Runs,
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) == 0 {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type"}
	r.Use(cors.New(corsConfig))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	r.GET("/api/scenario", s.handleScenario)
	r.POST("/api/plan", s.handlePlan)
	r.POST("/api/compare", s.handleCompare)
	if metrics != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{})))
	}
	if hub != nil {
		r.GET("/ws", func(c *gin.Context) {
			hub.ServeWS(c.Writer, c.Request)
		})
	}

	s.engine = r
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Addr(),
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleScenario(c *gin.Context) {
	scenario := s.planner.Scenario()
	cfg := scenario.Config
	c.JSON(http.StatusOK, ScenarioView{
		Grid:    cfg.Grid,
		Time:    cfg.Time,
		Costs:   cfg.Costs,
		Route:   cfg.Route,
		Offset:  scenario.Field.Offset,
		Threats: scenario.Field.Threats,
		Nodes:   scenario.Env().NodeCount(),
	})
}

func (s *Server) handlePlan(c *gin.Context) {
	var req planner.PlanRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	var observer search.Observer
	if c.Query("stream") != "" {
		observer = func(step search.Step) error {
			s.publish(Message{Type: "step", Step: &step})
			return nil
		}
	}

	plan, err := s.planner.Plan(c.Request.Context(), req, observer)
	if err != nil {
		s.logger.Warn("plan failed", zap.Error(err))
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	if observer != nil {
		s.publish(Message{Type: "plan", Plan: plan})
	}
	c.JSON(http.StatusOK, plan)
}

func (s *Server) handleCompare(c *gin.Context) {
	req := CompareRequest{Runs: s.defaultRuns}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if req.Runs < 1 || req.Runs > maxCompareRuns {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("runs must be between 1 and %d", maxCompareRuns)})
		return
	}

	results, err := s.planner.CompareWait(c.Request.Context(), req.Runs)
	if err != nil {
		s.logger.Warn("comparison failed", zap.Error(err))
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

func (s *Server) publish(msg Message) {
	if s.hub == nil {
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		s.logger.Error("failed to encode message", zap.Error(err))
		return
	}
	s.hub.Broadcast(data)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, planner.ErrOutOfBounds), errors.Is(err, core.ErrInvalidConfig):
		return http.StatusBadRequest
	case errors.Is(err, planner.ErrNoTimeDimension):
		return http.StatusConflict
	case errors.Is(err, planner.ErrExpansionLimit), errors.Is(err, search.ErrNegativeCost):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
