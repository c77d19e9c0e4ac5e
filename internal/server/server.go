package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"mtf-trading-bot/internal/interfaces"
	"mtf-trading-bot/internal/logger"
	"mtf-trading-bot/internal/pipeline"
	"mtf-trading-bot/internal/trace"
	"mtf-trading-bot/internal/types"
)

// HealthFunc reports the availability of each dependent service.
type HealthFunc func(ctx context.Context) map[string]bool

type Server struct {
	runner   *pipeline.Runner
	recorder interfaces.PlanRecorder
	health   HealthFunc
	engine   *gin.Engine
	http     *http.Server
	now      func() time.Time
}

type analyzeRequest struct {
	Ticker    string `json:"ticker"`
	TradeType string `json:"trade_type"`
}

type errorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

type healthResponse struct {
	Status    string          `json:"status"`
	Timestamp time.Time       `json:"timestamp"`
	Version   string          `json:"version"`
	Services  map[string]bool `json:"services"`
}

func New(addr string, runner *pipeline.Runner, rec interfaces.PlanRecorder, health HealthFunc, debug bool) *Server {
	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}
	s := &Server{
		runner:   runner,
		recorder: rec,
		health:   health,
		engine:   gin.New(),
		now:      time.Now,
	}
	s.engine.Use(gin.Recovery(), requestLogger())
	s.setupRoutes()
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.engine.GET("/", s.getRoot)
	s.engine.GET("/health", s.getHealth)
	s.engine.POST("/analyze", s.postAnalyze)
	s.engine.GET("/plans/:ticker", s.getPlans)
}

func (s *Server) Handler() http.Handler { return s.engine }

// Start blocks until the server stops. A graceful Shutdown returns nil.
func (s *Server) Start() error {
	logger.Info(context.Background(), "Starting HTTP server", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		fields := []any{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.Error(c.Request.Context(), "HTTP request failed", fields...)
			return
		}
		logger.Info(c.Request.Context(), "HTTP request", fields...)
	}
}

func (s *Server) fail(c *gin.Context, status int, kind, msg string) {
	c.JSON(status, errorResponse{Error: kind, Message: msg, Timestamp: s.now()})
}

func (s *Server) getRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "MTF Trading Bot API",
		"version": trace.ServiceVersion,
		"status":  "running",
		"health":  "/health",
	})
}

func (s *Server) getHealth(c *gin.Context) {
	services := map[string]bool{}
	if s.health != nil {
		services = s.health(c.Request.Context())
	}
	status := "healthy"
	for _, ok := range services {
		if !ok {
			status = "degraded"
			break
		}
	}
	c.JSON(http.StatusOK, healthResponse{
		Status:    status,
		Timestamp: s.now(),
		Version:   trace.ServiceVersion,
		Services:  services,
	})
}

func (s *Server) postAnalyze(c *gin.Context) {
	ctx, span := trace.StartSpan(c.Request.Context(), "server.Analyze")
	defer span.End()

	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, http.StatusBadRequest, "BadRequest", "invalid JSON body: "+err.Error())
		return
	}
	if req.TradeType == "" {
		req.TradeType = string(types.ScopeBoth)
	}

	logger.Info(ctx, "Analysis requested", "ticker", req.Ticker, "trade_type", req.TradeType)
	resp, err := s.runner.Run(ctx, req.Ticker, req.TradeType)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, resp)
	case errors.Is(err, pipeline.ErrInvalidTicker), errors.Is(err, pipeline.ErrInvalidTradeType):
		s.fail(c, http.StatusUnprocessableEntity, "ValidationError", err.Error())
	case errors.Is(err, pipeline.ErrMarketData):
		s.fail(c, http.StatusServiceUnavailable, "ServiceUnavailable", "Unable to fetch price data for "+req.Ticker)
	default:
		logger.ErrorWithErr(ctx, "Analysis failed", err, "ticker", req.Ticker)
		s.fail(c, http.StatusInternalServerError, "InternalServerError", "Analysis failed: "+err.Error())
	}
}

func (s *Server) getPlans(c *gin.Context) {
	ticker, err := pipeline.NormalizeTicker(c.Param("ticker"))
	if err != nil {
		s.fail(c, http.StatusUnprocessableEntity, "ValidationError", err.Error())
		return
	}
	limit := 20
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.fail(c, http.StatusUnprocessableEntity, "ValidationError", "limit must be a positive integer")
			return
		}
		limit = min(n, 200)
	}
	plans, err := s.recorder.Recent(c.Request.Context(), ticker, limit)
	if err != nil {
		logger.ErrorWithErr(c.Request.Context(), "Failed to load plans", err, "ticker", ticker)
		s.fail(c, http.StatusInternalServerError, "InternalServerError", err.Error())
		return
	}
	if plans == nil {
		plans = []types.RecordedPlan{}
	}
	c.JSON(http.StatusOK, gin.H{"ticker": ticker, "plans": plans, "count": len(plans)})
}
