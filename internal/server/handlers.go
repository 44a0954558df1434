// Package server exposes the forecast pipeline over HTTP.
package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sartorproj/stockcast/internal/metrics"
	"github.com/sartorproj/stockcast/pipeline"
	"github.com/sartorproj/stockcast/timeseries"
	"github.com/sartorproj/stockcast/tserr"
)

const (
	serviceName = "stockcast"
	version     = "1.0.0"
)

type Handler struct {
	base    pipeline.Config
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewHandler serves forecasts starting from base; requests may override
// orders, periods and the horizon.
func NewHandler(base pipeline.Config, logger *zap.Logger, m *metrics.Metrics) (*Handler, error) {
	if err := base.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{base: base, logger: logger, metrics: m}, nil
}

// NewRouter wires the API routes. Metrics are served from gatherer.
func NewRouter(h *Handler, gatherer prometheus.Gatherer) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	api := r.Group("/api/v1")
	{
		api.POST("/forecast", h.Forecast)
	}
	return r
}

func (h *Handler) Health(c *gin.Context) {
	start := time.Now()
	defer h.observe(c, "/health", start)

	c.JSON(http.StatusOK, HealthResponse{
		Status:  "ok",
		Service: serviceName,
		Version: version,
	})
}

// Forecast runs the pipeline on the posted series and answers with a
// pipeline.Report.
func (h *Handler) Forecast(c *gin.Context) {
	start := time.Now()
	defer h.observe(c, "/api/v1/forecast", start)

	var req ForecastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	points := make([]timeseries.Point, len(req.Points))
	for i, p := range req.Points {
		points[i] = timeseries.Point{Time: p.Time, Value: p.Value}
	}
	series, err := timeseries.FromPoints(points, timeseries.WithName(req.Name))
	if err != nil {
		h.fail(c, err)
		return
	}

	cfg := req.Config.apply(h.base)
	p, err := pipeline.New(cfg,
		pipeline.WithLogger(h.logger),
		pipeline.WithMetrics(h.metrics),
	)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Kind: tserr.ErrInvalidArgument.Error()})
		return
	}

	res, err := p.Run(c.Request.Context(), series)
	if err != nil {
		h.fail(c, err)
		return
	}

	rep, err := pipeline.NewReport(res)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rep)
}

func (h *Handler) fail(c *gin.Context, err error) {
	resp := ErrorResponse{Error: err.Error()}
	var e *tserr.Error
	if errors.As(err, &e) {
		resp.Kind = e.Kind.Error()
		resp.Param = e.Param
		resp.Observed = e.Observed
		resp.Required = e.Required
	}

	status := http.StatusInternalServerError
	switch metrics.Outcome(err) {
	case metrics.OutcomeInvalid:
		status = http.StatusUnprocessableEntity
	case metrics.OutcomeCancelled:
		status = http.StatusServiceUnavailable
	}
	h.logger.Warn("forecast request failed", zap.Int("status", status), zap.Error(err))
	c.JSON(status, resp)
}

func (h *Handler) observe(c *gin.Context, endpoint string, start time.Time) {
	if h.metrics == nil {
		return
	}
	h.metrics.ObserveRequest(endpoint, c.Request.Method, c.Writer.Status(), time.Since(start))
}
