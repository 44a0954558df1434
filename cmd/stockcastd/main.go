package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/sartorproj/stockcast/internal/logging"
	"github.com/sartorproj/stockcast/internal/metrics"
	"github.com/sartorproj/stockcast/internal/server"
	"github.com/sartorproj/stockcast/pipeline"
)

func main() {
	configPath := flag.String("config", "", "YAML pipeline configuration (defaults when empty)")
	serverPort := flag.Int("server.port", 8080, "Server port")
	logLevel := flag.String("log.level", "info", "Log level (debug, info, warn, error or dev)")
	flag.Parse()

	logger, err := logging.New(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid log level: %v\n", err)
		os.Exit(2)
	}
	defer logger.Sync()

	cfg := pipeline.DefaultConfig()
	if *configPath != "" {
		if cfg, err = pipeline.LoadConfig(*configPath); err != nil {
			logger.Fatal("unable to load configuration", zap.String("path", *configPath), zap.Error(err))
		}
	}

	handler, err := server.NewHandler(cfg, logger, metrics.New(prometheus.DefaultRegisterer))
	if err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", *serverPort),
		Handler: server.NewRouter(handler, prometheus.DefaultGatherer),
	}

	go func() {
		logger.Info("starting server", zap.String("addr", srv.Addr), zap.Stringer("order", cfg.Order()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	<-ctx.Done()

	logger.Info("shutting down server")
	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
	}
}
