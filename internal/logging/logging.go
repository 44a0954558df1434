// Package logging builds the zap loggers used by the stockcast binaries.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func NewDevLogger() *zap.Logger {
	logger, err := build(zap.NewDevelopmentConfig())
	if err != nil {
		panic(err)
	}
	return logger
}

func NewProdLogger() *zap.Logger {
	logger, err := build(zap.NewProductionConfig())
	if err != nil {
		panic(err)
	}
	return logger
}

// New builds a production logger writing JSON at the named level
// ("debug", "info", "warn", "error"). Development output is selected with
// "dev", which logs at debug in console format.
func New(level string) (*zap.Logger, error) {
	if level == "dev" {
		return build(zap.NewDevelopmentConfig())
	}

	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = lvl
	return build(cfg)
}

func build(cfg zap.Config) (*zap.Logger, error) {
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.DisableCaller = true
	return cfg.Build()
}
