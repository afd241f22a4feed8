// Package logging builds the process logger.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Mur0dDev/Classification-Bot/internal/config"
	"github.com/Mur0dDev/Classification-Bot/internal/gelf"
)

// New returns a production zap logger at cfg.Level, tee'd into a GELF UDP
// sink when cfg.GelfAddr is set. The returned func flushes and releases the
// sinks.
func New(cfg config.LogConfig) (*zap.Logger, func(), error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("log level: %w", err)
	}

	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	if cfg.Format == "console" {
		zc.Encoding = "console"
		zc.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}
	log, err := zc.Build()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if cfg.Service != "" {
		log = log.Named(cfg.Service)
	}

	var sink *gelf.Writer
	if cfg.GelfAddr != "" {
		sink, err = gelf.New(cfg.GelfAddr, cfg.Service)
		if err != nil {
			log.Warn("GELF init failed", zap.String("addr", cfg.GelfAddr), zap.Error(err))
		} else {
			log = log.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
				return zapcore.NewTee(c, gelf.NewCore(sink, zc.Level))
			}))
			log.Info("GELF logging enabled", zap.String("addr", cfg.GelfAddr))
		}
	}

	return log, func() {
		_ = log.Sync()
		if sink != nil {
			_ = sink.Close()
		}
	}, nil
}
