package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"webpage-chatter/internal/config"
	"webpage-chatter/internal/gateway"
	"webpage-chatter/internal/metrics"
	providerfactory "webpage-chatter/internal/provider/factory"
	"webpage-chatter/internal/router"
	"webpage-chatter/internal/server"
	"webpage-chatter/internal/tokens"
)

const serveUsage = `Usage:
  webpage-chatter serve [--config <path>] [--host <host>] [--port <port>]

Flags:
  --config string   Path to YAML configuration file (optional; environment and .env are always read)
  --host   string   Override listen host
  --port   int      Override listen port`

func serve(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, serveUsage)
	}

	var cfgPath string
	var overrideHost string
	var overridePort int
	fs.StringVar(&cfgPath, "config", "", "path to configuration file")
	fs.StringVar(&overrideHost, "host", "", "override listen host")
	fs.IntVar(&overridePort, "port", 0, "override listen port")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("parse serve flags: %w", err)
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	if overrideHost != "" {
		cfg.Server.Host = overrideHost
	}
	if overridePort != 0 {
		if overridePort < 0 || overridePort > 65535 {
			return fmt.Errorf("port override %d must be a valid TCP port", overridePort)
		}
		cfg.Server.Port = overridePort
	}

	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	m := metrics.New()

	gen, err := providerfactory.NewGenerator(cfg, logger)
	if err != nil {
		return err
	}

	gw, err := gateway.New(gen, gateway.Options{
		Retry: gateway.RetryPolicy{
			MaxAttempts: cfg.Retry.MaxAttempts,
			BaseDelay:   cfg.Retry.BaseDelay,
			MaxDelay:    cfg.Retry.MaxDelay,
		},
		ChunkDelay: cfg.Stream.ChunkDelay,
		Logger:     logger.Named("gateway"),
		Recorder:   m,
	})
	if err != nil {
		return err
	}

	rt := router.New(router.Selector{
		Primary:   cfg.Models.Primary,
		Fallback:  cfg.Models.Fallback,
		Threshold: cfg.Models.TokenLimit,
	}, tokens.NewEstimator(cfg.Models.Encoding, logger.Named("tokens")), m)

	srv, err := server.New(cfg, rt, gw, m, logger.Named("http"))
	if err != nil {
		return err
	}

	logger.Info("configuration loaded",
		zap.String("config", cfgPath),
		zap.String("addr", cfg.Address()),
		zap.Strings("cors_origins", cfg.Server.CORSOrigins),
		zap.Bool("debug", cfg.Debug),
	)

	return srv.Run(ctx)
}
