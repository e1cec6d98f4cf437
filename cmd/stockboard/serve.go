package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/newthinker/stockboard/internal/api"
	"github.com/newthinker/stockboard/internal/api/handler/ui"
	"github.com/newthinker/stockboard/internal/app"
	"github.com/newthinker/stockboard/internal/config"
	"github.com/newthinker/stockboard/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log, err := logger.New(debug, cfg.Log)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	if cfgFile == "" {
		log.Warn("no config file specified, using defaults and environment")
	}

	a, err := app.New(cfg, log)
	if err != nil {
		return fmt.Errorf("creating app: %w", err)
	}
	defer a.Close()

	server, err := api.NewServer(api.Config{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		TemplatesDir:   cfg.UI.TemplatesDir,
		MetricsEnabled: cfg.Metrics.Enabled,
		MetricsPath:    cfg.Metrics.Path,
	}, api.Deps{
		State: ui.State{
			Doc:      a.Document(),
			Tabs:     a.Tabs(),
			Notifier: a.Notifier(),
		},
		Bus:     a.Bus(),
		Metrics: a.Metrics(),
		Logger:  log,
		Stats:   a.GetStats,
	})
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Start()
	}()

	appDone := make(chan error, 1)
	go func() {
		appDone <- a.Start(ctx)
	}()

	log.Info("stockboard ready",
		zap.String("addr", server.Addr()),
		zap.String("api", cfg.API.BaseURL),
	)

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			log.Error("server error", zap.Error(err))
		}
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", zap.Error(err))
	}
	if err := <-appDone; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
