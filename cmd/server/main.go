package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"

	"github.com/mcoot/rankparty/internal/api"
	"github.com/mcoot/rankparty/internal/factory"
	"github.com/mcoot/rankparty/internal/realtime"
	"github.com/mcoot/rankparty/internal/services/room"
)

func main() {
	cfg := &Config{}
	cobra.CheckErr(newCmd(cfg).Execute())
}

func run(ctx context.Context, cfg *Config) error {
	// Set up logging with JSON output
	level, err := cfg.level()
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	// Create application factory
	app, err := factory.New(factory.Config{
		Logger: logger,
		Room: room.Config{
			MaxPlayers:     cfg.maxPlayers,
			RoundLimit:     cfg.roundLimit,
			RankingTimeout: cfg.rankingTimeout,
			GuessTimeout:   cfg.guessTimeout,
		},
		Realtime: realtime.Options{
			RateLimit: cfg.rateLimit,
			RateBurst: cfg.rateBurst,
		},
		SweepInterval: cfg.sweepInterval,
		IdleTTL:       cfg.idleTTL,
		TopicsPath:    cfg.topicsFile,
	})
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		return err
	}

	// Create server
	serverConfig := api.DefaultServerConfig()
	serverConfig.Host = cfg.host
	serverConfig.Port = cfg.port
	serverConfig.ShutdownTimeout = cfg.shutdownTimeout
	server := api.NewServer(app.Router(cfg.publicURL), serverConfig, logger)

	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go app.RoundTimer.Run(ctx)

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started",
		slog.String("addr", server.Addr()),
		slog.Int("topics", app.TopicService.Len()))

	// Wait for shutdown or error
	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
			return err
		}
	}

	if err := app.Close(); err != nil {
		logger.Error("failed to close application", slog.String("error", err.Error()))
		return err
	}

	logger.Info("server stopped")
	return nil
}
