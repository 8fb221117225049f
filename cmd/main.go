package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/quizrush/quizrush/internal/adapters/http/api"
	app "github.com/quizrush/quizrush/internal/app"
	"github.com/quizrush/quizrush/internal/config"
	"github.com/quizrush/quizrush/internal/domain/model"
	"github.com/quizrush/quizrush/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env).
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	snapshotTypes := make([]model.SnapshotType, 0, len(cfg.SnapshotTypes))
	for _, t := range cfg.SnapshotTypes {
		snapshotTypes = append(snapshotTypes, model.SnapshotType(t))
	}

	svc := app.New(
		app.WithLogger(log),
		app.WithDatabase(cfg.DBDriver, cfg.DBDSN),
		app.WithRankMode(cfg.RankMode),
		app.WithRecomputeInterval(time.Duration(cfg.RecomputeIntervalSec)*time.Second),
		app.WithQueueSize(cfg.RecomputeQueueSize),
		app.WithWorkerCount(cfg.RecomputeWorkers),
		app.WithSnapshotSchedule(time.Duration(cfg.SnapshotIntervalSec)*time.Second, snapshotTypes),
		app.WithTierMultipliers(cfg.TierMultiplierTable()),
		app.WithStreakBonusThreshold(cfg.StreakBonusThreshold),
	)
	if err := svc.Start(ctx); err != nil {
		os.Stderr.WriteString("failed to start service: " + err.Error() + "\n")
		return
	}
	defer svc.Stop()

	apiServer := api.NewServer(svc, svc, cfg.MaxLeaderboardLimit)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           apiServer.Router(),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
}
