// Package server initializes and runs the submission service: it wires the
// configuration, database repositories, ranking strategies and the
// submission builder behind the HTTP API, and handles graceful shutdown.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/gridfts/submitd/internal/logging"
	"github.com/gridfts/submitd/internal/server/config"
	"github.com/gridfts/submitd/internal/server/httpapi"
	"github.com/gridfts/submitd/internal/server/ranking"
	"github.com/gridfts/submitd/internal/server/repositories/repomanager"
	"github.com/gridfts/submitd/internal/server/submission"
)

type App struct {
	config *config.Config
	logger logging.Logger
	repos  repomanager.RepositoryManager
	api    *httpapi.Server
}

func NewApp(cfg *config.Config) (*App, error) {
	logger := logging.NewJSON(os.Stdout, slog.LevelInfo)

	repos, err := repomanager.NewPostgresRepositoryManager(cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	stats := ranking.NewCachedStats(repos.Stats(), cfg.StatsCacheSize, cfg.StatsCacheTTL)
	registry := ranking.NewRegistry(stats)

	builder := submission.NewBuilder(submission.Config{
		MetadataSizeLimit:  cfg.MetadataSizeLimit,
		StrictOverwriteHop: cfg.StrictOverwriteHop,
		DedupVOs:           cfg.DedupVOs,
		AutoReuse: submission.AutoReuseConfig{
			Enabled:        cfg.AutoReuseEnabled,
			MinFiles:       cfg.AutoReuseMinFiles,
			MaxFiles:       cfg.AutoReuseMaxFiles,
			MaxBigFiles:    cfg.AutoReuseMaxBigFiles,
			SmallSizeLimit: cfg.AutoReuseSmallSize,
			BigSizeLimit:   cfg.AutoReuseBigSize,
		},
	}, logger, repos.Bans(), registry, submission.RandomHashedIDs{})

	handler := httpapi.NewHandler(builder, repos.Jobs(), logger)
	api := httpapi.NewServer(cfg.EndpointAddr, []byte(cfg.SecretKey), cfg.ShutdownTimeout, handler, logger)

	return &App{config: cfg, logger: logger, repos: repos, api: api}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting submission service")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.api.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}()

	wg.Wait()

	if err := app.repos.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err.Error())
	}
}
