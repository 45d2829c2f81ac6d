package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"whereiam/db"
	"whereiam/internal/config"
	"whereiam/internal/eventlog"
	"whereiam/internal/generator"
	"whereiam/internal/ledger"

	"go.uber.org/zap"
)

// app holds the wired services shared by every command
type app struct {
	cfg        *config.Config
	logger     *zap.Logger
	sqliteDB   *sql.DB
	dbManager  *db.DBManager
	store      db.Store
	eventLogs  *eventlog.EventLogService
	ledger     *ledger.LedgerService
	keys       *config.KeySource
	generation *db.GenerationCacheRepository
}

func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	if cfg.DatabaseType == config.SQLite {
		logger.Info("Using SQLite database", zap.String("path", cfg.SQLitePath))
		sqliteDB, err := db.ConnectToSQLite(cfg.SQLitePath, logger)
		if err != nil {
			return nil, err
		}
		if err := db.InitializeSchema(sqliteDB); err != nil {
			sqliteDB.Close()
			return nil, fmt.Errorf("initialize database schema: %w", err)
		}
		a.sqliteDB = sqliteDB
		a.generation = db.NewGenerationCacheRepository(sqliteDB)
	} else {
		logger.Info("Using JSON store", zap.String("path", cfg.StorePath))
	}

	repoFactory := db.NewRepositoryFactory(a.sqliteDB, cfg.StorePath)
	a.store = repoFactory.NewStore()
	a.dbManager = db.NewDBManager(logger)
	a.eventLogs = eventlog.NewEventLogService(repoFactory.NewEventLogRepository(), a.dbManager, nil, logger)

	gen, err := a.newGenerator(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.ledger = ledger.NewLedgerService(a.store, gen, a.dbManager,
		ledger.WithLogger(logger),
		ledger.WithEventRecorder(a.eventLogs),
	)
	a.keys = config.NewKeySource(cfg.Localization, cfg.LocalizationFallback(), cfg.EnvFile, logger)
	return a, nil
}

// newGenerator returns a nil Generator when the provider has no API key,
// so only unseen locations fail.
func (a *app) newGenerator(ctx context.Context) (ledger.Generator, error) {
	provider := generator.Provider(a.cfg.GeneratorProvider)
	origin := generator.DefaultOrigin
	origin.Name = a.cfg.HomeName

	next, err := generator.New(ctx, generator.Options{
		Provider:    provider,
		OpenAIKey:   a.cfg.OpenAIAPIKey,
		OpenAIModel: a.cfg.OpenAIModel,
		GeminiKey:   a.cfg.GeminiAPIKey,
		GeminiModel: a.cfg.GeminiModel,
		Origin:      origin,
	})
	if errors.Is(err, generator.ErrMissingAPIKey) {
		a.logger.Warn("No API key for the generator, unseen locations cannot be resolved",
			zap.String("provider", string(provider)))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("create generator: %w", err)
	}

	var opts []generator.CachingOption
	if a.generation != nil {
		opts = append(opts, generator.WithPersistentCache(a.generation, provider))
	}
	return generator.NewCachingGenerator(next, a.cfg.GenerationCacheTTL, nil, a.logger, opts...), nil
}

// startGenerationCacheCleanup runs the cleanup loop in the background. The
// returned stop waits for the loop to exit and must be called before Close.
func (a *app) startGenerationCacheCleanup(ctx context.Context, interval time.Duration) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		a.runGenerationCacheCleanup(ctx, interval)
	}()
	return func() {
		cancel()
		wg.Wait()
	}
}

// runGenerationCacheCleanup drops expired generation cache rows until ctx is done
func (a *app) runGenerationCacheCleanup(ctx context.Context, interval time.Duration) {
	if a.generation == nil {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			removed, err := a.generation.CleanupExpired(ctx, now)
			if err != nil {
				a.logger.Warn("Failed to clean up generation cache", zap.Error(err))
				continue
			}
			if removed > 0 {
				a.logger.Debug("Cleaned up generation cache", zap.Int64("removed", removed))
			}
		}
	}
}

func (a *app) Close() {
	if a.dbManager != nil {
		a.dbManager.Stop()
	}
	// the sqlite repositories share one connection pool
	if a.sqliteDB != nil {
		if err := a.sqliteDB.Close(); err != nil {
			a.logger.Warn("Failed to close database", zap.Error(err))
		}
		return
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("Failed to close store", zap.Error(err))
		}
	}
}
