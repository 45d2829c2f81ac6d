package generator

import (
	"context"
	"errors"
	"time"

	"whereiam/db"
	"whereiam/internal/cache"
	"whereiam/models"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// DefaultCacheTTL is how long a generated record is reused for the same key
const DefaultCacheTTL = 12 * time.Hour

// PersistentCache keeps generated records across restarts
type PersistentCache interface {
	FindByLocation(ctx context.Context, location string, now time.Time) (*models.GenerationCache, error)
	Upsert(ctx context.Context, cache *models.GenerationCache) error
}

// CachingGenerator reuses generated records per key for a fixed window
type CachingGenerator struct {
	next       Generator
	cache      *cache.TTL[models.LocationRecord]
	persistent PersistentCache
	provider   Provider
	ttl        time.Duration
	clock      clockwork.Clock
	logger     *zap.Logger
}

// CachingOption configures a CachingGenerator
type CachingOption func(*CachingGenerator)

// WithPersistentCache adds a second tier that survives restarts
func WithPersistentCache(persistent PersistentCache, provider Provider) CachingOption {
	return func(g *CachingGenerator) {
		g.persistent = persistent
		g.provider = provider
	}
}

func NewCachingGenerator(next Generator, ttl time.Duration, clock clockwork.Clock, logger *zap.Logger, opts ...CachingOption) *CachingGenerator {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	g := &CachingGenerator{
		next:   next,
		cache:  cache.NewTTL[models.LocationRecord](ttl, clock),
		ttl:    ttl,
		clock:  clock,
		logger: logger,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *CachingGenerator) Generate(ctx context.Context, key string, date time.Time) (models.LocationRecord, error) {
	rec, cached, err := g.cache.GetOrCompute(ctx, key, func(ctx context.Context) (models.LocationRecord, error) {
		if rec, ok := g.lookupPersistent(ctx, key); ok {
			return rec, nil
		}
		rec, err := g.next.Generate(ctx, key, date)
		if err != nil {
			return models.LocationRecord{}, err
		}
		g.storePersistent(ctx, key, rec)
		return rec, nil
	})
	if err != nil {
		return models.LocationRecord{}, err
	}
	if cached {
		g.logger.Debug("Reusing generated location", zap.String("location", key))
	}
	return rec.Clone(), nil
}

// Forget drops the in-memory record for key
func (g *CachingGenerator) Forget(key string) {
	g.cache.Delete(key)
}

func (g *CachingGenerator) lookupPersistent(ctx context.Context, key string) (models.LocationRecord, bool) {
	if g.persistent == nil {
		return models.LocationRecord{}, false
	}
	entry, err := g.persistent.FindByLocation(ctx, key, g.clock.Now())
	if err != nil {
		if !errors.Is(err, db.ErrNotFound) {
			g.logger.Warn("Failed to read generation cache", zap.String("location", key), zap.Error(err))
		}
		return models.LocationRecord{}, false
	}
	g.logger.Debug("Loaded generated location from store", zap.String("location", key))
	return entry.Record, true
}

func (g *CachingGenerator) storePersistent(ctx context.Context, key string, rec models.LocationRecord) {
	if g.persistent == nil {
		return
	}
	now := g.clock.Now().UTC()
	entry := &models.GenerationCache{
		Location:  key,
		Record:    rec.Clone(),
		Provider:  string(g.provider),
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(g.ttl),
	}
	if err := g.persistent.Upsert(ctx, entry); err != nil {
		g.logger.Warn("Failed to store generation cache", zap.String("location", key), zap.Error(err))
	}
}
