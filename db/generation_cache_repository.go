package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
	"whereiam/models"
)

// GenerationCacheRepository persists generated records per location with an expiry
type GenerationCacheRepository struct {
	db *sql.DB
}

func NewGenerationCacheRepository(db *sql.DB) *GenerationCacheRepository {
	return &GenerationCacheRepository{db: db}
}

// FindByLocation retrieves the cached record for location that is still valid at now
func (r *GenerationCacheRepository) FindByLocation(ctx context.Context, location string, now time.Time) (*models.GenerationCache, error) {
	query := `
		SELECT id, location, flag, hello, timezone_offset, lat, lng, flight_time,
		       provider, created_at, updated_at, expires_at
		FROM generation_cache
		WHERE location = ? AND expires_at > ?
	`

	var cache models.GenerationCache
	var flightTime sql.NullInt64
	err := r.db.QueryRowContext(ctx, query, location, now.UTC()).Scan(
		&cache.ID, &cache.Location, &cache.Record.Flag, &cache.Record.Hello,
		&cache.Record.TimezoneOffset, &cache.Record.Coordinates.Lat, &cache.Record.Coordinates.Lng,
		&flightTime, &cache.Provider, &cache.CreatedAt, &cache.UpdatedAt, &cache.ExpiresAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find generation cache by location: %w", err)
	}

	cache.Record.Location = models.StringPtr(cache.Location)
	if flightTime.Valid {
		cache.Record.FlightTime = models.IntPtr(int(flightTime.Int64))
	}
	return &cache, nil
}

// Upsert creates or refreshes the entry for cache.Location
func (r *GenerationCacheRepository) Upsert(ctx context.Context, cache *models.GenerationCache) error {
	if cache.ID == "" {
		cache.ID = GenerateID()
	}
	if cache.CreatedAt.IsZero() {
		cache.CreatedAt = time.Now().UTC()
	}
	if cache.UpdatedAt.IsZero() {
		cache.UpdatedAt = cache.CreatedAt
	}

	query := `
		INSERT INTO generation_cache (
			id, location, flag, hello, timezone_offset, lat, lng, flight_time,
			provider, created_at, updated_at, expires_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(location) DO UPDATE SET
			flag = excluded.flag, hello = excluded.hello, timezone_offset = excluded.timezone_offset,
			lat = excluded.lat, lng = excluded.lng, flight_time = excluded.flight_time,
			provider = excluded.provider, updated_at = excluded.updated_at, expires_at = excluded.expires_at
	`

	rec := cache.Record
	_, err := r.db.ExecContext(ctx, query,
		cache.ID, cache.Location, rec.Flag, rec.Hello, rec.TimezoneOffset,
		rec.Coordinates.Lat, rec.Coordinates.Lng, nullableInt(rec.FlightTime),
		cache.Provider, cache.CreatedAt.UTC(), cache.UpdatedAt.UTC(), cache.ExpiresAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert generation cache: %w", err)
	}

	return nil
}

// CleanupExpired removes entries that expired before now and returns how many were removed
func (r *GenerationCacheRepository) CleanupExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM generation_cache WHERE expires_at <= ?`, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup expired generation cache: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected, nil
}

// Close satisfies the Repository interface. The connection is owned by the caller.
func (r *GenerationCacheRepository) Close() error {
	return nil
}
