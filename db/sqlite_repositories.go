package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
	"whereiam/internal/util"
	"whereiam/models"
)

// SQLiteStore implements the Store interface for SQLite
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLiteStore
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Close closes the database connection
func (r *SQLiteStore) Close() error {
	return r.db.Close()
}

// Load reads the ledger state and all location rows
func (r *SQLiteStore) Load(ctx context.Context) (models.Ledger, error) {
	ledger := models.NewLedger()

	var last sql.NullString
	err := r.db.QueryRowContext(ctx, `SELECT last FROM ledger_state WHERE id = 1`).Scan(&last)
	if err != nil && err != sql.ErrNoRows {
		return models.Ledger{}, fmt.Errorf("error reading ledger state: %w", err)
	}
	if last.Valid {
		ledger.Last = models.StringPtr(last.String)
	}

	query := `SELECT location, flag, hello, timezone_offset, lat, lng, flight_time, count, last_time
			  FROM locations ORDER BY position ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return models.Ledger{}, fmt.Errorf("error querying locations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rec models.LocationRecord
		var location sql.NullString
		var flightTime sql.NullInt64

		err := rows.Scan(&location, &rec.Flag, &rec.Hello, &rec.TimezoneOffset,
			&rec.Coordinates.Lat, &rec.Coordinates.Lng, &flightTime, &rec.Count, &rec.LastTime)
		if err != nil {
			return models.Ledger{}, corruptf("error scanning location: %v", err)
		}

		if location.Valid {
			rec.Location = models.StringPtr(location.String)
		}
		if flightTime.Valid {
			rec.FlightTime = models.IntPtr(int(flightTime.Int64))
		}
		if rec.Count < 1 {
			return models.Ledger{}, corruptf("location %q has count %d", rec.Name(), rec.Count)
		}

		ledger.History = append(ledger.History, rec)
	}
	if err := rows.Err(); err != nil {
		return models.Ledger{}, fmt.Errorf("error iterating locations: %w", err)
	}

	return ledger, nil
}

// Save replaces the stored ledger in one transaction. Row ids survive for
// locations that were already stored.
func (r *SQLiteStore) Save(ctx context.Context, ledger models.Ledger) error {
	return util.RetryOnLock(func() error {
		return r.save(ctx, ledger)
	})
}

func (r *SQLiteStore) save(ctx context.Context, ledger models.Ledger) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error beginning transaction: %w", err)
	}
	defer tx.Rollback()

	existingIDs := make(map[string]string)
	rows, err := tx.QueryContext(ctx, `SELECT id, location FROM locations WHERE location IS NOT NULL`)
	if err != nil {
		return fmt.Errorf("error querying location ids: %w", err)
	}
	for rows.Next() {
		var id, location string
		if err := rows.Scan(&id, &location); err != nil {
			rows.Close()
			return fmt.Errorf("error scanning location id: %w", err)
		}
		existingIDs[location] = id
	}
	rows.Close()

	if _, err := tx.ExecContext(ctx, `DELETE FROM locations`); err != nil {
		return fmt.Errorf("error clearing locations: %w", err)
	}

	insert := `INSERT INTO locations (id, position, location, flag, hello, timezone_offset, lat, lng, flight_time, count, last_time)
			   VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for i, rec := range ledger.History {
		id, ok := existingIDs[rec.Name()]
		if !ok || rec.Location == nil {
			id = GenerateID()
		}

		_, err := tx.ExecContext(ctx, insert,
			id, i, nullableString(rec.Location), rec.Flag, rec.Hello, rec.TimezoneOffset,
			rec.Coordinates.Lat, rec.Coordinates.Lng, nullableInt(rec.FlightTime), rec.Count, rec.LastTime,
		)
		if err != nil {
			return fmt.Errorf("error inserting location %q: %w", rec.Name(), err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO ledger_state (id, last) VALUES (1, ?) ON CONFLICT(id) DO UPDATE SET last = excluded.last`,
		nullableString(ledger.Last))
	if err != nil {
		return fmt.Errorf("error updating ledger state: %w", err)
	}

	return tx.Commit()
}

// SQLiteEventLogRepository implements the EventLogRepository interface for SQLite
type SQLiteEventLogRepository struct {
	db *sql.DB
}

// NewSQLiteEventLogRepository creates a new SQLiteEventLogRepository
func NewSQLiteEventLogRepository(db *sql.DB) *SQLiteEventLogRepository {
	return &SQLiteEventLogRepository{db: db}
}

// Close closes the database connection
func (r *SQLiteEventLogRepository) Close() error {
	return r.db.Close()
}

// Create creates a new event log
func (r *SQLiteEventLogRepository) Create(ctx context.Context, eventLog *models.EventLog) error {
	if eventLog.ID == "" {
		eventLog.ID = GenerateID()
	}
	if eventLog.CreatedAt.IsZero() {
		eventLog.CreatedAt = time.Now()
	}

	query := `INSERT INTO event_logs (id, type, location, description, created_at)
			  VALUES (?, ?, ?, ?, ?)`

	return util.RetryOnLock(func() error {
		_, err := r.db.ExecContext(ctx, query,
			eventLog.ID, eventLog.Type, nullableString(eventLog.Location),
			eventLog.Description, eventLog.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("error inserting event log: %w", err)
		}
		return nil
	})
}

// FindLatest finds the latest event logs
func (r *SQLiteEventLogRepository) FindLatest(ctx context.Context, limit int) ([]*models.EventLog, error) {
	query := `SELECT id, type, location, description, created_at
			  FROM event_logs ORDER BY created_at DESC LIMIT ?`
	return r.query(ctx, query, limit)
}

// FindAllByLocation finds all event logs for a location
func (r *SQLiteEventLogRepository) FindAllByLocation(ctx context.Context, location string) ([]*models.EventLog, error) {
	query := `SELECT id, type, location, description, created_at
			  FROM event_logs WHERE location = ? ORDER BY created_at DESC`
	return r.query(ctx, query, location)
}

func (r *SQLiteEventLogRepository) query(ctx context.Context, query string, args ...any) ([]*models.EventLog, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying event logs: %w", err)
	}
	defer rows.Close()

	var logs []*models.EventLog
	for rows.Next() {
		var log models.EventLog
		var location sql.NullString

		err := rows.Scan(&log.ID, &log.Type, &location, &log.Description, &log.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("error scanning event log: %w", err)
		}

		if location.Valid {
			log.Location = models.StringPtr(location.String)
		}

		logs = append(logs, &log)
	}

	return logs, rows.Err()
}

// Helper functions for handling nullable values
func nullableString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullableInt(i *int) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*i), Valid: true}
}
