package db

import (
	"context"
	"database/sql"
	"errors"
	"whereiam/models"

	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrStoreCorrupt means the persisted ledger does not have the expected shape
	ErrStoreCorrupt = errors.New("store corrupt")
)

// Repository defines a common interface for all repositories
type Repository interface {
	Close() error
}

// Store persists the location ledger
type Store interface {
	Repository
	Load(ctx context.Context) (models.Ledger, error)
	Save(ctx context.Context, ledger models.Ledger) error
}

// EventLogRepository defines the interface for event log operations
type EventLogRepository interface {
	Repository
	Create(ctx context.Context, eventLog *models.EventLog) error
	FindLatest(ctx context.Context, limit int) ([]*models.EventLog, error)
	FindAllByLocation(ctx context.Context, location string) ([]*models.EventLog, error)
}

// RepositoryFactory creates repositories based on the configured backend.
// A nil SQLiteDB selects the JSON file store and in-memory event logs.
type RepositoryFactory struct {
	SQLiteDB  *sql.DB
	StorePath string
}

// NewRepositoryFactory creates a new repository factory
func NewRepositoryFactory(sqliteDB *sql.DB, storePath string) *RepositoryFactory {
	return &RepositoryFactory{
		SQLiteDB:  sqliteDB,
		StorePath: storePath,
	}
}

// NewStore creates the ledger store
func (f *RepositoryFactory) NewStore() Store {
	if f.SQLiteDB != nil {
		return NewSQLiteStore(f.SQLiteDB)
	}
	return NewJSONStore(f.StorePath)
}

// NewEventLogRepository creates a new event log repository
func (f *RepositoryFactory) NewEventLogRepository() EventLogRepository {
	if f.SQLiteDB != nil {
		return NewSQLiteEventLogRepository(f.SQLiteDB)
	}
	return NewMemoryEventLogRepository(defaultMemoryEventLogCapacity)
}

// GenerateID generates a unique ID for a record
func GenerateID() string {
	return uuid.New().String()
}
