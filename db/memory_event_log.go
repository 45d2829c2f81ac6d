package db

import (
	"context"
	"sync"
	"time"
	"whereiam/models"
)

const defaultMemoryEventLogCapacity = 200

// MemoryEventLogRepository keeps the most recent event logs in memory.
// Used with the JSON store, which has no place for them.
type MemoryEventLogRepository struct {
	mu       sync.RWMutex
	logs     []*models.EventLog
	capacity int
}

// NewMemoryEventLogRepository creates a repository holding at most capacity entries
func NewMemoryEventLogRepository(capacity int) *MemoryEventLogRepository {
	if capacity <= 0 {
		capacity = defaultMemoryEventLogCapacity
	}
	return &MemoryEventLogRepository{capacity: capacity}
}

// Close satisfies the Repository interface
func (r *MemoryEventLogRepository) Close() error {
	return nil
}

// Create stores a copy of eventLog, dropping the oldest entry when full
func (r *MemoryEventLogRepository) Create(_ context.Context, eventLog *models.EventLog) error {
	if eventLog.ID == "" {
		eventLog.ID = GenerateID()
	}
	if eventLog.CreatedAt.IsZero() {
		eventLog.CreatedAt = time.Now()
	}

	stored := *eventLog

	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, &stored)
	if len(r.logs) > r.capacity {
		r.logs = r.logs[len(r.logs)-r.capacity:]
	}
	return nil
}

// FindLatest returns up to limit entries, newest first
func (r *MemoryEventLogRepository) FindLatest(_ context.Context, limit int) ([]*models.EventLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var logs []*models.EventLog
	for i := len(r.logs) - 1; i >= 0 && len(logs) < limit; i-- {
		entry := *r.logs[i]
		logs = append(logs, &entry)
	}
	return logs, nil
}

// FindAllByLocation returns all entries for location, newest first
func (r *MemoryEventLogRepository) FindAllByLocation(_ context.Context, location string) ([]*models.EventLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var logs []*models.EventLog
	for i := len(r.logs) - 1; i >= 0; i-- {
		if r.logs[i].Location != nil && *r.logs[i].Location == location {
			entry := *r.logs[i]
			logs = append(logs, &entry)
		}
	}
	return logs, nil
}
