package db

import (
	"context"
	"errors"
	"sync"
	"whereiam/models"

	"go.uber.org/zap"
)

// ErrManagerStopped is returned for operations submitted after Stop
var ErrManagerStopped = errors.New("database manager stopped")

// Operation represents a database operation that needs to be executed
type Operation struct {
	Execute func() error
	Result  chan error
}

// OperationWithResult represents a database operation that returns a result
type OperationWithResult struct {
	Execute func() (interface{}, error)
	Result  chan OperationResult
}

// OperationResult contains the result of an operation
type OperationResult struct {
	Data  interface{}
	Error error
}

// DBManager runs store operations one at a time on a single worker, so a
// load-modify-save sequence submitted as one operation never interleaves
// with another inside this process.
type DBManager struct {
	opQueue       chan Operation
	resultOpQueue chan OperationWithResult
	stopping      chan struct{}
	stopOnce      sync.Once
}

// NewDBManager creates a new database manager
func NewDBManager(logger *zap.Logger) *DBManager {
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &DBManager{
		opQueue:       make(chan Operation, 100),
		resultOpQueue: make(chan OperationWithResult, 100),
		stopping:      make(chan struct{}),
	}

	// Start the worker goroutine
	go m.worker()
	logger.Debug("Database access manager started")

	return m
}

// worker processes operations one at a time
func (m *DBManager) worker() {
	for {
		select {
		case op := <-m.opQueue:
			err := op.Execute()
			op.Result <- err
		case op := <-m.resultOpQueue:
			data, err := op.Execute()
			op.Result <- OperationResult{Data: data, Error: err}
		case <-m.stopping:
			return
		}
	}
}

// ExecuteOperation executes a database operation on the worker
func (m *DBManager) ExecuteOperation(ctx context.Context, execute func() error) error {
	if m.stopped() {
		return ErrManagerStopped
	}
	resultChan := make(chan error, 1)
	select {
	case m.opQueue <- Operation{Execute: execute, Result: resultChan}:
	case <-m.stopping:
		return ErrManagerStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-resultChan:
		return err
	case <-m.stopping:
		return ErrManagerStopped
	}
}

// ExecuteOperationWithResult executes a database operation that returns a result
func (m *DBManager) ExecuteOperationWithResult(ctx context.Context, execute func() (interface{}, error)) (interface{}, error) {
	if m.stopped() {
		return nil, ErrManagerStopped
	}
	resultChan := make(chan OperationResult, 1)
	select {
	case m.resultOpQueue <- OperationWithResult{Execute: execute, Result: resultChan}:
	case <-m.stopping:
		return nil, ErrManagerStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case result := <-resultChan:
		return result.Data, result.Error
	case <-m.stopping:
		return nil, ErrManagerStopped
	}
}

// Stop stops the database manager. Safe to call more than once.
func (m *DBManager) Stop() {
	m.stopOnce.Do(func() { close(m.stopping) })
}

func (m *DBManager) stopped() bool {
	select {
	case <-m.stopping:
		return true
	default:
		return false
	}
}

// Methods for specific repository operations

// CreateEventLog serializes access to event log creation
func (m *DBManager) CreateEventLog(repo EventLogRepository, ctx context.Context, eventLog *models.EventLog) error {
	return m.ExecuteOperation(ctx, func() error {
		return repo.Create(ctx, eventLog)
	})
}
