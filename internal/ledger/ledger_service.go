package ledger

import (
	"context"
	"fmt"
	"strings"

	"whereiam/db"
	"whereiam/models"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// EventRecorder receives one entry per ledger change
type EventRecorder interface {
	Record(ctx context.Context, eventType models.EEventLogType, location *string, description string) error
}

// LedgerService loads the ledger, resolves a key and persists the result
type LedgerService struct {
	store     db.Store
	generator Generator
	dbManager *db.DBManager
	events    EventRecorder
	clock     clockwork.Clock
	logger    *zap.Logger
}

// Option configures a LedgerService
type Option func(*LedgerService)

// WithClock replaces the real clock
func WithClock(clock clockwork.Clock) Option {
	return func(s *LedgerService) { s.clock = clock }
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *LedgerService) { s.logger = logger }
}

// WithEventRecorder records every ledger change
func WithEventRecorder(events EventRecorder) Option {
	return func(s *LedgerService) { s.events = events }
}

// NewLedgerService creates a new ledger service
func NewLedgerService(store db.Store, generator Generator, dbManager *db.DBManager, opts ...Option) *LedgerService {
	s := &LedgerService{
		store:     store,
		generator: generator,
		dbManager: dbManager,
		clock:     clockwork.NewRealClock(),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type resolveResult struct {
	resolution Resolution
	outcome    Outcome
}

// Resolve runs one resolution for requestedKey. A nil or blank key means home.
func (s *LedgerService) Resolve(ctx context.Context, requestedKey *string) (Resolution, error) {
	key := NormalizeKey(requestedKey)

	data, err := s.dbManager.ExecuteOperationWithResult(ctx, func() (interface{}, error) {
		return s.resolveLocked(ctx, key)
	})
	if err != nil {
		s.logger.Error("Failed to resolve location", zap.Stringp("location", key), zap.Error(err))
		return Resolution{}, err
	}

	result := data.(resolveResult)
	s.logger.Debug("Resolved location",
		zap.Stringp("location", key),
		zap.Stringer("outcome", result.outcome),
		zap.Int("history", len(result.resolution.History)))

	s.recordEvent(ctx, result)
	return result.resolution, nil
}

// Ledger returns the persisted ledger without resolving anything
func (s *LedgerService) Ledger(ctx context.Context) (models.Ledger, error) {
	data, err := s.dbManager.ExecuteOperationWithResult(ctx, func() (interface{}, error) {
		return s.store.Load(ctx)
	})
	if err != nil {
		return models.Ledger{}, err
	}
	return data.(models.Ledger), nil
}

func (s *LedgerService) resolveLocked(ctx context.Context, key *string) (resolveResult, error) {
	current, err := s.store.Load(ctx)
	if err != nil {
		return resolveResult{}, fmt.Errorf("failed to load ledger: %w", err)
	}

	resolution, updated, outcome, err := Resolve(ctx, key, current, s.clock.Now(), s.generator)
	if err != nil {
		return resolveResult{}, err
	}

	if outcome.Changed() {
		if err := s.store.Save(ctx, updated); err != nil {
			return resolveResult{}, fmt.Errorf("failed to save ledger: %w", err)
		}
	}

	return resolveResult{resolution: resolution, outcome: outcome}, nil
}

func (s *LedgerService) recordEvent(ctx context.Context, result resolveResult) {
	if s.events == nil {
		return
	}

	current := result.resolution.Current
	var eventType models.EEventLogType
	var description string

	switch result.outcome {
	case OutcomeNewDestination:
		eventType = models.NewDestination
		description = fmt.Sprintf("First visit to %s %s", current.Name(), current.Flag)
	case OutcomeVisit:
		eventType = models.Visit
		description = fmt.Sprintf("Visit #%d to %s %s", current.Count, current.Name(), current.Flag)
	case OutcomeReturnedHome:
		eventType = models.ReturnedHome
		description = "Back at home"
	default:
		return
	}

	if err := s.events.Record(ctx, eventType, current.Location, description); err != nil {
		s.logger.Warn("Failed to record ledger event", zap.String("type", string(eventType)), zap.Error(err))
	}
}

// NormalizeKey trims the key and maps blank values to nil
func NormalizeKey(key *string) *string {
	if key == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*key)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
