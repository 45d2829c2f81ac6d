package eventlog

import (
	"context"
	"whereiam/db"
	"whereiam/models"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

type EventLogService struct {
	repository db.EventLogRepository
	dbManager  *db.DBManager
	clock      clockwork.Clock
	logger     *zap.Logger
}

func NewEventLogService(repository db.EventLogRepository, dbManager *db.DBManager, clock clockwork.Clock, logger *zap.Logger) *EventLogService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventLogService{
		repository: repository,
		dbManager:  dbManager,
		clock:      clock,
		logger:     logger,
	}
}

// Record stores a ledger event and mirrors it to the log
func (s *EventLogService) Record(ctx context.Context, eventType models.EEventLogType, location *string, description string) error {
	eventLog := &models.EventLog{
		Type:        eventType,
		Location:    location,
		Description: description,
		CreatedAt:   s.clock.Now(),
	}

	if err := s.dbManager.CreateEventLog(s.repository, ctx, eventLog); err != nil {
		return err
	}

	s.logger.Info(description, zap.String("event", string(eventType)), zap.Stringp("location", location))
	return nil
}

func (s *EventLogService) GetLatest(ctx context.Context, limit int) ([]*models.EventLog, error) {
	if limit <= 0 {
		limit = 20
	}
	logs, err := s.repository.FindLatest(ctx, limit)
	if err != nil {
		return nil, err
	}
	if logs == nil {
		logs = []*models.EventLog{}
	}
	return logs, nil
}

func (s *EventLogService) GetAllByLocation(ctx context.Context, location string) ([]*models.EventLog, error) {
	logs, err := s.repository.FindAllByLocation(ctx, location)
	if err != nil {
		return nil, err
	}
	if logs == nil {
		logs = []*models.EventLog{}
	}
	return logs, nil
}
