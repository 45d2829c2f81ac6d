package integration

import (
	"testing"
	"time"

	"whereiam/db"
	"whereiam/internal/eventlog"
	"whereiam/internal/generator"
	"whereiam/internal/ledger"
	"whereiam/tests/testutils"

	"github.com/jonboulle/clockwork"
)

var t0 = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

type stack struct {
	factory   *db.RepositoryFactory
	store     db.Store
	gen       *testutils.FakeGenerator
	clock     clockwork.FakeClock
	eventLogs *eventlog.EventLogService
	service   *ledger.LedgerService
}

// newStack wires a ledger service over factory the way the server does,
// with the caching generator in front of a fake model.
func newStack(t *testing.T, factory *db.RepositoryFactory) *stack {
	t.Helper()
	s := &stack{
		factory: factory,
		store:   factory.NewStore(),
		gen:     testutils.NewFakeGenerator(),
		clock:   clockwork.NewFakeClockAt(t0),
	}

	dbManager := db.NewDBManager(nil)
	t.Cleanup(dbManager.Stop)

	var opts []generator.CachingOption
	if factory.SQLiteDB != nil {
		opts = append(opts, generator.WithPersistentCache(db.NewGenerationCacheRepository(factory.SQLiteDB), generator.ProviderOpenAI))
	}
	caching := generator.NewCachingGenerator(s.gen, testutils.DefaultTestTTL, s.clock, nil, opts...)

	s.eventLogs = eventlog.NewEventLogService(factory.NewEventLogRepository(), dbManager, s.clock, nil)
	s.service = ledger.NewLedgerService(s.store, caching, dbManager,
		ledger.WithClock(s.clock),
		ledger.WithEventRecorder(s.eventLogs),
	)
	return s
}

func backends(t *testing.T) map[string]*db.RepositoryFactory {
	jsonFactory, _ := testutils.SetupJSONRepositoryFactory(t)
	return map[string]*db.RepositoryFactory{
		"json":   jsonFactory,
		"sqlite": testutils.SetupTestRepositoryFactory(t),
	}
}
