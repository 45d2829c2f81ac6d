package ledger

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"whereiam/db"
	"whereiam/models"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	mu      sync.Mutex
	ledger  models.Ledger
	loadErr error
	saves   int
}

func (s *memoryStore) Load(context.Context) (models.Ledger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return models.Ledger{}, s.loadErr
	}
	return s.ledger.Clone(), nil
}

func (s *memoryStore) Save(_ context.Context, ledger models.Ledger) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	s.ledger = ledger.Clone()
	return nil
}

func (s *memoryStore) Close() error { return nil }

type recordedEvent struct {
	eventType   models.EEventLogType
	location    *string
	description string
}

type fakeRecorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *fakeRecorder) Record(_ context.Context, eventType models.EEventLogType, location *string, description string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{eventType, location, description})
	return nil
}

func newTestService(t *testing.T, store *memoryStore, gen Generator) (*LedgerService, *fakeRecorder, clockwork.FakeClock) {
	t.Helper()
	manager := db.NewDBManager(nil)
	t.Cleanup(manager.Stop)

	clock := clockwork.NewFakeClockAt(t0)
	recorder := &fakeRecorder{}
	service := NewLedgerService(store, gen, manager, WithClock(clock), WithEventRecorder(recorder))
	return service, recorder, clock
}

func TestLedgerService_TokyoFirstVisit(t *testing.T) {
	store := &memoryStore{ledger: models.NewLedger()}
	gen := tokyoGenerator()
	service, recorder, _ := newTestService(t, store, gen)

	res, err := service.Resolve(context.Background(), models.StringPtr("Tokyo"))
	require.NoError(t, err)

	assert.Equal(t, 1, gen.calls)
	assert.Equal(t, "Tokyo", res.Current.Name())
	assert.Equal(t, 1, res.Current.Count)
	assert.Empty(t, res.History)
	assert.Equal(t, 1, store.saves)

	require.Len(t, recorder.events, 1)
	assert.Equal(t, models.NewDestination, recorder.events[0].eventType)
	assert.Equal(t, "First visit to Tokyo 🇯🇵", recorder.events[0].description)
}

func TestLedgerService_RepeatIssuesNoWrite(t *testing.T) {
	store := &memoryStore{ledger: models.Ledger{
		Last:    models.StringPtr("Tokyo"),
		History: []models.LocationRecord{visited("Tokyo", 1, t0)},
	}}
	gen := tokyoGenerator()
	service, recorder, _ := newTestService(t, store, gen)

	res, err := service.Resolve(context.Background(), models.StringPtr("Tokyo"))
	require.NoError(t, err)

	assert.Zero(t, gen.calls)
	assert.Equal(t, 1, res.Current.Count)
	assert.Zero(t, store.saves)
	assert.Empty(t, recorder.events)
}

func TestLedgerService_ReturnHomeClearsLast(t *testing.T) {
	store := &memoryStore{ledger: models.Ledger{
		Last:    models.StringPtr("Tokyo"),
		History: []models.LocationRecord{visited("Tokyo", 1, t0)},
	}}
	service, recorder, _ := newTestService(t, store, nil)

	res, err := service.Resolve(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, models.DefaultLocation(), res.Current)
	assert.Len(t, res.History, 1)
	assert.Equal(t, 1, store.saves)
	assert.Nil(t, store.ledger.Last)

	require.Len(t, recorder.events, 1)
	assert.Equal(t, models.ReturnedHome, recorder.events[0].eventType)

	// staying home writes nothing more
	_, err = service.Resolve(context.Background(), models.StringPtr("   "))
	require.NoError(t, err)
	assert.Equal(t, 1, store.saves)
}

func TestLedgerService_VisitUsesClock(t *testing.T) {
	store := &memoryStore{ledger: sampleLedger(nil)}
	service, recorder, clock := newTestService(t, store, nil)
	clock.Advance(48 * time.Hour)

	res, err := service.Resolve(context.Background(), models.StringPtr(" Oslo "))
	require.NoError(t, err)

	assert.Equal(t, 5, res.Current.Count)
	assert.Equal(t, models.TimeToMilliseconds(clock.Now()), res.Current.LastTime)
	require.Len(t, recorder.events, 1)
	assert.Equal(t, "Visit #5 to Oslo 🏳️", recorder.events[0].description)
}

func TestLedgerService_StoreCorrupt(t *testing.T) {
	store := &memoryStore{loadErr: fmt.Errorf("%w: history is not an array", db.ErrStoreCorrupt)}
	service, _, _ := newTestService(t, store, tokyoGenerator())

	_, err := service.Resolve(context.Background(), models.StringPtr("Tokyo"))
	assert.ErrorIs(t, err, ErrStoreCorrupt)
	assert.Zero(t, store.saves)
}

func TestLedgerService_GenerationFailureWritesNothing(t *testing.T) {
	store := &memoryStore{ledger: models.NewLedger()}
	service, recorder, _ := newTestService(t, store, &fakeGenerator{err: fmt.Errorf("timeout")})

	_, err := service.Resolve(context.Background(), models.StringPtr("Kyoto"))
	assert.ErrorIs(t, err, ErrGenerationFailure)
	assert.Zero(t, store.saves)
	assert.Empty(t, recorder.events)
}

func TestLedgerService_ConcurrentVisitsAreSerialized(t *testing.T) {
	store := &memoryStore{ledger: sampleLedger(nil)}
	service, _, _ := newTestService(t, store, nil)

	keys := []string{"Lisbon", "Oslo"}
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(key string) {
			defer wg.Done()
			_, err := service.Resolve(context.Background(), &key)
			assert.NoError(t, err)
		}(keys[i%2])
	}
	wg.Wait()

	ledger, err := service.Ledger(context.Background())
	require.NoError(t, err)

	total := 0
	for _, rec := range ledger.History {
		total += rec.Count
	}
	// every resolution either bumped a count or repeated the current key
	assert.Equal(t, 2+1+4+store.saves, total)
}

func TestNormalizeKey(t *testing.T) {
	assert.Nil(t, NormalizeKey(nil))
	assert.Nil(t, NormalizeKey(models.StringPtr("  ")))
	assert.Equal(t, "Tokyo", *NormalizeKey(models.StringPtr(" Tokyo\n")))
}
