package integration

import (
	"context"
	"testing"
	"time"

	"whereiam/internal/ledger"
	"whereiam/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerService_Journey(t *testing.T) {
	for name, factory := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := newStack(t, factory)
			ctx := context.Background()

			res, err := s.service.Resolve(ctx, models.StringPtr("Tokyo"))
			require.NoError(t, err)
			assert.Equal(t, "Tokyo", res.Current.Name())
			assert.Equal(t, 1, res.Current.Count)
			assert.Equal(t, t0.UnixMilli(), res.Current.LastTime)
			assert.Empty(t, res.History)

			s.clock.Advance(time.Hour)
			res, err = s.service.Resolve(ctx, models.StringPtr("Lisbon"))
			require.NoError(t, err)
			require.Len(t, res.History, 1)
			assert.Equal(t, "Tokyo", res.History[0].Name())

			// a repeat of the current key is not a new visit
			res, err = s.service.Resolve(ctx, models.StringPtr("Lisbon"))
			require.NoError(t, err)
			assert.Equal(t, 1, res.Current.Count)

			s.clock.Advance(time.Hour)
			res, err = s.service.Resolve(ctx, nil)
			require.NoError(t, err)
			assert.False(t, res.IsAway)
			assert.Equal(t, "🇫🇷", res.Current.Flag)
			assert.Len(t, res.History, 2)

			s.clock.Advance(time.Hour)
			res, err = s.service.Resolve(ctx, models.StringPtr("  Tokyo "))
			require.NoError(t, err)
			assert.Equal(t, 2, res.Current.Count)
			assert.Equal(t, t0.Add(3*time.Hour).UnixMilli(), res.Current.LastTime)
			require.Len(t, res.History, 1)
			assert.Equal(t, "Lisbon", res.History[0].Name())

			assert.Equal(t, 1, s.gen.Calls("Tokyo"))
			assert.Equal(t, 1, s.gen.Calls("Lisbon"))

			stored, err := s.store.Load(ctx)
			require.NoError(t, err)
			require.NotNil(t, stored.Last)
			assert.Equal(t, "Tokyo", *stored.Last)
			require.Len(t, stored.History, 2)
			assert.Equal(t, "Tokyo", stored.History[0].Name())
			assert.Equal(t, 2, stored.History[0].Count)
			assert.Equal(t, 9, stored.History[0].TimezoneOffset)
			assert.Equal(t, "Lisbon", stored.History[1].Name())

			events, err := s.eventLogs.GetLatest(ctx, 10)
			require.NoError(t, err)
			var descriptions []string
			for _, e := range events {
				descriptions = append(descriptions, e.Description)
			}
			assert.ElementsMatch(t, []string{
				"First visit to Tokyo 🇯🇵",
				"First visit to Lisbon 🇵🇹",
				"Back at home",
				"Visit #2 to Tokyo 🇯🇵",
			}, descriptions)
		})
	}
}

func TestLedgerService_ReloadsAcrossServices(t *testing.T) {
	for name, factory := range backends(t) {
		t.Run(name, func(t *testing.T) {
			first := newStack(t, factory)
			_, err := first.service.Resolve(context.Background(), models.StringPtr("Mont Saint-Michel"))
			require.NoError(t, err)

			second := newStack(t, factory)
			res, err := second.service.Resolve(context.Background(), models.StringPtr("Mont Saint-Michel"))
			require.NoError(t, err)
			assert.Nil(t, res.Current.FlightTime)
			assert.Equal(t, 1, res.Current.Count, "repeat of the stored current key")
			assert.Zero(t, second.gen.Calls("Mont Saint-Michel"))
		})
	}
}

func TestLedgerService_GenerationFailureLeavesStoreUntouched(t *testing.T) {
	for name, factory := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := newStack(t, factory)
			ctx := context.Background()

			_, err := s.service.Resolve(ctx, models.StringPtr("Tokyo"))
			require.NoError(t, err)

			_, err = s.service.Resolve(ctx, models.StringPtr("Atlantis"))
			require.ErrorIs(t, err, ledger.ErrGenerationFailure)

			stored, err := s.store.Load(ctx)
			require.NoError(t, err)
			require.NotNil(t, stored.Last)
			assert.Equal(t, "Tokyo", *stored.Last)
			assert.Len(t, stored.History, 1)
		})
	}
}

func TestGenerationCache_SurvivesRestart(t *testing.T) {
	factory := backends(t)["sqlite"]

	first := newStack(t, factory)
	_, err := first.service.Resolve(context.Background(), models.StringPtr("Tokyo"))
	require.NoError(t, err)
	require.Equal(t, 1, first.gen.Calls("Tokyo"))

	// wipe the ledger so Tokyo is unseen again, the persistent tier still has it
	require.NoError(t, first.store.Save(context.Background(), models.NewLedger()))

	second := newStack(t, factory)
	res, err := second.service.Resolve(context.Background(), models.StringPtr("Tokyo"))
	require.NoError(t, err)
	assert.Equal(t, "🇯🇵", res.Current.Flag)
	assert.Zero(t, second.gen.Calls("Tokyo"))
}
