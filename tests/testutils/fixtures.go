package testutils

import (
	"context"
	"fmt"
	"sync"
	"time"

	"whereiam/models"
)

const DefaultTestTTL = 12 * time.Hour

// places are the records the fake generator knows about
var places = map[string]models.LocationRecord{
	"Tokyo": {
		Flag:           "🇯🇵",
		Hello:          "こんにちは",
		TimezoneOffset: 9,
		Coordinates:    models.Coordinates{Lat: 35.6762, Lng: 139.6503},
		FlightTime:     models.IntPtr(14),
	},
	"Lisbon": {
		Flag:           "🇵🇹",
		Hello:          "Olá",
		TimezoneOffset: 1,
		Coordinates:    models.Coordinates{Lat: 38.7223, Lng: -9.1393},
		FlightTime:     models.IntPtr(2),
	},
	"Mont Saint-Michel": {
		Flag:           "🇫🇷",
		Hello:          "Bonjour",
		TimezoneOffset: 2,
		Coordinates:    models.Coordinates{Lat: 48.6361, Lng: -1.5115},
	},
}

// FakeGenerator answers from a fixed table and counts calls per key
type FakeGenerator struct {
	mu    sync.Mutex
	calls map[string]int
}

func NewFakeGenerator() *FakeGenerator {
	return &FakeGenerator{calls: make(map[string]int)}
}

func (g *FakeGenerator) Generate(_ context.Context, key string, _ time.Time) (models.LocationRecord, error) {
	g.mu.Lock()
	g.calls[key]++
	g.mu.Unlock()

	rec, ok := places[key]
	if !ok {
		return models.LocationRecord{}, fmt.Errorf("no test record for %q", key)
	}
	rec.Location = models.StringPtr(key)
	return rec, nil
}

// Calls returns how often key was generated
func (g *FakeGenerator) Calls(key string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[key]
}

// CreateTestRecord returns a visited record for key with the given count
func CreateTestRecord(key string, count int, lastTime time.Time) models.LocationRecord {
	rec := places[key]
	rec.Location = models.StringPtr(key)
	rec.Count = count
	rec.LastTime = lastTime.UnixMilli()
	return rec
}

// CreateTestLedger returns a ledger holding Lisbon twice and Tokyo once, with no current key
func CreateTestLedger(now time.Time) models.Ledger {
	return models.Ledger{
		History: []models.LocationRecord{
			CreateTestRecord("Lisbon", 2, now.Add(-48*time.Hour)),
			CreateTestRecord("Tokyo", 1, now.Add(-24*time.Hour)),
		},
	}
}
