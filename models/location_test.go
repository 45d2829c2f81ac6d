package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultLocation(t *testing.T) {
	home := DefaultLocation()

	assert.True(t, home.IsHome())
	assert.Equal(t, "", home.Name())
	assert.Equal(t, "🇫🇷", home.Flag)
	assert.Equal(t, "Bonjour", home.Hello)
	assert.Equal(t, 1, home.TimezoneOffset)
	assert.Equal(t, Coordinates{Lat: 49.439999, Lng: 1.1}, home.Coordinates)
	assert.Nil(t, home.FlightTime)
	assert.Zero(t, home.Count)
}

func TestLedger_Find(t *testing.T) {
	ledger := Ledger{
		History: []LocationRecord{
			{Location: StringPtr("Tokyo"), Count: 1},
			{Location: nil},
			{Location: StringPtr("Lisbon"), Count: 3},
		},
	}

	assert.Equal(t, 0, ledger.Find("Tokyo"))
	assert.Equal(t, 2, ledger.Find("Lisbon"))
	assert.Equal(t, -1, ledger.Find("Oslo"))
	assert.Equal(t, -1, ledger.Find(""))
}

func TestLedger_IsLast(t *testing.T) {
	assert.False(t, NewLedger().IsLast("Tokyo"))
	assert.True(t, Ledger{Last: StringPtr("Tokyo")}.IsLast("Tokyo"))
	assert.False(t, Ledger{Last: StringPtr("Tokyo")}.IsLast("Osaka"))
}

func TestLedger_CloneIsDeep(t *testing.T) {
	original := Ledger{
		Last: StringPtr("Tokyo"),
		History: []LocationRecord{
			{Location: StringPtr("Tokyo"), FlightTime: IntPtr(13), Count: 1},
		},
	}

	clone := original.Clone()
	*clone.Last = "Osaka"
	*clone.History[0].Location = "Osaka"
	*clone.History[0].FlightTime = 2
	clone.History[0].Count = 9

	assert.Equal(t, "Tokyo", *original.Last)
	assert.Equal(t, "Tokyo", *original.History[0].Location)
	assert.Equal(t, 13, *original.History[0].FlightTime)
	assert.Equal(t, 1, original.History[0].Count)
}

func TestNewLedger_HistoryNotNil(t *testing.T) {
	ledger := NewLedger()
	assert.Nil(t, ledger.Last)
	assert.NotNil(t, ledger.History)
	assert.Empty(t, ledger.History)
}

func TestMillisecondsRoundTrip(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 30, 0, 123_000_000, time.UTC)
	ms := TimeToMilliseconds(now)

	assert.Equal(t, int64(1714566600123), ms)
	assert.True(t, now.Equal(MillisecondsToTime(ms)))

	rec := LocationRecord{LastTime: ms}
	assert.True(t, now.Equal(rec.LastVisitedAt()))
	assert.True(t, LocationRecord{}.LastVisitedAt().IsZero())
}

func TestLocationRecord_Validate(t *testing.T) {
	valid := LocationRecord{
		Location:       StringPtr("Tokyo"),
		Flag:           "🇯🇵",
		Hello:          "こんにちは",
		TimezoneOffset: 9,
		Coordinates:    Coordinates{Lat: 35.6762, Lng: 139.6503},
		FlightTime:     IntPtr(13),
	}
	assert.NoError(t, valid.Validate())

	cases := map[string]func(r *LocationRecord){
		"empty flag":      func(r *LocationRecord) { r.Flag = " " },
		"empty hello":     func(r *LocationRecord) { r.Hello = "" },
		"offset too low":  func(r *LocationRecord) { r.TimezoneOffset = -13 },
		"offset too high": func(r *LocationRecord) { r.TimezoneOffset = 15 },
		"latitude":        func(r *LocationRecord) { r.Coordinates.Lat = 91 },
		"longitude":       func(r *LocationRecord) { r.Coordinates.Lng = -181 },
		"negative flight": func(r *LocationRecord) { r.FlightTime = IntPtr(-1) },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			rec := valid.Clone()
			mutate(&rec)
			assert.Error(t, rec.Validate())
		})
	}
}
