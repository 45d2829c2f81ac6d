package db

import (
	"strings"
	"testing"
	"whereiam/models"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleStore = `{
  "last": "Tokyo",
  "history": [
    {
      "location": "Lisbon",
      "flag": "🇵🇹",
      "hello": "Olá",
      "timezoneOffset": 1,
      "coordinates": {
        "lat": 38.7223,
        "lng": -9.1393
      },
      "flightTime": 2,
      "count": 3,
      "lastTime": 1714566600123
    },
    {
      "location": "Tokyo",
      "flag": "🇯🇵",
      "hello": "こんにちは",
      "timezoneOffset": 9,
      "coordinates": {
        "lat": 35.6762,
        "lng": 139.6503
      },
      "flightTime": null,
      "count": 1,
      "lastTime": 1714653000000
    }
  ]
}
`

func sampleLedger() models.Ledger {
	return models.Ledger{
		Last: models.StringPtr("Tokyo"),
		History: []models.LocationRecord{
			{
				Location:       models.StringPtr("Lisbon"),
				Flag:           "🇵🇹",
				Hello:          "Olá",
				TimezoneOffset: 1,
				Coordinates:    models.Coordinates{Lat: 38.7223, Lng: -9.1393},
				FlightTime:     models.IntPtr(2),
				Count:          3,
				LastTime:       1714566600123,
			},
			{
				Location:       models.StringPtr("Tokyo"),
				Flag:           "🇯🇵",
				Hello:          "こんにちは",
				TimezoneOffset: 9,
				Coordinates:    models.Coordinates{Lat: 35.6762, Lng: 139.6503},
				Count:          1,
				LastTime:       1714653000000,
			},
		},
	}
}

func TestDecodeLedger(t *testing.T) {
	ledger, err := DecodeLedger([]byte(sampleStore))
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(sampleLedger(), ledger))
}

func TestEncodeLedger_RoundTrip(t *testing.T) {
	data, err := EncodeLedger(sampleLedger())
	require.NoError(t, err)
	assert.Equal(t, sampleStore, string(data))

	decoded, err := DecodeLedger(data)
	require.NoError(t, err)
	again, err := EncodeLedger(decoded)
	require.NoError(t, err)
	assert.Equal(t, data, again)
}

func TestEncodeLedger_EmptyHistory(t *testing.T) {
	data, err := EncodeLedger(models.Ledger{})
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"last\": null,\n  \"history\": []\n}\n", string(data))

	ledger, err := DecodeLedger(data)
	require.NoError(t, err)
	assert.Nil(t, ledger.Last)
	assert.NotNil(t, ledger.History)
	assert.Empty(t, ledger.History)
}

func TestDecodeLedger_Corrupt(t *testing.T) {
	cases := map[string]string{
		"not json":           `{"last":`,
		"array root":         `[]`,
		"missing last":       `{"history":[]}`,
		"missing history":    `{"last":null}`,
		"history not array":  `{"last":null,"history":{}}`,
		"last not string":    `{"last":3,"history":[]}`,
		"record not object":  `{"last":null,"history":[1]}`,
		"missing flag":       strings.Replace(sampleStore, `"flag": "🇵🇹",`, "", 1),
		"hello wrong type":   strings.Replace(sampleStore, `"hello": "Olá"`, `"hello": 4`, 1),
		"fractional offset":  strings.Replace(sampleStore, `"timezoneOffset": 1,`, `"timezoneOffset": 5.5,`, 1),
		"missing coords":     `{"last":null,"history":[{"location":"A","flag":"f","hello":"h","timezoneOffset":0,"flightTime":null,"count":1,"lastTime":1}]}`,
		"lat not number":     strings.Replace(sampleStore, `"lat": 38.7223`, `"lat": "north"`, 1),
		"missing flightTime": `{"last":null,"history":[{"location":"A","flag":"f","hello":"h","timezoneOffset":0,"coordinates":{"lat":0,"lng":0},"count":1,"lastTime":1}]}`,
		"missing count":      strings.Replace(sampleStore, `"count": 3,`, "", 1),
		"zero count":         strings.Replace(sampleStore, `"count": 3,`, `"count": 0,`, 1),
		"missing lastTime":   `{"last":null,"history":[{"location":"A","flag":"f","hello":"h","timezoneOffset":0,"coordinates":{"lat":0,"lng":0},"flightTime":null,"count":1}]}`,
		"duplicate location": strings.Replace(sampleStore, `"location": "Tokyo"`, `"location": "Lisbon"`, 1),
		"trailing garbage":   `{"last":null,"history":[]} {"half-written`,
		"second document":    `{"last":null,"history":[]}{"last":null,"history":[]}`,
	}

	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeLedger([]byte(input))
			assert.ErrorIs(t, err, ErrStoreCorrupt)
		})
	}
}
