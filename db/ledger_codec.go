package db

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"whereiam/models"
)

// DecodeLedger parses a persisted ledger and checks it field by field.
// Any shape mismatch is reported as ErrStoreCorrupt.
func DecodeLedger(data []byte) (models.Ledger, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var root any
	if err := dec.Decode(&root); err != nil {
		return models.Ledger{}, corruptf("invalid json: %v", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return models.Ledger{}, corruptf("trailing data after ledger")
	}

	obj, ok := root.(map[string]any)
	if !ok {
		return models.Ledger{}, corruptf("top level is not an object")
	}

	ledger := models.NewLedger()

	last, err := nullableStringField(obj, "last")
	if err != nil {
		return models.Ledger{}, err
	}
	ledger.Last = last

	rawHistory, present := obj["history"]
	if !present {
		return models.Ledger{}, corruptf("missing field history")
	}
	items, ok := rawHistory.([]any)
	if !ok {
		return models.Ledger{}, corruptf("history is not an array")
	}

	seen := make(map[string]bool, len(items))
	for i, item := range items {
		rec, err := decodeRecord(item)
		if err != nil {
			return models.Ledger{}, fmt.Errorf("history[%d]: %w", i, err)
		}
		if rec.Location != nil {
			if seen[*rec.Location] {
				return models.Ledger{}, corruptf("history[%d]: duplicate location %q", i, *rec.Location)
			}
			seen[*rec.Location] = true
		}
		ledger.History = append(ledger.History, rec)
	}

	return ledger, nil
}

// storedRecord always writes count and lastTime so a reload sees every field
type storedRecord struct {
	Location       *string            `json:"location"`
	Flag           string             `json:"flag"`
	Hello          string             `json:"hello"`
	TimezoneOffset int                `json:"timezoneOffset"`
	Coordinates    models.Coordinates `json:"coordinates"`
	FlightTime     *int               `json:"flightTime"`
	Count          int                `json:"count"`
	LastTime       int64              `json:"lastTime"`
}

type storedLedger struct {
	Last    *string        `json:"last"`
	History []storedRecord `json:"history"`
}

// EncodeLedger serializes the ledger in the persisted layout
func EncodeLedger(ledger models.Ledger) ([]byte, error) {
	out := storedLedger{Last: ledger.Last, History: make([]storedRecord, 0, len(ledger.History))}
	for _, rec := range ledger.History {
		out.History = append(out.History, storedRecord(rec))
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode ledger: %w", err)
	}
	return append(data, '\n'), nil
}

func decodeRecord(item any) (models.LocationRecord, error) {
	obj, ok := item.(map[string]any)
	if !ok {
		return models.LocationRecord{}, corruptf("record is not an object")
	}

	var rec models.LocationRecord
	var err error

	if rec.Location, err = nullableStringField(obj, "location"); err != nil {
		return rec, err
	}
	if rec.Flag, err = stringField(obj, "flag"); err != nil {
		return rec, err
	}
	if rec.Hello, err = stringField(obj, "hello"); err != nil {
		return rec, err
	}

	offset, err := integerField(obj, "timezoneOffset")
	if err != nil {
		return rec, err
	}
	rec.TimezoneOffset = int(offset)

	rawCoords, present := obj["coordinates"]
	if !present {
		return rec, corruptf("missing field coordinates")
	}
	coords, ok := rawCoords.(map[string]any)
	if !ok {
		return rec, corruptf("coordinates is not an object")
	}
	if rec.Coordinates.Lat, err = numberField(coords, "lat"); err != nil {
		return rec, err
	}
	if rec.Coordinates.Lng, err = numberField(coords, "lng"); err != nil {
		return rec, err
	}

	if raw, present := obj["flightTime"]; !present {
		return rec, corruptf("missing field flightTime")
	} else if raw != nil {
		ft, err := integerField(obj, "flightTime")
		if err != nil {
			return rec, err
		}
		rec.FlightTime = models.IntPtr(int(ft))
	}

	count, err := integerField(obj, "count")
	if err != nil {
		return rec, err
	}
	if count < 1 {
		return rec, corruptf("count must be at least 1, got %d", count)
	}
	rec.Count = int(count)

	if rec.LastTime, err = integerField(obj, "lastTime"); err != nil {
		return rec, err
	}

	return rec, nil
}

func stringField(obj map[string]any, name string) (string, error) {
	raw, present := obj[name]
	if !present {
		return "", corruptf("missing field %s", name)
	}
	s, ok := raw.(string)
	if !ok {
		return "", corruptf("field %s is not a string", name)
	}
	return s, nil
}

func nullableStringField(obj map[string]any, name string) (*string, error) {
	raw, present := obj[name]
	if !present {
		return nil, corruptf("missing field %s", name)
	}
	if raw == nil {
		return nil, nil
	}
	s, ok := raw.(string)
	if !ok {
		return nil, corruptf("field %s is not a string or null", name)
	}
	return &s, nil
}

func numberField(obj map[string]any, name string) (float64, error) {
	raw, present := obj[name]
	if !present {
		return 0, corruptf("missing field %s", name)
	}
	n, ok := raw.(json.Number)
	if !ok {
		return 0, corruptf("field %s is not a number", name)
	}
	f, err := n.Float64()
	if err != nil {
		return 0, corruptf("field %s: %v", name, err)
	}
	return f, nil
}

func integerField(obj map[string]any, name string) (int64, error) {
	f, err := numberField(obj, name)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return 0, corruptf("field %s is not an integer", name)
	}
	return int64(f), nil
}

func corruptf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrStoreCorrupt, fmt.Sprintf(format, args...))
}
