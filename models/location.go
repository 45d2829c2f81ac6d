package models

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// Coordinates is a latitude/longitude pair in degrees
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// LocationRecord is one observed or generated place.
// Location is nil for the home record.
type LocationRecord struct {
	Location       *string     `json:"location"`
	Flag           string      `json:"flag"`
	Hello          string      `json:"hello"`
	TimezoneOffset int         `json:"timezoneOffset"`
	Coordinates    Coordinates `json:"coordinates"`
	FlightTime     *int        `json:"flightTime"`
	Count          int         `json:"count,omitempty"`
	LastTime       int64       `json:"lastTime,omitempty"`
}

// Ledger is the persisted set of known places plus the currently active key
type Ledger struct {
	Last    *string          `json:"last"`
	History []LocationRecord `json:"history"`
}

var homeLocation = LocationRecord{
	Flag:           "🇫🇷",
	Hello:          "Bonjour",
	TimezoneOffset: 1,
	Coordinates:    Coordinates{Lat: 49.439999, Lng: 1.1},
}

// DefaultLocation returns the home record shown when no travel is requested
func DefaultLocation() LocationRecord {
	return homeLocation
}

// NewLedger returns an empty ledger
func NewLedger() Ledger {
	return Ledger{History: []LocationRecord{}}
}

// Name returns the display name of the record, empty for home
func (r LocationRecord) Name() string {
	if r.Location == nil {
		return ""
	}
	return *r.Location
}

// IsHome reports whether the record is the home sentinel
func (r LocationRecord) IsHome() bool {
	return r.Location == nil
}

// LastVisitedAt converts LastTime to a time.Time. Zero when never visited.
func (r LocationRecord) LastVisitedAt() time.Time {
	if r.LastTime == 0 {
		return time.Time{}
	}
	return MillisecondsToTime(r.LastTime)
}

// Find returns the index of the record with the given location, or -1
func (l Ledger) Find(location string) int {
	for i, rec := range l.History {
		if rec.Location != nil && *rec.Location == location {
			return i
		}
	}
	return -1
}

// IsLast reports whether key is the currently active key
func (l Ledger) IsLast(key string) bool {
	return l.Last != nil && *l.Last == key
}

// Clone returns a deep copy so callers can mutate without touching the original
func (l Ledger) Clone() Ledger {
	out := Ledger{History: make([]LocationRecord, len(l.History))}
	if l.Last != nil {
		out.Last = StringPtr(*l.Last)
	}
	for i, rec := range l.History {
		out.History[i] = rec.Clone()
	}
	return out
}

// Clone returns a deep copy of the record
func (r LocationRecord) Clone() LocationRecord {
	out := r
	if r.Location != nil {
		out.Location = StringPtr(*r.Location)
	}
	if r.FlightTime != nil {
		ft := *r.FlightTime
		out.FlightTime = &ft
	}
	return out
}

// StringPtr returns a pointer to s
func StringPtr(s string) *string {
	return &s
}

// IntPtr returns a pointer to i
func IntPtr(i int) *int {
	return &i
}

// TimeToMilliseconds converts t to epoch milliseconds
func TimeToMilliseconds(t time.Time) int64 {
	return t.UnixMilli()
}

// MillisecondsToTime converts epoch milliseconds to a UTC time
func MillisecondsToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// Validate checks the descriptive fields of a generated record
func (r LocationRecord) Validate() error {
	switch {
	case strings.TrimSpace(r.Flag) == "":
		return errors.New("flag is empty")
	case strings.TrimSpace(r.Hello) == "":
		return errors.New("hello is empty")
	case r.TimezoneOffset < -12 || r.TimezoneOffset > 14:
		return fmt.Errorf("timezone offset %d out of range", r.TimezoneOffset)
	case math.IsNaN(r.Coordinates.Lat) || r.Coordinates.Lat < -90 || r.Coordinates.Lat > 90:
		return fmt.Errorf("latitude %v out of range", r.Coordinates.Lat)
	case math.IsNaN(r.Coordinates.Lng) || r.Coordinates.Lng < -180 || r.Coordinates.Lng > 180:
		return fmt.Errorf("longitude %v out of range", r.Coordinates.Lng)
	case r.FlightTime != nil && *r.FlightTime < 0:
		return fmt.Errorf("flight time %d is negative", *r.FlightTime)
	}
	return nil
}
