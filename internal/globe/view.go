// Package globe turns a resolution into the data the globe page draws.
package globe

import (
	"fmt"
	"time"

	"whereiam/internal/ledger"
	"whereiam/models"
)

const (
	defaultAltitude     = 1.2
	defaultFlightHours  = 1
	defaultRingHours    = 100
	arcMillisPerHour    = 1000
	ringPeriodPerHour   = 0.5 / 3
	firstVisitText      = "for the first time!"
	homeLocationText    = "at home, or not too far."
	lastDestinationDate = "Mon Jan 02 2006"
)

type Point struct {
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
	Name string  `json:"name"`
}

// Marker is an html element on the globe. The avatar marks the current place.
type Marker struct {
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
	Avatar bool    `json:"avatar"`
}

type Arc struct {
	StartLat float64 `json:"startLat"`
	StartLng float64 `json:"startLng"`
	EndLat   float64 `json:"endLat"`
	EndLng   float64 `json:"endLng"`
}

type Ring struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type PointOfView struct {
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Altitude float64 `json:"altitude"`
}

// Destination is a place named on the information card
type Destination struct {
	Name        string    `json:"name"`
	Flag        string    `json:"flag"`
	Count       int       `json:"count"`
	LastVisited time.Time `json:"lastVisited"`
}

// Label renders the destination the way the card shows it
func (d Destination) Label() string {
	return fmt.Sprintf("%s %s • %d times", d.Name, d.Flag, d.Count)
}

// LastVisitedLabel renders the destination with its last visit date
func (d Destination) LastVisitedLabel() string {
	return fmt.Sprintf("%s %s • %s", d.Name, d.Flag, d.LastVisited.Format(lastDestinationDate))
}

// Card is the information card shown over the globe
type Card struct {
	Hello             string       `json:"hello"`
	Flag              string       `json:"flag"`
	LocalTime         string       `json:"localTime"`
	Whereabouts       string       `json:"whereabouts"`
	VisitText         string       `json:"visitText,omitempty"`
	IsFirstVisit      bool         `json:"isFirstVisit"`
	DestinationsCount int          `json:"destinationsCount"`
	MostVisited       *Destination `json:"mostVisited,omitempty"`
	LastDestination   *Destination `json:"lastDestination,omitempty"`
}

// View is everything the page needs to draw the globe
type View struct {
	PointOfView        PointOfView `json:"pointOfView"`
	Points             []Point     `json:"points"`
	Markers            []Marker    `json:"markers"`
	Arcs               []Arc       `json:"arcs"`
	Rings              []Ring      `json:"rings"`
	ArcDashAnimateTime int         `json:"arcDashAnimateTime"`
	RingRepeatPeriod   float64     `json:"ringRepeatPeriod"`
	Card               Card        `json:"card"`
}

// Build assembles the view for res at now
func Build(res ledger.Resolution, now time.Time) View {
	current := res.Current
	home := models.DefaultLocation()

	view := View{
		PointOfView: PointOfView{
			Lat:      current.Coordinates.Lat,
			Lng:      current.Coordinates.Lng,
			Altitude: defaultAltitude,
		},
		Points:  make([]Point, 0, len(res.History)),
		Markers: make([]Marker, 0, len(res.History)+1),
		Arcs:    []Arc{},
		Rings:   []Ring{{Lat: current.Coordinates.Lat, Lng: current.Coordinates.Lng}},
	}

	view.Markers = append(view.Markers, Marker{Lat: current.Coordinates.Lat, Lng: current.Coordinates.Lng, Avatar: true})
	for _, rec := range res.History {
		view.Points = append(view.Points, Point{Lat: rec.Coordinates.Lat, Lng: rec.Coordinates.Lng, Name: rec.Name()})
		view.Markers = append(view.Markers, Marker{Lat: rec.Coordinates.Lat, Lng: rec.Coordinates.Lng})
	}

	if res.IsAway {
		view.Arcs = append(view.Arcs, Arc{
			StartLat: home.Coordinates.Lat,
			StartLng: home.Coordinates.Lng,
			EndLat:   current.Coordinates.Lat,
			EndLng:   current.Coordinates.Lng,
		})
	}

	arcHours := defaultFlightHours
	ringHours := defaultRingHours
	if current.FlightTime != nil {
		arcHours = *current.FlightTime
		ringHours = *current.FlightTime
	}
	view.ArcDashAnimateTime = arcMillisPerHour * arcHours
	view.RingRepeatPeriod = float64(ringHours) * ringPeriodPerHour

	view.Card = buildCard(res, now)
	return view
}

func buildCard(res ledger.Resolution, now time.Time) Card {
	current := res.Current
	card := Card{
		Hello:       current.Hello,
		Flag:        current.Flag,
		LocalTime:   LocalTime(now, current.TimezoneOffset),
		Whereabouts: homeLocationText,
	}

	if !current.IsHome() {
		card.Whereabouts = "in " + current.Name()
		card.IsFirstVisit = current.Count <= 1
		if card.IsFirstVisit {
			card.VisitText = firstVisitText
		} else {
			card.VisitText = fmt.Sprintf("again! (I've already been here %d times)", current.Count-1)
		}
	}

	// history never holds the current record while away
	card.DestinationsCount = len(res.History)
	if res.IsAway {
		card.DestinationsCount++
	}

	card.MostVisited = mostVisited(res)
	if current.IsHome() {
		card.LastDestination = lastDestination(res.History)
	}
	return card
}

// LocalTime renders the wall clock at offset hours from UTC, e.g. "9h05"
func LocalTime(now time.Time, offset int) string {
	utc := now.UTC()
	hour := ((utc.Hour()+offset)%24 + 24) % 24
	return fmt.Sprintf("%dh%02d", hour, utc.Minute())
}

func mostVisited(res ledger.Resolution) *Destination {
	var best *models.LocationRecord
	candidates := append(append([]models.LocationRecord{}, res.History...), res.Current)
	for i := range candidates {
		rec := &candidates[i]
		if rec.IsHome() || rec.Count == 0 {
			continue
		}
		if best == nil || rec.Count > best.Count {
			best = rec
		}
	}
	if best == nil {
		return nil
	}
	return toDestination(*best)
}

func lastDestination(history []models.LocationRecord) *Destination {
	var latest *models.LocationRecord
	for i := range history {
		rec := &history[i]
		if rec.IsHome() {
			continue
		}
		if latest == nil || rec.LastTime > latest.LastTime {
			latest = rec
		}
	}
	if latest == nil {
		return nil
	}
	return toDestination(*latest)
}

func toDestination(rec models.LocationRecord) *Destination {
	return &Destination{
		Name:        rec.Name(),
		Flag:        rec.Flag,
		Count:       rec.Count,
		LastVisited: rec.LastVisitedAt(),
	}
}
