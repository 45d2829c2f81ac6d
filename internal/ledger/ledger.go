// Package ledger decides which location record is current and keeps the
// visit statistics of the persisted history up to date.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"whereiam/db"
	"whereiam/models"
)

var (
	// ErrStoreCorrupt is returned when the persisted ledger has an unexpected shape
	ErrStoreCorrupt = db.ErrStoreCorrupt
	// ErrGenerationFailure is returned when no usable record could be generated for an unseen key
	ErrGenerationFailure = errors.New("generation failure")
)

// Generator produces the descriptive fields of a place that is not in the ledger yet
type Generator interface {
	Generate(ctx context.Context, key string, date time.Time) (models.LocationRecord, error)
}

// Outcome says which branch a resolution took
type Outcome int

const (
	// OutcomeHome: no key requested and nothing to clear
	OutcomeHome Outcome = iota
	// OutcomeReturnedHome: no key requested, the previous key was cleared
	OutcomeReturnedHome
	// OutcomeRepeat: the requested key is already current
	OutcomeRepeat
	// OutcomeVisit: a known place was visited again
	OutcomeVisit
	// OutcomeNewDestination: an unseen place was generated and appended
	OutcomeNewDestination
)

func (o Outcome) String() string {
	switch o {
	case OutcomeHome:
		return "home"
	case OutcomeReturnedHome:
		return "returned_home"
	case OutcomeRepeat:
		return "repeat"
	case OutcomeVisit:
		return "visit"
	case OutcomeNewDestination:
		return "new_destination"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Changed reports whether the ledger must be persisted after this outcome
func (o Outcome) Changed() bool {
	return o == OutcomeReturnedHome || o == OutcomeVisit || o == OutcomeNewDestination
}

// Resolution is what the globe view consumes
type Resolution struct {
	Current models.LocationRecord   `json:"current"`
	History []models.LocationRecord `json:"history"`
	IsAway  bool                    `json:"isAway"`
}

// Resolve picks the current record for requestedKey and returns the updated
// ledger. The input ledger is never modified. gen is only called for a key
// that has no record yet.
func Resolve(ctx context.Context, requestedKey *string, ledger models.Ledger, now time.Time, gen Generator) (Resolution, models.Ledger, Outcome, error) {
	updated := ledger.Clone()

	if requestedKey == nil {
		res := Resolution{
			Current: models.DefaultLocation(),
			History: ledger.Clone().History,
		}
		if updated.Last == nil {
			return res, updated, OutcomeHome, nil
		}
		updated.Last = nil
		return res, updated, OutcomeReturnedHome, nil
	}

	key := *requestedKey
	nowMs := models.TimeToMilliseconds(now)

	if idx := updated.Find(key); idx >= 0 {
		if updated.IsLast(key) {
			return Resolution{
				Current: updated.History[idx].Clone(),
				History: without(updated.History, idx),
				IsAway:  true,
			}, updated, OutcomeRepeat, nil
		}

		rec := &updated.History[idx]
		rec.Count++
		if nowMs > rec.LastTime {
			rec.LastTime = nowMs
		}
		updated.Last = models.StringPtr(key)

		return Resolution{
			Current: rec.Clone(),
			History: without(updated.History, idx),
			IsAway:  true,
		}, updated, OutcomeVisit, nil
	}

	if gen == nil {
		return Resolution{}, ledger, OutcomeHome, fmt.Errorf("%w: no generator configured for %q", ErrGenerationFailure, key)
	}

	rec, err := gen.Generate(ctx, key, now)
	if err != nil {
		return Resolution{}, ledger, OutcomeHome, fmt.Errorf("%w: %q: %w", ErrGenerationFailure, key, err)
	}
	if err := rec.Validate(); err != nil {
		return Resolution{}, ledger, OutcomeHome, fmt.Errorf("%w: %q: %w", ErrGenerationFailure, key, err)
	}

	rec = rec.Clone()
	rec.Location = models.StringPtr(key)
	rec.Count = 1
	rec.LastTime = nowMs

	prior := ledger.Clone().History
	updated.History = append(updated.History, rec)
	updated.Last = models.StringPtr(key)

	return Resolution{
		Current: rec.Clone(),
		History: prior,
		IsAway:  true,
	}, updated, OutcomeNewDestination, nil
}

func without(history []models.LocationRecord, idx int) []models.LocationRecord {
	out := make([]models.LocationRecord, 0, len(history)-1)
	for i, rec := range history {
		if i != idx {
			out = append(out, rec.Clone())
		}
	}
	return out
}
