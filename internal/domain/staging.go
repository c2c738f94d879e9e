package domain

import (
	"strings"

	"github.com/google/uuid"
)

// ProvisionalIDPrefix marks identities that belong to staged pins. Entity-store
// ids are integers, so the two namespaces never collide.
const ProvisionalIDPrefix = "temp_"

// NewProvisionalID returns a fresh provisional identity for a staged pin.
func NewProvisionalID() string {
	return ProvisionalIDPrefix + uuid.NewString()
}

// IsProvisionalID reports whether id belongs to the staged-pin namespace.
func IsProvisionalID(id string) bool {
	return strings.HasPrefix(id, ProvisionalIDPrefix) && len(id) > len(ProvisionalIDPrefix)
}

// StagedPin is a pin that so far exists only on the client. It is never sent
// to the coordinate authority until it is committed.
// Percent is nil until the user places it on the map.
type StagedPin struct {
	ProvisionalID string
	Name          string
	Category      string
	Description   string
	Percent       *Percent
}

// Clamp limits both axes to [0,100]. Pointer interactions always go through it.
func (p Percent) Clamp() Percent {
	return Percent{X: clamp100(p.X), Y: clamp100(p.Y)}
}

func clamp100(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}

// StagingArea holds staged pins between creation on the client and commit.
// It is not safe for concurrent use; each client owns its own area.
type StagingArea struct {
	pins []StagedPin
}

// NewStagingArea returns an area seeded with pins. Pins lacking a provisional
// id are given one.
func NewStagingArea(pins ...StagedPin) *StagingArea {
	a := &StagingArea{pins: make([]StagedPin, 0, len(pins))}
	for _, p := range pins {
		if !IsProvisionalID(p.ProvisionalID) {
			p.ProvisionalID = NewProvisionalID()
		}
		if p.Percent != nil {
			c := p.Percent.Clamp()
			p.Percent = &c
		}
		a.pins = append(a.pins, p)
	}
	return a
}

// Add stages a new, unplaced pin and returns it.
func (a *StagingArea) Add(name, category, description string) StagedPin {
	p := StagedPin{
		ProvisionalID: NewProvisionalID(),
		Name:          name,
		Category:      category,
		Description:   description,
	}
	a.pins = append(a.pins, p)
	return p
}

// Place sets the overlay position of a staged pin, clamped to [0,100].
// Returns ErrNotFound when id is not staged here.
func (a *StagingArea) Place(id string, at Percent) (StagedPin, error) {
	for i := range a.pins {
		if a.pins[i].ProvisionalID == id {
			c := at.Clamp()
			a.pins[i].Percent = &c
			return a.pins[i], nil
		}
	}
	return StagedPin{}, ErrNotFound
}

// Discard drops a staged pin without side effects. It reports whether the pin
// was present.
func (a *StagingArea) Discard(id string) bool {
	for i := range a.pins {
		if a.pins[i].ProvisionalID == id {
			a.pins = append(a.pins[:i], a.pins[i+1:]...)
			return true
		}
	}
	return false
}

// Pins returns a copy of every staged pin in insertion order.
func (a *StagingArea) Pins() []StagedPin {
	out := make([]StagedPin, len(a.pins))
	copy(out, a.pins)
	return out
}

// Positioned returns the staged pins that have been placed on the map.
func (a *StagingArea) Positioned() []StagedPin {
	var out []StagedPin
	for _, p := range a.pins {
		if p.Percent != nil {
			out = append(out, p)
		}
	}
	return out
}

// Unpositioned returns the staged pins that were never placed.
func (a *StagingArea) Unpositioned() []StagedPin {
	var out []StagedPin
	for _, p := range a.pins {
		if p.Percent == nil {
			out = append(out, p)
		}
	}
	return out
}

// CommitOutcome describes what happened to one staged pin during a commit.
type CommitOutcome string

const (
	CommitSaved     CommitOutcome = "saved"
	CommitDiscarded CommitOutcome = "discarded"
	CommitFailed    CommitOutcome = "failed"
	// CommitPartial means the pin was created but its position was not saved.
	CommitPartial CommitOutcome = "position_not_saved"
)

// CommitResult reports the outcome for one staged pin.
// Pin is set when the entity store accepted the pin; Err is set on failure.
type CommitResult struct {
	ProvisionalID string
	Outcome       CommitOutcome
	Pin           *MapPin
	Err           error
}
