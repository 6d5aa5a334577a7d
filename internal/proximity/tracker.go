// Package proximity turns visitor positions into one-shot landmark notifications.
package proximity

import (
	"time"

	"github.com/baywoodland/woodland/internal/geo"
	"github.com/baywoodland/woodland/internal/landmark"
)

// DefaultThresholdMeters is ten feet.
const DefaultThresholdMeters = 3.048

// NotificationMessage is the text shown to a visitor entering a landmark radius.
const NotificationMessage = "You are near a location of interest. Press read aloud to listen"

// State is the per-landmark notification state of one visit.
type State int

const (
	// Unarmed means the visitor was last seen outside the radius and will be
	// notified on the next entry.
	Unarmed State = iota
	// Armed means the visitor has been notified and is still inside the radius.
	Armed
)

func (s State) String() string {
	if s == Armed {
		return "armed"
	}
	return "unarmed"
}

// Event is emitted once per entry into a landmark's radius.
type Event struct {
	VisitorID      string            `json:"visitor_id,omitempty"`
	Landmark       landmark.Landmark `json:"landmark"`
	DistanceMeters float64           `json:"distance_meters"`
	Message        string            `json:"message"`
	At             time.Time         `json:"at"`
}

// Tracker holds the notified set of a single visit. It is not safe for
// concurrent use.
type Tracker struct {
	threshold float64
	notified  map[string]struct{}
}

// NewTracker builds a tracker. Non-positive thresholds fall back to the default.
func NewTracker(thresholdMeters float64) *Tracker {
	if thresholdMeters <= 0 {
		thresholdMeters = DefaultThresholdMeters
	}
	return &Tracker{threshold: thresholdMeters, notified: make(map[string]struct{})}
}

// Check evaluates pos against landmarks in order. The first landmark that is
// within the threshold and not yet notified is marked and returned, and the
// remaining landmarks are not evaluated on this call. Landmarks farther than
// the threshold are re-armed.
func (t *Tracker) Check(pos geo.Point, landmarks []landmark.Landmark) (Event, bool) {
	for _, l := range landmarks {
		d := geo.DistanceMeters(pos, l.Position)
		if d > t.threshold {
			delete(t.notified, l.Name)
			continue
		}
		if _, seen := t.notified[l.Name]; seen {
			continue
		}
		t.notified[l.Name] = struct{}{}
		return Event{Landmark: l, DistanceMeters: d, Message: NotificationMessage}, true
	}
	return Event{}, false
}

// State reports the state of the named landmark.
func (t *Tracker) State(name string) State {
	if _, ok := t.notified[name]; ok {
		return Armed
	}
	return Unarmed
}

// Reset forgets every notification of the visit.
func (t *Tracker) Reset() {
	clear(t.notified)
}

// Threshold returns the notification radius in meters.
func (t *Tracker) Threshold() float64 { return t.threshold }
