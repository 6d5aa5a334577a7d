package proximity

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/baywoodland/woodland/internal/geo"
	"github.com/baywoodland/woodland/internal/landmark"
	"github.com/baywoodland/woodland/internal/metrics"
)

// Reading is one position report of a visitor.
type Reading struct {
	VisitorID string    `json:"visitor_id"`
	Position  geo.Point `json:"position"`
	At        time.Time `json:"at"`
}

// Monitor keeps one Tracker per visitor. Readings of one visitor are applied
// in the order they are observed.
type Monitor struct {
	mu        sync.Mutex
	landmarks []landmark.Landmark
	threshold float64
	trackers  map[string]*visitor
	idleTTL   time.Duration
	lastSweep time.Time
	metrics   *metrics.Metrics
	logger    *slog.Logger
	now       func() time.Time
}

// DefaultVisitorIdleTTL is how long a visitor may stay silent before its
// visit is forgotten.
const DefaultVisitorIdleTTL = 30 * time.Minute

type visitor struct {
	tracker  *Tracker
	lastSeen time.Time
}

// MonitorOption customises a Monitor.
type MonitorOption func(*Monitor)

func WithMetrics(m *metrics.Metrics) MonitorOption {
	return func(mon *Monitor) { mon.metrics = m }
}

func WithLogger(l *slog.Logger) MonitorOption {
	return func(mon *Monitor) { mon.logger = l }
}

// WithIdleTTL sets how long a silent visitor is kept. Zero or less keeps the default.
func WithIdleTTL(d time.Duration) MonitorOption {
	return func(mon *Monitor) {
		if d > 0 {
			mon.idleTTL = d
		}
	}
}

// NewMonitor builds a monitor over a fixed landmark list.
func NewMonitor(landmarks []landmark.Landmark, thresholdMeters float64, opts ...MonitorOption) *Monitor {
	if thresholdMeters <= 0 {
		thresholdMeters = DefaultThresholdMeters
	}
	m := &Monitor{
		landmarks: append([]landmark.Landmark(nil), landmarks...),
		threshold: thresholdMeters,
		trackers:  make(map[string]*visitor),
		idleTTL:   DefaultVisitorIdleTTL,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Landmarks returns a copy of the monitored landmarks.
func (m *Monitor) Landmarks() []landmark.Landmark {
	return append([]landmark.Landmark(nil), m.landmarks...)
}

// Landmark looks up a monitored landmark by name.
func (m *Monitor) Landmark(name string) (landmark.Landmark, bool) {
	for _, l := range m.landmarks {
		if l.Name == name {
			return l, true
		}
	}
	return landmark.Landmark{}, false
}

// Observe applies a reading and returns the resulting event, if any.
func (m *Monitor) Observe(r Reading) (Event, bool) {
	now := m.now()
	m.mu.Lock()
	m.sweepLocked(now)
	v, ok := m.trackers[r.VisitorID]
	if !ok {
		v = &visitor{tracker: NewTracker(m.threshold)}
		m.trackers[r.VisitorID] = v
	}
	v.lastSeen = now
	ev, fired := v.tracker.Check(r.Position, m.landmarks)
	visitors := len(m.trackers)
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.ProximityReadings.Inc()
		m.metrics.ActiveVisitors.Set(float64(visitors))
	}
	if !fired {
		return Event{}, false
	}

	ev.VisitorID = r.VisitorID
	ev.At = r.At
	if ev.At.IsZero() {
		ev.At = now
	}
	if m.metrics != nil {
		m.metrics.ProximityNotifications.WithLabelValues(ev.Landmark.Name).Inc()
	}
	m.logger.Info("landmark nearby",
		"visitor_id", ev.VisitorID,
		"landmark", ev.Landmark.Name,
		"distance_m", ev.DistanceMeters,
	)
	return ev, true
}

// Reset clears the visit of visitorID so every landmark notifies again.
func (m *Monitor) Reset(visitorID string) {
	m.mu.Lock()
	delete(m.trackers, visitorID)
	visitors := len(m.trackers)
	m.mu.Unlock()
	if m.metrics != nil {
		m.metrics.ActiveVisitors.Set(float64(visitors))
	}
}

// State reports the state of one landmark for one visitor.
func (m *Monitor) State(visitorID, name string) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.trackers[visitorID]
	if !ok {
		return Unarmed
	}
	return v.tracker.State(name)
}

// Visitors reports how many visits are currently tracked.
func (m *Monitor) Visitors() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.trackers)
}

// EvictIdle forgets visitors not seen for longer than the idle TTL and
// returns how many were removed.
func (m *Monitor) EvictIdle() int {
	m.mu.Lock()
	removed := m.evictLocked(m.now())
	visitors := len(m.trackers)
	m.mu.Unlock()
	if m.metrics != nil {
		m.metrics.ActiveVisitors.Set(float64(visitors))
	}
	return removed
}

// sweepLocked evicts idle visitors at most once per quarter of the idle TTL.
func (m *Monitor) sweepLocked(now time.Time) {
	if now.Sub(m.lastSweep) < m.idleTTL/4 {
		return
	}
	m.evictLocked(now)
}

func (m *Monitor) evictLocked(now time.Time) int {
	m.lastSweep = now
	removed := 0
	for id, v := range m.trackers {
		if now.Sub(v.lastSeen) > m.idleTTL {
			delete(m.trackers, id)
			removed++
		}
	}
	return removed
}

// Run consumes readings on a single goroutine and emits events in the same
// order. Idle visitors are evicted periodically while it runs. The returned channel is closed when in is closed or ctx is done.
func (m *Monitor) Run(ctx context.Context, in <-chan Reading) <-chan Event {
	out := make(chan Event)
	go func() {
		defer close(out)
		ticker := time.NewTicker(m.idleTTL / 4)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.EvictIdle()
			case r, ok := <-in:
				if !ok {
					return
				}
				ev, fired := m.Observe(r)
				if !fired {
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}
