package proximity

import (
	"sync"
	"time"

	"github.com/baywoodland/woodland/internal/landmark"
)

// Source produces readings. Close stops delivery and closes the channel.
type Source interface {
	Readings() <-chan Reading
	Close() error
}

// FixtureSource replays a fixed list of readings in order and then closes.
type FixtureSource struct {
	ch   chan Reading
	done chan struct{}
	once sync.Once
}

// NewFixtureSource starts replaying readings.
func NewFixtureSource(readings ...Reading) *FixtureSource {
	s := &FixtureSource{ch: make(chan Reading), done: make(chan struct{})}
	go func() {
		defer close(s.ch)
		for _, r := range readings {
			select {
			case s.ch <- r:
			case <-s.done:
				return
			}
		}
	}()
	return s
}

func (s *FixtureSource) Readings() <-chan Reading { return s.ch }

// Close stops the replay. Readings not yet consumed are dropped.
func (s *FixtureSource) Close() error {
	s.once.Do(func() { close(s.done) })
	return nil
}

// AtLandmark returns a reading placing the visitor exactly on l.
func AtLandmark(visitorID string, l landmark.Landmark, at time.Time) Reading {
	return Reading{VisitorID: visitorID, Position: l.Position, At: at}
}
