package proximity

import (
	"context"
	"log/slog"
)

// Announcer delivers events to visitors.
type Announcer interface {
	Announce(ctx context.Context, ev Event) error
}

// LogAnnouncer writes events to the logger.
type LogAnnouncer struct {
	logger *slog.Logger
}

func NewLogAnnouncer(logger *slog.Logger) *LogAnnouncer {
	return &LogAnnouncer{logger: logger}
}

func (a *LogAnnouncer) Announce(ctx context.Context, ev Event) error {
	a.logger.InfoContext(ctx, "proximity alert",
		"visitor_id", ev.VisitorID,
		"landmark", ev.Landmark.Name,
		"message", ev.Message,
	)
	return nil
}

// Dispatch forwards every event to a until events is closed. Delivery errors
// are logged and do not stop the loop.
func Dispatch(ctx context.Context, events <-chan Event, a Announcer, logger *slog.Logger) {
	for ev := range events {
		if err := a.Announce(ctx, ev); err != nil {
			logger.WarnContext(ctx, "announce failed", "visitor_id", ev.VisitorID, "landmark", ev.Landmark.Name, "error", err)
		}
	}
}
