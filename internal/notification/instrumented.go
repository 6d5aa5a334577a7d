package notification

import (
	"context"
	"log/slog"
	"time"

	"github.com/baywoodland/woodland/internal/metrics"
)

// InstrumentedNotifier records delivery outcomes and latency.
type InstrumentedNotifier struct {
	next    Notifier
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewInstrumentedNotifier wraps next with metrics and failure logging.
func NewInstrumentedNotifier(next Notifier, m *metrics.Metrics, logger *slog.Logger) *InstrumentedNotifier {
	return &InstrumentedNotifier{next: next, metrics: m, logger: logger}
}

// Send forwards to the wrapped notifier.
func (n *InstrumentedNotifier) Send(ctx context.Context, message Message) error {
	start := time.Now()
	err := n.next.Send(ctx, message)

	if n.metrics != nil {
		n.metrics.DeliverySeconds.WithLabelValues(message.Kind).Observe(time.Since(start).Seconds())
		result := "success"
		if err != nil {
			result = "failure"
		}
		n.metrics.Deliveries.WithLabelValues(message.Kind, result).Inc()
	}
	if err != nil && n.logger != nil {
		n.logger.ErrorContext(ctx, "mail delivery failed", "kind", message.Kind, "error", err)
	}
	return err
}
