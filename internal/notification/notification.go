package notification

import (
	"context"
	"log/slog"
)

const (
	// KindOTP marks a one-time passcode email.
	KindOTP = "otp"
	// KindInquiryConfirmation marks the acknowledgement sent after a contact form inquiry.
	KindInquiryConfirmation = "inquiry_confirmation"
)

// Message describes a plain-text email.
type Message struct {
	Kind    string
	To      string
	Subject string
	Body    string
}

// Notifier delivers messages to an external mail gateway.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// LoggerNotifier writes messages to the logger instead of sending them.
// It stands in for the gateway when SMTP is not configured.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the message to the structured logger.
func (n *LoggerNotifier) Send(ctx context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.InfoContext(ctx, "notification",
		"kind", message.Kind,
		"to", message.To,
		"subject", message.Subject,
		"body", message.Body,
	)
	return nil
}
