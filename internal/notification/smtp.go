package notification

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"strings"
)

// ErrSMTPHostRequired is returned when the SMTP host is missing.
var ErrSMTPHostRequired = errors.New("smtp host is required")

// SMTPConfig configures SMTPNotifier.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPNotifier sends plain-text mail through an SMTP relay.
type SMTPNotifier struct {
	addr     string
	from     string
	auth     smtp.Auth
	sendMail sendMailFunc
}

// NewSMTPNotifier builds an SMTP-backed notifier.
func NewSMTPNotifier(cfg SMTPConfig) (*SMTPNotifier, error) {
	if cfg.Host == "" {
		return nil, ErrSMTPHostRequired
	}
	port := cfg.Port
	if port == 0 {
		port = 587
	}

	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}

	return &SMTPNotifier{
		addr:     fmt.Sprintf("%s:%d", cfg.Host, port),
		from:     cfg.From,
		auth:     auth,
		sendMail: smtp.SendMail,
	}, nil
}

// Send delivers the message. net/smtp has no context support so ctx is only
// checked before dialing.
func (n *SMTPNotifier) Send(ctx context.Context, message Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if message.To == "" {
		return errors.New("no recipient provided")
	}
	// Header injection guard: addresses and subject are single-line values.
	if strings.ContainsAny(message.To+message.Subject, "\r\n") {
		return errors.New("invalid header value")
	}

	headers := []string{
		fmt.Sprintf("From: %s", n.from),
		fmt.Sprintf("To: %s", message.To),
		fmt.Sprintf("Subject: %s", message.Subject),
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=UTF-8",
	}
	raw := strings.Join(headers, "\r\n") + "\r\n\r\n" + message.Body

	if err := n.sendMail(n.addr, n.auth, n.from, []string{message.To}, []byte(raw)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
