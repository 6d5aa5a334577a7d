package otp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/baywoodland/woodland/internal/metrics"
	"github.com/baywoodland/woodland/internal/notification"
	"github.com/baywoodland/woodland/internal/validate"
)

const (
	otpSubject          = "Your OTP for Verification"
	confirmationSubject = "Confirmation of Your Inquiry"
)

// Confirmation is the contact form content echoed back to the sender.
type Confirmation struct {
	Email       string `json:"email" validate:"required"`
	FullName    string `json:"fullName" validate:"required"`
	InquiryType string `json:"inquiryType" validate:"required"`
	Message     string `json:"message" validate:"required"`
}

type codeRequest struct {
	Email string `json:"email" validate:"required"`
}

type verifyRequest struct {
	Email string `json:"email" validate:"required"`
	Code  string `json:"otp" validate:"required"`
}

// Service issues and checks one-time codes and sends inquiry confirmations.
type Service struct {
	store    Store
	notifier notification.Notifier
	gen      Generator
	ttl      time.Duration
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// Option customises a Service.
type Option func(*Service)

// WithGenerator replaces the random code generator.
func WithGenerator(g Generator) Option {
	return func(s *Service) { s.gen = g }
}

// WithTTL sets the validity advertised in the OTP email. It should match the
// store's expiry.
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) { s.ttl = ttl }
}

// WithMetrics records request and verification outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService wires the store and the mail gateway.
func NewService(store Store, notifier notification.Notifier, opts ...Option) *Service {
	s := &Service{
		store:    store,
		notifier: notifier,
		gen:      RandomGenerator{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RequestOTP stores a fresh code for email, replacing any pending one, and
// mails it. The code is returned for in-process callers. If delivery fails
// the stored code stays in place.
func (s *Service) RequestOTP(ctx context.Context, email string) (string, error) {
	if err := validate.Struct(codeRequest{Email: email}); err != nil {
		s.countRequest("invalid")
		return "", fmt.Errorf("%w: %v", ErrValidation, err)
	}

	code, err := s.gen.Generate()
	if err != nil {
		return "", err
	}
	if err := s.store.Set(ctx, email, code); err != nil {
		return "", fmt.Errorf("store otp: %w", err)
	}

	msg := notification.Message{
		Kind:    notification.KindOTP,
		To:      email,
		Subject: otpSubject,
		Body:    s.otpBody(code),
	}
	if err := s.notifier.Send(ctx, msg); err != nil {
		s.countRequest("delivery_failed")
		return "", &DeliveryError{Kind: msg.Kind, Err: err}
	}

	s.countRequest("sent")
	s.logger.InfoContext(ctx, "otp issued", "email", email)
	return code, nil
}

// VerifyOTP consumes the pending code for email when it equals code. Any
// mismatch, missing or expired entry yields ErrVerification and leaves the
// store unchanged.
//
// Get, compare and delete are separate store calls, so two concurrent
// verifications of the same correct code may both succeed.
func (s *Service) VerifyOTP(ctx context.Context, email, code string) error {
	if err := validate.Struct(verifyRequest{Email: email, Code: code}); err != nil {
		s.countVerification("invalid")
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	stored, err := s.store.Get(ctx, email)
	if errors.Is(err, ErrNotFound) {
		s.countVerification("rejected")
		return ErrVerification
	}
	if err != nil {
		return fmt.Errorf("load otp: %w", err)
	}
	if stored != code {
		s.countVerification("rejected")
		return ErrVerification
	}

	if err := s.store.Delete(ctx, email); err != nil {
		return fmt.Errorf("consume otp: %w", err)
	}
	s.countVerification("verified")
	return nil
}

// SendConfirmation mails the inquiry back to its author. It keeps no state.
func (s *Service) SendConfirmation(ctx context.Context, c Confirmation) error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	msg := notification.Message{
		Kind:    notification.KindInquiryConfirmation,
		To:      c.Email,
		Subject: confirmationSubject,
		Body:    confirmationBody(c),
	}
	if err := s.notifier.Send(ctx, msg); err != nil {
		return &DeliveryError{Kind: msg.Kind, Err: err}
	}
	return nil
}

func (s *Service) otpBody(code string) string {
	if s.ttl <= 0 {
		return fmt.Sprintf("Your OTP is %s.", code)
	}
	minutes := int(s.ttl.Round(time.Minute) / time.Minute)
	if minutes < 1 {
		minutes = 1
	}
	unit := "minutes"
	if minutes == 1 {
		unit = "minute"
	}
	return fmt.Sprintf("Your OTP is %s. It will expire in %d %s.", code, minutes, unit)
}

func confirmationBody(c Confirmation) string {
	return fmt.Sprintf("Hello %s,\n\n"+
		"Thank you for reaching out to us with your inquiry. Here are the details:\n\n"+
		"Inquiry Type: %s\n"+
		"Message: %s\n\n"+
		"We will get back to you as soon as possible.\n\n"+
		"Best regards,\n"+
		"The Support Team", c.FullName, c.InquiryType, c.Message)
}

func (s *Service) countRequest(result string) {
	if s.metrics != nil {
		s.metrics.OTPRequests.WithLabelValues(result).Inc()
	}
}

func (s *Service) countVerification(result string) {
	if s.metrics != nil {
		s.metrics.OTPVerifications.WithLabelValues(result).Inc()
	}
}
