package otp

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks a missing or malformed required field. The store is
	// never touched when it is returned.
	ErrValidation = errors.New("validation failed")

	// ErrDelivery marks a mail gateway failure. Callers may retry.
	ErrDelivery = errors.New("delivery failed")

	// ErrVerification is returned for any failed verification. It deliberately
	// does not say whether a code was pending for the address.
	ErrVerification = errors.New("invalid or expired OTP")
)

// DeliveryError wraps a gateway failure.
type DeliveryError struct {
	Kind string
	Err  error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver %s: %v", e.Kind, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrDelivery) match.
func (e *DeliveryError) Is(target error) bool { return target == ErrDelivery }

// Retryable reports that the same request may succeed later.
func (e *DeliveryError) Retryable() bool { return true }
