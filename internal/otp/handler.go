package otp

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes the contact form relay endpoints.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type sendRequest struct {
	Email string `json:"email"`
}

type checkRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

// SendOTP handles POST /send-otp. The code is never echoed.
func (h *Handler) SendOTP(c *fiber.Ctx) error {
	var req sendRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "Email is required")
	}
	if _, err := h.svc.RequestOTP(c.UserContext(), req.Email); err != nil {
		return mapError(c, err, "Email is required", "Failed to send OTP. Please try again.")
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"message": "OTP sent successfully"})
}

// VerifyOTP handles POST /verify-otp.
func (h *Handler) VerifyOTP(c *fiber.Ctx) error {
	var req checkRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "Email and OTP are required")
	}
	if err := h.svc.VerifyOTP(c.UserContext(), req.Email, req.OTP); err != nil {
		if errors.Is(err, ErrVerification) {
			return fiber.NewError(http.StatusBadRequest, "Invalid or expired OTP")
		}
		return mapError(c, err, "Email and OTP are required", "")
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"message": "OTP verified successfully"})
}

// SendConfirmation handles POST /send-confirmation.
func (h *Handler) SendConfirmation(c *fiber.Ctx) error {
	var req Confirmation
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "All fields are required to send confirmation email")
	}
	if err := h.svc.SendConfirmation(c.UserContext(), req); err != nil {
		return mapError(c, err, "All fields are required to send confirmation email", "Failed to send confirmation email")
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"message": "Confirmation email sent successfully"})
}

func mapError(c *fiber.Ctx, err error, validationMsg, deliveryMsg string) error {
	var delivery *DeliveryError
	switch {
	case errors.Is(err, ErrValidation):
		return fiber.NewError(http.StatusBadRequest, validationMsg)
	case errors.As(err, &delivery):
		return c.Status(http.StatusBadGateway).JSON(fiber.Map{
			"error":     deliveryMsg,
			"retryable": delivery.Retryable(),
		})
	default:
		return fiber.NewError(http.StatusInternalServerError, "internal error")
	}
}
