package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/baywoodland/woodland/internal/otp"
)

// RegisterOTPRoutes wires the contact form relay. sendLimit guards code
// requests and verifyLimit guards verification attempts; either may be nil.
func RegisterOTPRoutes(r fiber.Router, h *otp.Handler, sendLimit, verifyLimit fiber.Handler) {
	r.Post("/send-otp", guarded(sendLimit, h.SendOTP)...)
	r.Post("/verify-otp", guarded(verifyLimit, h.VerifyOTP)...)
	r.Post("/send-confirmation", h.SendConfirmation)
}

func guarded(guard, h fiber.Handler) []fiber.Handler {
	if guard == nil {
		return []fiber.Handler{h}
	}
	return []fiber.Handler{guard, h}
}
