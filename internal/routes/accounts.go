package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/baywoodland/woodland/internal/identity"
)

// RegisterAccountRoutes wires visitor sign-up, sign-in and profile lookup.
func RegisterAccountRoutes(r fiber.Router, h *identity.Handler, loginLimit, visitorAuth fiber.Handler) {
	group := r.Group("/accounts")
	group.Post("/register", h.Register)
	group.Post("/login", loginLimit, h.Login)
	group.Get("/me", visitorAuth, h.Me)
}
