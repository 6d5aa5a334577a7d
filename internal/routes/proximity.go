package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/baywoodland/woodland/internal/landmark"
	"github.com/baywoodland/woodland/internal/proximity"
	"github.com/baywoodland/woodland/internal/weather"
)

// RegisterLandmarkRoutes wires the landmark catalog.
func RegisterLandmarkRoutes(r fiber.Router, h *landmark.Handler) {
	r.Get("/landmarks", h.List)
	r.Get("/landmarks/:name", h.Get)
}

// RegisterProximityRoutes wires position reports and visit resets.
func RegisterProximityRoutes(r fiber.Router, h *proximity.Handler) {
	group := r.Group("/proximity")
	group.Post("/readings", h.Reading)
	group.Post("/simulate", h.Simulate)
	group.Delete("/visitors/:id", h.Reset)
}

// RegisterWeatherRoutes wires the weather proxy.
func RegisterWeatherRoutes(r fiber.Router, h *weather.Handler) {
	r.Get("/weather", h.Current)
}
