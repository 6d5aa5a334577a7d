package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/baywoodland/woodland/internal/auth"
	"github.com/baywoodland/woodland/internal/gallery"
)

// RegisterAdminRoutes wires the admin login and returns the protected admin
// group guarded by the given middlewares.
func RegisterAdminRoutes(r fiber.Router, h *auth.Handler, guards ...fiber.Handler) fiber.Router {
	group := r.Group("/admin")
	group.Post("/login", h.Login)

	protected := make([]fiber.Handler, len(guards))
	copy(protected, guards)
	return group.Group("", protected...)
}

// RegisterGalleryRoutes wires the public gallery.
func RegisterGalleryRoutes(r fiber.Router, h *gallery.Handler) {
	r.Get("/gallery", h.ListApproved)
	r.Post("/gallery", h.Submit)
}

// RegisterModerationRoutes wires gallery moderation on the admin group.
func RegisterModerationRoutes(admin fiber.Router, h *gallery.Handler) {
	admin.Get("/gallery/pending", h.ListPending)
	admin.Post("/gallery/:id/approve", h.Approve)
	admin.Post("/gallery/:id/reject", h.Reject)
	admin.Delete("/gallery/:id", h.Delete)
}
