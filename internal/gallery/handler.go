package gallery

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes the public gallery and the moderation endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a gallery handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// ListApproved handles GET /gallery.
func (h *Handler) ListApproved(c *fiber.Ctx) error {
	images, err := h.service.ListApproved(c.UserContext())
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(fiber.Map{"images": images})
}

// Submit handles POST /gallery.
func (h *Handler) Submit(c *fiber.Ctx) error {
	var req Submission
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	img, err := h.service.Submit(c.UserContext(), req)
	if err != nil {
		return h.mapError(c, err)
	}
	return c.Status(http.StatusAccepted).JSON(img)
}

// ListPending handles GET /admin/gallery/pending.
func (h *Handler) ListPending(c *fiber.Ctx) error {
	images, err := h.service.ListPending(c.UserContext())
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(fiber.Map{"images": images})
}

// Approve handles POST /admin/gallery/:id/approve.
func (h *Handler) Approve(c *fiber.Ctx) error {
	img, err := h.service.Approve(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(img)
}

// Reject handles POST /admin/gallery/:id/reject.
func (h *Handler) Reject(c *fiber.Ctx) error {
	if err := h.service.Reject(c.UserContext(), c.Params("id")); err != nil {
		return h.mapError(c, err)
	}
	return c.SendStatus(http.StatusNoContent)
}

// Delete handles DELETE /admin/gallery/:id.
func (h *Handler) Delete(c *fiber.Ctx) error {
	if err := h.service.DeleteApproved(c.UserContext(), c.Params("id")); err != nil {
		return h.mapError(c, err)
	}
	return c.SendStatus(http.StatusNoContent)
}

// mapError keeps storage details out of responses; they are logged instead.
func (h *Handler) mapError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrInvalidSubmission):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	default:
		h.service.logger.ErrorContext(c.UserContext(), "gallery request failed", "path", c.Path(), "error", err)
		return fiber.NewError(http.StatusInternalServerError, "gallery is temporarily unavailable")
	}
}
