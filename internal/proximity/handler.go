package proximity

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/baywoodland/woodland/internal/geo"
	"github.com/baywoodland/woodland/internal/validate"
)

// Handler exposes the monitor over HTTP for browsers that report their own
// position.
type Handler struct {
	monitor   *Monitor
	announcer Announcer
}

// NewHandler builds the handler. announcer may be nil.
func NewHandler(monitor *Monitor, announcer Announcer) *Handler {
	return &Handler{monitor: monitor, announcer: announcer}
}

type readingRequest struct {
	VisitorID string  `json:"visitor_id" validate:"required"`
	Lat       float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lng       float64 `json:"lng" validate:"gte=-180,lte=180"`
}

type simulateRequest struct {
	VisitorID string `json:"visitor_id" validate:"required"`
	Landmark  string `json:"landmark" validate:"required"`
}

type readingResponse struct {
	Notified bool   `json:"notified"`
	Event    *Event `json:"event,omitempty"`
}

// Reading handles POST /proximity/readings.
func (h *Handler) Reading(c *fiber.Ctx) error {
	var req readingRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return h.observe(c, Reading{
		VisitorID: req.VisitorID,
		Position:  geo.Point{Lat: req.Lat, Lng: req.Lng},
		At:        time.Now().UTC(),
	})
}

// Simulate handles POST /proximity/simulate by placing the visitor on a landmark.
func (h *Handler) Simulate(c *fiber.Ctx) error {
	var req simulateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	l, ok := h.monitor.Landmark(req.Landmark)
	if !ok {
		return fiber.NewError(http.StatusNotFound, "landmark not found")
	}
	return h.observe(c, AtLandmark(req.VisitorID, l, time.Now().UTC()))
}

// Reset handles DELETE /proximity/visitors/:id.
func (h *Handler) Reset(c *fiber.Ctx) error {
	h.monitor.Reset(c.Params("id"))
	return c.SendStatus(http.StatusNoContent)
}

func (h *Handler) observe(c *fiber.Ctx, r Reading) error {
	ev, ok := h.monitor.Observe(r)
	if !ok {
		return c.JSON(readingResponse{})
	}
	if h.announcer != nil {
		if err := h.announcer.Announce(c.UserContext(), ev); err != nil {
			h.monitor.logger.WarnContext(c.UserContext(), "announce failed", "visitor_id", ev.VisitorID, "error", err)
		}
	}
	return c.JSON(readingResponse{Notified: true, Event: &ev})
}
