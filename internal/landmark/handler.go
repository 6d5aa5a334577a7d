package landmark

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Handler serves the landmark catalog.
type Handler struct {
	repo Repository
}

func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

// List handles GET /landmarks.
func (h *Handler) List(c *fiber.Ctx) error {
	list, err := h.repo.List(c.UserContext())
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, "failed to load landmarks")
	}
	if list == nil {
		list = []Landmark{}
	}
	return c.JSON(fiber.Map{"landmarks": list})
}

// Get handles GET /landmarks/:name.
func (h *Handler) Get(c *fiber.Ctx) error {
	l, err := h.repo.Get(c.UserContext(), c.Params("name"))
	if errors.Is(err, ErrNotFound) {
		return fiber.NewError(http.StatusNotFound, err.Error())
	}
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, "failed to load landmark")
	}
	return c.JSON(l)
}
