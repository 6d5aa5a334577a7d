package weather

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/baywoodland/woodland/internal/validate"
)

type Handler struct {
	client *Client
}

func NewHandler(client *Client) *Handler {
	return &Handler{client: client}
}

// Current handles GET /weather?lat=&lon=. Without coordinates the default
// location is used.
func (h *Handler) Current(c *fiber.Ctx) error {
	p := DefaultLocation
	if lat, lon := c.Query("lat"), c.Query("lon"); lat != "" || lon != "" {
		var err error
		if p.Lat, err = strconv.ParseFloat(lat, 64); err != nil {
			return fiber.NewError(http.StatusBadRequest, "invalid lat")
		}
		if p.Lng, err = strconv.ParseFloat(lon, 64); err != nil {
			return fiber.NewError(http.StatusBadRequest, "invalid lon")
		}
		if err := validate.Struct(p); err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
	}

	cond, err := h.client.Current(c.UserContext(), p)
	switch {
	case errors.Is(err, ErrDisabled):
		return fiber.NewError(http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, ErrUpstream):
		return fiber.NewError(http.StatusBadGateway, "weather provider unavailable")
	case err != nil:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(cond)
}
