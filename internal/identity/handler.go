package identity

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/baywoodland/woodland/internal/middleware"
)

// Handler exposes visitor account endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs an identity HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Register handles POST /accounts/register.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req Registration
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid registration form")
	}
	user, err := h.service.Register(c.UserContext(), req)
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": ErrValidation.Error(), "fields": verr.Fields})
	case errors.Is(err, ErrEmailTaken):
		return fiber.NewError(http.StatusConflict, err.Error())
	case err != nil:
		h.service.logger.ErrorContext(c.UserContext(), "register failed", "error", err)
		return fiber.NewError(http.StatusInternalServerError, "registration is temporarily unavailable")
	}
	return c.Status(http.StatusCreated).JSON(user.Profile())
}

// Login handles POST /accounts/login.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req Credentials
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid login form")
	}
	session, err := h.service.Login(c.UserContext(), req)
	if errors.Is(err, ErrInvalidCredentials) {
		return fiber.NewError(http.StatusUnauthorized, err.Error())
	}
	if err != nil {
		h.service.logger.ErrorContext(c.UserContext(), "login failed", "error", err)
		return fiber.NewError(http.StatusInternalServerError, "login is temporarily unavailable")
	}
	return c.Status(http.StatusOK).JSON(session)
}

// Me handles GET /accounts/me for the visitor in the session token.
func (h *Handler) Me(c *fiber.Ctx) error {
	id, _ := c.Locals(middleware.VisitorIDLocal).(string)
	user, err := h.service.Get(c.UserContext(), id)
	if errors.Is(err, ErrNotFound) {
		return fiber.NewError(http.StatusNotFound, err.Error())
	}
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, "account lookup failed")
	}
	return c.JSON(user.Profile())
}
