package middleware

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/baywoodland/woodland/internal/auth"
)

const (
	adminSubjectLocal = "admin_subject"
	// VisitorIDLocal holds the account id set by VisitorAuth.
	VisitorIDLocal = "visitor_id"
)

// AdminAuth rejects requests without a valid admin bearer token.
func AdminAuth(svc *auth.Service) fiber.Handler {
	return bearerAuth(svc.Verify, adminSubjectLocal)
}

// VisitorAuth rejects requests without a valid visitor session token.
func VisitorAuth(svc *auth.Service) fiber.Handler {
	return bearerAuth(svc.VerifyVisitor, VisitorIDLocal)
}

func bearerAuth(verify func(string) (auth.Claims, error), local string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get(fiber.HeaderAuthorization)
		if len(authz) < len("bearer ") || !strings.EqualFold(authz[:len("bearer ")], "bearer ") {
			return fiber.NewError(http.StatusUnauthorized, "missing bearer token")
		}
		claims, err := verify(strings.TrimSpace(authz[len("bearer "):]))
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "invalid token")
		}
		c.Locals(local, claims.Subject)
		return c.Next()
	}
}
