package middleware

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"reportvault/internal/model"
)

const (
	// PrincipalIDHeader carries the authenticated user's ID, set by the
	// upstream auth gateway. The service itself never authenticates anyone.
	PrincipalIDHeader = "X-User-ID"
	// PrincipalAdminHeader is "true" when the authenticated user is an admin.
	PrincipalAdminHeader = "X-User-Admin"
	// PrincipalLocalKey is where the parsed principal lives in context locals.
	PrincipalLocalKey = "principal"
)

// Principal parses the trusted identity headers into a *model.Principal and
// stores it in context locals. Requests without a usable X-User-ID stay
// anonymous; access policy decides later whether that is acceptable.
func Principal() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if raw := c.Get(PrincipalIDHeader); raw != "" {
			if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id > 0 {
				admin, _ := strconv.ParseBool(c.Get(PrincipalAdminHeader))
				c.Locals(PrincipalLocalKey, &model.Principal{ID: id, Admin: admin})
			}
		}
		return c.Next()
	}
}

// PrincipalFromCtx returns the principal stored by the Principal middleware,
// or nil for anonymous requests.
func PrincipalFromCtx(c *fiber.Ctx) *model.Principal {
	if v := c.Locals(PrincipalLocalKey); v != nil {
		if p, ok := v.(*model.Principal); ok {
			return p
		}
	}
	return nil
}
