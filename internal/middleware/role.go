package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequireRole returns a middleware function that enforces that the
// authenticated user has one of the specified roles.  It must run after a
// session guard has stored the identity; a request without one, or with a
// role outside the set, is aborted with 403.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := IdentityFrom(c)
			if !ok || !allowed[id.Role] {
				return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
			}
			return next(c)
		}
	}
}
