package middleware // middleware provides the session guards and shared request processing

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Redirect targets of the page guards.
const (
	LoginPath     = "/auth/login"
	DashboardPath = "/dashboard"
)

// RequireAPISession rejects requests without a valid session with 401 and
// never invokes the wrapped handler for them.  On success the identity is
// available through IdentityFrom.
func RequireAPISession(v TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			s, err := ExtractSession(c.Cookies(), v)
			if err != nil {
				return err
			}
			if !s.Authenticated {
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
			}
			SetIdentity(c, s.Identity)
			return next(c)
		}
	}
}

// RequirePageSession is the page variant: unauthenticated visitors are sent
// to the login page.
func RequirePageSession(v TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			s, err := ExtractSession(c.Cookies(), v)
			if err != nil {
				return err
			}
			if !s.Authenticated {
				return c.Redirect(http.StatusFound, LoginPath)
			}
			SetIdentity(c, s.Identity)
			return next(c)
		}
	}
}

// RedirectIfAuthenticated guards the login and register pages: a visitor who
// already holds a valid session goes to the dashboard instead.
func RedirectIfAuthenticated(v TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			s, err := ExtractSession(c.Cookies(), v)
			if err != nil {
				return err
			}
			if s.Authenticated {
				return c.Redirect(http.StatusFound, DashboardPath)
			}
			return next(c)
		}
	}
}
