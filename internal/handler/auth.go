package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/contactbook/internal/config"
	"github.com/iliyamo/contactbook/internal/middleware"
	"github.com/iliyamo/contactbook/internal/model"
	"github.com/iliyamo/contactbook/internal/repository"
	"github.com/iliyamo/contactbook/internal/utils"
)

// SessionIssuer signs and verifies session tokens.  *utils.TokenIssuer
// satisfies it.
type SessionIssuer interface {
	Issue(id utils.Identity) (utils.SessionToken, error)
	Verify(raw string) (utils.Identity, error)
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg    config.Config
	Users  repository.UserStore
	Tokens SessionIssuer
}

func NewAuthHandler(cfg config.Config, users repository.UserStore, tokens SessionIssuer) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: users, Tokens: tokens}
}

const msgBadCredentials = "Email or Password is not valid"

// Register creates an account.  The role is never taken from the client.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"message": "invalid request body"})
	}
	req, err := validateRegister(req)
	if err != nil {
		return writeError(c, err)
	}

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return writeError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u := &model.User{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		PasswordHash: hash,
	}
	if err := h.Users.Create(ctx, u); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "User register successfully"})
}

// Login verifies credentials and sets the session cookie.  Unknown email
// and wrong password produce the same response.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"message": "invalid request body"})
	}
	req, err := validateLogin(req)
	if err != nil {
		return writeError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"message": msgBadCredentials})
		}
		return writeError(c, err)
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": msgBadCredentials})
	}

	tok, err := h.Tokens.Issue(utils.Identity{TenantID: u.ID, Email: u.Email, Role: u.Role})
	if err != nil {
		return writeError(c, err)
	}
	c.SetCookie(h.sessionCookie(c, tok.Token, int(utils.SessionTTL/time.Second), tok.ExpiresAt))
	return c.JSON(http.StatusOK, echo.Map{"message": "Login successful"})
}

// Logout clears the session cookie.  Tokens are not tracked server-side,
// so there is nothing else to revoke.
func (h *AuthHandler) Logout(c echo.Context) error {
	c.SetCookie(h.sessionCookie(c, "", -1, time.Unix(0, 0)))
	return c.JSON(http.StatusOK, echo.Map{"message": "user logged out successfully"})
}

// Status reports whether the request carries a valid session.
func (h *AuthHandler) Status(c echo.Context) error {
	s, err := middleware.ExtractSession(c.Cookies(), h.Tokens)
	if err != nil {
		return writeError(c, err)
	}
	if !s.Authenticated {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "authenticated",
		"email":   s.Identity.Email,
		"role":    s.Identity.Role,
	})
}

// sessionCookie builds the token cookie.  A negative maxAge is emitted as
// Max-Age=0, which deletes the cookie.
func (h *AuthHandler) sessionCookie(c echo.Context, value string, maxAge int, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		Expires:  expires,
		HttpOnly: true,
		Secure:   c.IsTLS() || h.Cfg.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	}
}
