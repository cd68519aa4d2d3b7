package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/contactbook/internal/handler"
	"github.com/iliyamo/contactbook/internal/middleware"
	"github.com/iliyamo/contactbook/internal/model"
	"github.com/iliyamo/contactbook/internal/observability"
)

// Deps are the handlers and shared middleware the routes are built from.
type Deps struct {
	Auth     *handler.AuthHandler
	Pages    *handler.PageHandler
	Contacts *handler.ContactHandler
	Tokens   middleware.TokenVerifier
	Cache    echo.MiddlewareFunc // per-tenant contact cache; nil disables it
	DB       handler.Pinger
	Users    handler.UserCounter // optional; adds the account count to /readyz
}

// New builds the Echo instance with the global middleware, the JSON error
// handler and every route registered.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = handler.HTTPErrorHandler

	e.Use(echomw.Recover())
	e.Use(observability.Metrics())
	e.Use(middleware.RequestLogger())

	RegisterRoutes(e, d.DB, d.Users)
	RegisterAuth(e, d.Auth, d.Pages, d.Tokens)
	RegisterContacts(e, d.Contacts, d.Tokens, d.Cache)
	return e
}

// RegisterRoutes registers the operational endpoints: liveness, readiness
// and Prometheus metrics.
func RegisterRoutes(e *echo.Echo, db handler.Pinger, users handler.UserCounter) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(db, users))
	e.GET("/metrics", observability.Handler())
}

// RegisterAuth registers the auth API and the session-aware pages.  Page
// data lives under /pages so it never shadows the /contacts API.  Guards
// are attached per route rather than with Group.Use so that a wrong method
// on a known path still answers 405.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, p *handler.PageHandler, tokens middleware.TokenVerifier) {
	guest := middleware.RedirectIfAuthenticated(tokens)
	page := middleware.RequirePageSession(tokens)

	e.POST("/auth/register", a.Register)
	e.POST("/auth/login", a.Login)
	e.GET("/auth/logout", a.Logout)
	e.GET("/auth/status", a.Status)

	e.GET("/auth/login", p.LoginPage, guest)
	e.GET("/auth/register", p.RegisterPage, guest)
	e.GET("/dashboard", p.Dashboard, page)
	e.GET("/pages/contacts", p.ContactsPage, page)
	e.GET("/pages/contacts/add", p.AddContactPage, page)
	e.GET("/pages/contacts/edit/:id", p.EditContactPage, page)
}

// RegisterContacts registers the tenant-scoped contacts API.  The session
// guard runs first, so unauthenticated requests never reach the role check,
// the cache or the store.
func RegisterContacts(e *echo.Echo, h *handler.ContactHandler, tokens middleware.TokenVerifier, cache echo.MiddlewareFunc) {
	mw := []echo.MiddlewareFunc{
		middleware.RequireAPISession(tokens),
		middleware.RequireRole(model.RoleAdmin, model.RoleUser),
	}
	if cache != nil {
		mw = append(mw, cache)
	}

	e.GET("/contacts", h.List, mw...)
	e.POST("/contacts", h.Create, mw...)
	e.GET("/contacts/:id", h.Get, mw...)
	e.PUT("/contacts/:id", h.Replace, mw...)
	e.PATCH("/contacts/:id", h.ToggleFavorite, mw...)
	e.DELETE("/contacts/:id", h.Delete, mw...)
}
