package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/contactbook/internal/middleware"
	"github.com/iliyamo/contactbook/internal/repository"
)

// PageHandler serves the data behind the server-rendered pages.
type PageHandler struct {
	Users    repository.UserStore
	Contacts repository.ContactStore
}

func NewPageHandler(users repository.UserStore, contacts repository.ContactStore) *PageHandler {
	return &PageHandler{Users: users, Contacts: contacts}
}

// Dashboard greets the signed-in user by name.  An account that no longer
// exists is sent back to the login page.
func (h *PageHandler) Dashboard(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.FindByID(ctx, middleware.TenantID(c))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.Redirect(http.StatusFound, middleware.LoginPath)
		}
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"user": echo.Map{"firstName": u.FirstName, "lastName": u.LastName},
	})
}

func (h *PageHandler) LoginPage(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"page": "login"})
}

func (h *PageHandler) RegisterPage(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"page": "register"})
}

// ContactsPage loads the signed-in user's contacts for the list page.  The
// query string narrows the list exactly as it does on GET /contacts, and
// the applied criteria are echoed back so the page can prefill its form.
func (h *PageHandler) ContactsPage(c echo.Context) error {
	criteria := repository.ContactCriteria{
		Gender: c.QueryParam("gender"),
		Search: c.QueryParam("search"),
	}
	f, err := repository.BuildContactFilter(criteria, middleware.TenantID(c))
	if err != nil {
		return writeError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	contacts, err := h.Contacts.List(ctx, f)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]contactResp, 0, len(contacts))
	for _, ct := range contacts {
		out = append(out, toContactResp(ct))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"contacts": out,
		"filter":   echo.Map{"gender": criteria.Gender, "search": criteria.Search},
	})
}

// AddContactPage hands the form its owner id.
func (h *PageHandler) AddContactPage(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"userId": middleware.TenantID(c)})
}

// EditContactPage preloads one of the caller's contacts into the edit form.
func (h *PageHandler) EditContactPage(c echo.Context) error {
	id, ok := contactID(c)
	if !ok {
		return badID(c)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	ct, err := h.Contacts.Get(ctx, middleware.TenantID(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"contact": toContactResp(ct)})
}
