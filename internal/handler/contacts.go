package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/contactbook/internal/middleware"
	"github.com/iliyamo/contactbook/internal/model"
	"github.com/iliyamo/contactbook/internal/repository"
)

// ContactHandler serves the /contacts API.  Every route sits behind
// RequireAPISession; the tenant always comes from the verified identity.
type ContactHandler struct {
	Contacts repository.ContactStore
}

func NewContactHandler(contacts repository.ContactStore) *ContactHandler {
	return &ContactHandler{Contacts: contacts}
}

type contactResp struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Age       int       `json:"age"`
	Gender    string    `json:"gender"`
	Phone     string    `json:"phone"`
	Favorite  bool      `json:"favorite"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toContactResp(c model.Contact) contactResp {
	return contactResp{
		ID:        c.ID,
		UserID:    c.UserID,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Age:       c.Age,
		Gender:    c.Gender,
		Phone:     c.Phone,
		Favorite:  c.Favorite,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// contactID reads the :id path parameter in canonical form.
func contactID(c echo.Context) (string, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return "", false
	}
	return id.String(), true
}

func badID(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"message": "id is not valid"})
}

// List returns the tenant's contacts, optionally narrowed by ?gender= and
// ?search=.
func (h *ContactHandler) List(c echo.Context) error {
	f, err := repository.BuildContactFilter(repository.ContactCriteria{
		Gender: c.QueryParam("gender"),
		Search: c.QueryParam("search"),
	}, middleware.TenantID(c))
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
	return c.JSON(http.StatusOK, out)
}

func (h *ContactHandler) Create(c echo.Context) error {
	var req contactReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"message": "invalid request body"})
	}
	ct, err := validateContact(req)
	if err != nil {
		return writeError(c, err)
	}
	ct.UserID = middleware.TenantID(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Contacts.Create(ctx, &ct); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "new contact added to db", "contact": toContactResp(ct)})
}

func (h *ContactHandler) Get(c echo.Context) error {
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
	return c.JSON(http.StatusOK, toContactResp(ct))
}

// Replace overwrites all editable fields of a contact.
func (h *ContactHandler) Replace(c echo.Context) error {
	id, ok := contactID(c)
	if !ok {
		return badID(c)
	}
	var req contactReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"message": "invalid request body"})
	}
	ct, err := validateContact(req)
	if err != nil {
		return writeError(c, err)
	}
	ct.ID = id
	ct.UserID = middleware.TenantID(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Contacts.Replace(ctx, &ct); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "contact updated successfully", "contact": toContactResp(ct)})
}

// ToggleFavorite flips the favorite flag and returns the stored value.
func (h *ContactHandler) ToggleFavorite(c echo.Context) error {
	id, ok := contactID(c)
	if !ok {
		return badID(c)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	fav, err := h.Contacts.ToggleFavorite(ctx, middleware.TenantID(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"favorite": fav})
}

func (h *ContactHandler) Delete(c echo.Context) error {
	id, ok := contactID(c)
	if !ok {
		return badID(c)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Contacts.Delete(ctx, middleware.TenantID(c), id); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "contact deleted successfully"})
}
