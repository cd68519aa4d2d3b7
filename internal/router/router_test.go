package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/contactbook/internal/config"
	"github.com/iliyamo/contactbook/internal/handler"
	"github.com/iliyamo/contactbook/internal/middleware"
	"github.com/iliyamo/contactbook/internal/utils"
)

type testApp struct {
	e        *echo.Echo
	users    *memUsers
	contacts *memContacts
}

func newTestApp(t *testing.T, secret string) *testApp {
	t.Helper()
	cfg := config.Config{Env: "test", JWTSecret: secret, BcryptCost: bcrypt.MinCost}
	tokens := utils.NewTokenIssuer(secret)
	users := newMemUsers()
	contacts := newMemContacts()

	e := New(Deps{
		Auth:     handler.NewAuthHandler(cfg, users, tokens),
		Pages:    handler.NewPageHandler(users, contacts),
		Contacts: handler.NewContactHandler(contacts),
		Tokens:   tokens,
		Cache:    middleware.NewContactCache(config.CacheConfig{}, nil),
		DB:       okPinger{},
		Users:    users,
	})
	return &testApp{e: e, users: users, contacts: contacts}
}

func (a *testApp) do(method, target, body, token string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if token != "" {
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: token})
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func message(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body.Message
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == middleware.SessionCookie {
			return ck
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func (a *testApp) registerAndLogin(t *testing.T, first, email string) string {
	t.Helper()
	rec := a.do(http.MethodPost, "/auth/register",
		`{"firstName":"`+first+`","lastName":"Tester","email":"`+email+`","password":"password123"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = a.do(http.MethodPost, "/auth/login", `{"email":"`+email+`","password":"password123"}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return sessionCookie(t, rec).Value
}

type contactBody struct {
	ID       string `json:"id"`
	Phone    string `json:"phone"`
	Favorite bool   `json:"favorite"`
}

func (a *testApp) createContact(t *testing.T, token, first, phone string) contactBody {
	t.Helper()
	rec := a.do(http.MethodPost, "/contacts",
		`{"firstName":"`+first+`","lastName":"Alavi","age":30,"gender":"female","phone":"`+phone+`"}`, token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var out struct {
		Contact contactBody `json:"contact"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.NotEmpty(t, out.Contact.ID)
	return out.Contact
}

func TestRegisterAssignsRolesAndRejectsDuplicates(t *testing.T) {
	app := newTestApp(t, "s3cret")
	body := `{"firstName":"Alice","lastName":"Tester","email":"alice@example.com","password":"password123"}`

	rec := app.do(http.MethodPost, "/auth/register", body, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "User register successfully", message(t, rec))

	rec = app.do(http.MethodPost, "/auth/register",
		`{"firstName":"Bob","lastName":"Tester","email":"bob@example.com","password":"password123","role":"admin"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	alice, err := app.users.FindByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	require.Equal(t, "admin", alice.Role)
	bob, err := app.users.FindByEmail(context.Background(), "bob@example.com")
	require.NoError(t, err)
	require.Equal(t, "user", bob.Role, "role is never taken from the client")
	require.NotEqual(t, "password123", bob.PasswordHash)

	rec = app.do(http.MethodPost, "/auth/register", strings.Replace(body, "alice@", "ALICE@", 1), "")
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "Email is already registered", message(t, rec))

	rec = app.do(http.MethodPost, "/auth/register", `{"firstName":"Al","lastName":"Tester","email":"x@y.io","password":"password123"}`, "")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Equal(t, "The firstName must be between 3 and 20 characters", message(t, rec))

	rec = app.do(http.MethodPost, "/auth/register", `{"firstName":`, "")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestLoginSetsStrictHTTPOnlyCookie(t *testing.T) {
	app := newTestApp(t, "s3cret")
	app.registerAndLogin(t, "Alice", "alice@example.com")

	rec := app.do(http.MethodPost, "/auth/login", `{"email":"alice@example.com","password":"wrong-password"}`, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	wrongPassword := message(t, rec)

	rec = app.do(http.MethodPost, "/auth/login", `{"email":"nobody@example.com","password":"password123"}`, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, wrongPassword, message(t, rec), "unknown email is indistinguishable")
	require.Empty(t, rec.Result().Cookies())

	rec = app.do(http.MethodPost, "/auth/login", `{"email":" Alice@Example.com ","password":"password123"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Login successful", message(t, rec))

	ck := sessionCookie(t, rec)
	require.NotEmpty(t, ck.Value)
	require.True(t, ck.HttpOnly)
	require.Equal(t, "/", ck.Path)
	require.Equal(t, 7200, ck.MaxAge)
	require.Equal(t, http.SameSiteStrictMode, ck.SameSite)
	require.False(t, ck.Secure)

	rec = app.do(http.MethodGet, "/auth/logout", "", ck.Value)
	require.Equal(t, http.StatusOK, rec.Code)
	cleared := sessionCookie(t, rec)
	require.Empty(t, cleared.Value)
	require.Equal(t, -1, cleared.MaxAge)
	require.Equal(t, http.SameSiteStrictMode, cleared.SameSite)
}

func TestStatus(t *testing.T) {
	app := newTestApp(t, "s3cret")
	token := app.registerAndLogin(t, "Alice", "alice@example.com")

	rec := app.do(http.MethodGet, "/auth/status", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"message":"authenticated","email":"alice@example.com","role":"admin"}`, rec.Body.String())

	rec = app.do(http.MethodGet, "/auth/status", "", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = app.do(http.MethodGet, "/auth/status", "", token+"x")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPagesRedirectBySession(t *testing.T) {
	app := newTestApp(t, "s3cret")
	token := app.registerAndLogin(t, "Alice", "alice@example.com")

	rec := app.do(http.MethodGet, "/dashboard", "", "")
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/auth/login", rec.Header().Get(echo.HeaderLocation))

	rec = app.do(http.MethodGet, "/dashboard", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"user":{"firstName":"Alice","lastName":"Tester"}}`, rec.Body.String())

	for _, page := range []string{"/auth/login", "/auth/register"} {
		rec = app.do(http.MethodGet, page, "", token)
		require.Equal(t, http.StatusFound, rec.Code, page)
		require.Equal(t, "/dashboard", rec.Header().Get(echo.HeaderLocation))

		rec = app.do(http.MethodGet, page, "", "")
		require.Equal(t, http.StatusOK, rec.Code, page)
	}
}

func TestContactPagesAreTenantScoped(t *testing.T) {
	app := newTestApp(t, "s3cret")
	alice := app.registerAndLogin(t, "Alice", "alice@example.com")
	bob := app.registerAndLogin(t, "Bobby", "bob@example.com")

	sara := app.createContact(t, alice, "Sara", "09120000001")
	app.createContact(t, alice, "Mina", "09120000002")
	bobs := app.createContact(t, bob, "Sara", "09120000001")

	for _, page := range []string{"/pages/contacts", "/pages/contacts/add", "/pages/contacts/edit/" + sara.ID} {
		rec := app.do(http.MethodGet, page, "", "")
		require.Equal(t, http.StatusFound, rec.Code, page)
		require.Equal(t, "/auth/login", rec.Header().Get(echo.HeaderLocation), page)

		rec = app.do(http.MethodGet, page, "", alice+"x")
		require.Equal(t, http.StatusFound, rec.Code, page)
	}

	var list struct {
		Contacts []contactBody     `json:"contacts"`
		Filter   map[string]string `json:"filter"`
	}
	rec := app.do(http.MethodGet, "/pages/contacts?search=sar", "", alice)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Contacts, 1)
	require.Equal(t, sara.ID, list.Contacts[0].ID)
	require.Equal(t, "sar", list.Filter["search"])

	rec = app.do(http.MethodGet, "/pages/contacts", "", alice)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Contacts, 2)
	for _, ct := range list.Contacts {
		require.NotEqual(t, bobs.ID, ct.ID)
	}

	aliceUser, err := app.users.FindByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	rec = app.do(http.MethodGet, "/pages/contacts/add", "", alice)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"userId":"`+aliceUser.ID+`"}`, rec.Body.String())

	var edit struct {
		Contact contactBody `json:"contact"`
	}
	rec = app.do(http.MethodGet, "/pages/contacts/edit/"+sara.ID, "", alice)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &edit))
	require.Equal(t, sara.ID, edit.Contact.ID)

	rec = app.do(http.MethodGet, "/pages/contacts/edit/"+bobs.ID, "", alice)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "contact not found", message(t, rec))

	rec = app.do(http.MethodGet, "/pages/contacts/edit/not-a-uuid", "", alice)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestContactsRequireSessionWithoutTouchingStore(t *testing.T) {
	app := newTestApp(t, "s3cret")
	const id = "/contacts/0b7e6f1e-4c9b-4f7a-9d1c-2a3b4c5d6e7f"

	requests := []struct{ method, target, body string }{
		{http.MethodGet, "/contacts", ""},
		{http.MethodPost, "/contacts", `{"firstName":"Sara","lastName":"Alavi","age":30,"gender":"female","phone":"09123456789"}`},
		{http.MethodGet, id, ""},
		{http.MethodPut, id, `{}`},
		{http.MethodPatch, id, ""},
		{http.MethodDelete, id, ""},
	}
	for _, r := range requests {
		for _, token := range []string{"", "not-a-jwt"} {
			rec := app.do(r.method, r.target, r.body, token)
			require.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", r.method, r.target)
			require.Equal(t, "unauthorized", message(t, rec))
		}
	}
	require.Zero(t, app.contacts.callCount())
}

func TestContactLifecycle(t *testing.T) {
	app := newTestApp(t, "s3cret")
	alice := app.registerAndLogin(t, "Alice", "alice@example.com")
	bob := app.registerAndLogin(t, "Bobby", "bob@example.com")

	rec := app.do(http.MethodGet, "/contacts", "", alice)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `[]`, rec.Body.String())

	rec = app.do(http.MethodPost, "/contacts",
		`{"firstName":"Sara","lastName":"Alavi","age":30,"gender":"female","phone":"08123456789"}`, alice)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Equal(t, "phone must be valid", message(t, rec))

	sara := app.createContact(t, alice, "Sara", "09123456789")

	rec = app.do(http.MethodPost, "/contacts",
		`{"firstName":"Other","lastName":"Alavi","age":30,"gender":"female","phone":"09123456789"}`, alice)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "this number is already registered", message(t, rec))

	app.createContact(t, bob, "Sara", "09123456789")

	t.Run("toggle twice restores", func(t *testing.T) {
		rec := app.do(http.MethodPatch, "/contacts/"+sara.ID, "", alice)
		require.Equal(t, http.StatusOK, rec.Code)
		require.JSONEq(t, `{"favorite":true}`, rec.Body.String())

		rec = app.do(http.MethodPatch, "/contacts/"+sara.ID, "", alice)
		require.Equal(t, http.StatusOK, rec.Code)
		require.JSONEq(t, `{"favorite":false}`, rec.Body.String())
	})

	t.Run("other tenant sees 404", func(t *testing.T) {
		for _, method := range []string{http.MethodGet, http.MethodPatch, http.MethodDelete} {
			rec := app.do(method, "/contacts/"+sara.ID, "", bob)
			require.Equal(t, http.StatusNotFound, rec.Code, method)
			require.Equal(t, "contact not found", message(t, rec))
		}
		rec := app.do(http.MethodPut, "/contacts/"+sara.ID,
			`{"firstName":"Hacked","lastName":"Alavi","age":30,"gender":"female","phone":"09120000000"}`, bob)
		require.Equal(t, http.StatusNotFound, rec.Code)

		rec = app.do(http.MethodGet, "/contacts/"+sara.ID, "", alice)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Body.String(), `"firstName":"Sara"`)
	})

	t.Run("list is tenant scoped and filtered", func(t *testing.T) {
		app.createContact(t, alice, "Mina", "09120000001")

		rec := app.do(http.MethodGet, "/contacts", "", alice)
		var all []contactBody
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
		require.Len(t, all, 2)

		rec = app.do(http.MethodGet, "/contacts?search=SA", "", alice)
		var found []contactBody
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &found))
		require.Len(t, found, 1)
		require.Equal(t, sara.ID, found[0].ID)

		rec = app.do(http.MethodGet, "/contacts?search=%25", "", alice)
		require.JSONEq(t, `[]`, rec.Body.String())

		rec = app.do(http.MethodGet, "/contacts?gender=male", "", alice)
		require.JSONEq(t, `[]`, rec.Body.String())

		rec = app.do(http.MethodGet, "/contacts?gender=anything", "", bob)
		var bobs []contactBody
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &bobs))
		require.Len(t, bobs, 1)
	})

	t.Run("replace", func(t *testing.T) {
		rec := app.do(http.MethodPut, "/contacts/"+sara.ID,
			`{"firstName":"Sarah","lastName":"Alavi","age":31,"gender":"female","phone":"09120000001"}`, alice)
		require.Equal(t, http.StatusConflict, rec.Code)

		rec = app.do(http.MethodPut, "/contacts/"+sara.ID,
			`{"firstName":"Sarah","lastName":"Alavi","age":31,"gender":"female","phone":"09123456789"}`, alice)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		require.Equal(t, "contact updated successfully", message(t, rec))

		rec = app.do(http.MethodPut, "/contacts/"+sara.ID, `{"firstName":"Sarah"}`, alice)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		require.Equal(t, "lastName is required\nage is required\ngender is required\nphone is required", message(t, rec))
	})

	t.Run("bad id and delete", func(t *testing.T) {
		rec := app.do(http.MethodGet, "/contacts/not-an-id", "", alice)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "id is not valid", message(t, rec))

		rec = app.do(http.MethodDelete, "/contacts/"+sara.ID, "", alice)
		require.Equal(t, http.StatusOK, rec.Code)
		rec = app.do(http.MethodDelete, "/contacts/"+sara.ID, "", alice)
		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestUnsupportedMethods(t *testing.T) {
	app := newTestApp(t, "s3cret")

	for _, r := range []struct{ method, target string }{
		{http.MethodPut, "/contacts"},
		{http.MethodDelete, "/contacts"},
		{http.MethodPost, "/contacts/0b7e6f1e-4c9b-4f7a-9d1c-2a3b4c5d6e7f"},
		{http.MethodPost, "/auth/logout"},
		{http.MethodDelete, "/auth/login"},
	} {
		rec := app.do(r.method, r.target, "", "")
		require.Equal(t, http.StatusMethodNotAllowed, rec.Code, "%s %s", r.method, r.target)
		require.Equal(t, "method not allowed", message(t, rec))
	}
}

func TestMissingSecretIsServerError(t *testing.T) {
	app := newTestApp(t, "")
	rec := app.do(http.MethodPost, "/auth/register",
		`{"firstName":"Alice","lastName":"Tester","email":"alice@example.com","password":"password123"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = app.do(http.MethodPost, "/auth/login", `{"email":"alice@example.com","password":"password123"}`, "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Empty(t, rec.Result().Cookies())

	rec = app.do(http.MethodGet, "/contacts", "", "some-token")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "internal server error", message(t, rec))
	require.Zero(t, app.contacts.callCount())
}

func TestHealthEndpoints(t *testing.T) {
	app := newTestApp(t, "s3cret")

	rec := app.do(http.MethodGet, "/healthz", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = app.do(http.MethodGet, "/readyz", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ready","users":0}`, rec.Body.String())

	app.registerAndLogin(t, "Alice", "alice@example.com")
	rec = app.do(http.MethodGet, "/readyz", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ready","users":1}`, rec.Body.String())

	down := New(Deps{
		Auth:     handler.NewAuthHandler(config.Config{}, newMemUsers(), utils.NewTokenIssuer("k")),
		Pages:    handler.NewPageHandler(newMemUsers(), newMemContacts()),
		Contacts: handler.NewContactHandler(newMemContacts()),
		Tokens:   utils.NewTokenIssuer("k"),
		DB:       okPinger{err: errors.New("connection refused")},
	})
	rec = httptest.NewRecorder()
	down.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
