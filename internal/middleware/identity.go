package middleware

// identity.go holds the accessors for the verified identity that the
// session guards store in the echo context.  Handlers take the tenant id
// from here and never from the request.

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/contactbook/internal/utils"
)

const identityKey = "identity"

// SetIdentity stores a verified identity on the request context.
func SetIdentity(c echo.Context, id utils.Identity) {
	c.Set(identityKey, id)
}

// IdentityFrom returns the identity stored by a session guard.
func IdentityFrom(c echo.Context) (utils.Identity, bool) {
	id, ok := c.Get(identityKey).(utils.Identity)
	return id, ok && id.TenantID != ""
}

// TenantID returns the verified tenant id, or "" when the request is not
// authenticated.
func TenantID(c echo.Context) string {
	id, _ := IdentityFrom(c)
	return id.TenantID
}
