package repository

import (
	"context"

	"github.com/iliyamo/contactbook/internal/model"
)

// UserStore is the credential store used by the auth handlers.
type UserStore interface {
	// Create persists u, assigning ID and timestamps.  The role is decided
	// by the store: the first successful registrant becomes admin.
	Create(ctx context.Context, u *model.User) error
	FindByEmail(ctx context.Context, email string) (model.User, error)
	FindByID(ctx context.Context, id string) (model.User, error)
	Count(ctx context.Context) (int64, error)
}

// ContactStore persists address-book entries.  Every method is scoped to a
// tenant; a row owned by another tenant behaves as if it did not exist.
type ContactStore interface {
	List(ctx context.Context, f ContactFilter) ([]model.Contact, error)
	Create(ctx context.Context, c *model.Contact) error
	Get(ctx context.Context, tenantID, id string) (model.Contact, error)
	Replace(ctx context.Context, c *model.Contact) error
	ToggleFavorite(ctx context.Context, tenantID, id string) (bool, error)
	Delete(ctx context.Context, tenantID, id string) error
}

var (
	_ UserStore    = (*UserRepo)(nil)
	_ ContactStore = (*ContactRepo)(nil)
)
