package router

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/contactbook/internal/model"
	"github.com/iliyamo/contactbook/internal/repository"
)

// memUsers is an in-memory repository.UserStore.
type memUsers struct {
	mu    sync.Mutex
	calls int
	byID  map[string]model.User
}

func newMemUsers() *memUsers { return &memUsers{byID: map[string]model.User{}} }

func (m *memUsers) Create(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	for _, existing := range m.byID {
		if existing.Email == u.Email {
			return repository.ErrEmailExists
		}
	}
	u.ID = uuid.NewString()
	u.Role = model.RoleUser
	if len(m.byID) == 0 {
		u.Role = model.RoleAdmin
	}
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	m.byID[u.ID] = *u
	return nil
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	for _, u := range m.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (m *memUsers) FindByID(_ context.Context, id string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	u, ok := m.byID[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (m *memUsers) Count(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return int64(len(m.byID)), nil
}

// memContacts is an in-memory repository.ContactStore with the same tenant
// scoping and per-tenant phone uniqueness as the MySQL store.
type memContacts struct {
	mu    sync.Mutex
	calls int
	rows  map[string]model.Contact
	seq   int
}

func newMemContacts() *memContacts { return &memContacts{rows: map[string]model.Contact{}} }

func (m *memContacts) phoneTaken(tenant, phone, exceptID string) bool {
	for _, c := range m.rows {
		if c.UserID == tenant && c.Phone == phone && c.ID != exceptID {
			return true
		}
	}
	return false
}

func (m *memContacts) List(_ context.Context, f repository.ContactFilter) ([]model.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	out := make([]model.Contact, 0)
	for _, c := range m.rows {
		if f.Matches(c) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memContacts) Create(_ context.Context, c *model.Contact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.phoneTaken(c.UserID, c.Phone, "") {
		return repository.ErrPhoneExists
	}
	m.seq++
	c.ID = uuid.NewString()
	c.Favorite = false
	c.CreatedAt = time.Unix(int64(m.seq), 0).UTC()
	c.UpdatedAt = c.CreatedAt
	m.rows[c.ID] = *c
	return nil
}

func (m *memContacts) Get(_ context.Context, tenantID, id string) (model.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	c, ok := m.rows[id]
	if !ok || c.UserID != tenantID {
		return model.Contact{}, repository.ErrNotFound
	}
	return c, nil
}

func (m *memContacts) Replace(_ context.Context, c *model.Contact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	old, ok := m.rows[c.ID]
	if !ok || old.UserID != c.UserID {
		return repository.ErrNotFound
	}
	if m.phoneTaken(c.UserID, c.Phone, c.ID) {
		return repository.ErrPhoneExists
	}
	c.Favorite = old.Favorite
	c.CreatedAt = old.CreatedAt
	c.UpdatedAt = time.Now().UTC()
	m.rows[c.ID] = *c
	return nil
}

func (m *memContacts) ToggleFavorite(_ context.Context, tenantID, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	c, ok := m.rows[id]
	if !ok || c.UserID != tenantID {
		return false, repository.ErrNotFound
	}
	c.Favorite = !c.Favorite
	m.rows[id] = c
	return c.Favorite, nil
}

func (m *memContacts) Delete(_ context.Context, tenantID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	c, ok := m.rows[id]
	if !ok || c.UserID != tenantID {
		return repository.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *memContacts) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type okPinger struct{ err error }

func (p okPinger) Ping(context.Context) error { return p.err }
