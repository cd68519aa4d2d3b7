package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/contactbook/internal/database"
	"github.com/iliyamo/contactbook/internal/model"
)

// ContactRepo is the MySQL contact store.  Every statement carries the
// tenant id in its predicate.
type ContactRepo struct{ pool *database.Pool }

func NewContactRepo(pool *database.Pool) *ContactRepo { return &ContactRepo{pool: pool} }

const contactColumns = "id, user_id, first_name, last_name, age, gender, phone, favorite, created_at, updated_at"

type rowScanner interface{ Scan(dest ...any) error }

func scanContact(s rowScanner) (model.Contact, error) {
	var c model.Contact
	err := s.Scan(&c.ID, &c.UserID, &c.FirstName, &c.LastName, &c.Age, &c.Gender, &c.Phone,
		&c.Favorite, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// List returns the tenant's contacts matching f, oldest first.  The result
// is never nil.
func (r *ContactRepo) List(ctx context.Context, f ContactFilter) ([]model.Contact, error) {
	if f.TenantID() == "" {
		return nil, ErrTenantRequired
	}
	db, err := r.pool.DB(ctx)
	if err != nil {
		return nil, err
	}

	cond, args := f.Where()
	rows, err := db.QueryContext(ctx,
		"SELECT "+contactColumns+" FROM contacts WHERE "+cond+" ORDER BY created_at, id", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Contact, 0)
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Create inserts c for c.UserID, assigning ID and timestamps.  Favorite
// always starts false.
func (r *ContactRepo) Create(ctx context.Context, c *model.Contact) error {
	if c.UserID == "" {
		return ErrTenantRequired
	}
	db, err := r.pool.DB(ctx)
	if err != nil {
		return err
	}

	c.ID = uuid.NewString()
	c.Favorite = false
	now := time.Now().UTC().Truncate(time.Millisecond)
	_, err = db.ExecContext(ctx,
		"INSERT INTO contacts ("+contactColumns+") VALUES (?,?,?,?,?,?,?,?,?,?)",
		c.ID, c.UserID, c.FirstName, c.LastName, c.Age, c.Gender, c.Phone, c.Favorite, now, now)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrPhoneExists
		}
		return err
	}
	c.CreatedAt, c.UpdatedAt = now, now
	return nil
}

// Get fetches one contact of the tenant.
func (r *ContactRepo) Get(ctx context.Context, tenantID, id string) (model.Contact, error) {
	if tenantID == "" {
		return model.Contact{}, ErrTenantRequired
	}
	db, err := r.pool.DB(ctx)
	if err != nil {
		return model.Contact{}, err
	}
	c, err := scanContact(db.QueryRowContext(ctx,
		"SELECT "+contactColumns+" FROM contacts WHERE id = ? AND user_id = ?", id, tenantID))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Contact{}, ErrNotFound
	}
	return c, err
}

// Replace overwrites the editable fields of an existing contact owned by
// c.UserID and reloads c from the stored row.  Favorite is left untouched;
// it only changes through ToggleFavorite.
func (r *ContactRepo) Replace(ctx context.Context, c *model.Contact) error {
	if c.UserID == "" {
		return ErrTenantRequired
	}
	db, err := r.pool.DB(ctx)
	if err != nil {
		return err
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	res, err := db.ExecContext(ctx,
		`UPDATE contacts
		    SET first_name = ?, last_name = ?, age = ?, gender = ?, phone = ?, updated_at = ?
		  WHERE id = ? AND user_id = ?`,
		c.FirstName, c.LastName, c.Age, c.Gender, c.Phone, now, c.ID, c.UserID)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrPhoneExists
		}
		return err
	}
	// The DSN sets clientFoundRows, so a matched row counts even when the
	// values did not change.
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}

	stored, err := r.Get(ctx, c.UserID, c.ID)
	if err != nil {
		return err
	}
	*c = stored
	return nil
}

// ToggleFavorite flips the favorite flag and returns the new value.  The
// flip and the read-back run in one transaction so concurrent toggles never
// report a value that was not stored.
func (r *ContactRepo) ToggleFavorite(ctx context.Context, tenantID, id string) (fav bool, err error) {
	if tenantID == "" {
		return false, ErrTenantRequired
	}
	db, err := r.pool.DB(ctx)
	if err != nil {
		return false, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		"UPDATE contacts SET favorite = NOT favorite, updated_at = ? WHERE id = ? AND user_id = ?",
		time.Now().UTC().Truncate(time.Millisecond), id, tenantID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		err = ErrNotFound
		return false, err
	}
	if err = tx.QueryRowContext(ctx,
		"SELECT favorite FROM contacts WHERE id = ? AND user_id = ?", id, tenantID).Scan(&fav); err != nil {
		return false, err
	}
	if err = tx.Commit(); err != nil {
		return false, err
	}
	return fav, nil
}

// Delete removes a contact of the tenant.
func (r *ContactRepo) Delete(ctx context.Context, tenantID, id string) error {
	if tenantID == "" {
		return ErrTenantRequired
	}
	db, err := r.pool.DB(ctx)
	if err != nil {
		return err
	}
	res, err := db.ExecContext(ctx, "DELETE FROM contacts WHERE id = ? AND user_id = ?", id, tenantID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
