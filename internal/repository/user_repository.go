package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/contactbook/internal/database"
	"github.com/iliyamo/contactbook/internal/model"
)

// UserRepo is the MySQL credential store.
type UserRepo struct{ pool *database.Pool }

func NewUserRepo(pool *database.Pool) *UserRepo { return &UserRepo{pool: pool} }

const userColumns = "id, first_name, last_name, email, password_hash, role, created_at, updated_at"

// Create inserts u and decides its role.  The admin seat is claimed with
// INSERT IGNORE on the single-row admin_claim table inside the same
// transaction as the user insert: exactly one registration can win it, and
// a registration that fails afterwards (duplicate email) releases it again
// by rolling back.
//
// When the claiming transaction rolls back while others wait on the same
// row, InnoDB may pick one of the waiters as a deadlock victim.  Those
// attempts are retried so the caller never sees the deadlock.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	db, err := r.pool.DB(ctx)
	if err != nil {
		return err
	}
	return retryOnDeadlock(ctx, deadlockRetries, func() error {
		return createUser(ctx, db, u)
	})
}

func createUser(ctx context.Context, db *sql.DB, u *model.User) (err error) {
	u.ID = uuid.NewString()
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	now := time.Now().UTC().Truncate(time.Millisecond)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		"INSERT IGNORE INTO admin_claim (id, user_id, claimed_at) VALUES (1, ?, ?)",
		u.ID, now)
	if err != nil {
		return err
	}
	claimed, err := res.RowsAffected()
	if err != nil {
		return err
	}
	u.Role = model.RoleUser
	if claimed == 1 {
		u.Role = model.RoleAdmin
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO users ("+userColumns+") VALUES (?,?,?,?,?,?,?,?)",
		u.ID, u.FirstName, u.LastName, u.Email, u.PasswordHash, u.Role, now, now)
	if err != nil {
		if isDuplicateKey(err) {
			err = ErrEmailExists
		}
		return err
	}
	if err = tx.Commit(); err != nil {
		return err
	}
	u.CreatedAt, u.UpdatedAt = now, now
	return nil
}

// FindByEmail fetches a user by normalized email.
func (r *UserRepo) FindByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.findOne(ctx, "SELECT "+userColumns+" FROM users WHERE email = ? LIMIT 1", email)
}

// FindByID fetches a user by id.
func (r *UserRepo) FindByID(ctx context.Context, id string) (model.User, error) {
	return r.findOne(ctx, "SELECT "+userColumns+" FROM users WHERE id = ? LIMIT 1", id)
}

// Count returns the number of registered users.
func (r *UserRepo) Count(ctx context.Context) (int64, error) {
	db, err := r.pool.DB(ctx)
	if err != nil {
		return 0, err
	}
	var n int64
	err = db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n)
	return n, err
}

func (r *UserRepo) findOne(ctx context.Context, q string, arg any) (model.User, error) {
	db, err := r.pool.DB(ctx)
	if err != nil {
		return model.User{}, err
	}
	var u model.User
	err = db.QueryRowContext(ctx, q, arg).
		Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	return u, err
}
