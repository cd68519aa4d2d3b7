// Package repository holds the MySQL-backed stores for users and contacts
// and the sentinel errors they share.  Handlers translate these values into
// HTTP statuses; nothing above this package inspects driver errors.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"
)

// ErrEmailExists is returned by UserStore.Create when the email is already
// registered.  Handlers translate this into an HTTP 409 response.
var ErrEmailExists = errors.New("email already exists")

// ErrPhoneExists is returned when the tenant already has a contact with the
// same phone number.  Other tenants may reuse the number.
var ErrPhoneExists = errors.New("phone already exists")

// ErrNotFound is returned when a row does not exist for the calling tenant.
// A contact owned by someone else is reported the same way.
var ErrNotFound = errors.New("not found")

// ErrTenantRequired is returned when a contact query is attempted without a
// tenant id.
var ErrTenantRequired = errors.New("tenant id is required")

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}

// mysqlDeadlock is ER_LOCK_DEADLOCK; the server has already rolled the
// victim transaction back.
const mysqlDeadlock = 1213

// ErrConflictRetry is returned when a transaction kept losing deadlocks.
var ErrConflictRetry = errors.New("transaction kept deadlocking")

const deadlockRetries = 3

func isDeadlock(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDeadlock
}

// retryOnDeadlock runs fn up to attempts times while it fails with a
// deadlock, backing off a little longer each time.
func retryOnDeadlock(ctx context.Context, attempts int, fn func() error) error {
	for i := 0; i < attempts; i++ {
		err := fn()
		if !isDeadlock(err) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(i+1) * 10 * time.Millisecond):
		}
	}
	return ErrConflictRetry
}
