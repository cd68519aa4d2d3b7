package repository

import (
	"strings"

	"github.com/iliyamo/contactbook/internal/model"
)

// ContactCriteria are the optional list filters a client may send.
type ContactCriteria struct {
	Gender string
	Search string
}

// ContactFilter is a list predicate that is always restricted to one
// tenant.  Only BuildContactFilter produces a usable value.
type ContactFilter struct {
	tenantID string
	gender   string
	search   string
}

// likeEscaper makes user input a literal substring for LIKE ... ESCAPE '!'.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// BuildContactFilter combines criteria with the verified tenant id.  A gender
// other than exactly "male" or "female" is ignored; an empty search adds no
// clause.
func BuildContactFilter(c ContactCriteria, tenantID string) (ContactFilter, error) {
	if tenantID == "" {
		return ContactFilter{}, ErrTenantRequired
	}
	f := ContactFilter{tenantID: tenantID}
	if c.Gender == model.GenderMale || c.Gender == model.GenderFemale {
		f.gender = c.Gender
	}
	if c.Search != "" {
		f.search = c.Search
	}
	return f, nil
}

// TenantID returns the tenant every result belongs to.
func (f ContactFilter) TenantID() string { return f.tenantID }

// Where renders the predicate for the contacts table.  The tenant clause
// is always first and every other clause is ANDed onto it.
func (f ContactFilter) Where() (string, []any) {
	where := []string{"user_id = ?"}
	args := []any{f.tenantID}

	if f.gender != "" {
		where = append(where, "gender = ?")
		args = append(args, f.gender)
	}
	if f.search != "" {
		pattern := "%" + likeEscaper.Replace(strings.ToLower(f.search)) + "%"
		where = append(where, "(LOWER(first_name) LIKE ? ESCAPE '!' OR LOWER(last_name) LIKE ? ESCAPE '!')")
		args = append(args, pattern, pattern)
	}
	return strings.Join(where, " AND "), args
}

// Matches evaluates the same predicate as Where against c in memory.  It
// lets ContactStore implementations without SQL, such as the in-memory
// stores used by handler and router tests, share the exact filter
// semantics; the MySQL store never calls it.
func (f ContactFilter) Matches(c model.Contact) bool {
	if f.tenantID == "" || c.UserID != f.tenantID {
		return false
	}
	if f.gender != "" && c.Gender != f.gender {
		return false
	}
	if f.search != "" {
		needle := strings.ToLower(f.search)
		if !strings.Contains(strings.ToLower(c.FirstName), needle) &&
			!strings.Contains(strings.ToLower(c.LastName), needle) {
			return false
		}
	}
	return true
}
