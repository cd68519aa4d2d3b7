package handler

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/iliyamo/contactbook/internal/model"
)

var (
	nameRe  = regexp.MustCompile(`^[A-Za-z]+(?:\s[A-Za-z]+)*$`)
	emailRe = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	phoneRe = regexp.MustCompile(`^09\d{9}$`)
)

// ----- DTOs -----

type registerReq struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// contactReq is the body of POST /contacts and PUT /contacts/:id.  Age is a
// pointer so that a missing age can be told apart from zero.
type contactReq struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Age       *int   `json:"age"`
	Gender    string `json:"gender"`
	Phone     string `json:"phone"`
}

// validationError carries the message returned with 422.
type validationError struct{ msg string }

func (e *validationError) Error() string { return e.msg }

func invalid(msg string) error { return &validationError{msg: msg} }

func runeLen(s string) int { return utf8.RuneCountInString(s) }

// validateRegister checks the rules in order and reports the first
// failure.  On success it returns the request with names trimmed and the
// email normalized.
func validateRegister(r registerReq) (registerReq, error) {
	if strings.TrimSpace(r.FirstName) == "" || strings.TrimSpace(r.LastName) == "" ||
		strings.TrimSpace(r.Email) == "" || strings.TrimSpace(r.Password) == "" {
		return r, invalid("All fields are required")
	}

	r.FirstName = strings.TrimSpace(r.FirstName)
	if n := runeLen(r.FirstName); n < 3 || n > 20 {
		return r, invalid("The firstName must be between 3 and 20 characters")
	}
	if !nameRe.MatchString(r.FirstName) {
		return r, invalid("The firstName must contain only letters")
	}

	r.LastName = strings.TrimSpace(r.LastName)
	if n := runeLen(r.LastName); n < 3 || n > 20 {
		return r, invalid("The lastName must be between 3 and 20 characters")
	}
	if !nameRe.MatchString(r.LastName) {
		return r, invalid("The lastName must contain only letters")
	}

	if n := runeLen(r.Password); n < 8 || n > 25 {
		return r, invalid("The Password must be between 8 and 25 characters long")
	}

	r.Email = normalizeEmail(r.Email)
	if !emailRe.MatchString(r.Email) {
		return r, invalid("Email is not valid")
	}
	return r, nil
}

func validateLogin(r loginReq) (loginReq, error) {
	if strings.TrimSpace(r.Email) == "" || strings.TrimSpace(r.Password) == "" {
		return r, invalid("All fields are required")
	}
	r.Email = normalizeEmail(r.Email)
	if !emailRe.MatchString(r.Email) {
		return r, invalid("Email is not valid")
	}
	return r, nil
}

func normalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// validateContact checks every field and reports all failures at once, one
// message per line.  At most one message is produced per field.
func validateContact(r contactReq) (model.Contact, error) {
	c := model.Contact{
		FirstName: strings.TrimSpace(r.FirstName),
		LastName:  strings.TrimSpace(r.LastName),
		Gender:    r.Gender,
		Phone:     strings.TrimSpace(r.Phone),
	}
	var msgs []string

	for _, f := range []struct{ name, value string }{
		{"firstName", c.FirstName},
		{"lastName", c.LastName},
	} {
		switch n := runeLen(f.value); {
		case n == 0:
			msgs = append(msgs, f.name+" is required")
		case n < 3:
			msgs = append(msgs, "The "+f.name+" must be at least 3 characters long")
		case n > 20:
			msgs = append(msgs, "The "+f.name+" must be a maximum of 20 characters")
		}
	}

	switch {
	case r.Age == nil:
		msgs = append(msgs, "age is required")
	case *r.Age < 15:
		msgs = append(msgs, "age must be at least 15")
	default:
		c.Age = *r.Age
	}

	switch c.Gender {
	case "":
		msgs = append(msgs, "gender is required")
	case model.GenderMale, model.GenderFemale:
	default:
		msgs = append(msgs, "gender must be either male or female")
	}

	switch {
	case c.Phone == "":
		msgs = append(msgs, "phone is required")
	case runeLen(c.Phone) > 11:
		msgs = append(msgs, "the phone number should not be more than 11 digits")
	case !phoneRe.MatchString(c.Phone):
		msgs = append(msgs, "phone must be valid")
	}

	if len(msgs) > 0 {
		return model.Contact{}, invalid(strings.Join(msgs, "\n"))
	}
	return c, nil
}
