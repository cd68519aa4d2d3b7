package utils // package utils provides session token signing and password hashing

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionTTL is the fixed lifetime of a session token.  Tokens are never
// renewed; the user logs in again once it has passed.
const SessionTTL = 2 * time.Hour

var (
	// ErrInvalidToken is returned for every token that must not be trusted:
	// malformed, tampered, signed with another key or algorithm, missing
	// claims, or expired.  Callers cannot tell these cases apart.
	ErrInvalidToken = errors.New("invalid session token")
	// ErrSigningSecretMissing means the issuer has no key.  This is a
	// configuration fault, not a client error.
	ErrSigningSecretMissing = errors.New("token signing secret is not configured")
	// ErrInvalidIdentity is returned when asked to sign an identity without a
	// tenant id or email.
	ErrInvalidIdentity = errors.New("identity requires tenant id and email")
)

// Identity is what a verified session token asserts about its bearer.
// TenantID is the user id that scopes every contact query.
type Identity struct {
	TenantID string
	Email    string
	Role     string
}

// SessionClaims is the JWT payload.  The subject carries the tenant id.
type SessionClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// SessionToken is a signed token together with its validity window.
type SessionToken struct {
	Token     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenIssuer signs and verifies HS256 session tokens with one shared
// secret.  It is safe for concurrent use.
type TokenIssuer struct {
	secret []byte
	now    func() time.Time
}

// IssuerOption customises a TokenIssuer.
type IssuerOption func(*TokenIssuer)

// WithClock replaces the wall clock used for iat/exp and for expiry checks.
func WithClock(now func() time.Time) IssuerOption {
	return func(t *TokenIssuer) {
		if now != nil {
			t.now = now
		}
	}
}

// NewTokenIssuer builds an issuer for the given secret.  An empty secret is
// accepted here so that the failure surfaces on use as
// ErrSigningSecretMissing.
func NewTokenIssuer(secret string, opts ...IssuerOption) *TokenIssuer {
	t := &TokenIssuer{secret: []byte(secret), now: time.Now}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Issue signs a token for id that expires SessionTTL after now.
func (t *TokenIssuer) Issue(id Identity) (SessionToken, error) {
	if len(t.secret) == 0 {
		return SessionToken{}, ErrSigningSecretMissing
	}
	if id.TenantID == "" || id.Email == "" {
		return SessionToken{}, ErrInvalidIdentity
	}

	// NumericDate has second precision; truncate so the returned window
	// matches what a verifier will read back.
	iat := t.now().UTC().Truncate(time.Second)
	exp := iat.Add(SessionTTL)
	claims := SessionClaims{
		Email: id.Email,
		Role:  id.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.TenantID,
			IssuedAt:  jwt.NewNumericDate(iat),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return SessionToken{}, err
	}
	return SessionToken{Token: signed, IssuedAt: iat, ExpiresAt: exp}, nil
}

// Verify checks the signature and expiry of raw and returns the identity it
// carries.  A token is valid while now < exp.
func (t *TokenIssuer) Verify(raw string) (Identity, error) {
	if len(t.secret) == 0 {
		return Identity{}, ErrSigningSecretMissing
	}

	claims := &SessionClaims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (any, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return Identity{}, ErrInvalidToken
	}
	if claims.Subject == "" || claims.Email == "" {
		return Identity{}, ErrInvalidToken
	}
	return Identity{TenantID: claims.Subject, Email: claims.Email, Role: claims.Role}, nil
}
