package middleware

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/iliyamo/contactbook/internal/observability"
	"github.com/iliyamo/contactbook/internal/utils"
)

// SessionCookie is the name of the cookie carrying the session token.
const SessionCookie = "token"

// TokenVerifier checks a raw session token.  *utils.TokenIssuer satisfies it.
type TokenVerifier interface {
	Verify(raw string) (utils.Identity, error)
}

// Session is the outcome of reading the session cookie.  The zero value is
// unauthenticated.
type Session struct {
	Identity      utils.Identity
	Authenticated bool
}

// ExtractSession resolves the request cookies into a Session.  A missing
// cookie or any token the verifier rejects yields an unauthenticated
// session and a nil error; the verifier is not called when there is no
// cookie.  Only a configuration fault (no signing secret) is returned as an
// error.
func ExtractSession(cookies []*http.Cookie, v TokenVerifier) (Session, error) {
	raw := ""
	for _, ck := range cookies {
		if ck.Name == SessionCookie {
			raw = ck.Value
			break
		}
	}
	if raw == "" {
		observability.SessionChecksTotal.WithLabelValues(observability.SessionAbsent).Inc()
		return Session{}, nil
	}

	id, err := v.Verify(raw)
	switch {
	case err == nil:
		observability.SessionChecksTotal.WithLabelValues(observability.SessionValid).Inc()
		return Session{Identity: id, Authenticated: true}, nil
	case errors.Is(err, utils.ErrSigningSecretMissing):
		observability.SessionChecksTotal.WithLabelValues(observability.SessionError).Inc()
		zap.L().Error("session verification misconfigured", zap.Error(err))
		return Session{}, err
	default:
		observability.SessionChecksTotal.WithLabelValues(observability.SessionReject).Inc()
		return Session{}, nil
	}
}
