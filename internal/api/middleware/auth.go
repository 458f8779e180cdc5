package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/mcoot/mindgym/internal/api/apierr"
	"github.com/mcoot/mindgym/internal/model"
	"github.com/mcoot/mindgym/internal/services/session"
)

type contextKey string

const sessionContextKey contextKey = "session"

// SessionCookie is the cookie name accepted in place of a bearer token
const SessionCookie = "session"

// SessionResolver resolves a bearer token to a live session
type SessionResolver interface {
	Resume(ctx context.Context, token model.SessionToken) (*session.Session, error)
}

// Auth creates authentication middleware
func Auth(sessions SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractToken(r)
			if token == "" {
				apierr.WriteError(w, apierr.NewUnauthorizedError())
				return
			}

			sess, err := sessions.Resume(r.Context(), token)
			if err != nil {
				apierr.WriteError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), sessionContextKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ExtractToken extracts the session token from the request
func ExtractToken(r *http.Request) model.SessionToken {
	// Check Authorization header first
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return model.SessionToken(strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer ")))
	}

	// Fall back to cookie
	cookie, err := r.Cookie(SessionCookie)
	if err == nil {
		return model.SessionToken(cookie.Value)
	}

	return ""
}

// GetSession returns the session from the request context
func GetSession(ctx context.Context) *session.Session {
	sess, _ := ctx.Value(sessionContextKey).(*session.Session)
	return sess
}

// MustGetSession returns the session or panics
func MustGetSession(ctx context.Context) *session.Session {
	sess := GetSession(ctx)
	if sess == nil {
		panic("no session in context - auth middleware not applied?")
	}
	return sess
}
