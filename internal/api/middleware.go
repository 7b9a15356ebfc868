/**
 * @description
 * This file contains custom middleware for the HTTP router: session token
 * validation and request-context plumbing for the authenticated profile id.
 */
package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/Ghavvvo/pulpy/internal/app"
)

// ProfileIDContextKey is a custom type for the context key to avoid collisions.
type ProfileIDContextKey string

const profileIDKey ProfileIDContextKey = "profileID"

// SessionCookieName is the cookie browsers carry the session token in. The
// Authorization header takes precedence when both are present.
const SessionCookieName = "pulpy_session"

// SessionAuthMiddleware validates the session token and stores the profile
// id in the request context.
func SessionAuthMiddleware(tokens *app.TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			profileID, ok := authenticatedProfileID(r, tokens)
			if !ok {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), profileIDKey, profileID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// authenticatedProfileID extracts and verifies the session token from the
// Authorization header or the session cookie.
func authenticatedProfileID(r *http.Request, tokens *app.TokenManager) (string, bool) {
	tokenString := ""
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			return "", false
		}
	} else if cookie, err := r.Cookie(SessionCookieName); err == nil {
		tokenString = cookie.Value
	}
	if tokenString == "" {
		return "", false
	}

	profileID, err := tokens.Verify(tokenString)
	if err != nil {
		return "", false
	}
	return profileID, true
}

// GetProfileID retrieves the authenticated profile id from the request
// context.
func GetProfileID(ctx context.Context) (string, bool) {
	profileID, ok := ctx.Value(profileIDKey).(string)
	return profileID, ok
}
