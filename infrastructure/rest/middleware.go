package rest

import (
	"context"
	"net/http"
	"strings"

	"huddle/domain"
)

type contextKey string

const userKey contextKey = "user"

// requireAuth verifies the bearer token and puts the authenticated user into
// the request context. Requests without a valid credential never reach the
// wrapped handler.
func (a *API) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		user, err := a.authn.Authenticate(r.Context(), token)
		if err != nil {
			writeError(w, a.log, err)
			return
		}
		ctx := context.WithValue(r.Context(), userKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// currentUser returns the authenticated user stored by requireAuth.
func currentUser(r *http.Request) domain.User {
	user, _ := r.Context().Value(userKey).(domain.User)
	return user
}
