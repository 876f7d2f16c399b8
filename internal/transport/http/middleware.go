package http

import (
	"errors"
	"log"
	"net/http"
	"net/url"
	"strings"

	"classroom-service/internal/auth"
	"classroom-service/internal/domain"
)

// authenticate attaches the session of a valid bearer token to the request. Requests
// without one pass through anonymous; the role guards decide what they may reach.
// Browsers cannot set headers on websocket handshakes, so access_token is also read
// from the query string.
func (h *handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}
		sessionID, userID, err := h.auth.Verify(r.Context(), raw)
		if err != nil {
			if !errors.Is(err, domain.ErrSessionNotFound) {
				log.Printf("verify token: %v", err)
			}
			next.ServeHTTP(w, r)
			return
		}
		user, err := h.accounts.User(r.Context(), userID)
		if err != nil {
			if !errors.Is(err, domain.ErrNotFound) {
				log.Printf("load user %d: %v", userID, err)
			}
			next.ServeHTTP(w, r)
			return
		}
		ctx := auth.WithSession(r.Context(), auth.Session{ID: sessionID, User: user})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return r.URL.Query().Get("access_token")
}

// requireRole lets a request through only when the signed-in user passes check.
// Anonymous callers get 401, signed-in users without the capability get 403.
func (h *handler) requireRole(check func(domain.User) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := auth.UserFromContext(r.Context())
			if !ok {
				writeJSON(w, http.StatusUnauthorized, errorBody{
					Error:    "unauthorized",
					Message:  "authentication required",
					LoginURL: h.loginRedirect(r),
				})
				return
			}
			if !check(user) {
				writeJSON(w, http.StatusForbidden, errorBody{
					Error:    "forbidden",
					Message:  "your account cannot access this resource",
					LoginURL: h.loginRedirect(r),
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (h *handler) loginRedirect(r *http.Request) string {
	return h.loginURL + "?next=" + url.QueryEscape(r.URL.Path)
}

func isAuthenticated(domain.User) bool { return true }

func isStudent(u domain.User) bool { return u.IsStudent }

func isTeacher(u domain.User) bool { return u.IsTeacher }

func currentUser(r *http.Request) domain.User {
	user, _ := auth.UserFromContext(r.Context())
	return user
}
