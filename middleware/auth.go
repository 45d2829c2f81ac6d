package middleware

import (
	"net/http"

	"whereiam/internal/auth"
)

type Middleware struct {
	Auth *auth.AuthHandlers
}

func NewMiddleware(authHandlers *auth.AuthHandlers) *Middleware {
	return &Middleware{Auth: authHandlers}
}

// AuthMiddleware rejects requests without a valid bearer token
func (m *Middleware) AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := m.Auth.ParseRequest(r); err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
