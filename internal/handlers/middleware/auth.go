package middleware

import (
	"context"
	"net/http"

	"github.com/qgfurioso/coinledger/internal/handlers/render"
	"github.com/qgfurioso/coinledger/internal/handlers/userctx"
	"github.com/qgfurioso/coinledger/internal/models"
)

type authService interface {
	Auth(ctx context.Context, r *http.Request) (models.User, error)
}

func AuthMiddleware(as authService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := as.Auth(r.Context(), r)
			if err != nil {
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			ctx := userctx.New(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// StaffOnly rejects authenticated users without the staff flag
// Must run after AuthMiddleware
func StaffOnly() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := userctx.FromContext(r.Context())
			if !ok || !user.IsStaff {
				render.ServiceError(w, "Forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
