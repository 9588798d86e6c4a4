package middleware

import (
	"net/http"
	"strings"

	"github.com/Bessima/orderflow/internal/handlers"
	"github.com/Bessima/orderflow/internal/middlewares/logger"
	"go.uber.org/zap"
)

func AuthMiddleware(authHandler *handlers.AuthHandler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var tokenString string

			cookie, err := r.Cookie("access_token")
			if err == nil {
				tokenString = cookie.Value
			} else {
				authHeader := r.Header.Get("Authorization")
				if authHeader != "" && strings.HasPrefix(authHeader, "Bearer ") {
					tokenString = strings.TrimPrefix(authHeader, "Bearer ")
				}
			}

			if tokenString == "" {
				handlers.Unauthorized(w, "Authorization token required")
				return
			}

			claims, err := authHandler.ValidateToken(tokenString)
			if err != nil {
				logger.Log.Debug("Token rejected", zap.String("path", r.URL.Path), zap.Error(err))
				handlers.Unauthorized(w, "Invalid or expired token")
				return
			}

			ctx := handlers.WithUser(r.Context(), handlers.UserFromClaims(claims))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
