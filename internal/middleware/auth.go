package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/yaqa/yaqa/internal/ctxkeys"
	"github.com/yaqa/yaqa/internal/logger"
	"github.com/yaqa/yaqa/internal/service"
)

// AuthMiddleware checks for a JWT in the auth cookie or an
// "Authorization: Bearer" header. A valid token puts the principal and the
// resolved user into the context; anything else continues anonymously.
func AuthMiddleware(authService *service.AuthService, userService *service.UserService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, fromCookie := bearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			username, err := authService.VerifyJWT(token)
			if err != nil {
				logger.FromContext(r.Context()).Debug("rejected auth token", "error", err)
				if fromCookie {
					authService.ClearJWTCookie(w)
				}
				next.ServeHTTP(w, r)
				return
			}

			ctx := ctxkeys.WithPrincipal(r.Context(), username)
			user, err := userService.Current(ctx)
			if errors.Is(err, service.ErrNotFound) {
				// Token outlived its user
				if fromCookie {
					authService.ClearJWTCookie(w)
				}
				next.ServeHTTP(w, r)
				return
			}
			if err != nil {
				logger.FromContext(r.Context()).Error("failed to resolve authenticated user",
					"username", username,
					"error", err,
				)
				writeError(w, http.StatusInternalServerError, "internal server error")
				return
			}

			ctx = ctxkeys.WithUser(ctx, user)
			ctx = logger.WithContext(ctx, logger.FromContext(ctx).With("user_id", user.ID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (token string, fromCookie bool) {
	header := r.Header.Get("Authorization")
	if scheme, value, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(value), false
	}

	cookie, err := r.Cookie(service.CookieName)
	if err != nil {
		return "", false
	}
	return cookie.Value, true
}

// RequireAuth ensures the user is authenticated
func RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := ctxkeys.User(r.Context())
		if user == nil {
			writeError(w, http.StatusUnauthorized, service.ErrUnauthenticated.Error())
			return
		}

		next.ServeHTTP(w, r)
	}
}
