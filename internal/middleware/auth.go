package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/readium/readium/internal/ctxkeys"
	"github.com/readium/readium/internal/model"
	"github.com/readium/readium/internal/repository"
	"github.com/readium/readium/internal/service"
)

// AccessTokenCookie is the cookie carrying the short-lived access token.
const AccessTokenCookie = "accessToken"

// Authenticate resolves the request's principal from the access token cookie
// or the Authorization header. Requests without a valid token continue
// unauthenticated; RequireAuth is the gate that rejects them.
func Authenticate(tokenService *service.TokenService, userRepository repository.UserRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := bearerToken(r)
			if tokenString == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := tokenService.VerifyAccessToken(tokenString)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			user, err := userRepository.ByID(claims.Subject)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			principal := &model.Principal{User: user, Provider: claims.Provider}
			ctx := ctxkeys.WithPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects requests that carry no authenticated principal.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ctxkeys.Principal(r.Context()) == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"statusCode": http.StatusUnauthorized,
				"message":    "unauthorized",
				"success":    false,
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// bearerToken extracts the access token from the cookie or, failing that, the
// Authorization header.
func bearerToken(r *http.Request) string {
	if cookie, err := r.Cookie(AccessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}
