package middleware

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"kintree/pkg/auth"
	"kintree/pkg/common"
)

// Authenticate attaches the actor identity to the request context. Requests
// without credentials proceed unauthenticated: the graph core degrades their
// writes to local-only state rather than rejecting them. A credential that is
// present but invalid is rejected outright.
//
// When no validator is configured (development without a JWT secret) the
// X-Actor-ID header is trusted instead.
func Authenticate(validator *auth.JWTValidator, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")

			if authHeader == "" {
				if validator == nil {
					if actorID := r.Header.Get("X-Actor-ID"); actorID != "" {
						r = r.WithContext(common.WithActorID(r.Context(), actorID))
					}
				}
				next.ServeHTTP(w, r)
				return
			}

			token := strings.TrimPrefix(authHeader, "Bearer ")
			if token == authHeader {
				common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authorization header must be a bearer token")
				return
			}

			if validator == nil {
				logger.Warn("bearer token supplied but no JWT secret configured")
				common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "token validation unavailable")
				return
			}

			actorID, err := validator.Validate(token)
			if err != nil {
				logger.Debug("token rejected", zap.Error(err))
				common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid token")
				return
			}

			next.ServeHTTP(w, r.WithContext(common.WithActorID(r.Context(), actorID)))
		})
	}
}

// WriteRateLimit rejects mutating requests from actors that exceed the
// configured per-minute write rate. Unauthenticated requests share one
// bucket keyed by remote address.
func WriteRateLimit(limiter *auth.WriteLimiter) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := common.GetActorID(r.Context())
			if key == "" {
				key = "anon:" + r.RemoteAddr
			}
			if !limiter.Allow(key) {
				common.RespondError(w, http.StatusTooManyRequests, "RATE_LIMIT", "write rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
