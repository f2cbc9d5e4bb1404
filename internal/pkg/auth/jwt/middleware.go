package jwt

import (
	"context"
	"net/http"
	"strings"

	"mingle/internal/pkg/errs"
	"mingle/internal/pkg/resp"
)

// contextKey avoids collisions with other packages storing request context values.
type contextKey string

// ContextAuthPayloadKey stores the verified Payload in the request context.
const ContextAuthPayloadKey contextKey = "auth_payload"

// RequireIdentity verifies the Bearer token on every request and rejects the
// request with the matching auth error when verification fails. The verified
// Payload is injected into the request context for downstream handlers.
func RequireIdentity(secretKey string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				resp.RespondError(w, r, errs.NewError(errs.ErrTokenMalformed))
				return
			}

			payload, customErr := VerifyToken(parts[1], secretKey)
			if customErr != nil {
				resp.RespondError(w, r, customErr)
				return
			}

			ctx := context.WithValue(r.Context(), ContextAuthPayloadKey, payload)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetPayloadFromContext extracts the verified Payload from the request
// context. Nil means the middleware did not run for this route.
func GetPayloadFromContext(r *http.Request) *Payload {
	payload, ok := r.Context().Value(ContextAuthPayloadKey).(*Payload)

	if !ok {
		return nil
	}

	return payload
}
