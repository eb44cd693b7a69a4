package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dynprot/engine/internal/services"
	appErr "github.com/dynprot/engine/pkg/errors"
	"github.com/dynprot/engine/pkg/logger"
)

type identityKeyType struct{}

var identityKey identityKeyType

// LegacyUserHeader carries a raw user id when legacy mode is enabled.
const LegacyUserHeader = "X-User-ID"

// Identity is the caller resolved by Auth. A legacy identity was never
// verified; its UserID is Nil when the id has to come from the path or body.
type Identity struct {
	UserID uuid.UUID
	Email  string
	Legacy bool
}

// TokenVerifier is satisfied by services.AuthService.
type TokenVerifier interface {
	VerifyToken(token string) (*services.Claims, error)
}

// Auth requires a valid Bearer token. With allowLegacy the request may
// instead name its user through X-User-ID, or through the path or body
// when that header is absent.
func Auth(verifier TokenVerifier, allowLegacy bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ah := r.Header.Get("Authorization")
			if ah != "" {
				if !strings.HasPrefix(strings.ToLower(ah), "bearer ") {
					deny(w, r, http.StatusUnauthorized, string(appErr.CodeUnauthorized), "authorization header must use the Bearer scheme")
					return
				}
				claims, err := verifier.VerifyToken(strings.TrimSpace(ah[len("Bearer "):]))
				if err != nil {
					msg := "invalid token"
					var ae *appErr.AppError
					if appErr.As(err, &ae) {
						msg = ae.Message
					}
					deny(w, r, http.StatusUnauthorized, string(appErr.CodeUnauthorized), msg)
					return
				}
				id := Identity{UserID: claims.UserID, Email: claims.Email}
				next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
				return
			}

			if !allowLegacy {
				deny(w, r, http.StatusUnauthorized, string(appErr.CodeUnauthorized), "authentication required")
				return
			}

			id := Identity{Legacy: true}
			if raw := strings.TrimSpace(r.Header.Get(LegacyUserHeader)); raw != "" {
				uid, err := uuid.Parse(raw)
				if err != nil {
					deny(w, r, http.StatusBadRequest, string(appErr.CodeInvalid), "X-User-ID must be a valid user id")
					return
				}
				id.UserID = uid
			}
			logger.L().Warn("legacy user id authentication",
				zap.String("id", GetRequestID(r.Context())),
				zap.String("path", r.URL.Path),
				zap.String("user_id", id.UserID.String()),
			)
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// WithIdentity stores the caller in ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFrom returns the caller stored by Auth.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}
