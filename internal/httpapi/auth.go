package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// ContextKey avoids collisions in request contexts.
type ContextKey string

const callerContextKey ContextKey = "caller_subject"

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid or expired token")
)

// TokenVerifier checks a bearer token minted by the calling system. The
// costing engine does not issue or manage accounts (spec.md §1 treats
// authentication as an external collaborator); this is the thin slice a
// deployed facade still needs to verify who is calling it.
type TokenVerifier struct {
	secret []byte
	logger *slog.Logger
}

// NewTokenVerifier builds a TokenVerifier over the shared HMAC secret. A
// nil logger falls back to slog.Default.
func NewTokenVerifier(secret string, logger *slog.Logger) *TokenVerifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &TokenVerifier{secret: []byte(secret), logger: logger}
}

// Verify parses and validates tokenString, returning the caller subject
// carried in its "sub" claim.
func (v *TokenVerifier) Verify(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", ErrInvalidToken
	}

	subject, ok := claims["sub"].(string)
	if !ok || subject == "" {
		return "", ErrInvalidToken
	}
	return subject, nil
}

// RequireBearer middleware verifies either a JWT bearer token or, as a
// fallback, a service API key (see apikey.go), rejecting the request
// otherwise.
func (v *TokenVerifier) RequireBearer(keys *APIKeyVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				v.logger.Info("authentication failed", "reason", ErrMissingToken, "path", r.URL.Path)
				writeUnauthorized(w, "authentication required")
				return
			}

			if subject, err := v.Verify(token); err == nil {
				ctx := context.WithValue(r.Context(), callerContextKey, subject)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			if keys != nil && keys.Verify(token) {
				ctx := context.WithValue(r.Context(), callerContextKey, "service-api-key")
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			v.logger.Info("authentication failed", "reason", ErrInvalidToken, "path", r.URL.Path)
			writeUnauthorized(w, "invalid or expired credentials")
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	fmt.Fprintf(w, `{"error":%q,"code":"UNAUTHORIZED"}`, message)
}

// CallerFromContext extracts the authenticated caller subject set by
// RequireBearer, if any.
func CallerFromContext(ctx context.Context) (string, bool) {
	subject, ok := ctx.Value(callerContextKey).(string)
	return subject, ok
}
