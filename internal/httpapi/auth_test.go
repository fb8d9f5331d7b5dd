package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signToken(t *testing.T, secret, subject string, expiresIn time.Duration) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub": subject,
		"exp": time.Now().Add(expiresIn).Unix(),
		"iat": time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign test token: %v", err)
	}
	return signed
}

func TestTokenVerifierAcceptsValidToken(t *testing.T) {
	v := NewTokenVerifier("test-secret", nil)
	token := signToken(t, "test-secret", "caller-1", time.Hour)
	subject, err := v.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if subject != "caller-1" {
		t.Fatalf("subject = %q, want caller-1", subject)
	}
}

func TestTokenVerifierRejectsWrongSecret(t *testing.T) {
	v := NewTokenVerifier("test-secret", nil)
	token := signToken(t, "wrong-secret", "caller-1", time.Hour)
	if _, err := v.Verify(token); err == nil {
		t.Fatalf("expected error for wrong-secret token")
	}
}

func TestTokenVerifierRejectsExpiredToken(t *testing.T) {
	v := NewTokenVerifier("test-secret", nil)
	token := signToken(t, "test-secret", "caller-1", -time.Hour)
	if _, err := v.Verify(token); err == nil {
		t.Fatalf("expected error for expired token")
	}
}

func TestRequireBearerRejectsMissingHeader(t *testing.T) {
	v := NewTokenVerifier("test-secret", nil)
	handler := v.RequireBearer(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cost", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestRequireBearerAcceptsValidJWT(t *testing.T) {
	v := NewTokenVerifier("test-secret", nil)
	handler := v.RequireBearer(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cost", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "test-secret", "caller-1", time.Hour))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestRequireBearerFallsBackToAPIKey(t *testing.T) {
	hash, err := HashAPIKey("s3cret-key")
	if err != nil {
		t.Fatalf("HashAPIKey() error = %v", err)
	}
	keys := NewAPIKeyVerifier(hash, nil)
	v := NewTokenVerifier("test-secret", nil)
	handler := v.RequireBearer(keys)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cost", nil)
	req.Header.Set("Authorization", "Bearer s3cret-key")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}
