package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/scrumtogether/scrumtogether-api/internal/model"
)

func newTestTokenService(t *testing.T, ttl time.Duration) *TokenService {
	t.Helper()
	svc, err := NewTokenService(TokenConfig{Secret: "test-secret", TTL: ttl})
	if err != nil {
		t.Fatalf("new token service: %v", err)
	}
	return svc
}

func TestGenerateRoundTrip(t *testing.T) {
	svc := newTestTokenService(t, time.Hour)
	user := &model.User{Username: "alice"}

	token, err := svc.Generate(user)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	username, err := svc.ExtractUsername(token)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if username != "alice" {
		t.Errorf("expected subject alice, got %q", username)
	}
	if !svc.IsValid(token, user) {
		t.Error("expected freshly issued token to be valid")
	}
}

func TestIsValidRejectsOtherUser(t *testing.T) {
	svc := newTestTokenService(t, time.Hour)

	token, err := svc.Generate(&model.User{Username: "alice"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if svc.IsValid(token, &model.User{Username: "bob"}) {
		t.Error("token for alice must not validate for bob")
	}
}

func TestExpiredToken(t *testing.T) {
	svc := newTestTokenService(t, -time.Minute)
	user := &model.User{Username: "alice"}

	token, err := svc.Generate(user)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	// Expired at the middleware boundary: extraction errors (hard stop).
	if _, err := svc.ExtractUsername(token); err == nil {
		t.Error("expected extraction error for expired token")
	}
	if svc.IsValid(token, user) {
		t.Error("expected expired token to be invalid")
	}
}

func TestForeignKeyTokenRejected(t *testing.T) {
	svc := newTestTokenService(t, time.Hour)
	other, err := NewTokenService(TokenConfig{Secret: "other-secret", TTL: time.Hour})
	if err != nil {
		t.Fatalf("new token service: %v", err)
	}

	token, err := other.Generate(&model.User{Username: "alice"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := svc.ExtractUsername(token); err == nil {
		t.Error("token signed with a different key must not verify")
	}
}

func TestCorruptedTokenRejected(t *testing.T) {
	svc := newTestTokenService(t, time.Hour)

	token, err := svc.Generate(&model.User{Username: "alice"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	truncated := token[:len(token)-1]
	if _, err := svc.ExtractUsername(truncated); err == nil {
		t.Error("expected extraction error for truncated token")
	}

	garbled := strings.Replace(token, ".", "x", 1)
	if _, err := svc.ExtractUsername(garbled); err == nil {
		t.Error("expected extraction error for structurally invalid token")
	}
}

func TestExpirationSeconds(t *testing.T) {
	svc := newTestTokenService(t, 30*time.Minute)
	if got := svc.ExpirationSeconds(); got != 1800 {
		t.Errorf("expected 1800, got %d", got)
	}
}
