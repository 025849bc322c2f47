package password

import (
	"errors"
	"testing"
)

func TestBcryptRoundTrip(t *testing.T) {
	h := NewBcryptHasher(bcryptTestCost)

	hash, err := h.Hash("secret123")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if err := h.Verify("secret123", hash); err != nil {
		t.Errorf("expected match, got %v", err)
	}
	if err := h.Verify("wrong-password", hash); !errors.Is(err, ErrMismatch) {
		t.Errorf("expected ErrMismatch, got %v", err)
	}
}

// Low cost keeps the test fast; production cost comes from config.
const bcryptTestCost = 4

func TestBcryptRejectsOverlongPassword(t *testing.T) {
	h := NewBcryptHasher(bcryptTestCost)
	long := make([]byte, 73)
	for i := range long {
		long[i] = 'a'
	}
	if _, err := h.Hash(string(long)); err == nil {
		t.Error("expected error for password over bcrypt's 72-byte limit")
	}
}

func TestArgon2RoundTrip(t *testing.T) {
	h := NewArgon2Hasher()

	hash, err := h.Hash("secret123")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if err := h.Verify("secret123", hash); err != nil {
		t.Errorf("expected match, got %v", err)
	}
	if err := h.Verify("wrong-password", hash); !errors.Is(err, ErrMismatch) {
		t.Errorf("expected ErrMismatch, got %v", err)
	}
}

func TestArgon2RejectsMalformedHash(t *testing.T) {
	h := NewArgon2Hasher()
	if err := h.Verify("secret123", "$2a$12$notargon"); err == nil {
		t.Error("expected error for non-argon2id hash")
	}
}

func TestNewHasherSelectsAlgorithm(t *testing.T) {
	if _, ok := NewHasher(Config{}).(*BcryptHasher); !ok {
		t.Error("expected bcrypt by default")
	}
	if _, ok := NewHasher(Config{Algorithm: AlgorithmArgon2id}).(*Argon2Hasher); !ok {
		t.Error("expected argon2id when configured")
	}
}
