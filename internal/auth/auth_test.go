package auth

import (
	"testing"
	"time"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hash == "correct horse battery" {
		t.Fatalf("hash must not equal the password")
	}
	if err := CheckPassword(hash, "correct horse battery"); err != nil {
		t.Fatalf("expected match, got %v", err)
	}
	if err := CheckPassword(hash, "wrong"); err == nil {
		t.Fatalf("expected mismatch error")
	}
	if err := CheckPassword("", "anything"); err == nil {
		t.Fatalf("expected error for empty hash")
	}
}

func TestHashPasswordRejectsShort(t *testing.T) {
	if _, err := HashPassword("short"); err == nil {
		t.Fatalf("expected error for short password")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	m := NewTokenManager("0123456789abcdef0123456789abcdef", time.Hour)
	raw, err := m.Issue("user-1", "a@example.com")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := m.Verify(raw)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Subject != "user-1" || claims.Email != "a@example.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestTokenRejectsWrongSecret(t *testing.T) {
	issuer := NewTokenManager("0123456789abcdef0123456789abcdef", time.Hour)
	verifier := NewTokenManager("another-secret-another-secret!!!", time.Hour)
	raw, err := issuer.Issue("user-1", "a@example.com")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := verifier.Verify(raw); err == nil {
		t.Fatalf("expected verification failure")
	}
}

func TestTokenRejectsExpired(t *testing.T) {
	m := NewTokenManager("0123456789abcdef0123456789abcdef", -time.Minute)
	raw, err := m.Issue("user-1", "a@example.com")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := m.Verify(raw); err == nil {
		t.Fatalf("expected expired token to fail")
	}
}

func TestTokenRejectsGarbage(t *testing.T) {
	m := NewTokenManager("0123456789abcdef0123456789abcdef", time.Hour)
	if _, err := m.Verify("not.a.token"); err == nil {
		t.Fatalf("expected error")
	}
}
