package auth

import (
	"errors"
	"testing"
	"time"
)

func TestTokenSignAndVerify(t *testing.T) {
	signer, err := NewTokenSigner("test-secret", WithIssuer("test-issuer"), WithTTL(time.Hour))
	if err != nil {
		t.Fatalf("NewTokenSigner: %v", err)
	}

	token, exp, err := signer.Sign("alice@example.com", RoleSeller)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if time.Until(exp) <= 0 {
		t.Fatalf("expected future expiry, got %v", exp)
	}

	claims, err := signer.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Subject != "alice@example.com" {
		t.Fatalf("unexpected subject: %s", claims.Subject)
	}
	if claims.Issuer != "test-issuer" {
		t.Fatalf("unexpected issuer: %s", claims.Issuer)
	}
	if claims.Role != string(RoleSeller) {
		t.Fatalf("role claim not preserved: %s", claims.Role)
	}
	if claims.ID == "" {
		t.Fatal("expected a jti claim")
	}
}

func TestTokenVerifyRejectsExpired(t *testing.T) {
	current := time.Now().UTC()
	clock := func() time.Time { return current }

	signer, err := NewTokenSigner("test-secret", WithTTL(time.Minute), WithClock(clock))
	if err != nil {
		t.Fatalf("NewTokenSigner: %v", err)
	}
	token, _, err := signer.Sign("alice@example.com", RoleBuyer)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	if _, err := signer.Verify(token); err != nil {
		t.Fatalf("fresh token should verify: %v", err)
	}

	current = current.Add(2 * time.Minute)
	if _, err := signer.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestTokenVerifyRejectsWrongSecret(t *testing.T) {
	signerA, err := NewTokenSigner("secret-a")
	if err != nil {
		t.Fatalf("NewTokenSigner: %v", err)
	}
	signerB, err := NewTokenSigner("secret-b")
	if err != nil {
		t.Fatalf("NewTokenSigner: %v", err)
	}

	token, _, err := signerA.Sign("alice@example.com", RoleBuyer)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if _, err := signerB.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for foreign signature, got %v", err)
	}
}

func TestTokenVerifyRejectsWrongIssuer(t *testing.T) {
	issuerA, err := NewTokenSigner("shared-secret", WithIssuer("service-a"))
	if err != nil {
		t.Fatalf("NewTokenSigner: %v", err)
	}
	issuerB, err := NewTokenSigner("shared-secret", WithIssuer("service-b"))
	if err != nil {
		t.Fatalf("NewTokenSigner: %v", err)
	}

	token, _, err := issuerA.Sign("alice@example.com", RoleBuyer)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if _, err := issuerB.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for wrong issuer, got %v", err)
	}
}

func TestTokenVerifyRejectsGarbage(t *testing.T) {
	signer, err := NewTokenSigner("test-secret")
	if err != nil {
		t.Fatalf("NewTokenSigner: %v", err)
	}
	for _, token := range []string{"", "   ", "not.a.token", "a.b"} {
		if _, err := signer.Verify(token); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken for %q, got %v", token, err)
		}
	}
}

func TestNewTokenSignerRequiresSecret(t *testing.T) {
	if _, err := NewTokenSigner("  "); err == nil {
		t.Fatal("expected error for empty secret")
	}
}
