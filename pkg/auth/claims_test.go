package auth

import (
	"testing"
	"time"
)

func TestIssueAndVerifyToken(t *testing.T) {
	secret := "test-secret"
	token, err := IssueToken(secret, "alice", false, time.Hour)
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}

	claims, err := VerifyToken(secret, token)
	if err != nil {
		t.Fatalf("failed to verify token: %v", err)
	}
	if claims.Subject != "alice" {
		t.Errorf("expected subject 'alice', got %q", claims.Subject)
	}
	if claims.Admin {
		t.Error("expected non-admin claims")
	}
}

func TestVerifyToken_AdminFlag(t *testing.T) {
	secret := "test-secret"
	token, err := IssueToken(secret, "root", true, time.Hour)
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}

	claims, err := VerifyToken(secret, token)
	if err != nil {
		t.Fatalf("failed to verify token: %v", err)
	}
	if !claims.Admin {
		t.Error("expected admin claims")
	}
}

func TestVerifyToken_WrongSecret(t *testing.T) {
	token, err := IssueToken("secret-a", "alice", false, time.Hour)
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}
	if _, err := VerifyToken("secret-b", token); err == nil {
		t.Error("expected verification failure with wrong secret")
	}
}

func TestVerifyToken_Expired(t *testing.T) {
	token, err := IssueToken("secret", "alice", false, -time.Minute)
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}
	if _, err := VerifyToken("secret", token); err == nil {
		t.Error("expected verification failure for expired token")
	}
}

func TestIssueToken_NoSecret(t *testing.T) {
	if _, err := IssueToken("", "alice", false, time.Hour); err == nil {
		t.Error("expected error without a configured secret")
	}
}
