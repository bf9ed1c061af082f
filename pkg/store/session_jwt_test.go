package store

import (
	"testing"
	"time"
)

func TestJWTSessionStoreRoundTrip(t *testing.T) {
	s := NewJWTSessionStore("test-secret", time.Minute)

	token, err := s.NewSession("user-1")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	userID, ok, err := s.GetUserIDByToken(token)
	if err != nil {
		t.Fatalf("resolve token: %v", err)
	}
	if !ok || userID != "user-1" {
		t.Fatalf("resolve token: ok=%v userID=%q", ok, userID)
	}
}

func TestJWTSessionStoreRejectsTamperedToken(t *testing.T) {
	s := NewJWTSessionStore("test-secret", time.Minute)
	other := NewJWTSessionStore("other-secret", time.Minute)

	token, err := other.NewSession("user-1")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if _, _, err := s.GetUserIDByToken(token); err == nil {
		t.Fatalf("expected signature validation to fail")
	}
	if _, _, err := s.GetUserIDByToken(""); err == nil {
		t.Fatalf("expected empty token to fail")
	}
}

func TestJWTSessionStoreRejectsExpiredToken(t *testing.T) {
	s := NewJWTSessionStore("test-secret", -2*time.Minute)

	token, err := s.NewSession("user-1")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if _, _, err := s.GetUserIDByToken(token); err == nil {
		t.Fatalf("expected expired token to fail")
	}
}
