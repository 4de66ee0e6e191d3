package store

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestRedisSessionStoreRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	s := NewRedisSessionStore(mr.Addr(), "", time.Minute)

	token, err := s.NewSession("user-1")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	uid, ok, err := s.GetUserIDByToken(token)
	if err != nil || !ok || uid != "user-1" {
		t.Fatalf("get: uid=%q ok=%v err=%v", uid, ok, err)
	}

	if err := s.DeleteSession(token); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, err := s.GetUserIDByToken(token); err != nil || ok {
		t.Fatalf("deleted session should be gone, ok=%v err=%v", ok, err)
	}
}

func TestRedisSessionStoreExpires(t *testing.T) {
	mr := miniredis.RunT(t)
	s := NewRedisSessionStore(mr.Addr(), "", time.Second)

	token, err := s.NewSession("user-2")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	mr.FastForward(2 * time.Second)
	if _, ok, err := s.GetUserIDByToken(token); err != nil || ok {
		t.Fatalf("expired session should be gone, ok=%v err=%v", ok, err)
	}
}

func TestRedisTokenRevoker(t *testing.T) {
	mr := miniredis.RunT(t)
	r := NewRedisTokenRevoker(mr.Addr(), "")

	if err := r.Revoke("jti-1", time.Minute); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	revoked, err := r.IsRevoked("jti-1")
	if err != nil || !revoked {
		t.Fatalf("expected revoked, got revoked=%v err=%v", revoked, err)
	}
	revoked, err = r.IsRevoked("jti-other")
	if err != nil || revoked {
		t.Fatalf("unknown jti should not be revoked, got revoked=%v err=%v", revoked, err)
	}

	mr.FastForward(2 * time.Minute)
	revoked, err = r.IsRevoked("jti-1")
	if err != nil || revoked {
		t.Fatalf("revocation should lapse with the token, got revoked=%v err=%v", revoked, err)
	}
}
