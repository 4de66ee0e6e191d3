package store

import (
	"testing"
	"time"
)

func newHSStore(t *testing.T, revoker TokenRevoker, opts JWTOptions) *JWTSessionStore {
	t.Helper()
	s, err := NewJWTSessionStore("test-secret-0123456789", time.Minute, revoker, opts)
	if err != nil {
		t.Fatalf("new jwt store: %v", err)
	}
	return s
}

func TestJWTSessionStoreRoundTrip(t *testing.T) {
	s := newHSStore(t, nil, JWTOptions{})

	token, err := s.NewSession("user-1")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	uid, ok, err := s.GetUserIDByToken(token)
	if err != nil || !ok {
		t.Fatalf("verify: ok=%v err=%v", ok, err)
	}
	if uid != "user-1" {
		t.Fatalf("subject = %q", uid)
	}
}

func TestJWTSessionStoreRejectsWrongSecret(t *testing.T) {
	signer := newHSStore(t, nil, JWTOptions{})
	verifier, err := NewJWTSessionStore("another-secret-entirely", time.Minute, nil, JWTOptions{})
	if err != nil {
		t.Fatalf("new jwt store: %v", err)
	}

	token, err := signer.NewSession("user-2")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if _, ok, err := verifier.GetUserIDByToken(token); err == nil || ok {
		t.Fatalf("expected signature mismatch, ok=%v err=%v", ok, err)
	}
}

func TestJWTSessionStoreEnforcesAudience(t *testing.T) {
	signer := newHSStore(t, nil, JWTOptions{Issuer: "issuer-a", Audience: "aud-a", Leeway: time.Second})
	verifier := newHSStore(t, nil, JWTOptions{Issuer: "issuer-a", Audience: "aud-b", Leeway: time.Second})

	token, err := signer.NewSession("user-aud")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if _, _, err := verifier.GetUserIDByToken(token); err == nil {
		t.Fatalf("expected audience mismatch to fail")
	}
}

func TestJWTSessionStoreRevokesByJTI(t *testing.T) {
	revoker := NewMemoryTokenRevoker()
	s := newHSStore(t, revoker, JWTOptions{})

	token, err := s.NewSession("user-revoke")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if err := s.DeleteSession(token); err != nil {
		t.Fatalf("delete session: %v", err)
	}
	if _, ok, err := s.GetUserIDByToken(token); err == nil || ok {
		t.Fatalf("expected revoked token to fail, ok=%v err=%v", ok, err)
	}
}

func TestJWTSessionStoreRejectsMalformedToken(t *testing.T) {
	s := newHSStore(t, nil, JWTOptions{})
	for _, token := range []string{"", "   ", "not.a.jwt"} {
		if _, ok, err := s.GetUserIDByToken(token); err == nil || ok {
			t.Fatalf("token %q should be rejected, ok=%v err=%v", token, ok, err)
		}
	}
}

func TestNewJWTSessionStoreRequiresSecret(t *testing.T) {
	if _, err := NewJWTSessionStore("  ", time.Minute, nil, JWTOptions{}); err == nil {
		t.Fatalf("blank secret should be rejected")
	}
}
