package store

import (
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestMemoryRefreshStoreRotateAndRevoke(t *testing.T) {
	s := NewMemoryRefreshStore()

	token, err := s.Issue("user-1", time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	userID, next, err := s.Rotate(token, time.Minute)
	if err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if userID != "user-1" {
		t.Fatalf("user id = %q", userID)
	}
	if next == "" || next == token {
		t.Fatalf("expected a fresh token")
	}

	if err := s.Revoke(next); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, _, err := s.Rotate(next, time.Minute); !errors.Is(err, ErrRefreshInvalid) {
		t.Fatalf("revoked token should be invalid, got %v", err)
	}
}

func TestMemoryRefreshStoreDetectsReuse(t *testing.T) {
	s := NewMemoryRefreshStore()

	token, err := s.Issue("user-2", time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	_, next, err := s.Rotate(token, time.Minute)
	if err != nil {
		t.Fatalf("first rotate: %v", err)
	}

	if _, _, err := s.Rotate(token, time.Minute); !errors.Is(err, ErrRefreshReused) {
		t.Fatalf("expected reuse detection, got %v", err)
	}
	// Reuse burns the whole chain, including the live successor.
	if _, _, err := s.Rotate(next, time.Minute); !errors.Is(err, ErrRefreshInvalid) {
		t.Fatalf("successor should be dead after reuse, got %v", err)
	}
}

func TestMemoryRefreshStoreExpiry(t *testing.T) {
	s := NewMemoryRefreshStore()

	token, err := s.Issue("user-3", -time.Second)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, _, err := s.Rotate(token, time.Minute); !errors.Is(err, ErrRefreshInvalid) {
		t.Fatalf("expired token should be invalid, got %v", err)
	}
}

func TestRedisRefreshStoreRotateAndRevoke(t *testing.T) {
	mr := miniredis.RunT(t)
	s := NewRedisRefreshStore(mr.Addr(), "")

	token, err := s.Issue("user-1", time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	userID, next, err := s.Rotate(token, time.Minute)
	if err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if userID != "user-1" || next == "" || next == token {
		t.Fatalf("unexpected rotation result: user=%q next=%q", userID, next)
	}

	if err := s.Revoke(next); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, _, err := s.Rotate(next, time.Minute); !errors.Is(err, ErrRefreshInvalid) {
		t.Fatalf("revoked token should be invalid, got %v", err)
	}
}

func TestRedisRefreshStoreDetectsReuse(t *testing.T) {
	mr := miniredis.RunT(t)
	s := NewRedisRefreshStore(mr.Addr(), "")

	token, err := s.Issue("user-2", time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	_, next, err := s.Rotate(token, time.Minute)
	if err != nil {
		t.Fatalf("first rotate: %v", err)
	}

	if _, _, err := s.Rotate(token, time.Minute); !errors.Is(err, ErrRefreshReused) {
		t.Fatalf("expected reuse detection, got %v", err)
	}
	if _, _, err := s.Rotate(next, time.Minute); !errors.Is(err, ErrRefreshInvalid) {
		t.Fatalf("successor should be dead after reuse, got %v", err)
	}
}

func TestRedisRefreshStoreExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	s := NewRedisRefreshStore(mr.Addr(), "")

	token, err := s.Issue("user-3", time.Second)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	mr.FastForward(2 * time.Second)
	if _, _, err := s.Rotate(token, time.Minute); !errors.Is(err, ErrRefreshInvalid) {
		t.Fatalf("expired token should be invalid, got %v", err)
	}
}
