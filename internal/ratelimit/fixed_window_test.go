package ratelimit

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestFixedWindowLimiterEnforcesLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	limiter, err := NewRedisFixedWindowLimiter(mr.Addr(), "", "test:limit", 3, time.Minute)
	if err != nil {
		t.Fatalf("new limiter: %v", err)
	}

	for i := 0; i < 3; i++ {
		if !limiter.Allow("10.0.0.1") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if limiter.Allow("10.0.0.1") {
		t.Fatalf("fourth request in window should be denied")
	}
	if !limiter.Allow("10.0.0.2") {
		t.Fatalf("other keys have their own window")
	}
}

func TestFixedWindowLimiterResetsAfterWindow(t *testing.T) {
	mr := miniredis.RunT(t)
	limiter, err := NewRedisFixedWindowLimiter(mr.Addr(), "", "test:limit", 1, time.Second)
	if err != nil {
		t.Fatalf("new limiter: %v", err)
	}

	if !limiter.Allow("key") {
		t.Fatalf("first request should be allowed")
	}
	if limiter.Allow("key") {
		t.Fatalf("second request should be denied")
	}
	mr.FastForward(2 * time.Second)
	if !limiter.Allow("key") {
		t.Fatalf("window should have reset")
	}
}

func TestFixedWindowLimiterFailsClosed(t *testing.T) {
	mr := miniredis.RunT(t)
	limiter, err := NewRedisFixedWindowLimiter(mr.Addr(), "", "test:limit", 5, time.Minute)
	if err != nil {
		t.Fatalf("new limiter: %v", err)
	}
	mr.Close()
	if limiter.Allow("key") {
		t.Fatalf("unreachable redis should deny")
	}
}

func TestNewRedisFixedWindowLimiterValidation(t *testing.T) {
	if _, err := NewRedisFixedWindowLimiter("localhost:6379", "", "p", 0, time.Minute); err == nil {
		t.Fatalf("zero limit should be rejected")
	}
	if _, err := NewRedisFixedWindowLimiter("", "", "p", 1, time.Minute); err == nil {
		t.Fatalf("empty addr should be rejected")
	}
}
