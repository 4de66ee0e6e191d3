package server

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"tutorhub/internal/app"
	"tutorhub/pkg/store"
)

func newRateLimitedEnv(t *testing.T, registerLimit, loginLimit int) *testEnv {
	t.Helper()
	mr := miniredis.RunT(t)
	mem := store.NewMemoryStore()
	a, err := app.New(app.Config{Store: mem, JWTSecret: "test-secret-0123456789"})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	s, err := New(Config{
		App:                        a,
		RedisAddr:                  mr.Addr(),
		RegisterRateLimitPerMinute: registerLimit,
		LoginRateLimitPerMinute:    loginLimit,
	})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	srv := httptest.NewServer(s.Router())
	t.Cleanup(srv.Close)
	return &testEnv{t: t, srv: srv, mem: mem}
}

func TestRegisterRateLimited(t *testing.T) {
	e := newRateLimitedEnv(t, 2, 10)

	for i := 0; i < 2; i++ {
		status, body := e.do(http.MethodPost, "/api/auth/register", "", map[string]any{
			"phone":    fmt.Sprintf("1390000000%d", i+1),
			"password": "parent-pass",
			"name":     "家长",
			"role":     "parent",
			"parent":   map[string]any{"childGrade": 8},
		})
		if status != http.StatusCreated {
			t.Fatalf("register %d: status %d body %v", i, status, body)
		}
	}

	status, _ := e.do(http.MethodPost, "/api/auth/register", "", map[string]any{
		"phone":    "13900000009",
		"password": "parent-pass",
		"name":     "家长",
		"role":     "parent",
		"parent":   map[string]any{"childGrade": 8},
	})
	if status != http.StatusTooManyRequests {
		t.Fatalf("over-limit register: status %d, want 429", status)
	}
}

func TestLoginRateLimited(t *testing.T) {
	e := newRateLimitedEnv(t, 10, 2)

	// Failed attempts count against the window too.
	for i := 0; i < 2; i++ {
		status, _ := e.do(http.MethodPost, "/api/auth/login", "", map[string]any{
			"phone":    "13900000001",
			"password": "wrong-pass",
		})
		if status != http.StatusUnauthorized {
			t.Fatalf("login %d: status %d, want 401", i, status)
		}
	}
	status, _ := e.do(http.MethodPost, "/api/auth/login", "", map[string]any{
		"phone":    "13900000001",
		"password": "wrong-pass",
	})
	if status != http.StatusTooManyRequests {
		t.Fatalf("over-limit login: status %d, want 429", status)
	}
}
