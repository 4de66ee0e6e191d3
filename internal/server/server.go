package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"tutorhub/internal/app"
	"tutorhub/internal/ratelimit"
	"tutorhub/internal/util"
	"tutorhub/pkg/domain"
)

const maxBodyBytes = 1 << 20

// Config wires required dependencies for the HTTP server.
type Config struct {
	App *app.App

	RedisAddr     string
	RedisPassword string

	RegisterRateLimitPerMinute int
	LoginRateLimitPerMinute    int

	TrustedProxies []string
}

// Server exposes the HTTP API.
type Server struct {
	app             *app.App
	mux             *http.ServeMux
	trusted         *util.TrustedProxies
	registerLimiter *ratelimit.FixedWindowLimiter
	loginLimiter    *ratelimit.FixedWindowLimiter
}

// New constructs the server with routes configured. Rate limiting is
// enabled only when a Redis address is supplied.
func New(cfg Config) (*Server, error) {
	trusted, err := util.NewTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return nil, fmt.Errorf("parse trusted proxies: %w", err)
	}
	s := &Server{
		app:     cfg.App,
		mux:     http.NewServeMux(),
		trusted: trusted,
	}
	if strings.TrimSpace(cfg.RedisAddr) != "" {
		registerLimit := cfg.RegisterRateLimitPerMinute
		if registerLimit <= 0 {
			registerLimit = 5
		}
		loginLimit := cfg.LoginRateLimitPerMinute
		if loginLimit <= 0 {
			loginLimit = 10
		}
		s.registerLimiter, err = ratelimit.NewRedisFixedWindowLimiter(
			cfg.RedisAddr, cfg.RedisPassword, "tutorhub:ratelimit:register", registerLimit, time.Minute)
		if err != nil {
			return nil, fmt.Errorf("init register limiter: %w", err)
		}
		s.loginLimiter, err = ratelimit.NewRedisFixedWindowLimiter(
			cfg.RedisAddr, cfg.RedisPassword, "tutorhub:ratelimit:login", loginLimit, time.Minute)
		if err != nil {
			return nil, fmt.Errorf("init login limiter: %w", err)
		}
	}
	s.routes()
	return s, nil
}

// Router returns the configured handler with the middleware chain.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(util.WithRequestLog(util.WithSecurityHeaders(util.WithCORS(s.mux))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)

	// auth
	s.mux.HandleFunc("/api/auth/register", s.handleRegister)
	s.mux.HandleFunc("/api/auth/login", s.handleLogin)
	s.mux.HandleFunc("/api/auth/refresh", s.handleRefresh)
	s.mux.HandleFunc("/api/auth/logout", s.handleLogout)
	s.mux.Handle("/api/users/me", s.authenticated(s.handleMe))

	// teacher directory and pricing
	s.mux.Handle("/api/teachers", s.authenticated(s.handleTeachers))
	s.mux.Handle("/api/teachers/", s.authenticated(s.handleTeacherByID))
	s.mux.Handle("/api/pricing/quote", s.authenticated(s.handlePriceQuote))

	// tasks
	s.mux.Handle("/api/tasks", s.authenticated(s.handleTasks))
	s.mux.Handle("/api/tasks/", s.authenticated(s.handleTaskByID))

	// chat
	s.mux.Handle("/api/chat-groups/", s.authenticated(s.handleChatGroup))

	// notifications
	s.mux.Handle("/api/notifications", s.authenticated(s.handleNotifications))
	s.mux.Handle("/api/notifications/", s.authenticated(s.handleNotificationByID))

	// teacher verification
	s.mux.Handle("/api/verification/certificates", s.authenticated(s.handleUploadCertificate))
	s.mux.Handle("/api/verification/submit", s.authenticated(s.handleSubmitVerification))

	// admin
	s.mux.Handle("/api/admin/users", s.adminOnly(s.handleAdminUsers))
	s.mux.Handle("/api/admin/verifications", s.adminOnly(s.handleAdminVerifications))
	s.mux.Handle("/api/admin/verifications/", s.adminOnly(s.handleAdminVerificationByID))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// auth wrappers
type authHandler func(http.ResponseWriter, *http.Request, domain.User)

func (s *Server) authenticated(next authHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := s.authorize(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r, user)
	})
}

func (s *Server) adminOnly(next authHandler) http.Handler {
	return s.authenticated(func(w http.ResponseWriter, r *http.Request, user domain.User) {
		if user.Role != domain.RoleAdmin {
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		next(w, r, user)
	})
}

func (s *Server) authorize(r *http.Request) (domain.User, bool) {
	token, ok := bearerToken(r)
	if !ok {
		return domain.User{}, false
	}
	return s.app.UserFromToken(token)
}

func (s *Server) allow(limiter *ratelimit.FixedWindowLimiter, r *http.Request) bool {
	if limiter == nil {
		return true
	}
	return limiter.Allow(util.ClientIP(r, s.trusted))
}

// auth handlers
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allow(s.registerLimiter, r) {
		writeError(w, http.StatusTooManyRequests, "too many requests")
		return
	}
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	user, session, err := s.app.Register(app.RegisterInput{
		Phone:    req.Phone,
		Password: req.Password,
		Name:     req.Name,
		Role:     domain.UserRole(req.Role),
		Parent:   req.Parent,
		Teacher:  req.Teacher,
	})
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, authResponse{
		Token:        session.Token,
		RefreshToken: session.RefreshToken,
		User:         userView(user, user),
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allow(s.loginLimiter, r) {
		writeError(w, http.StatusTooManyRequests, "too many requests")
		return
	}
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	user, session, err := s.app.Login(req.Phone, req.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, authResponse{
		Token:        session.Token,
		RefreshToken: session.RefreshToken,
		User:         userView(user, user),
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.RefreshToken) == "" {
		writeError(w, http.StatusBadRequest, "refreshToken is required")
		return
	}
	user, session, err := s.app.Refresh(req.RefreshToken)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, authResponse{
		Token:        session.Token,
		RefreshToken: session.RefreshToken,
		User:         userView(user, user),
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	token, ok := bearerToken(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req refreshRequest
	if r.Body != nil {
		_ = decodeJSON(r, &req)
	}
	if err := s.app.Logout(token, req.RefreshToken); err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, userView(user, user))
}

// admin handlers
func (s *Server) handleAdminUsers(w http.ResponseWriter, r *http.Request, admin domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	users, err := s.app.ListUsers()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	items := make([]userDTO, 0, len(users))
	for _, u := range users {
		items = append(items, userView(u, admin))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": items,
		"count": len(items),
	})
}

// writeAppError maps application errors onto HTTP statuses.
func (s *Server) writeAppError(w http.ResponseWriter, err error) {
	var invalid domain.ErrInvalidTransition
	switch {
	case errors.Is(err, app.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, app.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, app.ErrTaskNotFound),
		errors.Is(err, app.ErrChatGroupNotFound),
		errors.Is(err, app.ErrNotificationNotFound),
		errors.Is(err, app.ErrTeacherNotAvailable):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, app.ErrNotChatMember):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, app.ErrPhoneAlreadyExists):
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &invalid):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusBadRequest, err.Error())
	}
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return "", false
	}
	return token, true
}

func decodeJSON(r *http.Request, dst any) error {
	return json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

type registerRequest struct {
	Phone    string                 `json:"phone"`
	Password string                 `json:"password"`
	Name     string                 `json:"name"`
	Role     string                 `json:"role"`
	Parent   *domain.ParentProfile  `json:"parent,omitempty"`
	Teacher  *domain.TeacherProfile `json:"teacher,omitempty"`
}

type loginRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type authResponse struct {
	Token        string  `json:"token"`
	RefreshToken string  `json:"refreshToken"`
	User         userDTO `json:"user"`
}
