package app

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"tutorhub/internal/util"
	"tutorhub/pkg/auth"
	"tutorhub/pkg/domain"
	"tutorhub/pkg/queue"
	"tutorhub/pkg/storage"
	"tutorhub/pkg/store"
)

// Seed credentials for the bootstrap administrator. Created on startup
// only when no admin account exists; override via config in production.
const (
	DefaultAdminPhone    = "13800000000"
	DefaultAdminPassword = "admin123456"
	defaultAdminName     = "平台管理员"
)

var phonePattern = regexp.MustCompile(`^1[3-9][0-9]{9}$`)

// Notifier schedules out-of-band delivery for a persisted notification.
type Notifier interface {
	Enqueue(ctx context.Context, notificationID string) (queue.Delivery, error)
}

// Config holds runtime configuration for the core application.
type Config struct {
	DatabaseURL     string
	RedisAddr       string
	RedisPassword   string
	SessionStrategy string // "jwt" (default) or "redis"
	SessionTTL      time.Duration
	RefreshTTL      time.Duration
	JWTSecret       string

	AdminPhone    string
	AdminPassword string

	Store    store.Store
	Sessions store.SessionStore
	Refresh  store.RefreshStore
	Objects  storage.ObjectStore
	Notifier Notifier
}

// App is the core application service wiring together the user
// directory, task registry, chat and notification stores, and sessions.
type App struct {
	store      store.Store
	sessions   store.SessionStore
	refresh    store.RefreshStore
	refreshTTL time.Duration
	objects    storage.ObjectStore
	notifier   Notifier
}

// New constructs the application with storage and session management,
// then seeds the bootstrap admin account when none exists.
func New(cfg Config) (*App, error) {
	if cfg.SessionTTL == 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	if cfg.RefreshTTL == 0 {
		cfg.RefreshTTL = 30 * 24 * time.Hour
	}

	dataStore := cfg.Store
	if dataStore == nil {
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("database URL required")
		}
		var err error
		dataStore, err = store.NewGormStore(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("init postgres store: %w", err)
		}
	}

	sessionStore := cfg.Sessions
	if sessionStore == nil {
		strategy := strings.ToLower(strings.TrimSpace(cfg.SessionStrategy))
		switch strategy {
		case "redis":
			if strings.TrimSpace(cfg.RedisAddr) == "" {
				return nil, fmt.Errorf("redisAddr is required for redis session strategy")
			}
			sessionStore = store.NewRedisSessionStore(cfg.RedisAddr, cfg.RedisPassword, cfg.SessionTTL)
		case "", "jwt":
			var revoker store.TokenRevoker
			if strings.TrimSpace(cfg.RedisAddr) != "" {
				revoker = store.NewRedisTokenRevoker(cfg.RedisAddr, cfg.RedisPassword)
			} else {
				revoker = store.NewMemoryTokenRevoker()
			}
			var err error
			sessionStore, err = store.NewJWTSessionStore(cfg.JWTSecret, cfg.SessionTTL, revoker, store.JWTOptions{})
			if err != nil {
				return nil, fmt.Errorf("init jwt session store: %w", err)
			}
		default:
			return nil, fmt.Errorf("unknown session strategy: %s", strategy)
		}
	}

	refreshStore := cfg.Refresh
	if refreshStore == nil {
		if strings.TrimSpace(cfg.RedisAddr) != "" {
			refreshStore = store.NewRedisRefreshStore(cfg.RedisAddr, cfg.RedisPassword)
		} else {
			refreshStore = store.NewMemoryRefreshStore()
		}
	}

	a := &App{
		store:      dataStore,
		sessions:   sessionStore,
		refresh:    refreshStore,
		refreshTTL: cfg.RefreshTTL,
		objects:    cfg.Objects,
		notifier:   cfg.Notifier,
	}
	if err := a.ensureAdmin(cfg.AdminPhone, cfg.AdminPassword); err != nil {
		return nil, fmt.Errorf("seed admin: %w", err)
	}
	return a, nil
}

// ensureAdmin seeds the fixed administrator account iff no admin exists.
func (a *App) ensureAdmin(phone, password string) error {
	count, err := a.store.CountUsersByRole(domain.RoleAdmin)
	if err != nil {
		return fmt.Errorf("count admins: %w", err)
	}
	if count > 0 {
		return nil
	}
	if strings.TrimSpace(phone) == "" {
		phone = DefaultAdminPhone
	}
	if strings.TrimSpace(password) == "" {
		password = DefaultAdminPassword
	}
	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	now := time.Now().UTC()
	admin := domain.User{
		ID:           util.NewID(),
		Phone:        phone,
		Name:         defaultAdminName,
		PasswordHash: passwordHash,
		Role:         domain.RoleAdmin,
		Verification: domain.VerificationVerified,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return a.store.SaveUser(admin)
}

// Session is an issued credential pair: a short-lived access token and
// the rotating refresh token that renews it.
type Session struct {
	Token        string
	RefreshToken string
}

func (a *App) issueSession(userID string) (Session, error) {
	token, err := a.sessions.NewSession(userID)
	if err != nil {
		return Session{}, fmt.Errorf("issue session: %w", err)
	}
	refreshToken, err := a.refresh.Issue(userID, a.refreshTTL)
	if err != nil {
		return Session{}, fmt.Errorf("issue refresh token: %w", err)
	}
	return Session{Token: token, RefreshToken: refreshToken}, nil
}

// RegisterInput carries the registration form. Exactly one of Parent or
// Teacher must be set, matching Role.
type RegisterInput struct {
	Phone    string
	Password string
	Name     string
	Role     domain.UserRole
	Parent   *domain.ParentProfile
	Teacher  *domain.TeacherProfile
}

// Register creates a directory record and issues a session. New
// accounts always start unverified.
func (a *App) Register(input RegisterInput) (domain.User, Session, error) {
	phone := strings.TrimSpace(input.Phone)
	if phone == "" || input.Password == "" {
		return domain.User{}, Session{}, ErrPhoneAndPasswordRequired
	}
	if !phonePattern.MatchString(phone) {
		return domain.User{}, Session{}, ErrInvalidPhone
	}
	if err := auth.ValidatePassword(input.Password); err != nil {
		return domain.User{}, Session{}, err
	}
	if strings.TrimSpace(input.Name) == "" {
		return domain.User{}, Session{}, ErrNameRequired
	}

	user := domain.User{
		Phone: phone,
		Name:  strings.TrimSpace(input.Name),
		Role:  input.Role,
	}
	switch input.Role {
	case domain.RoleParent:
		profile := input.Parent
		if profile == nil {
			profile = &domain.ParentProfile{}
		}
		if profile.ChildGrade < 1 || profile.ChildGrade > 12 {
			return domain.User{}, Session{}, ErrChildGradeInvalid
		}
		user.Parent = profile
	case domain.RoleTeacher:
		profile := input.Teacher
		if profile == nil || len(profile.Subjects) == 0 {
			return domain.User{}, Session{}, ErrSubjectsRequired
		}
		if len(profile.Grades) == 0 {
			return domain.User{}, Session{}, ErrGradesInvalid
		}
		for _, g := range profile.Grades {
			if g < 1 || g > 12 {
				return domain.User{}, Session{}, ErrGradesInvalid
			}
		}
		if profile.HourlyRate <= 0 {
			return domain.User{}, Session{}, ErrHourlyRateInvalid
		}
		user.Teacher = profile
	default:
		return domain.User{}, Session{}, ErrRoleNotRegisterable
	}

	exists, err := a.store.HasUserPhone(phone)
	if err != nil {
		return domain.User{}, Session{}, fmt.Errorf("check phone: %w", err)
	}
	if exists {
		return domain.User{}, Session{}, ErrPhoneAlreadyExists
	}

	passwordHash, err := auth.HashPassword(input.Password)
	if err != nil {
		return domain.User{}, Session{}, fmt.Errorf("hash password: %w", err)
	}
	now := time.Now().UTC()
	user.ID = util.NewID()
	user.PasswordHash = passwordHash
	user.Verification = domain.VerificationUnverified
	user.CreatedAt = now
	user.UpdatedAt = now
	if err := a.store.SaveUser(user); err != nil {
		return domain.User{}, Session{}, fmt.Errorf("save user: %w", err)
	}

	session, err := a.issueSession(user.ID)
	if err != nil {
		return domain.User{}, Session{}, err
	}
	return user, session, nil
}

// Login validates credentials and issues a session.
func (a *App) Login(phone, password string) (domain.User, Session, error) {
	phone = strings.TrimSpace(phone)
	user, ok, err := a.store.GetUserByPhone(phone)
	if err != nil {
		return domain.User{}, Session{}, fmt.Errorf("fetch user: %w", err)
	}
	if !ok || !auth.CheckPassword(password, user.PasswordHash) {
		return domain.User{}, Session{}, ErrInvalidCredentials
	}
	session, err := a.issueSession(user.ID)
	if err != nil {
		return domain.User{}, Session{}, err
	}
	return user, session, nil
}

// Refresh rotates the refresh token and issues a new access token. A
// reused refresh token revokes its whole chain.
func (a *App) Refresh(refreshToken string) (domain.User, Session, error) {
	userID, next, err := a.refresh.Rotate(refreshToken, a.refreshTTL)
	if err != nil {
		return domain.User{}, Session{}, err
	}
	user, ok, err := a.store.GetUserByID(userID)
	if err != nil {
		return domain.User{}, Session{}, fmt.Errorf("fetch user: %w", err)
	}
	if !ok {
		return domain.User{}, Session{}, store.ErrRefreshInvalid
	}
	token, err := a.sessions.NewSession(user.ID)
	if err != nil {
		return domain.User{}, Session{}, fmt.Errorf("issue session: %w", err)
	}
	return user, Session{Token: token, RefreshToken: next}, nil
}

// UserFromToken resolves a user from a session token.
func (a *App) UserFromToken(token string) (domain.User, bool) {
	uid, ok, err := a.sessions.GetUserIDByToken(token)
	if err != nil || !ok {
		return domain.User{}, false
	}
	user, found, err := a.store.GetUserByID(uid)
	if err != nil || !found {
		return domain.User{}, false
	}
	return user, true
}

// Logout invalidates the session token and, when supplied, the refresh
// token chain.
func (a *App) Logout(token, refreshToken string) error {
	if refreshToken != "" {
		if err := a.refresh.Revoke(refreshToken); err != nil {
			return fmt.Errorf("revoke refresh token: %w", err)
		}
	}
	return a.sessions.DeleteSession(token)
}

// ListUsers returns the whole directory (admin use only).
func (a *App) ListUsers() ([]domain.User, error) {
	return a.store.ListUsers()
}
