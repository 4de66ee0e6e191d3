package store

import (
	"time"

	"tutorhub/pkg/domain"
)

// Store defines persistence operations for the user directory, task
// registry, and the chat/notification side stores.
type Store interface {
	// users
	SaveUser(domain.User) error
	HasUserPhone(phone string) (bool, error)
	GetUserByPhone(phone string) (domain.User, bool, error)
	GetUserByID(id string) (domain.User, bool, error)
	ListUsers() ([]domain.User, error)
	ListUsersByRole(role domain.UserRole) ([]domain.User, error)
	CountUsersByRole(role domain.UserRole) (int, error)

	// tasks
	SaveTask(domain.Task) error
	GetTask(id string) (domain.Task, bool, error)
	ListTasks() ([]domain.Task, error)
	ListTasksByPublisher(parentID string) ([]domain.Task, error)
	ListTasksByTeacher(teacherID string) ([]domain.Task, error)

	// chat
	SaveChatGroup(domain.ChatGroup) error
	GetChatGroup(id string) (domain.ChatGroup, bool, error)
	GetChatGroupByTask(taskID string) (domain.ChatGroup, bool, error)
	AppendMessage(domain.Message) error
	ListMessages(chatGroupID string, limit int) ([]domain.Message, error)

	// notifications
	SaveNotification(domain.Notification) error
	GetNotification(id string) (domain.Notification, bool, error)
	ListNotificationsByUser(userID string) ([]domain.Notification, error)
}

// SessionStore persists session tokens.
type SessionStore interface {
	NewSession(userID string) (string, error)
	GetUserIDByToken(token string) (string, bool, error)
	DeleteSession(token string) error
}

// TokenRevoker tracks revoked tokens until expiry.
type TokenRevoker interface {
	Revoke(token string, ttl time.Duration) error
	IsRevoked(token string) (bool, error)
}
