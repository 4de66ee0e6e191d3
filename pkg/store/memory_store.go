package store

import (
	"fmt"
	"sync"

	"tutorhub/pkg/domain"
)

// MemoryStore keeps all records in-process. It backs tests and local
// development; it implements the same Store interface as GormStore.
type MemoryStore struct {
	mu            sync.RWMutex
	users         map[string]domain.User
	phones        map[string]string // phone -> user ID
	userOrder     []string
	tasks         map[string]domain.Task
	taskOrder     []string
	groups        map[string]domain.ChatGroup
	groupByTask   map[string]string // task ID -> group ID
	messages      map[string][]domain.Message
	notifications map[string]domain.Notification
	notifOrder    []string
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:         make(map[string]domain.User),
		phones:        make(map[string]string),
		tasks:         make(map[string]domain.Task),
		groups:        make(map[string]domain.ChatGroup),
		groupByTask:   make(map[string]string),
		messages:      make(map[string][]domain.Message),
		notifications: make(map[string]domain.Notification),
	}
}

// SaveUser registers or updates a user.
func (m *MemoryStore) SaveUser(u domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existingID, ok := m.phones[u.Phone]; ok && existingID != u.ID {
		return fmt.Errorf("phone %s already registered", u.Phone)
	}
	if _, exists := m.users[u.ID]; !exists {
		m.userOrder = append(m.userOrder, u.ID)
	}
	m.users[u.ID] = u
	m.phones[u.Phone] = u.ID
	return nil
}

// HasUserPhone checks if a phone number is already registered.
func (m *MemoryStore) HasUserPhone(phone string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.phones[phone]
	return ok, nil
}

// GetUserByPhone looks up a user by phone number.
func (m *MemoryStore) GetUserByPhone(phone string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if id, ok := m.phones[phone]; ok {
		u, exists := m.users[id]
		return u, exists, nil
	}
	return domain.User{}, false, nil
}

// GetUserByID returns a user by ID.
func (m *MemoryStore) GetUserByID(id string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	return u, ok, nil
}

// ListUsers returns all users in insertion order.
func (m *MemoryStore) ListUsers() ([]domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.User, 0, len(m.userOrder))
	for _, id := range m.userOrder {
		if u, ok := m.users[id]; ok {
			res = append(res, u)
		}
	}
	return res, nil
}

// ListUsersByRole returns users of one role in insertion order.
func (m *MemoryStore) ListUsersByRole(role domain.UserRole) ([]domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.User, 0, len(m.userOrder))
	for _, id := range m.userOrder {
		if u, ok := m.users[id]; ok && u.Role == role {
			res = append(res, u)
		}
	}
	return res, nil
}

// CountUsersByRole returns the number of users holding a role.
func (m *MemoryStore) CountUsersByRole(role domain.UserRole) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, u := range m.users {
		if u.Role == role {
			count++
		}
	}
	return count, nil
}

// SaveTask stores or replaces a task and tracks insertion order.
func (m *MemoryStore) SaveTask(t domain.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.tasks[t.ID]; !exists {
		m.taskOrder = append(m.taskOrder, t.ID)
	}
	m.tasks[t.ID] = t
	return nil
}

// GetTask retrieves a task by ID.
func (m *MemoryStore) GetTask(id string) (domain.Task, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tasks[id]
	return t, ok, nil
}

// ListTasks returns tasks in insertion order.
func (m *MemoryStore) ListTasks() ([]domain.Task, error) {
	return m.listTasks(func(domain.Task) bool { return true })
}

// ListTasksByPublisher returns tasks published by a parent.
func (m *MemoryStore) ListTasksByPublisher(parentID string) ([]domain.Task, error) {
	return m.listTasks(func(t domain.Task) bool { return t.PublisherID == parentID })
}

// ListTasksByTeacher returns tasks directed at a teacher.
func (m *MemoryStore) ListTasksByTeacher(teacherID string) ([]domain.Task, error) {
	return m.listTasks(func(t domain.Task) bool { return t.TeacherID == teacherID })
}

func (m *MemoryStore) listTasks(keep func(domain.Task) bool) ([]domain.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Task, 0, len(m.taskOrder))
	for _, id := range m.taskOrder {
		if t, ok := m.tasks[id]; ok && keep(t) {
			res = append(res, t)
		}
	}
	return res, nil
}

// SaveChatGroup creates a chat group, enforcing one group per task.
func (m *MemoryStore) SaveChatGroup(g domain.ChatGroup) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.groupByTask[g.TaskID]; exists {
		return fmt.Errorf("chat group for task %s already exists", g.TaskID)
	}
	m.groups[g.ID] = g
	m.groupByTask[g.TaskID] = g.ID
	return nil
}

// GetChatGroup retrieves a chat group by ID.
func (m *MemoryStore) GetChatGroup(id string) (domain.ChatGroup, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.groups[id]
	return g, ok, nil
}

// GetChatGroupByTask retrieves the chat group bound to a task.
func (m *MemoryStore) GetChatGroupByTask(taskID string) (domain.ChatGroup, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.groupByTask[taskID]
	if !ok {
		return domain.ChatGroup{}, false, nil
	}
	g, ok := m.groups[id]
	return g, ok, nil
}

// AppendMessage records a message in its group's ordered thread.
func (m *MemoryStore) AppendMessage(msg domain.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages[msg.ChatGroupID] = append(m.messages[msg.ChatGroupID], msg)
	return nil
}

// ListMessages returns a group's messages in append order.
func (m *MemoryStore) ListMessages(chatGroupID string, limit int) ([]domain.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	msgs := m.messages[chatGroupID]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	res := make([]domain.Message, len(msgs))
	copy(res, msgs)
	return res, nil
}

// SaveNotification stores or updates a notification.
func (m *MemoryStore) SaveNotification(n domain.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.notifications[n.ID]; !exists {
		m.notifOrder = append(m.notifOrder, n.ID)
	}
	m.notifications[n.ID] = n
	return nil
}

// GetNotification retrieves a notification by ID.
func (m *MemoryStore) GetNotification(id string) (domain.Notification, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n, ok := m.notifications[id]
	return n, ok, nil
}

// ListNotificationsByUser returns a user's notifications, newest first.
func (m *MemoryStore) ListNotificationsByUser(userID string) ([]domain.Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Notification, 0)
	for i := len(m.notifOrder) - 1; i >= 0; i-- {
		if n, ok := m.notifications[m.notifOrder[i]]; ok && n.TargetUserID == userID {
			res = append(res, n)
		}
	}
	return res, nil
}
