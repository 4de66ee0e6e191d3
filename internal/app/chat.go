package app

import (
	"fmt"
	"strings"
	"time"

	"tutorhub/internal/util"
	"tutorhub/pkg/domain"
)

const defaultMessageLimit = 100

// GetChatGroup returns the group if the user is one of its members.
func (a *App) GetChatGroup(user domain.User, groupID string) (domain.ChatGroup, error) {
	group, ok, err := a.store.GetChatGroup(groupID)
	if err != nil {
		return domain.ChatGroup{}, fmt.Errorf("fetch chat group: %w", err)
	}
	if !ok {
		return domain.ChatGroup{}, ErrChatGroupNotFound
	}
	if !group.IsMember(user.ID) {
		return domain.ChatGroup{}, ErrNotChatMember
	}
	return group, nil
}

// PostMessage appends a message to a group the user belongs to.
func (a *App) PostMessage(user domain.User, groupID, content string) (domain.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return domain.Message{}, ErrMessageRequired
	}
	group, err := a.GetChatGroup(user, groupID)
	if err != nil {
		return domain.Message{}, err
	}
	msg := domain.Message{
		ID:          util.NewID(),
		ChatGroupID: group.ID,
		SenderID:    user.ID,
		SenderRole:  user.Role,
		Content:     content,
		CreatedAt:   time.Now().UTC(),
	}
	if err := a.store.AppendMessage(msg); err != nil {
		return domain.Message{}, fmt.Errorf("append message: %w", err)
	}
	return msg, nil
}

// ListMessages returns the group's messages in send order, membership
// gated. Limit 0 falls back to the default page size.
func (a *App) ListMessages(user domain.User, groupID string, limit int) ([]domain.Message, error) {
	group, err := a.GetChatGroup(user, groupID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultMessageLimit
	}
	return a.store.ListMessages(group.ID, limit)
}
