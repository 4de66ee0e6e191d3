package app

import (
	"context"
	"log/slog"
	"time"

	"tutorhub/internal/util"
	"tutorhub/pkg/domain"
)

// notify persists an in-app notification and hands it to the delivery
// queue when one is configured. Delivery failures never fail the
// triggering operation; they are logged and retried by the queue.
func (a *App) notify(ctx context.Context, kind domain.NotificationType, targetUserID, taskID string) {
	logger := util.LoggerFromContext(ctx)
	n := domain.Notification{
		ID:            util.NewID(),
		Type:          kind,
		TargetUserID:  targetUserID,
		RelatedTaskID: taskID,
		CreatedAt:     time.Now().UTC(),
	}
	if err := a.store.SaveNotification(n); err != nil {
		logger.Error("save notification", slog.String("type", string(kind)),
			slog.String("task_id", taskID), slog.String("error", err.Error()))
		return
	}
	if a.notifier == nil {
		return
	}
	if _, err := a.notifier.Enqueue(ctx, n.ID); err != nil {
		logger.Error("enqueue notification delivery", slog.String("notification_id", n.ID),
			slog.String("error", err.Error()))
	}
}

// ListNotifications returns the user's notifications, newest first.
func (a *App) ListNotifications(user domain.User) ([]domain.Notification, error) {
	return a.store.ListNotificationsByUser(user.ID)
}

// MarkNotificationRead flips the read flag on the user's own
// notification. Marking an already-read notification is a no-op.
func (a *App) MarkNotificationRead(user domain.User, notificationID string) (domain.Notification, error) {
	n, ok, err := a.store.GetNotification(notificationID)
	if err != nil {
		return domain.Notification{}, err
	}
	if !ok {
		return domain.Notification{}, ErrNotificationNotFound
	}
	if n.TargetUserID != user.ID {
		return domain.Notification{}, ErrForbidden
	}
	if n.IsRead {
		return n, nil
	}
	n.IsRead = true
	if err := a.store.SaveNotification(n); err != nil {
		return domain.Notification{}, err
	}
	return n, nil
}
