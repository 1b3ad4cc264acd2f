package service

import (
	"context"
	"log/slog"
	"time"

	"repowatch/internal/model"
	"repowatch/internal/store"
	"repowatch/internal/validate"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// NotificationPage is one page of a user's notifications.
type NotificationPage struct {
	Notifications []model.Notification `json:"notifications"`
	Page          int                  `json:"page"`
	Size          int                  `json:"size"`
	Total         int64                `json:"total"`
}

// Notifications creates and manages in-app notifications.
type Notifications struct {
	db     store.Querier
	logger *slog.Logger
}

// NewNotifications creates the notification service.
func NewNotifications(db store.Querier, logger *slog.Logger) *Notifications {
	return &Notifications{db: db, logger: logger}
}

// Create persists a notification for the subscription and then marks the
// subscription as notified, in that order, so a crash in between leaves an
// extra notification instead of a silently skipped one.
func (n *Notifications) Create(ctx context.Context, sub model.Subscription, message string) (model.Notification, error) {
	notif := model.Notification{
		Email:        sub.Email,
		RepositoryID: sub.RepositoryID,
		Message:      message,
	}
	if err := n.db.CreateNotification(ctx, &notif); err != nil {
		return model.Notification{}, err
	}

	if err := n.db.MarkSubscriptionNotified(ctx, sub.ID, time.Now()); err != nil {
		return model.Notification{}, err
	}

	n.logger.Info("Notification created",
		"id", notif.ID, "email", sub.Email, "repository", sub.Repository.FullName())
	return notif, nil
}

// List returns one page of the user's notifications, newest first.
func (n *Notifications) List(ctx context.Context, email string, page, size int) (NotificationPage, error) {
	if err := validate.Email(email); err != nil {
		return NotificationPage{}, err
	}
	if page < 0 {
		page = 0
	}
	if size < 1 || size > maxPageSize {
		size = defaultPageSize
	}

	notifs, total, err := n.db.ListNotifications(ctx, email, size, page*size)
	if err != nil {
		return NotificationPage{}, err
	}
	return NotificationPage{Notifications: notifs, Page: page, Size: size, Total: total}, nil
}

// Unread returns the user's unread notifications, newest first.
func (n *Notifications) Unread(ctx context.Context, email string) ([]model.Notification, error) {
	if err := validate.Email(email); err != nil {
		return nil, err
	}
	return n.db.ListUnreadNotifications(ctx, email)
}

// MarkRead marks one notification as read, scoped to the caller's email.
// Reports false when no matching notification exists.
func (n *Notifications) MarkRead(ctx context.Context, id int64, email string) (bool, error) {
	if err := validate.Email(email); err != nil {
		return false, err
	}
	return n.db.MarkNotificationRead(ctx, id, email)
}

// MarkAllRead marks all of the user's notifications as read and returns how
// many were flipped.
func (n *Notifications) MarkAllRead(ctx context.Context, email string) (int64, error) {
	if err := validate.Email(email); err != nil {
		return 0, err
	}
	return n.db.MarkAllNotificationsRead(ctx, email)
}

// ClearAll deletes all of the user's notifications.
func (n *Notifications) ClearAll(ctx context.Context, email string) error {
	if err := validate.Email(email); err != nil {
		return err
	}
	deleted, err := n.db.DeleteNotificationsByEmail(ctx, email)
	if err != nil {
		return err
	}
	n.logger.Info("Notifications cleared", "email", email, "count", deleted)
	return nil
}
