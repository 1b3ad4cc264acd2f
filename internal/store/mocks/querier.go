// Package mocks provides a testify mock of store.Querier for service and
// poller tests.
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"repowatch/internal/model"
)

// Querier is a mock of the store.Querier interface.
type Querier struct {
	mock.Mock
}

func (m *Querier) CreateEmailSubmission(ctx context.Context, sub *model.EmailSubmission) error {
	args := m.Called(ctx, sub)
	return args.Error(0)
}

func (m *Querier) ListEmailSubmissions(ctx context.Context) ([]model.EmailSubmission, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.EmailSubmission), args.Error(1)
}

func (m *Querier) CountEmailSubmissions(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *Querier) GetRepositoryByOwnerAndName(ctx context.Context, owner, name string) (model.Repository, error) {
	args := m.Called(ctx, owner, name)
	return args.Get(0).(model.Repository), args.Error(1)
}

func (m *Querier) CreateRepository(ctx context.Context, owner, name string, checkedAt time.Time) (model.Repository, error) {
	args := m.Called(ctx, owner, name, checkedAt)
	return args.Get(0).(model.Repository), args.Error(1)
}

func (m *Querier) UpdateRepositoryChecked(ctx context.Context, id int64, checkedAt time.Time) error {
	args := m.Called(ctx, id, checkedAt)
	return args.Error(0)
}

func (m *Querier) UpdateRepositoryActivity(ctx context.Context, id int64, activityAt time.Time) error {
	args := m.Called(ctx, id, activityAt)
	return args.Error(0)
}

func (m *Querier) ListRepositoriesCheckedBefore(ctx context.Context, before time.Time) ([]model.Repository, error) {
	args := m.Called(ctx, before)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Repository), args.Error(1)
}

func (m *Querier) CreateSubscription(ctx context.Context, sub *model.Subscription) error {
	args := m.Called(ctx, sub)
	return args.Error(0)
}

func (m *Querier) GetSubscription(ctx context.Context, email string, repositoryID int64) (model.Subscription, error) {
	args := m.Called(ctx, email, repositoryID)
	return args.Get(0).(model.Subscription), args.Error(1)
}

func (m *Querier) DeleteSubscription(ctx context.Context, email string, repositoryID int64) (bool, error) {
	args := m.Called(ctx, email, repositoryID)
	return args.Bool(0), args.Error(1)
}

func (m *Querier) UpdateSubscriptionNotifications(ctx context.Context, id int64, enabled bool, lastNotificationAt *time.Time) error {
	args := m.Called(ctx, id, enabled, lastNotificationAt)
	return args.Error(0)
}

func (m *Querier) MarkSubscriptionNotified(ctx context.Context, id int64, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *Querier) ListSubscriptionsByEmail(ctx context.Context, email string) ([]model.Subscription, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Subscription), args.Error(1)
}

func (m *Querier) ListSubscriptionsByRepository(ctx context.Context, repositoryID int64) ([]model.Subscription, error) {
	args := m.Called(ctx, repositoryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Subscription), args.Error(1)
}

func (m *Querier) ListEnabledSubscriptions(ctx context.Context) ([]model.Subscription, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Subscription), args.Error(1)
}

func (m *Querier) CreateNotification(ctx context.Context, n *model.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *Querier) ListNotifications(ctx context.Context, email string, limit, offset int) ([]model.Notification, int64, error) {
	args := m.Called(ctx, email, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]model.Notification), args.Get(1).(int64), args.Error(2)
}

func (m *Querier) ListUnreadNotifications(ctx context.Context, email string) ([]model.Notification, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Notification), args.Error(1)
}

func (m *Querier) MarkNotificationRead(ctx context.Context, id int64, email string) (bool, error) {
	args := m.Called(ctx, id, email)
	return args.Bool(0), args.Error(1)
}

func (m *Querier) MarkAllNotificationsRead(ctx context.Context, email string) (int64, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(int64), args.Error(1)
}

func (m *Querier) DeleteNotificationsByEmail(ctx context.Context, email string) (int64, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(int64), args.Error(1)
}
