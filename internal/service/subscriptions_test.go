package service

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"repowatch/internal/apperrors"
	"repowatch/internal/model"
	"repowatch/internal/store"
	"repowatch/internal/store/mocks"
)

func newSubscriptionsService(db *mocks.Querier, gh *mockFetcher) *Subscriptions {
	logger := testLogger()
	return NewSubscriptions(db, NewRegistry(db, gh, logger), logger)
}

func TestSubscriptions_Subscribe(t *testing.T) {
	ctx := context.Background()
	repo := model.Repository{ID: 7, Owner: "octocat", Name: "hello-world"}

	t.Run("creates a subscription with notifications enabled", func(t *testing.T) {
		db := new(mocks.Querier)
		gh := new(mockFetcher)
		svc := newSubscriptionsService(db, gh)

		db.On("GetRepositoryByOwnerAndName", ctx, "octocat", "hello-world").Return(repo, nil).Once()
		db.On("CreateSubscription", ctx, mock.AnythingOfType("*model.Subscription")).
			Run(func(args mock.Arguments) {
				args.Get(1).(*model.Subscription).ID = 42
			}).
			Return(nil).Once()

		sub, err := svc.Subscribe(ctx, "user@example.com", "octocat", "hello-world")
		require.NoError(t, err)
		assert.Equal(t, int64(42), sub.ID)
		assert.Equal(t, repo.ID, sub.RepositoryID)
		assert.True(t, sub.NotificationsEnabled)
		assert.Nil(t, sub.LastNotificationAt)
		db.AssertExpectations(t)
	})

	t.Run("rejects an invalid email before touching the database", func(t *testing.T) {
		db := new(mocks.Querier)
		gh := new(mockFetcher)
		svc := newSubscriptionsService(db, gh)

		_, err := svc.Subscribe(ctx, "not-an-email", "octocat", "hello-world")
		var validationErr *apperrors.ValidationError
		require.ErrorAs(t, err, &validationErr)
		db.AssertNotCalled(t, "GetRepositoryByOwnerAndName")
	})

	t.Run("subscribing twice is a conflict", func(t *testing.T) {
		db := new(mocks.Querier)
		gh := new(mockFetcher)
		svc := newSubscriptionsService(db, gh)

		db.On("GetRepositoryByOwnerAndName", ctx, "octocat", "hello-world").Return(repo, nil).Once()
		db.On("CreateSubscription", ctx, mock.AnythingOfType("*model.Subscription")).Return(store.ErrDuplicate).Once()

		_, err := svc.Subscribe(ctx, "user@example.com", "octocat", "hello-world")
		var subErr *apperrors.SubscriptionError
		require.ErrorAs(t, err, &subErr)
		assert.False(t, subErr.NotFound)
	})

	t.Run("unknown repository is a validation error", func(t *testing.T) {
		db := new(mocks.Querier)
		gh := new(mockFetcher)
		svc := newSubscriptionsService(db, gh)

		db.On("GetRepositoryByOwnerAndName", ctx, "octocat", "nope").Return(model.Repository{}, pgx.ErrNoRows).Once()
		gh.On("ValidateRepository", ctx, "octocat", "nope").Return(false, nil).Once()

		_, err := svc.Subscribe(ctx, "user@example.com", "octocat", "nope")
		var validationErr *apperrors.ValidationError
		require.ErrorAs(t, err, &validationErr)
		db.AssertNotCalled(t, "CreateSubscription")
	})
}

func TestSubscriptions_Unsubscribe(t *testing.T) {
	ctx := context.Background()
	repo := model.Repository{ID: 7, Owner: "octocat", Name: "hello-world"}

	t.Run("deletes an existing subscription", func(t *testing.T) {
		db := new(mocks.Querier)
		svc := newSubscriptionsService(db, new(mockFetcher))

		db.On("GetRepositoryByOwnerAndName", ctx, "octocat", "hello-world").Return(repo, nil).Once()
		db.On("DeleteSubscription", ctx, "user@example.com", int64(7)).Return(true, nil).Once()

		require.NoError(t, svc.Unsubscribe(ctx, "user@example.com", "octocat", "hello-world"))
		db.AssertExpectations(t)
	})

	t.Run("never creates the repository on the way out", func(t *testing.T) {
		db := new(mocks.Querier)
		gh := new(mockFetcher)
		svc := newSubscriptionsService(db, gh)

		db.On("GetRepositoryByOwnerAndName", ctx, "octocat", "untracked").Return(model.Repository{}, pgx.ErrNoRows).Once()

		err := svc.Unsubscribe(ctx, "user@example.com", "octocat", "untracked")
		var subErr *apperrors.SubscriptionError
		require.ErrorAs(t, err, &subErr)
		assert.True(t, subErr.NotFound)
		gh.AssertNotCalled(t, "ValidateRepository")
		db.AssertNotCalled(t, "CreateRepository")
	})

	t.Run("not subscribed", func(t *testing.T) {
		db := new(mocks.Querier)
		svc := newSubscriptionsService(db, new(mockFetcher))

		db.On("GetRepositoryByOwnerAndName", ctx, "octocat", "hello-world").Return(repo, nil).Once()
		db.On("DeleteSubscription", ctx, "user@example.com", int64(7)).Return(false, nil).Once()

		err := svc.Unsubscribe(ctx, "user@example.com", "octocat", "hello-world")
		var subErr *apperrors.SubscriptionError
		require.ErrorAs(t, err, &subErr)
		assert.True(t, subErr.NotFound)
	})
}

func TestSubscriptions_UpdateNotificationStatus(t *testing.T) {
	ctx := context.Background()
	repo := model.Repository{ID: 7, Owner: "octocat", Name: "hello-world"}
	notifiedAt := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

	t.Run("enabling clears the last-notified timestamp", func(t *testing.T) {
		db := new(mocks.Querier)
		svc := newSubscriptionsService(db, new(mockFetcher))
		existing := model.Subscription{
			ID: 42, Email: "user@example.com", RepositoryID: 7, Repository: repo,
			NotificationsEnabled: false, LastNotificationAt: &notifiedAt,
		}

		db.On("GetRepositoryByOwnerAndName", ctx, "octocat", "hello-world").Return(repo, nil).Once()
		db.On("GetSubscription", ctx, "user@example.com", int64(7)).Return(existing, nil).Once()
		db.On("UpdateSubscriptionNotifications", ctx, int64(42), true, (*time.Time)(nil)).Return(nil).Once()

		sub, err := svc.UpdateNotificationStatus(ctx, "user@example.com", "octocat", "hello-world", true)
		require.NoError(t, err)
		assert.True(t, sub.NotificationsEnabled)
		assert.Nil(t, sub.LastNotificationAt)
		db.AssertExpectations(t)
	})

	t.Run("disabling keeps the last-notified timestamp", func(t *testing.T) {
		db := new(mocks.Querier)
		svc := newSubscriptionsService(db, new(mockFetcher))
		existing := model.Subscription{
			ID: 42, Email: "user@example.com", RepositoryID: 7, Repository: repo,
			NotificationsEnabled: true, LastNotificationAt: &notifiedAt,
		}

		db.On("GetRepositoryByOwnerAndName", ctx, "octocat", "hello-world").Return(repo, nil).Once()
		db.On("GetSubscription", ctx, "user@example.com", int64(7)).Return(existing, nil).Once()
		db.On("UpdateSubscriptionNotifications", ctx, int64(42), false, &notifiedAt).Return(nil).Once()

		sub, err := svc.UpdateNotificationStatus(ctx, "user@example.com", "octocat", "hello-world", false)
		require.NoError(t, err)
		assert.False(t, sub.NotificationsEnabled)
		require.NotNil(t, sub.LastNotificationAt)
		assert.Equal(t, notifiedAt, *sub.LastNotificationAt)
	})

	t.Run("no subscription to update", func(t *testing.T) {
		db := new(mocks.Querier)
		svc := newSubscriptionsService(db, new(mockFetcher))

		db.On("GetRepositoryByOwnerAndName", ctx, "octocat", "hello-world").Return(repo, nil).Once()
		db.On("GetSubscription", ctx, "user@example.com", int64(7)).Return(model.Subscription{}, pgx.ErrNoRows).Once()

		_, err := svc.UpdateNotificationStatus(ctx, "user@example.com", "octocat", "hello-world", true)
		var subErr *apperrors.SubscriptionError
		require.ErrorAs(t, err, &subErr)
		assert.True(t, subErr.NotFound)
	})
}

func TestSubscriptions_ListForRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("untracked repository has no subscribers", func(t *testing.T) {
		db := new(mocks.Querier)
		svc := newSubscriptionsService(db, new(mockFetcher))

		db.On("GetRepositoryByOwnerAndName", ctx, "octocat", "untracked").Return(model.Repository{}, pgx.ErrNoRows).Once()

		subs, err := svc.ListForRepository(ctx, "octocat", "untracked")
		require.NoError(t, err)
		assert.Empty(t, subs)
	})
}
