package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"repowatch/internal/apperrors"
	"repowatch/internal/model"
	"repowatch/internal/store"
	"repowatch/internal/validate"
)

// Subscriptions manages (email, repository) subscription pairs.
type Subscriptions struct {
	db       store.Querier
	registry *Registry
	logger   *slog.Logger
}

// NewSubscriptions creates the subscription service.
func NewSubscriptions(db store.Querier, registry *Registry, logger *slog.Logger) *Subscriptions {
	return &Subscriptions{db: db, registry: registry, logger: logger}
}

// Subscribe creates a subscription for the given email and repository,
// resolving the repository through the registry (which validates it against
// GitHub on first sight). New subscriptions start with notifications enabled.
// Subscribing twice to the same repository is a conflict.
func (s *Subscriptions) Subscribe(ctx context.Context, email, owner, name string) (model.Subscription, error) {
	if err := validate.Email(email); err != nil {
		return model.Subscription{}, err
	}

	repo, err := s.registry.GetOrCreate(ctx, owner, name)
	if err != nil {
		return model.Subscription{}, err
	}

	sub := model.Subscription{
		Email:                email,
		RepositoryID:         repo.ID,
		Repository:           repo,
		SubscribedAt:         time.Now(),
		NotificationsEnabled: true,
	}
	if err := s.db.CreateSubscription(ctx, &sub); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return model.Subscription{}, apperrors.SubscriptionConflictf("already subscribed to %s", repo.FullName())
		}
		return model.Subscription{}, err
	}

	s.logger.Info("User subscribed", "email", email, "repository", repo.FullName())
	return sub, nil
}

// Unsubscribe deletes the subscription. Unlike Subscribe it never creates the
// repository: an unknown repository simply means there is nothing to remove.
func (s *Subscriptions) Unsubscribe(ctx context.Context, email, owner, name string) error {
	if err := validate.Email(email); err != nil {
		return err
	}

	repo, err := s.findRepository(ctx, owner, name)
	if err != nil {
		return err
	}

	deleted, err := s.db.DeleteSubscription(ctx, email, repo.ID)
	if err != nil {
		return err
	}
	if !deleted {
		return apperrors.SubscriptionNotFoundf("not subscribed to %s", repo.FullName())
	}

	s.logger.Info("User unsubscribed", "email", email, "repository", repo.FullName())
	return nil
}

// UpdateNotificationStatus flips the notification preference. Enabling clears
// the last-notified timestamp so the very next activity check can fire a
// notification again.
func (s *Subscriptions) UpdateNotificationStatus(ctx context.Context, email, owner, name string, enabled bool) (model.Subscription, error) {
	if err := validate.Email(email); err != nil {
		return model.Subscription{}, err
	}

	repo, err := s.findRepository(ctx, owner, name)
	if err != nil {
		return model.Subscription{}, err
	}

	sub, err := s.db.GetSubscription(ctx, email, repo.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Subscription{}, apperrors.SubscriptionNotFoundf("no subscription found for %s", repo.FullName())
	}
	if err != nil {
		return model.Subscription{}, err
	}

	sub.NotificationsEnabled = enabled
	if enabled {
		sub.LastNotificationAt = nil
	}
	if err := s.db.UpdateSubscriptionNotifications(ctx, sub.ID, enabled, sub.LastNotificationAt); err != nil {
		return model.Subscription{}, err
	}

	s.logger.Info("Notification status updated",
		"email", email, "repository", repo.FullName(), "enabled", enabled)
	return sub, nil
}

// ListForUser returns all of the user's subscriptions.
func (s *Subscriptions) ListForUser(ctx context.Context, email string) ([]model.Subscription, error) {
	if err := validate.Email(email); err != nil {
		return nil, err
	}
	return s.db.ListSubscriptionsByEmail(ctx, email)
}

// ListForRepository returns all subscriptions on a repository. An untracked
// repository has no subscribers, so it yields an empty list rather than an
// error.
func (s *Subscriptions) ListForRepository(ctx context.Context, owner, name string) ([]model.Subscription, error) {
	repo, err := s.db.GetRepositoryByOwnerAndName(ctx, owner, name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s.db.ListSubscriptionsByRepository(ctx, repo.ID)
}

func (s *Subscriptions) findRepository(ctx context.Context, owner, name string) (model.Repository, error) {
	repo, err := s.db.GetRepositoryByOwnerAndName(ctx, owner, name)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Repository{}, apperrors.SubscriptionNotFoundf("not subscribed to %s/%s", owner, name)
	}
	return repo, err
}
