package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"repowatch/internal/model"
)

// Subscriptions are always read joined with their repository; the poller and
// the notification invariant both need the repository's activity timestamps.
const subscriptionSelect = `
	SELECT s.id, s.email, s.repository_id, s.subscribed_at,
	       s.notifications_enabled, s.last_notification_at,
	       r.id, r.owner, r.name, r.last_checked_at, r.last_activity_at, r.activity_count
	FROM subscriptions s
	JOIN repositories r ON r.id = s.repository_id`

func scanSubscription(row pgx.Row) (model.Subscription, error) {
	var s model.Subscription
	err := row.Scan(
		&s.ID, &s.Email, &s.RepositoryID, &s.SubscribedAt,
		&s.NotificationsEnabled, &s.LastNotificationAt,
		&s.Repository.ID, &s.Repository.Owner, &s.Repository.Name,
		&s.Repository.LastCheckedAt, &s.Repository.LastActivityAt, &s.Repository.ActivityCount,
	)
	return s, err
}

// CreateSubscription inserts a new subscription and fills in its ID. Returns
// ErrDuplicate if the (email, repository) pair is already subscribed.
func (db *DB) CreateSubscription(ctx context.Context, sub *model.Subscription) error {
	err := db.pool.QueryRow(ctx,
		`INSERT INTO subscriptions (email, repository_id, subscribed_at, notifications_enabled)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		sub.Email, sub.RepositoryID, sub.SubscribedAt, sub.NotificationsEnabled,
	).Scan(&sub.ID)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (db *DB) GetSubscription(ctx context.Context, email string, repositoryID int64) (model.Subscription, error) {
	return scanSubscription(db.pool.QueryRow(ctx,
		subscriptionSelect+` WHERE s.email = $1 AND s.repository_id = $2`,
		email, repositoryID))
}

// DeleteSubscription removes the subscription and reports whether one existed.
func (db *DB) DeleteSubscription(ctx context.Context, email string, repositoryID int64) (bool, error) {
	tag, err := db.pool.Exec(ctx,
		`DELETE FROM subscriptions WHERE email = $1 AND repository_id = $2`,
		email, repositoryID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (db *DB) UpdateSubscriptionNotifications(ctx context.Context, id int64, enabled bool, lastNotificationAt *time.Time) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE subscriptions
		 SET notifications_enabled = $2, last_notification_at = $3
		 WHERE id = $1`,
		id, enabled, lastNotificationAt)
	return err
}

func (db *DB) MarkSubscriptionNotified(ctx context.Context, id int64, at time.Time) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE subscriptions SET last_notification_at = $2 WHERE id = $1`,
		id, at)
	return err
}

func (db *DB) ListSubscriptionsByEmail(ctx context.Context, email string) ([]model.Subscription, error) {
	return db.listSubscriptions(ctx,
		subscriptionSelect+` WHERE s.email = $1 ORDER BY s.subscribed_at DESC`, email)
}

func (db *DB) ListSubscriptionsByRepository(ctx context.Context, repositoryID int64) ([]model.Subscription, error) {
	return db.listSubscriptions(ctx,
		subscriptionSelect+` WHERE s.repository_id = $1 ORDER BY s.subscribed_at DESC`, repositoryID)
}

func (db *DB) ListEnabledSubscriptions(ctx context.Context) ([]model.Subscription, error) {
	return db.listSubscriptions(ctx,
		subscriptionSelect+` WHERE s.notifications_enabled ORDER BY s.id`)
}

func (db *DB) listSubscriptions(ctx context.Context, query string, args ...any) ([]model.Subscription, error) {
	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []model.Subscription
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}
