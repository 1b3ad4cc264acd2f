// Package store implements the persistence layer on pgx. All uniqueness
// guarantees (one submission per email, one subscription per email and
// repository, one repository per owner and name) are enforced by database
// constraints, not application checks, so concurrent writers cannot race
// duplicates in.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"repowatch/internal/model"
)

// ErrDuplicate is returned when an insert violates a unique constraint.
var ErrDuplicate = errors.New("duplicate row")

const uniqueViolationCode = "23505"

// Querier is the set of storage operations the services depend on.
// Not-found reads surface pgx.ErrNoRows.
type Querier interface {
	// Email submissions
	CreateEmailSubmission(ctx context.Context, sub *model.EmailSubmission) error
	ListEmailSubmissions(ctx context.Context) ([]model.EmailSubmission, error)
	CountEmailSubmissions(ctx context.Context) (int64, error)

	// Repositories
	GetRepositoryByOwnerAndName(ctx context.Context, owner, name string) (model.Repository, error)
	CreateRepository(ctx context.Context, owner, name string, checkedAt time.Time) (model.Repository, error)
	UpdateRepositoryChecked(ctx context.Context, id int64, checkedAt time.Time) error
	UpdateRepositoryActivity(ctx context.Context, id int64, activityAt time.Time) error
	ListRepositoriesCheckedBefore(ctx context.Context, before time.Time) ([]model.Repository, error)

	// Subscriptions
	CreateSubscription(ctx context.Context, sub *model.Subscription) error
	GetSubscription(ctx context.Context, email string, repositoryID int64) (model.Subscription, error)
	DeleteSubscription(ctx context.Context, email string, repositoryID int64) (bool, error)
	UpdateSubscriptionNotifications(ctx context.Context, id int64, enabled bool, lastNotificationAt *time.Time) error
	MarkSubscriptionNotified(ctx context.Context, id int64, at time.Time) error
	ListSubscriptionsByEmail(ctx context.Context, email string) ([]model.Subscription, error)
	ListSubscriptionsByRepository(ctx context.Context, repositoryID int64) ([]model.Subscription, error)
	ListEnabledSubscriptions(ctx context.Context) ([]model.Subscription, error)

	// Notifications
	CreateNotification(ctx context.Context, n *model.Notification) error
	ListNotifications(ctx context.Context, email string, limit, offset int) ([]model.Notification, int64, error)
	ListUnreadNotifications(ctx context.Context, email string) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, id int64, email string) (bool, error)
	MarkAllNotificationsRead(ctx context.Context, email string) (int64, error)
	DeleteNotificationsByEmail(ctx context.Context, email string) (int64, error)
}

// DB is the pgx-backed implementation of Querier.
type DB struct {
	pool *pgxpool.Pool
}

// New creates a DB bound to the given connection pool.
func New(pool *pgxpool.Pool) *DB {
	return &DB{pool: pool}
}

var _ Querier = (*DB)(nil)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}
