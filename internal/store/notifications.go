package store

import (
	"context"

	"github.com/jackc/pgx/v5"

	"repowatch/internal/model"
)

func (db *DB) CreateNotification(ctx context.Context, n *model.Notification) error {
	return db.pool.QueryRow(ctx,
		`INSERT INTO notifications (email, repository_id, message)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		n.Email, n.RepositoryID, n.Message,
	).Scan(&n.ID, &n.CreatedAt)
}

// ListNotifications returns one page of the user's notifications, newest
// first, along with the total count across all pages.
func (db *DB) ListNotifications(ctx context.Context, email string, limit, offset int) ([]model.Notification, int64, error) {
	var total int64
	if err := db.pool.QueryRow(ctx,
		`SELECT count(*) FROM notifications WHERE email = $1`, email,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := db.pool.Query(ctx,
		`SELECT id, email, repository_id, message, read, created_at
		 FROM notifications
		 WHERE email = $1
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`,
		email, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	notifs, err := scanNotifications(rows)
	return notifs, total, err
}

func (db *DB) ListUnreadNotifications(ctx context.Context, email string) ([]model.Notification, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, email, repository_id, message, read, created_at
		 FROM notifications
		 WHERE email = $1 AND NOT read
		 ORDER BY created_at DESC`,
		email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanNotifications(rows)
}

// MarkNotificationRead flips the read flag and reports whether a notification
// with that id belongs to the given email.
func (db *DB) MarkNotificationRead(ctx context.Context, id int64, email string) (bool, error) {
	tag, err := db.pool.Exec(ctx,
		`UPDATE notifications SET read = true WHERE id = $1 AND email = $2`,
		id, email)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (db *DB) MarkAllNotificationsRead(ctx context.Context, email string) (int64, error) {
	tag, err := db.pool.Exec(ctx,
		`UPDATE notifications SET read = true WHERE email = $1 AND NOT read`,
		email)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (db *DB) DeleteNotificationsByEmail(ctx context.Context, email string) (int64, error) {
	tag, err := db.pool.Exec(ctx,
		`DELETE FROM notifications WHERE email = $1`, email)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanNotifications(rows pgx.Rows) ([]model.Notification, error) {
	var notifs []model.Notification
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.Email, &n.RepositoryID, &n.Message, &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		notifs = append(notifs, n)
	}
	return notifs, rows.Err()
}
