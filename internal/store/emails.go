package store

import (
	"context"

	"repowatch/internal/model"
)

// CreateEmailSubmission inserts a new submission and fills in its ID and
// creation time. Returns ErrDuplicate if the email is already registered.
func (db *DB) CreateEmailSubmission(ctx context.Context, sub *model.EmailSubmission) error {
	err := db.pool.QueryRow(ctx,
		`INSERT INTO email_submissions (email, ip_address, source)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		sub.Email, sub.IPAddress, sub.Source,
	).Scan(&sub.ID, &sub.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (db *DB) ListEmailSubmissions(ctx context.Context) ([]model.EmailSubmission, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, email, ip_address, source, created_at
		 FROM email_submissions
		 ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []model.EmailSubmission
	for rows.Next() {
		var s model.EmailSubmission
		if err := rows.Scan(&s.ID, &s.Email, &s.IPAddress, &s.Source, &s.CreatedAt); err != nil {
			return nil, err
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

func (db *DB) CountEmailSubmissions(ctx context.Context) (int64, error) {
	var n int64
	err := db.pool.QueryRow(ctx, `SELECT count(*) FROM email_submissions`).Scan(&n)
	return n, err
}
