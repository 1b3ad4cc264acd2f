package store

import (
	"context"
	"time"

	"repowatch/internal/model"
)

const repositoryColumns = `id, owner, name, last_checked_at, last_activity_at, activity_count`

func (db *DB) GetRepositoryByOwnerAndName(ctx context.Context, owner, name string) (model.Repository, error) {
	var r model.Repository
	err := db.pool.QueryRow(ctx,
		`SELECT `+repositoryColumns+` FROM repositories WHERE owner = $1 AND name = $2`,
		owner, name,
	).Scan(&r.ID, &r.Owner, &r.Name, &r.LastCheckedAt, &r.LastActivityAt, &r.ActivityCount)
	return r, err
}

// CreateRepository inserts a new tracked repository. Returns ErrDuplicate if
// another writer created the same (owner, name) pair first.
func (db *DB) CreateRepository(ctx context.Context, owner, name string, checkedAt time.Time) (model.Repository, error) {
	r := model.Repository{Owner: owner, Name: name, LastCheckedAt: checkedAt}
	err := db.pool.QueryRow(ctx,
		`INSERT INTO repositories (owner, name, last_checked_at)
		 VALUES ($1, $2, $3)
		 RETURNING id`,
		owner, name, checkedAt,
	).Scan(&r.ID)
	if isUniqueViolation(err) {
		return model.Repository{}, ErrDuplicate
	}
	return r, err
}

func (db *DB) UpdateRepositoryChecked(ctx context.Context, id int64, checkedAt time.Time) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE repositories SET last_checked_at = $2 WHERE id = $1`,
		id, checkedAt)
	return err
}

// UpdateRepositoryActivity records that new activity was observed: the
// last-activity timestamp advances and the running counter increments.
func (db *DB) UpdateRepositoryActivity(ctx context.Context, id int64, activityAt time.Time) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE repositories
		 SET last_activity_at = $2, activity_count = activity_count + 1
		 WHERE id = $1`,
		id, activityAt)
	return err
}

func (db *DB) ListRepositoriesCheckedBefore(ctx context.Context, before time.Time) ([]model.Repository, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+repositoryColumns+` FROM repositories WHERE last_checked_at < $1`,
		before)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var repos []model.Repository
	for rows.Next() {
		var r model.Repository
		if err := rows.Scan(&r.ID, &r.Owner, &r.Name, &r.LastCheckedAt, &r.LastActivityAt, &r.ActivityCount); err != nil {
			return nil, err
		}
		repos = append(repos, r)
	}
	return repos, rows.Err()
}
