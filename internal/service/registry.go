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
)

// ActivityFetcher is the slice of the GitHub client the registry needs.
type ActivityFetcher interface {
	FetchActivities(ctx context.Context, owner, repo string, limit int) ([]model.Activity, error)
	ValidateRepository(ctx context.Context, owner, repo string) (bool, error)
}

// Registry manages tracked repositories: validated get-or-create and
// new-activity detection.
type Registry struct {
	db     store.Querier
	gh     ActivityFetcher
	logger *slog.Logger
}

// NewRegistry creates the repository registry.
func NewRegistry(db store.Querier, gh ActivityFetcher, logger *slog.Logger) *Registry {
	return &Registry{db: db, gh: gh, logger: logger}
}

// GetOrCreate looks up a repository by (owner, name), validating it against
// the live GitHub API and inserting it on first sight. A lost insert race is
// tolerated by re-reading the winner's row.
func (r *Registry) GetOrCreate(ctx context.Context, owner, name string) (model.Repository, error) {
	repo, err := r.db.GetRepositoryByOwnerAndName(ctx, owner, name)
	if err == nil {
		return repo, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return model.Repository{}, err
	}

	ok, err := r.gh.ValidateRepository(ctx, owner, name)
	if err != nil {
		return model.Repository{}, err
	}
	if !ok {
		return model.Repository{}, apperrors.Validationf("repository %s/%s does not exist or is not accessible", owner, name)
	}

	r.logger.Info("Tracking new repository", "owner", owner, "name", name)
	repo, err = r.db.CreateRepository(ctx, owner, name, time.Now())
	if errors.Is(err, store.ErrDuplicate) {
		// Another request created it between our lookup and insert.
		return r.db.GetRepositoryByOwnerAndName(ctx, owner, name)
	}
	return repo, err
}

// CheckForNewActivity fetches the repository's latest activities and reports
// whether anything is newer than what was seen before. The last-checked
// timestamp is persisted up front, so it advances even when the fetch fails
// or nothing changed. Repeated checks against unchanged upstream activity
// return false and leave the activity counter alone.
func (r *Registry) CheckForNewActivity(ctx context.Context, repo *model.Repository, limit int) (bool, error) {
	now := time.Now()
	if err := r.db.UpdateRepositoryChecked(ctx, repo.ID, now); err != nil {
		return false, err
	}
	repo.LastCheckedAt = now

	activities, err := r.gh.FetchActivities(ctx, repo.Owner, repo.Name, limit)
	if err != nil {
		return false, err
	}
	if len(activities) == 0 {
		return false, nil
	}

	latest := activities[0].CreatedAt
	if repo.LastActivityAt != nil && !latest.After(*repo.LastActivityAt) {
		return false, nil
	}

	if err := r.db.UpdateRepositoryActivity(ctx, repo.ID, latest); err != nil {
		return false, err
	}
	repo.LastActivityAt = &latest
	repo.ActivityCount++

	r.logger.Info("New activity found", "repository", repo.FullName(), "latest", latest)
	return true, nil
}

// ListStale returns repositories whose last check is older than the given
// interval. Informational; the poller checks all actively subscribed
// repositories every cycle regardless.
func (r *Registry) ListStale(ctx context.Context, olderThan time.Duration) ([]model.Repository, error) {
	return r.db.ListRepositoriesCheckedBefore(ctx, time.Now().Add(-olderThan))
}
