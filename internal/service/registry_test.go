package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
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

// mockFetcher is a mock implementation of the ActivityFetcher interface.
type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) FetchActivities(ctx context.Context, owner, repo string, limit int) ([]model.Activity, error) {
	args := m.Called(ctx, owner, repo, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Activity), args.Error(1)
}

func (m *mockFetcher) ValidateRepository(ctx context.Context, owner, repo string) (bool, error) {
	args := m.Called(ctx, owner, repo)
	return args.Bool(0), args.Error(1)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func activitiesAt(times ...time.Time) []model.Activity {
	activities := make([]model.Activity, len(times))
	for i, ts := range times {
		activities[i] = model.Activity{Type: model.ActivityCommit, CreatedAt: ts}
	}
	return activities
}

func TestRegistry_GetOrCreate(t *testing.T) {
	ctx := context.Background()
	existing := model.Repository{ID: 1, Owner: "octocat", Name: "hello-world"}

	t.Run("returns an existing repository without touching GitHub", func(t *testing.T) {
		db := new(mocks.Querier)
		gh := new(mockFetcher)
		registry := NewRegistry(db, gh, testLogger())

		db.On("GetRepositoryByOwnerAndName", ctx, "octocat", "hello-world").Return(existing, nil).Once()

		repo, err := registry.GetOrCreate(ctx, "octocat", "hello-world")
		require.NoError(t, err)
		assert.Equal(t, existing, repo)
		db.AssertExpectations(t)
		gh.AssertNotCalled(t, "ValidateRepository")
	})

	t.Run("validates and creates on first sight", func(t *testing.T) {
		db := new(mocks.Querier)
		gh := new(mockFetcher)
		registry := NewRegistry(db, gh, testLogger())

		db.On("GetRepositoryByOwnerAndName", ctx, "octocat", "hello-world").Return(model.Repository{}, pgx.ErrNoRows).Once()
		gh.On("ValidateRepository", ctx, "octocat", "hello-world").Return(true, nil).Once()
		db.On("CreateRepository", ctx, "octocat", "hello-world", mock.AnythingOfType("time.Time")).Return(existing, nil).Once()

		repo, err := registry.GetOrCreate(ctx, "octocat", "hello-world")
		require.NoError(t, err)
		assert.Equal(t, existing, repo)
		db.AssertExpectations(t)
		gh.AssertExpectations(t)
	})

	t.Run("rejects a repository GitHub does not know", func(t *testing.T) {
		db := new(mocks.Querier)
		gh := new(mockFetcher)
		registry := NewRegistry(db, gh, testLogger())

		db.On("GetRepositoryByOwnerAndName", ctx, "octocat", "nope").Return(model.Repository{}, pgx.ErrNoRows).Once()
		gh.On("ValidateRepository", ctx, "octocat", "nope").Return(false, nil).Once()

		_, err := registry.GetOrCreate(ctx, "octocat", "nope")
		var validationErr *apperrors.ValidationError
		require.ErrorAs(t, err, &validationErr)
		db.AssertNotCalled(t, "CreateRepository")
	})

	t.Run("tolerates a lost insert race by re-reading", func(t *testing.T) {
		db := new(mocks.Querier)
		gh := new(mockFetcher)
		registry := NewRegistry(db, gh, testLogger())

		db.On("GetRepositoryByOwnerAndName", ctx, "octocat", "hello-world").Return(model.Repository{}, pgx.ErrNoRows).Once()
		gh.On("ValidateRepository", ctx, "octocat", "hello-world").Return(true, nil).Once()
		db.On("CreateRepository", ctx, "octocat", "hello-world", mock.AnythingOfType("time.Time")).Return(model.Repository{}, store.ErrDuplicate).Once()
		db.On("GetRepositoryByOwnerAndName", ctx, "octocat", "hello-world").Return(existing, nil).Once()

		repo, err := registry.GetOrCreate(ctx, "octocat", "hello-world")
		require.NoError(t, err)
		assert.Equal(t, existing, repo)
		db.AssertExpectations(t)
	})
}

func TestRegistry_CheckForNewActivity(t *testing.T) {
	ctx := context.Background()
	latest := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

	t.Run("first check records activity", func(t *testing.T) {
		db := new(mocks.Querier)
		gh := new(mockFetcher)
		registry := NewRegistry(db, gh, testLogger())
		repo := model.Repository{ID: 1, Owner: "octocat", Name: "hello-world"}

		db.On("UpdateRepositoryChecked", ctx, int64(1), mock.AnythingOfType("time.Time")).Return(nil).Once()
		gh.On("FetchActivities", ctx, "octocat", "hello-world", 10).Return(activitiesAt(latest), nil).Once()
		db.On("UpdateRepositoryActivity", ctx, int64(1), latest).Return(nil).Once()

		hasNew, err := registry.CheckForNewActivity(ctx, &repo, 10)
		require.NoError(t, err)
		assert.True(t, hasNew)
		require.NotNil(t, repo.LastActivityAt)
		assert.Equal(t, latest, *repo.LastActivityAt)
		assert.Equal(t, 1, repo.ActivityCount)
		db.AssertExpectations(t)
	})

	t.Run("repeated check with unchanged upstream is idempotent", func(t *testing.T) {
		db := new(mocks.Querier)
		gh := new(mockFetcher)
		registry := NewRegistry(db, gh, testLogger())
		repo := model.Repository{ID: 1, Owner: "octocat", Name: "hello-world", LastActivityAt: &latest, ActivityCount: 1}

		db.On("UpdateRepositoryChecked", ctx, int64(1), mock.AnythingOfType("time.Time")).Return(nil).Twice()
		gh.On("FetchActivities", ctx, "octocat", "hello-world", 10).Return(activitiesAt(latest), nil).Twice()

		for i := 0; i < 2; i++ {
			hasNew, err := registry.CheckForNewActivity(ctx, &repo, 10)
			require.NoError(t, err)
			assert.False(t, hasNew)
		}
		assert.Equal(t, 1, repo.ActivityCount)
		db.AssertNotCalled(t, "UpdateRepositoryActivity")
	})

	t.Run("no activities at all", func(t *testing.T) {
		db := new(mocks.Querier)
		gh := new(mockFetcher)
		registry := NewRegistry(db, gh, testLogger())
		repo := model.Repository{ID: 1, Owner: "octocat", Name: "hello-world"}

		db.On("UpdateRepositoryChecked", ctx, int64(1), mock.AnythingOfType("time.Time")).Return(nil).Once()
		gh.On("FetchActivities", ctx, "octocat", "hello-world", 10).Return([]model.Activity{}, nil).Once()

		hasNew, err := registry.CheckForNewActivity(ctx, &repo, 10)
		require.NoError(t, err)
		assert.False(t, hasNew)
	})

	t.Run("stale repositories are listed by cutoff", func(t *testing.T) {
		db := new(mocks.Querier)
		registry := NewRegistry(db, new(mockFetcher), testLogger())
		stale := []model.Repository{{ID: 1, Owner: "octocat", Name: "hello-world"}}

		db.On("ListRepositoriesCheckedBefore", ctx, mock.AnythingOfType("time.Time")).Return(stale, nil).Once()

		got, err := registry.ListStale(ctx, time.Hour)
		require.NoError(t, err)
		assert.Equal(t, stale, got)
	})

	t.Run("last-checked advances even when the fetch fails", func(t *testing.T) {
		db := new(mocks.Querier)
		gh := new(mockFetcher)
		registry := NewRegistry(db, gh, testLogger())
		repo := model.Repository{ID: 1, Owner: "octocat", Name: "hello-world"}

		db.On("UpdateRepositoryChecked", ctx, int64(1), mock.AnythingOfType("time.Time")).Return(nil).Once()
		gh.On("FetchActivities", ctx, "octocat", "hello-world", 10).Return(nil, errors.New("rate limited")).Once()

		_, err := registry.CheckForNewActivity(ctx, &repo, 10)
		require.Error(t, err)
		db.AssertExpectations(t)
	})
}
