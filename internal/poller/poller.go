// Package poller runs the fixed-interval repository activity check and the
// notification fan-out.
package poller

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"repowatch/internal/model"
	"repowatch/internal/store"
)

const (
	// Number of repositories to check in parallel per cycle.
	concurrency = 5

	// Upper bound for a single repository check, so one slow GitHub call
	// cannot stall the whole cycle.
	checkTimeout = 60 * time.Second
)

// ActivityChecker detects new activity on a repository.
type ActivityChecker interface {
	CheckForNewActivity(ctx context.Context, repo *model.Repository, limit int) (bool, error)
}

// Notifier creates a notification for a subscription.
type Notifier interface {
	Create(ctx context.Context, sub model.Subscription, message string) (model.Notification, error)
}

// Poller periodically checks every repository with notification-enabled
// subscriptions and fans out notifications for new activity.
type Poller struct {
	db            store.Querier
	registry      ActivityChecker
	notifications Notifier
	logger        *slog.Logger
	interval      time.Duration
	activityLimit int

	running atomic.Bool
}

// New creates a Poller.
func New(db store.Querier, registry ActivityChecker, notifications Notifier, logger *slog.Logger, interval time.Duration, activityLimit int) *Poller {
	return &Poller{
		db:            db,
		registry:      registry,
		notifications: notifications,
		logger:        logger,
		interval:      interval,
		activityLimit: activityLimit,
	}
}

// Start runs check cycles until ctx is cancelled. The first cycle runs
// immediately. Cycles never overlap: if a cycle is still running when the
// next tick fires, that tick is skipped.
func (p *Poller) Start(ctx context.Context) {
	p.logger.Info("Starting activity poller",
		"interval", p.interval.String(), "limit", p.activityLimit, "concurrency", concurrency)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.runOnce(ctx)

	for {
		select {
		case <-ticker.C:
			p.runOnce(ctx)
		case <-ctx.Done():
			p.logger.Info("Poller shutting down", "reason", ctx.Err())
			return
		}
	}
}

// runOnce runs a single cycle guarded against overlap.
func (p *Poller) runOnce(ctx context.Context) {
	if !p.running.CompareAndSwap(false, true) {
		p.logger.Warn("Previous check cycle still running, skipping this tick")
		return
	}
	defer p.running.Store(false)

	p.runCycle(ctx)
}

func (p *Poller) runCycle(ctx context.Context) {
	p.logger.Info("Starting repository activity check")

	subs, err := p.db.ListEnabledSubscriptions(ctx)
	if err != nil {
		p.logger.Error("Failed to load subscriptions", "error", err)
		return
	}
	if len(subs) == 0 {
		p.logger.Info("No subscriptions with notifications enabled, skipping check")
		return
	}

	// A repository with N subscribers is checked exactly once per cycle.
	repos := make(map[int64]model.Repository)
	for _, sub := range subs {
		repos[sub.RepositoryID] = sub.Repository
	}
	p.logger.Info("Checking repositories for new activity",
		"subscriptions", len(subs), "repositories", len(repos))

	g := &errgroup.Group{}
	g.SetLimit(concurrency)

	for _, repo := range repos {
		repo := repo
		g.Go(func() error {
			// One repository's failure never aborts the cycle.
			p.checkRepository(ctx, repo, subs)
			return nil
		})
	}
	_ = g.Wait()

	p.logger.Info("Completed repository activity check")
}

func (p *Poller) checkRepository(ctx context.Context, repo model.Repository, subs []model.Subscription) {
	cctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	hasNew, err := p.registry.CheckForNewActivity(cctx, &repo, p.activityLimit)
	if err != nil {
		p.logger.Error("Repository check failed",
			"repository", repo.FullName(), "error", err)
		return
	}
	if !hasNew {
		p.logger.Debug("No new activity", "repository", repo.FullName())
		return
	}

	message := fmt.Sprintf("New activity detected in %s", repo.FullName())
	notified := 0
	for _, sub := range subs {
		if sub.RepositoryID != repo.ID {
			continue
		}
		// Evaluate the invariant against the freshly updated repository
		// state, not the snapshot loaded at cycle start.
		sub.Repository = repo
		if !sub.NeedsNotification() {
			continue
		}
		if _, err := p.notifications.Create(ctx, sub, message); err != nil {
			p.logger.Error("Failed to create notification",
				"email", sub.Email, "repository", repo.FullName(), "error", err)
			continue
		}
		notified++
	}

	p.logger.Info("New activity detected",
		"repository", repo.FullName(), "notified", notified)
}
