// Package github wraps the go-github client and normalizes commits, pull
// requests, issues and releases into model.Activity records.
package github

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"
	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"

	"repowatch/internal/apperrors"
	"repowatch/internal/model"
)

const (
	// Bounds for the per-request activity limit.
	minLimit = 1
	maxLimit = 100
)

// Client is a wrapper around the go-github client.
type Client struct {
	gh     *github.Client
	logger *slog.Logger
}

// NewClient creates and configures a new Client instance. An empty token is
// allowed: the client then connects anonymously, with lower rate limits.
// Secondary rate limit responses are absorbed by a waiting transport instead
// of surfacing as request failures.
func NewClient(token string, logger *slog.Logger) (*Client, error) {
	waiter, err := github_ratelimit.NewRateLimitWaiter(nil)
	if err != nil {
		return nil, err
	}

	var httpClient *http.Client
	if token == "" {
		logger.Warn("No GitHub token configured, connecting anonymously; rate limits will be lower")
		httpClient = &http.Client{Transport: waiter}
	} else {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		httpClient = &http.Client{
			Transport: &oauth2.Transport{
				Base:   waiter,
				Source: ts,
			},
		}
	}

	return &Client{
		gh:     github.NewClient(httpClient),
		logger: logger,
	}, nil
}

// SetBaseURL points the client at a different API endpoint, e.g. a GitHub
// Enterprise installation or a test server.
func (c *Client) SetBaseURL(raw string) error {
	u, err := url.Parse(strings.TrimSuffix(raw, "/") + "/")
	if err != nil {
		return err
	}
	c.gh.BaseURL = u
	return nil
}

// ValidateRepository reports whether the repository exists and is accessible.
// A 404 from GitHub yields (false, nil); connectivity or API failures yield
// an error.
func (c *Client) ValidateRepository(ctx context.Context, owner, repo string) (bool, error) {
	if err := validateParams(owner, repo, minLimit); err != nil {
		return false, err
	}

	_, resp, err := c.gh.Repositories.Get(ctx, owner, repo)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			c.logger.Warn("Repository validation failed", "owner", owner, "repo", repo)
			return false, nil
		}
		return false, apperrors.GitHub("get repository", err)
	}
	return true, nil
}

// FetchActivities returns up to limit activities for the repository, newest
// first. Commits, pull requests, issues and releases are fetched in parallel,
// each independently limited, then merged and stable-sorted by creation time
// descending so equal timestamps keep their relative order.
func (c *Client) FetchActivities(ctx context.Context, owner, repo string, limit int) ([]model.Activity, error) {
	if err := validateParams(owner, repo, limit); err != nil {
		return nil, err
	}

	var commits, prs, issues, releases []model.Activity

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		commits, err = c.fetchCommits(gctx, owner, repo, limit)
		return err
	})
	g.Go(func() error {
		var err error
		prs, err = c.fetchPullRequests(gctx, owner, repo, limit)
		return err
	})
	g.Go(func() error {
		var err error
		issues, err = c.fetchIssues(gctx, owner, repo, limit)
		return err
	})
	g.Go(func() error {
		var err error
		releases, err = c.fetchReleases(gctx, owner, repo, limit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := make([]model.Activity, 0, len(commits)+len(prs)+len(issues)+len(releases))
	merged = append(merged, commits...)
	merged = append(merged, prs...)
	merged = append(merged, issues...)
	merged = append(merged, releases...)

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].CreatedAt.After(merged[j].CreatedAt)
	})
	if len(merged) > limit {
		merged = merged[:limit]
	}
	return merged, nil
}

// FetchCommits returns up to limit commit activities, in GitHub's order
// (newest first).
func (c *Client) FetchCommits(ctx context.Context, owner, repo string, limit int) ([]model.Activity, error) {
	if err := validateParams(owner, repo, limit); err != nil {
		return nil, err
	}
	return c.fetchCommits(ctx, owner, repo, limit)
}

// FetchPullRequests returns up to limit pull request activities, all states.
func (c *Client) FetchPullRequests(ctx context.Context, owner, repo string, limit int) ([]model.Activity, error) {
	if err := validateParams(owner, repo, limit); err != nil {
		return nil, err
	}
	return c.fetchPullRequests(ctx, owner, repo, limit)
}

// FetchIssues returns up to limit issue activities, all states, with pull
// requests filtered out.
func (c *Client) FetchIssues(ctx context.Context, owner, repo string, limit int) ([]model.Activity, error) {
	if err := validateParams(owner, repo, limit); err != nil {
		return nil, err
	}
	return c.fetchIssues(ctx, owner, repo, limit)
}

// FetchReleases returns up to limit release activities.
func (c *Client) FetchReleases(ctx context.Context, owner, repo string, limit int) ([]model.Activity, error) {
	if err := validateParams(owner, repo, limit); err != nil {
		return nil, err
	}
	return c.fetchReleases(ctx, owner, repo, limit)
}

func (c *Client) fetchCommits(ctx context.Context, owner, repo string, limit int) ([]model.Activity, error) {
	opts := &github.CommitsListOptions{
		ListOptions: github.ListOptions{PerPage: limit},
	}
	commits, _, err := c.gh.Repositories.ListCommits(ctx, owner, repo, opts)
	if err != nil {
		return nil, apperrors.GitHub("list commits", err)
	}

	activities := make([]model.Activity, 0, len(commits))
	for _, commit := range commits {
		date := commit.GetCommit().GetAuthor().GetDate().Time
		if date.IsZero() {
			// Cannot order an activity without a timestamp; drop it.
			c.logger.Warn("Dropping commit without a date", "sha", commit.GetSHA())
			continue
		}
		actor := commit.GetAuthor().GetLogin()
		if actor == "" {
			actor = commit.GetCommit().GetAuthor().GetName()
		}
		if actor == "" {
			actor = "unknown"
		}
		activities = append(activities, model.Activity{
			Type:           model.ActivityCommit,
			RepositoryName: repo,
			Actor:          actor,
			Title:          firstLine(commit.GetCommit().GetMessage()),
			URL:            commit.GetHTMLURL(),
			CreatedAt:      date,
		})
	}
	return activities, nil
}

func (c *Client) fetchPullRequests(ctx context.Context, owner, repo string, limit int) ([]model.Activity, error) {
	opts := &github.PullRequestListOptions{
		State:       "all",
		ListOptions: github.ListOptions{PerPage: limit},
	}
	prs, _, err := c.gh.PullRequests.List(ctx, owner, repo, opts)
	if err != nil {
		return nil, apperrors.GitHub("list pull requests", err)
	}

	activities := make([]model.Activity, 0, len(prs))
	for _, pr := range prs {
		created := pr.GetCreatedAt().Time
		if created.IsZero() {
			continue
		}
		actor := pr.GetUser().GetLogin()
		if actor == "" {
			actor = "unknown"
		}
		activities = append(activities, model.Activity{
			Type:           model.ActivityPullRequest,
			RepositoryName: repo,
			Actor:          actor,
			Title:          pr.GetTitle(),
			URL:            pr.GetHTMLURL(),
			CreatedAt:      created,
		})
	}
	return activities, nil
}

func (c *Client) fetchIssues(ctx context.Context, owner, repo string, limit int) ([]model.Activity, error) {
	opts := &github.IssueListByRepoOptions{
		State:       "all",
		ListOptions: github.ListOptions{PerPage: limit},
	}
	issues, _, err := c.gh.Issues.ListByRepo(ctx, owner, repo, opts)
	if err != nil {
		return nil, apperrors.GitHub("list issues", err)
	}

	activities := make([]model.Activity, 0, len(issues))
	for _, issue := range issues {
		// The issues API returns pull requests as well.
		if issue.IsPullRequest() {
			continue
		}
		if len(activities) == limit {
			break
		}
		created := issue.GetCreatedAt().Time
		if created.IsZero() {
			continue
		}
		actor := issue.GetUser().GetLogin()
		if actor == "" {
			actor = "unknown"
		}
		activities = append(activities, model.Activity{
			Type:           model.ActivityIssue,
			RepositoryName: repo,
			Actor:          actor,
			Title:          issue.GetTitle(),
			URL:            issue.GetHTMLURL(),
			CreatedAt:      created,
		})
	}
	return activities, nil
}

func (c *Client) fetchReleases(ctx context.Context, owner, repo string, limit int) ([]model.Activity, error) {
	opts := &github.ListOptions{PerPage: limit}
	releases, _, err := c.gh.Repositories.ListReleases(ctx, owner, repo, opts)
	if err != nil {
		return nil, apperrors.GitHub("list releases", err)
	}

	activities := make([]model.Activity, 0, len(releases))
	for _, release := range releases {
		title := release.GetName()
		if title == "" {
			title = "Unnamed release"
		}
		published := release.GetPublishedAt().Time
		if published.IsZero() {
			published = time.Now()
		}
		activities = append(activities, model.Activity{
			Type:           model.ActivityRelease,
			RepositoryName: repo,
			Actor:          owner,
			Title:          title,
			URL:            release.GetHTMLURL(),
			CreatedAt:      published,
		})
	}
	return activities, nil
}

func validateParams(owner, repo string, limit int) error {
	if strings.TrimSpace(owner) == "" {
		return apperrors.Validationf("repository owner cannot be empty")
	}
	if strings.TrimSpace(repo) == "" {
		return apperrors.Validationf("repository name cannot be empty")
	}
	if limit < minLimit || limit > maxLimit {
		return apperrors.Validationf("limit must be between %d and %d", minLimit, maxLimit)
	}
	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
