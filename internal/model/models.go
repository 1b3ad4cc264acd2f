package model

import (
	"time"
)

// SubmissionSource identifies where an email submission came from.
type SubmissionSource string

const (
	SourceLandingPage SubmissionSource = "LANDING_PAGE"
	SourceAPI         SubmissionSource = "API"
)

// EmailSubmission is a captured landing-page or API email signup.
// Immutable after insert.
type EmailSubmission struct {
	ID        int64            `json:"id"`
	Email     string           `json:"email"`
	IPAddress string           `json:"ip_address,omitempty"`
	Source    SubmissionSource `json:"source"`
	CreatedAt time.Time        `json:"created_at"`
}

// Repository is a tracked GitHub repository, keyed by (owner, name).
type Repository struct {
	ID             int64      `json:"id"`
	Owner          string     `json:"owner"`
	Name           string     `json:"name"`
	LastCheckedAt  time.Time  `json:"last_checked_at"`
	LastActivityAt *time.Time `json:"last_activity_at,omitempty"`
	ActivityCount  int        `json:"activity_count"`
}

// FullName returns the canonical "owner/name" form.
func (r Repository) FullName() string {
	return r.Owner + "/" + r.Name
}

// HasActivitySince reports whether the repository has recorded activity
// after the given time. A nil since means any recorded activity counts.
func (r Repository) HasActivitySince(since *time.Time) bool {
	if r.LastActivityAt == nil {
		return false
	}
	return since == nil || r.LastActivityAt.After(*since)
}

// Subscription pairs an email with a repository and a notification preference.
// Unique per (email, repository).
type Subscription struct {
	ID                   int64      `json:"id"`
	Email                string     `json:"email"`
	RepositoryID         int64      `json:"-"`
	Repository           Repository `json:"repository"`
	SubscribedAt         time.Time  `json:"subscribed_at"`
	NotificationsEnabled bool       `json:"notifications_enabled"`
	LastNotificationAt   *time.Time `json:"last_notification_at,omitempty"`
}

// NeedsNotification reports whether the subscriber should be told about the
// repository's latest activity: notifications must be enabled and the
// repository's last activity must postdate the last notification sent.
func (s Subscription) NeedsNotification() bool {
	if !s.NotificationsEnabled {
		return false
	}
	return s.Repository.HasActivitySince(s.LastNotificationAt)
}

// Notification is an in-app notification about repository activity.
type Notification struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	RepositoryID int64     `json:"repository_id"`
	Message      string    `json:"message"`
	Read         bool      `json:"read"`
	CreatedAt    time.Time `json:"created_at"`
}

// ActivityType classifies a GitHub activity event.
type ActivityType string

const (
	ActivityCommit      ActivityType = "commit"
	ActivityPullRequest ActivityType = "pull_request"
	ActivityIssue       ActivityType = "issue"
	ActivityRelease     ActivityType = "release"
)

// Activity is a normalized GitHub event. It is transient: fetched, merged and
// sorted on demand, never persisted.
type Activity struct {
	Type           ActivityType `json:"type"`
	RepositoryName string       `json:"repository_name"`
	Actor          string       `json:"actor"`
	Title          string       `json:"title"`
	URL            string       `json:"url"`
	CreatedAt      time.Time    `json:"created_at"`
}
