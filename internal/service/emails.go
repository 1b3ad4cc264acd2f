// Package service contains the application services: email capture, the
// repository registry, subscriptions and notification fan-out.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"repowatch/internal/apperrors"
	"repowatch/internal/model"
	"repowatch/internal/store"
	"repowatch/internal/validate"
)

// Emails captures and lists landing-page email submissions.
type Emails struct {
	db     store.Querier
	logger *slog.Logger
}

// NewEmails creates the email capture service.
func NewEmails(db store.Querier, logger *slog.Logger) *Emails {
	return &Emails{db: db, logger: logger}
}

// Submit validates and stores a new email submission. A repeated email fails
// with apperrors.ErrDuplicateEmail regardless of submission source; the
// database unique constraint makes this hold under concurrent submits too.
func (s *Emails) Submit(ctx context.Context, email, ipAddress string, source model.SubmissionSource) (model.EmailSubmission, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validate.Email(email); err != nil {
		return model.EmailSubmission{}, err
	}

	sub := model.EmailSubmission{
		Email:     email,
		IPAddress: ipAddress,
		Source:    source,
	}
	if err := s.db.CreateEmailSubmission(ctx, &sub); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return model.EmailSubmission{}, apperrors.ErrDuplicateEmail
		}
		return model.EmailSubmission{}, err
	}

	s.logger.Info("Email submission stored", "email", email, "source", source)
	return sub, nil
}

// List returns all submissions, newest first.
func (s *Emails) List(ctx context.Context) ([]model.EmailSubmission, error) {
	return s.db.ListEmailSubmissions(ctx)
}

// Count returns the total number of submissions.
func (s *Emails) Count(ctx context.Context) (int64, error) {
	return s.db.CountEmailSubmissions(ctx)
}
