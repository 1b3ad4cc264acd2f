// Package apperrors defines the error taxonomy shared by the services and
// the HTTP layer: validation failures, subscription conflicts and upstream
// GitHub failures. Handlers map these onto status codes; everything else is
// treated as an internal error.
package apperrors

import (
	"errors"
	"fmt"
)

// ErrDuplicateEmail is returned when an email address is already registered.
var ErrDuplicateEmail = errors.New("email already registered")

// ValidationError signals bad caller input: a malformed email address, an
// empty owner or repository name, or an out-of-range limit.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// Validationf builds a ValidationError from a format string.
func Validationf(format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// SubscriptionError signals a subscription state conflict: subscribing twice
// to the same repository, or operating on a subscription that does not exist.
type SubscriptionError struct {
	Msg      string
	NotFound bool
}

func (e *SubscriptionError) Error() string {
	return e.Msg
}

// SubscriptionConflictf builds a conflict-flavored SubscriptionError.
func SubscriptionConflictf(format string, args ...any) *SubscriptionError {
	return &SubscriptionError{Msg: fmt.Sprintf(format, args...)}
}

// SubscriptionNotFoundf builds a not-found-flavored SubscriptionError.
func SubscriptionNotFoundf(format string, args ...any) *SubscriptionError {
	return &SubscriptionError{Msg: fmt.Sprintf(format, args...), NotFound: true}
}

// GitHubError wraps a GitHub API or connectivity failure.
type GitHubError struct {
	Op  string
	Err error
}

func (e *GitHubError) Error() string {
	return fmt.Sprintf("github: %s: %v", e.Op, e.Err)
}

func (e *GitHubError) Unwrap() error {
	return e.Err
}

// GitHub wraps err as a GitHubError for the given operation.
func GitHub(op string, err error) *GitHubError {
	return &GitHubError{Op: op, Err: err}
}
