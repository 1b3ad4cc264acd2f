// Package api holds the HTTP layer: the notification app router and the
// landing page router.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"repowatch/internal/model"
	"repowatch/internal/service"
)

// Default and bounds for the activity limit query parameter.
const defaultActivityLimit = 30

// ActivitySource is the slice of the GitHub client the read-only activity
// endpoints need.
type ActivitySource interface {
	FetchActivities(ctx context.Context, owner, repo string, limit int) ([]model.Activity, error)
	FetchCommits(ctx context.Context, owner, repo string, limit int) ([]model.Activity, error)
	FetchPullRequests(ctx context.Context, owner, repo string, limit int) ([]model.Activity, error)
	FetchIssues(ctx context.Context, owner, repo string, limit int) ([]model.Activity, error)
	FetchReleases(ctx context.Context, owner, repo string, limit int) ([]model.Activity, error)
}

// Handler is the container for the notification app's API dependencies.
type Handler struct {
	gh            ActivitySource
	subscriptions *service.Subscriptions
	notifications *service.Notifications
	logger        *slog.Logger
}

// NewRouter creates and configures the notification app router.
func NewRouter(gh ActivitySource, subscriptions *service.Subscriptions, notifications *service.Notifications, logger *slog.Logger) http.Handler {
	h := &Handler{
		gh:            gh,
		subscriptions: subscriptions,
		notifications: notifications,
		logger:        logger,
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", h.healthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Route("/github", func(r chi.Router) {
			r.Get("/activities/{owner}/{repo}", h.activityHandler(h.gh.FetchActivities))
			r.Get("/commits/{owner}/{repo}", h.activityHandler(h.gh.FetchCommits))
			r.Get("/pull-requests/{owner}/{repo}", h.activityHandler(h.gh.FetchPullRequests))
			r.Get("/issues/{owner}/{repo}", h.activityHandler(h.gh.FetchIssues))
			r.Get("/releases/{owner}/{repo}", h.activityHandler(h.gh.FetchReleases))
		})

		r.Route("/subscription/repository", func(r chi.Router) {
			r.Get("/", h.getUserSubscriptions)
			r.Post("/{owner}/{repo}", h.subscribe)
			r.Delete("/{owner}/{repo}", h.unsubscribe)
			r.Get("/{owner}/{repo}", h.getRepositorySubscriptions)
			r.Put("/{owner}/{repo}/notifications/enable", h.setNotifications(true))
			r.Put("/{owner}/{repo}/notifications/disable", h.setNotifications(false))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", h.getNotifications)
			r.Get("/unread", h.getUnreadNotifications)
			r.Patch("/{id}/read", h.markNotificationRead)
			r.Patch("/read-all", h.markAllNotificationsRead)
			r.Delete("/clear", h.clearNotifications)
		})
	})

	return r
}

func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// activityHandler builds a handler around one of the per-kind fetchers.
// GET /api/github/{kind}/{owner}/{repo}?limit=N
func (h *Handler) activityHandler(fetch func(context.Context, string, string, int) ([]model.Activity, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner := chi.URLParam(r, "owner")
		repo := chi.URLParam(r, "repo")

		limit := defaultActivityLimit
		if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
			parsed, err := strconv.Atoi(limitStr)
			if err != nil {
				respondWithError(w, http.StatusBadRequest, "Invalid 'limit' parameter. Must be an integer between 1 and 100.")
				return
			}
			limit = parsed
		}

		activities, err := fetch(r.Context(), owner, repo, limit)
		if err != nil {
			respondWithServiceError(w, h.logger, err)
			return
		}
		if activities == nil {
			activities = []model.Activity{}
		}
		respondWithJSON(w, http.StatusOK, activities)
	}
}

// POST /api/subscription/repository/{owner}/{repo}?email=
func (h *Handler) subscribe(w http.ResponseWriter, r *http.Request) {
	sub, err := h.subscriptions.Subscribe(r.Context(),
		r.URL.Query().Get("email"), chi.URLParam(r, "owner"), chi.URLParam(r, "repo"))
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, sub)
}

// DELETE /api/subscription/repository/{owner}/{repo}?email=
func (h *Handler) unsubscribe(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")
	repo := chi.URLParam(r, "repo")

	err := h.subscriptions.Unsubscribe(r.Context(), r.URL.Query().Get("email"), owner, repo)
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{
		"message": "Unsubscribed from " + owner + "/" + repo,
	})
}

// GET /api/subscription/repository?email=
func (h *Handler) getUserSubscriptions(w http.ResponseWriter, r *http.Request) {
	subs, err := h.subscriptions.ListForUser(r.Context(), r.URL.Query().Get("email"))
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}
	if subs == nil {
		subs = []model.Subscription{}
	}
	respondWithJSON(w, http.StatusOK, subs)
}

// GET /api/subscription/repository/{owner}/{repo}
func (h *Handler) getRepositorySubscriptions(w http.ResponseWriter, r *http.Request) {
	subs, err := h.subscriptions.ListForRepository(r.Context(),
		chi.URLParam(r, "owner"), chi.URLParam(r, "repo"))
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}
	if subs == nil {
		subs = []model.Subscription{}
	}
	respondWithJSON(w, http.StatusOK, subs)
}

// PUT /api/subscription/repository/{owner}/{repo}/notifications/{enable|disable}?email=
func (h *Handler) setNotifications(enabled bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub, err := h.subscriptions.UpdateNotificationStatus(r.Context(),
			r.URL.Query().Get("email"), chi.URLParam(r, "owner"), chi.URLParam(r, "repo"), enabled)
		if err != nil {
			respondWithServiceError(w, h.logger, err)
			return
		}
		respondWithJSON(w, http.StatusOK, sub)
	}
}

// GET /api/notifications?email=&page=&size=
func (h *Handler) getNotifications(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	size, _ := strconv.Atoi(r.URL.Query().Get("size"))

	result, err := h.notifications.List(r.Context(), r.URL.Query().Get("email"), page, size)
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}
	if result.Notifications == nil {
		result.Notifications = []model.Notification{}
	}
	respondWithJSON(w, http.StatusOK, result)
}

// GET /api/notifications/unread?email=
func (h *Handler) getUnreadNotifications(w http.ResponseWriter, r *http.Request) {
	notifs, err := h.notifications.Unread(r.Context(), r.URL.Query().Get("email"))
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}
	if notifs == nil {
		notifs = []model.Notification{}
	}
	respondWithJSON(w, http.StatusOK, notifs)
}

// PATCH /api/notifications/{id}/read?email=
func (h *Handler) markNotificationRead(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid notification id")
		return
	}

	found, err := h.notifications.MarkRead(r.Context(), id, r.URL.Query().Get("email"))
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}
	if !found {
		respondWithError(w, http.StatusNotFound, "Notification not found")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Notification marked as read"})
}

// PATCH /api/notifications/read-all?email=
func (h *Handler) markAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	count, err := h.notifications.MarkAllRead(r.Context(), r.URL.Query().Get("email"))
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]int64{"updated": count})
}

// DELETE /api/notifications/clear?email=
func (h *Handler) clearNotifications(w http.ResponseWriter, r *http.Request) {
	if err := h.notifications.ClearAll(r.Context(), r.URL.Query().Get("email")); err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "All notifications cleared"})
}
