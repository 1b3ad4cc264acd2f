package api

import (
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"repowatch/internal/apperrors"
	"repowatch/internal/model"
	"repowatch/internal/service"
)

//go:embed templates/index.html
var templateFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

type indexData struct {
	Error   string
	Success string
}

// Landing is the container for the landing page's dependencies.
type Landing struct {
	emails *service.Emails
	logger *slog.Logger
}

// NewLandingRouter creates and configures the landing page router.
func NewLandingRouter(emails *service.Emails, logger *slog.Logger) http.Handler {
	l := &Landing{emails: emails, logger: logger}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/", l.index)
	r.Post("/submit", l.submitForm)
	r.Get("/emails", l.listEmails)
	r.Post("/api/email", l.submitJSON)

	return r
}

// GET /
func (l *Landing) index(w http.ResponseWriter, r *http.Request) {
	l.render(w, http.StatusOK, indexData{})
}

// POST /submit (form field: email)
func (l *Landing) submitForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		l.render(w, http.StatusBadRequest, indexData{Error: "Invalid form submission"})
		return
	}

	_, err := l.emails.Submit(r.Context(), r.PostFormValue("email"), clientIP(r), model.SourceLandingPage)
	switch {
	case err == nil:
		l.render(w, http.StatusOK, indexData{Success: "Thanks! You're on the list."})
	case errors.Is(err, apperrors.ErrDuplicateEmail):
		l.render(w, http.StatusOK, indexData{Error: "This email is already registered."})
	default:
		var validationErr *apperrors.ValidationError
		if errors.As(err, &validationErr) {
			l.render(w, http.StatusBadRequest, indexData{Error: "Please provide a valid email address."})
			return
		}
		l.logger.Error("Failed to store email submission", "error", err)
		l.render(w, http.StatusInternalServerError, indexData{Error: "Something went wrong, please try again."})
	}
}

// POST /api/email (JSON body: {"email": ...})
func (l *Landing) submitJSON(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(r, &body); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	sub, err := l.emails.Submit(r.Context(), body.Email, clientIP(r), model.SourceAPI)
	if err != nil {
		respondWithServiceError(w, l.logger, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, sub)
}

// GET /emails
func (l *Landing) listEmails(w http.ResponseWriter, r *http.Request) {
	emails, err := l.emails.List(r.Context())
	if err != nil {
		respondWithServiceError(w, l.logger, err)
		return
	}
	if emails == nil {
		emails = []model.EmailSubmission{}
	}
	respondWithJSON(w, http.StatusOK, map[string]any{
		"count":  len(emails),
		"emails": emails,
	})
}

func (l *Landing) render(w http.ResponseWriter, status int, data indexData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := indexTemplate.Execute(w, data); err != nil {
		l.logger.Error("Failed to render landing page", "error", err)
	}
}

// clientIP extracts the submitter's address; middleware.RealIP has already
// folded X-Forwarded-For into RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
