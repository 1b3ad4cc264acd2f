package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"repowatch/internal/model"
	"repowatch/internal/service"
	"repowatch/internal/store"
	"repowatch/internal/store/mocks"
)

func newLandingServer(t *testing.T, db *mocks.Querier) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	emails := service.NewEmails(db, logger)

	srv := httptest.NewServer(NewLandingRouter(emails, logger))
	t.Cleanup(srv.Close)
	return srv
}

func TestLandingIndex(t *testing.T) {
	srv := newLandingServer(t, new(mocks.Querier))

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "<form")
}

func TestLandingSubmitForm(t *testing.T) {
	submit := func(t *testing.T, srv *httptest.Server, email string) (*http.Response, string) {
		t.Helper()
		resp, err := http.PostForm(srv.URL+"/submit", url.Values{"email": {email}})
		require.NoError(t, err)
		t.Cleanup(func() { resp.Body.Close() })
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return resp, string(body)
	}

	t.Run("stores a valid submission", func(t *testing.T) {
		db := new(mocks.Querier)
		srv := newLandingServer(t, db)

		db.On("CreateEmailSubmission", mock.Anything, mock.MatchedBy(func(sub *model.EmailSubmission) bool {
			return sub.Email == "user@example.com" && sub.Source == model.SourceLandingPage
		})).Return(nil).Once()

		resp, body := submit(t, srv, "user@example.com")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, "on the list")
		db.AssertExpectations(t)
	})

	t.Run("duplicate email renders the already-registered message", func(t *testing.T) {
		db := new(mocks.Querier)
		srv := newLandingServer(t, db)

		db.On("CreateEmailSubmission", mock.Anything, mock.AnythingOfType("*model.EmailSubmission")).
			Return(store.ErrDuplicate).Once()

		resp, body := submit(t, srv, "user@example.com")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, "already registered")
	})

	t.Run("invalid email renders the validation message", func(t *testing.T) {
		db := new(mocks.Querier)
		srv := newLandingServer(t, db)

		resp, body := submit(t, srv, "not-an-email")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, body, "valid email")
		db.AssertNotCalled(t, "CreateEmailSubmission")
	})
}

func TestLandingSubmitJSON(t *testing.T) {
	post := func(t *testing.T, srv *httptest.Server, body string) *http.Response {
		t.Helper()
		resp, err := http.Post(srv.URL+"/api/email", "application/json", strings.NewReader(body))
		require.NoError(t, err)
		t.Cleanup(func() { resp.Body.Close() })
		return resp
	}

	t.Run("creates a submission", func(t *testing.T) {
		db := new(mocks.Querier)
		srv := newLandingServer(t, db)

		db.On("CreateEmailSubmission", mock.Anything, mock.AnythingOfType("*model.EmailSubmission")).
			Run(func(args mock.Arguments) {
				args.Get(1).(*model.EmailSubmission).ID = 1
			}).
			Return(nil).Once()

		resp := post(t, srv, `{"email": "User@Example.com"}`)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var sub model.EmailSubmission
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&sub))
		assert.Equal(t, "user@example.com", sub.Email)
		assert.Equal(t, model.SourceAPI, sub.Source)
	})

	t.Run("duplicate is a conflict", func(t *testing.T) {
		db := new(mocks.Querier)
		srv := newLandingServer(t, db)

		db.On("CreateEmailSubmission", mock.Anything, mock.AnythingOfType("*model.EmailSubmission")).
			Return(store.ErrDuplicate).Once()

		resp := post(t, srv, `{"email": "user@example.com"}`)
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("malformed JSON", func(t *testing.T) {
		db := new(mocks.Querier)
		srv := newLandingServer(t, db)

		resp := post(t, srv, `{"email": `)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		db.AssertNotCalled(t, "CreateEmailSubmission")
	})

	t.Run("invalid email", func(t *testing.T) {
		db := new(mocks.Querier)
		srv := newLandingServer(t, db)

		resp := post(t, srv, `{"email": "nope"}`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestLandingListEmails(t *testing.T) {
	db := new(mocks.Querier)
	srv := newLandingServer(t, db)

	db.On("ListEmailSubmissions", mock.Anything).Return([]model.EmailSubmission{
		{ID: 2, Email: "b@example.com", Source: model.SourceAPI},
		{ID: 1, Email: "a@example.com", Source: model.SourceLandingPage},
	}, nil).Once()

	resp, err := http.Get(srv.URL + "/emails")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Count  int                     `json:"count"`
		Emails []model.EmailSubmission `json:"emails"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 2, body.Count)
	require.Len(t, body.Emails, 2)
	assert.Equal(t, "b@example.com", body.Emails[0].Email)
}
