package auth0

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const usersPageJSON = `[
  {
    "user_id": "github|1234",
    "email": "jess@oxidecomputer.com",
    "email_verified": true,
    "name": "Jess",
    "nickname": "jess",
    "identities": [{"provider": "github", "user_id": "1234", "connection": "github", "isSocial": true}],
    "created_at": "2020-01-02T03:04:05.000Z",
    "updated_at": "2021-01-02T03:04:05.000Z",
    "last_login": "2021-01-02T03:04:05.000Z",
    "last_ip": "10.0.0.1",
    "logins_count": 42,
    "company": "Oxide Computer Company"
  },
  {
    "user_id": "google-oauth2|99",
    "email": "someone@example.com",
    "name": "Someone",
    "nickname": "someone",
    "identities": [{"provider": "google-oauth2", "user_id": "99", "connection": "google-oauth2", "isSocial": true}],
    "created_at": "2020-01-02T03:04:05.000Z",
    "updated_at": "2020-01-02T03:04:05.000Z",
    "last_login": "2020-01-02T03:04:05.000Z",
    "last_ip": "10.0.0.2",
    "logins_count": 1
  }
]`

var testToken = &Token{AccessToken: "tok", TokenType: "Bearer"}

func TestClient_ListUsersPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v2/users", r.URL.Path)
		assert.Equal(t, "20", r.URL.Query().Get("per_page"))
		assert.Equal(t, "3", r.URL.Query().Get("page"))
		assert.Equal(t, "last_login:-1", r.URL.Query().Get("sort"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(usersPageJSON))
	}))
	defer srv.Close()

	c := NewClient(srv.URL + "/")
	users, err := c.ListUsersPage(context.Background(), testToken, 3)
	require.NoError(t, err)
	require.Len(t, users, 2)

	u := users[0]
	assert.Equal(t, "github|1234", u.UserID)
	assert.True(t, u.EmailVerified)
	assert.Equal(t, 42, u.LoginsCount)
	require.Len(t, u.Identities, 1)
	assert.Equal(t, "github", u.Identities[0].Provider)
	assert.True(t, u.Identities[0].IsSocial)
	assert.Equal(t, time.Date(2021, 1, 2, 3, 4, 5, 0, time.UTC), u.LastLogin.UTC())
	assert.Empty(t, users[1].Company)
}

func TestClient_ListUsersPage_CustomPageSize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "5", r.URL.Query().Get("per_page"))
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	users, err := NewClient(srv.URL, WithPageSize(5)).ListUsersPage(context.Background(), testToken, 0)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestClient_ListUsersPage_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":"insufficient_scope"}`))
	}))
	defer srv.Close()

	users, err := NewClient(srv.URL).ListUsersPage(context.Background(), testToken, 0)
	assert.Nil(t, users)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusForbidden, se.StatusCode)
	assert.Contains(t, se.Body, "insufficient_scope")
	assert.Contains(t, se.Error(), "status: 403")
}

func TestClient_ListUsersPage_MalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"not": "a list"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).ListUsersPage(context.Background(), testToken, 0)
	require.Error(t, err)

	var se *StatusError
	assert.False(t, errors.As(err, &se))
	assert.Contains(t, err.Error(), "decode users page 0")
}

func TestClient_ListUsersPage_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewClient(url).ListUsersPage(context.Background(), testToken, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "get users page 0")
}

func TestClient_ListUserLogs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v2/users/github|1234/logs", r.URL.Path)
		assert.Equal(t, "date:-1", r.URL.Query().Get("sort"))
		assert.Equal(t, "100", r.URL.Query().Get("per_page"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`[
		  {"log_id": "900", "date": "2021-01-02T03:04:05.000Z", "type": "s", "client_name": "Console", "client_id": "abc", "ip": "10.0.0.1", "isMobile": false},
		  {"log_id": "899", "date": "2021-01-01T03:04:05.000Z", "type": "s", "client_name": "RFD"}
		]`))
	}))
	defer srv.Close()

	logs, err := NewClient(srv.URL).ListUserLogs(context.Background(), testToken, "github|1234")
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "Console", logs[0].ClientName)
	assert.Equal(t, "900", logs[0].LogID)
	assert.Equal(t, "RFD", logs[1].ClientName)
}

func TestClient_ListUserLogs_RateLimited(t *testing.T) {
	reset := time.Now().Add(90 * time.Second).Unix()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("x-ratelimit-limit", "50")
		w.Header().Set("x-ratelimit-remaining", "0")
		w.Header().Set("x-ratelimit-reset", strconv.FormatInt(reset, 10))
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"statusCode":429}`))
	}))
	defer srv.Close()

	logs, err := NewClient(srv.URL).ListUserLogs(context.Background(), testToken, "github|1234")
	assert.Empty(t, logs)

	var rl *RateLimitError
	require.True(t, errors.As(err, &rl))
	assert.Equal(t, int64(50), rl.Limit)
	assert.Equal(t, int64(0), rl.Remaining)
	assert.Equal(t, reset, rl.Reset.Unix())
	assert.Contains(t, rl.ResetIn(time.Unix(reset, 0).Add(-90*time.Second)), "from now")
}

func TestClient_ListUserLogs_RateLimitedWithoutHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("x-ratelimit-reset", "not-a-number")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).ListUserLogs(context.Background(), testToken, "u")

	var rl *RateLimitError
	require.True(t, errors.As(err, &rl))
	assert.Zero(t, rl.Limit)
	assert.True(t, rl.Reset.IsZero())
	assert.Equal(t, "unknown", rl.ResetIn(time.Now()))
	assert.NotPanics(t, func() { _ = rl.Error() })
}

func TestClient_ListUserLogs_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`user not found`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).ListUserLogs(context.Background(), testToken, "gone")

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
	assert.Equal(t, "user not found", se.Body)
}

func TestRateLimitError_ResetIn(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	e := &RateLimitError{Reset: now.Add(30 * time.Second)}
	assert.Equal(t, "30 seconds from now", e.ResetIn(now))

	e = &RateLimitError{Reset: now.Add(-5 * time.Minute)}
	assert.Equal(t, "5 minutes ago", e.ResetIn(now))
}
