package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/isdelr/socialquest-be/internal/api"
	"github.com/isdelr/socialquest-be/internal/auth"
	"github.com/isdelr/socialquest-be/internal/config"
	"github.com/isdelr/socialquest-be/internal/database"
	"github.com/isdelr/socialquest-be/internal/repository"
	"github.com/isdelr/socialquest-be/internal/services"
	"github.com/isdelr/socialquest-be/internal/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAPIServer(t *testing.T) *httptest.Server {
	t.Helper()
	db, err := database.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db))

	cfg := &config.Config{
		AccessSecret:   "access-secret",
		RefreshSecret:  "refresh-secret",
		AccessTTL:      15 * time.Minute,
		RefreshTTL:     time.Hour,
		AuthRateLimit:  100,
		AuthRateWindow: time.Minute,
		CORSOrigins:    []string{"*"},
		StreakLocation: time.UTC,
	}
	hub := websocket.NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)

	store := repository.NewStore(db)
	issuer := auth.NewTokenIssuer(cfg.AccessSecret, cfg.RefreshSecret, cfg.AccessTTL, cfg.RefreshTTL)
	challenges := services.NewChallengeService(store, hub)
	srv := httptest.NewServer(api.NewRouter(cfg, issuer, hub, api.Services{
		Auth:       services.NewAuthService(store, issuer, challenges, time.UTC),
		Users:      services.NewUserService(store, hub),
		Posts:      services.NewPostService(store, challenges),
		Challenges: challenges,
		Events:     services.NewEventService(store),
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_EndToEnd(t *testing.T) {
	ctx := context.Background()
	c := New(newAPIServer(t).URL, 0)

	id, err := c.Register(ctx, "alice", "password123")
	require.NoError(t, err)

	_, err = c.Register(ctx, "alice", "password123")
	assert.True(t, IsStatus(err, http.StatusConflict))

	_, err = c.Register(ctx, "bob", "short")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "password", apiErr.Field)

	s, user, err := c.Login(ctx, "alice", "password123")
	require.NoError(t, err)
	assert.Equal(t, id, user.ID)
	assert.Equal(t, id, s.UserID())

	me, err := c.Me(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, "alice", me.Username)

	post, err := c.CreatePost(ctx, s, "first quest")
	require.NoError(t, err)

	liked, err := c.Like(ctx, s, post.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{id}, liked.Likes)

	commented, err := c.Comment(ctx, s, post.ID, "self five")
	require.NoError(t, err)
	assert.Len(t, commented.Comments, 1)

	got, err := c.GetPost(ctx, s, post.ID)
	require.NoError(t, err)
	assert.Equal(t, post.ID, got.ID)

	page, err := c.ListPosts(ctx, s, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)

	challenges, err := c.Challenges(ctx, s)
	require.NoError(t, err)
	assert.Len(t, challenges, 2)

	result, err := c.LevelUp(ctx, s)
	require.NoError(t, err)
	assert.False(t, result.LeveledUp)

	events, err := c.Events(ctx, s, 5)
	require.NoError(t, err)
	assert.NotEmpty(t, events)

	require.NoError(t, c.Refresh(ctx, s))
	_, err = c.Me(ctx, s)
	require.NoError(t, err)

	require.NoError(t, c.Logout(ctx, s))
	assert.False(t, s.Valid())
	_, err = c.Me(ctx, s)
	assert.ErrorIs(t, err, ErrSessionExpired)
}

// fakeAuthServer accepts only access token "fresh" and rotates refresh token
// "good" into a fresh pair.
func fakeAuthServer(t *testing.T, refreshes *int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/users/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer fresh" {
			w.WriteHeader(http.StatusForbidden)
			json.NewEncoder(w).Encode(map[string]string{"error": "Invalid or expired token"})
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"id": "u1", "username": "alice"})
	})
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(refreshes, 1)
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["refreshToken"] != "good" {
			w.WriteHeader(http.StatusForbidden)
			json.NewEncoder(w).Encode(map[string]string{"error": "Invalid or expired token"})
			return
		}
		json.NewEncoder(w).Encode(auth.TokenPair{AccessToken: "fresh", RefreshToken: "next"})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_RefreshesOnceAndRetries(t *testing.T) {
	var refreshes int32
	c := New(fakeAuthServer(t, &refreshes).URL, time.Second)
	s := NewSession("u1", auth.TokenPair{AccessToken: "stale", RefreshToken: "good"})

	me, err := c.Me(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, "alice", me.Username)
	assert.Equal(t, int32(1), atomic.LoadInt32(&refreshes))
	assert.Equal(t, auth.TokenPair{AccessToken: "fresh", RefreshToken: "next"}, s.Tokens())
}

func TestClient_InvalidatesOnRejectedRefresh(t *testing.T) {
	var refreshes int32
	c := New(fakeAuthServer(t, &refreshes).URL, time.Second)
	s := NewSession("u1", auth.TokenPair{AccessToken: "stale", RefreshToken: "revoked"})

	_, err := c.Me(context.Background(), s)
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.False(t, s.Valid())
	assert.Equal(t, int32(1), atomic.LoadInt32(&refreshes))

	// No further network calls once the session is gone.
	_, err = c.Me(context.Background(), s)
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.Equal(t, int32(1), atomic.LoadInt32(&refreshes))
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	c := New(srv.URL, 50*time.Millisecond)
	_, err := c.Register(context.Background(), "alice", "password123")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestFileTokenStore(t *testing.T) {
	store := FileTokenStore{Path: filepath.Join(t.TempDir(), "nested", "session.json")}

	_, err := store.Load()
	assert.ErrorIs(t, err, ErrSessionExpired)

	s := NewSession("u1", auth.TokenPair{AccessToken: "a", RefreshToken: "r"})
	require.NoError(t, store.Save(s))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "u1", loaded.UserID())
	assert.Equal(t, s.Tokens(), loaded.Tokens())

	s.Invalidate()
	require.NoError(t, store.Save(s))
	_, err = store.Load()
	assert.ErrorIs(t, err, ErrSessionExpired)
}
