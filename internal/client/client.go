// Package client is a typed HTTP client for the SocialQuest API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/isdelr/socialquest-be/internal/auth"
	"github.com/isdelr/socialquest-be/internal/game"
	"github.com/isdelr/socialquest-be/internal/models"
)

// DefaultTimeout bounds every request made by a Client.
const DefaultTimeout = 10 * time.Second

// Client talks to one SocialQuest server.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for baseURL. A zero timeout uses DefaultTimeout.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	auth.TokenPair
	User models.User `json:"user"`
}

// Register creates an account and returns the new user ID.
func (c *Client) Register(ctx context.Context, username, password string) (string, error) {
	var out struct {
		UserID string `json:"userId"`
	}
	err := c.do(ctx, http.MethodPost, "/auth/register", "", credentials{username, password}, &out)
	return out.UserID, err
}

// Login authenticates and returns a new session along with the profile.
func (c *Client) Login(ctx context.Context, username, password string) (*Session, models.User, error) {
	var out loginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", "", credentials{username, password}, &out); err != nil {
		return nil, models.User{}, err
	}
	return NewSession(out.User.ID, out.TokenPair), out.User, nil
}

// Refresh rotates the session's tokens. A rejected refresh token invalidates
// the session and returns ErrSessionExpired.
func (c *Client) Refresh(ctx context.Context, s *Session) error {
	refreshToken := s.Tokens().RefreshToken
	if refreshToken == "" {
		return ErrSessionExpired
	}

	var pair auth.TokenPair
	err := c.do(ctx, http.MethodPost, "/auth/refresh", "", map[string]string{"refreshToken": refreshToken}, &pair)
	if IsStatus(err, http.StatusUnauthorized) || IsStatus(err, http.StatusForbidden) {
		s.Invalidate()
		return ErrSessionExpired
	}
	if err != nil {
		return err
	}
	s.update(pair)
	return nil
}

// Logout revokes the refresh token on the server and clears the session.
func (c *Client) Logout(ctx context.Context, s *Session) error {
	err := c.authed(ctx, s, http.MethodPost, "/auth/logout", nil, nil)
	s.Invalidate()
	if errors.Is(err, ErrSessionExpired) {
		return nil
	}
	return err
}

// Me returns the caller's profile.
func (c *Client) Me(ctx context.Context, s *Session) (models.User, error) {
	var u models.User
	err := c.authed(ctx, s, http.MethodGet, "/users/me", nil, &u)
	return u, err
}

// Events returns the caller's recent activity.
func (c *Client) Events(ctx context.Context, s *Session, limit int) ([]models.Event, error) {
	var events []models.Event
	path := "/users/me/events"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	err := c.authed(ctx, s, http.MethodGet, path, nil, &events)
	return events, err
}

// ListPosts returns one page of the feed.
func (c *Client) ListPosts(ctx context.Context, s *Session, page, limit int) (models.PostPage, error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := "/posts"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out models.PostPage
	err := c.authed(ctx, s, http.MethodGet, path, nil, &out)
	return out, err
}

// GetPost returns a single post.
func (c *Client) GetPost(ctx context.Context, s *Session, postID string) (models.Post, error) {
	var p models.Post
	err := c.authed(ctx, s, http.MethodGet, "/posts/"+url.PathEscape(postID), nil, &p)
	return p, err
}

// CreatePost publishes content as the session user.
func (c *Client) CreatePost(ctx context.Context, s *Session, content string) (models.Post, error) {
	var p models.Post
	err := c.authed(ctx, s, http.MethodPost, "/posts", map[string]string{"content": content}, &p)
	return p, err
}

// Like toggles the session user's like on a post.
func (c *Client) Like(ctx context.Context, s *Session, postID string) (models.Post, error) {
	var p models.Post
	err := c.authed(ctx, s, http.MethodPost, "/posts/"+url.PathEscape(postID)+"/like", nil, &p)
	return p, err
}

// Comment adds a comment to a post.
func (c *Client) Comment(ctx context.Context, s *Session, postID, content string) (models.Post, error) {
	var p models.Post
	err := c.authed(ctx, s, http.MethodPost, "/posts/"+url.PathEscape(postID)+"/comments", map[string]string{"content": content}, &p)
	return p, err
}

// Challenges lists the session user's challenges.
func (c *Client) Challenges(ctx context.Context, s *Session) ([]models.Challenge, error) {
	var out []models.Challenge
	err := c.authed(ctx, s, http.MethodGet, "/challenges", nil, &out)
	return out, err
}

// LevelUp asks the server to run the level-up check.
func (c *Client) LevelUp(ctx context.Context, s *Session) (game.LevelUpResult, error) {
	var out game.LevelUpResult
	err := c.authed(ctx, s, http.MethodPost, "/level-up", nil, &out)
	return out, err
}

// authed performs a bearer call. A 401 or 403 triggers one refresh and one
// retry; if that fails too the session is invalidated.
func (c *Client) authed(ctx context.Context, s *Session, method, path string, body, out any) error {
	if !s.Valid() {
		return ErrSessionExpired
	}

	err := c.do(ctx, method, path, s.Tokens().AccessToken, body, out)
	if !isAuthFailure(err) {
		return err
	}

	if err := c.Refresh(ctx, s); err != nil {
		return err
	}

	err = c.do(ctx, method, path, s.Tokens().AccessToken, body, out)
	if isAuthFailure(err) {
		s.Invalidate()
		return ErrSessionExpired
	}
	return err
}

func isAuthFailure(err error) bool {
	return IsStatus(err, http.StatusUnauthorized) || IsStatus(err, http.StatusForbidden)
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		if json.NewDecoder(resp.Body).Decode(apiErr) != nil || apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
