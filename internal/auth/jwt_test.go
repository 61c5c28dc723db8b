package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIssuer() *TokenIssuer {
	return NewTokenIssuer("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour)
}

func TestIssueAndVerify(t *testing.T) {
	t.Parallel()
	iss := newIssuer()

	pair, err := iss.IssueTokens("user-123")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	id, err := iss.VerifyAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-123", id)

	id, err = iss.VerifyRefresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "user-123", id)
}

func TestTokensAreNotInterchangeable(t *testing.T) {
	t.Parallel()
	iss := newIssuer()

	pair, err := iss.IssueTokens("u1")
	require.NoError(t, err)

	_, err = iss.VerifyAccess(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = iss.VerifyRefresh(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_Expired(t *testing.T) {
	t.Parallel()
	iss := newIssuer()
	issuedAt := time.Now().Add(-time.Hour)
	iss.now = func() time.Time { return issuedAt }

	pair, err := iss.IssueTokens("u1")
	require.NoError(t, err)

	iss.now = time.Now
	_, err = iss.VerifyAccess(pair.AccessToken)
	assert.ErrorIs(t, err, ErrExpiredToken)

	// refresh lives for a week, still fine
	_, err = iss.VerifyRefresh(pair.RefreshToken)
	assert.NoError(t, err)
}

func TestVerify_Malformed(t *testing.T) {
	t.Parallel()
	iss := newIssuer()

	_, err := iss.VerifyAccess("not.a.jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = iss.VerifyAccess("")
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestIssueTokens_Distinct(t *testing.T) {
	t.Parallel()
	iss := newIssuer()

	a, err := iss.IssueTokens("u1")
	require.NoError(t, err)
	b, err := iss.IssueTokens("u1")
	require.NoError(t, err)
	assert.NotEqual(t, a.RefreshToken, b.RefreshToken)
}

func TestJWTMiddleware(t *testing.T) {
	iss := newIssuer()
	pair, err := iss.IssueTokens("u42")
	require.NoError(t, err)

	var gotID string
	h := JWTMiddleware(iss)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, _ = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		query  string
		want   int
	}{
		{"missing", "", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", "", http.StatusUnauthorized},
		{"invalid", "Bearer garbage", "", http.StatusForbidden},
		{"refresh token rejected", "Bearer " + pair.RefreshToken, "", http.StatusForbidden},
		{"valid header", "Bearer " + pair.AccessToken, "", http.StatusNoContent},
		{"query token ignored", "", pair.AccessToken, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotID = ""
			target := "/"
			if tt.query != "" {
				target = "/?token=" + tt.query
			}
			req := httptest.NewRequest(http.MethodGet, target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusNoContent {
				assert.Equal(t, "u42", gotID)
			}
		})
	}
}

func TestWebSocketMiddleware(t *testing.T) {
	iss := newIssuer()
	pair, err := iss.IssueTokens("u42")
	require.NoError(t, err)

	var gotID string
	h := WebSocketMiddleware(iss)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, _ = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		query  string
		want   int
	}{
		{"missing", "", "", http.StatusUnauthorized},
		{"valid query", "", pair.AccessToken, http.StatusNoContent},
		{"invalid query", "", "garbage", http.StatusForbidden},
		{"valid header", "Bearer " + pair.AccessToken, "", http.StatusNoContent},
		{"bad header wins over query", "Basic abc", pair.AccessToken, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotID = ""
			target := "/ws"
			if tt.query != "" {
				target = "/ws?token=" + tt.query
			}
			req := httptest.NewRequest(http.MethodGet, target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusNoContent {
				assert.Equal(t, "u42", gotID)
			}
		})
	}
}

func TestJWTMiddleware_ExpiredMessage(t *testing.T) {
	iss := newIssuer()
	iss.now = func() time.Time { return time.Now().Add(-time.Hour) }
	pair, err := iss.IssueTokens("u42")
	require.NoError(t, err)
	iss.now = time.Now

	h := JWTMiddleware(iss)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "expired")
}
