package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/isdelr/socialquest-be/internal/database"
	"github.com/isdelr/socialquest-be/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db))
	return NewStore(db)
}

func createUser(t *testing.T, r Repos, id, username string) models.User {
	t.Helper()
	u := models.NewUser(id, username, "hash", time.Now().UTC())
	require.NoError(t, r.Users.Create(context.Background(), &u))
	return u
}

func TestUsers_CreateAndGet(t *testing.T) {
	s := setupStore(t)
	r := s.Repos()
	ctx := context.Background()

	createUser(t, r, "u1", "alice")

	got, err := r.Users.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)
	assert.Equal(t, 1, got.Level)
	assert.Equal(t, 100, got.Coins)
	assert.Equal(t, models.TitleNewbie, got.Title)
	assert.Equal(t, []string{}, got.Inventory)
	assert.Empty(t, got.RefreshToken)

	_, err = r.Users.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	exists, err := r.Users.UsernameExists(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, exists)

	dup := models.NewUser("u2", "alice", "hash", time.Now())
	assert.ErrorIs(t, r.Users.Create(ctx, &dup), ErrDuplicate)
}

func TestUsers_UpdateAndCounters(t *testing.T) {
	s := setupStore(t)
	r := s.Repos()
	ctx := context.Background()

	u := createUser(t, r, "u1", "alice")
	u.Level = 3
	u.Streak = 2
	u.Inventory = append(u.Inventory, "Mystery Box")
	require.NoError(t, r.Users.Update(ctx, &u))

	require.NoError(t, r.Users.AddXP(ctx, "u1", 15))
	require.NoError(t, r.Users.AddCoins(ctx, "u1", 50))
	require.NoError(t, r.Users.SetRefreshToken(ctx, "u1", "tok"))

	got, err := r.Users.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, got.Level)
	assert.Equal(t, 2, got.Streak)
	assert.Equal(t, 15, got.XP)
	assert.Equal(t, 150, got.Coins)
	assert.Equal(t, []string{"Mystery Box"}, got.Inventory)
	assert.Equal(t, "tok", got.RefreshToken)

	require.NoError(t, r.Users.SetRefreshToken(ctx, "u1", ""))
	got, err = r.Users.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, got.RefreshToken)

	assert.ErrorIs(t, r.Users.AddXP(ctx, "ghost", 1), ErrNotFound)
}

func TestUsers_CorruptInventory(t *testing.T) {
	s := setupStore(t)
	r := s.Repos()
	ctx := context.Background()
	createUser(t, r, "u1", "alice")

	_, err := s.db.ExecContext(ctx, `UPDATE users SET inventory_json = '{broken' WHERE id = 'u1'`)
	require.NoError(t, err)

	got, err := r.Users.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, []string{}, got.Inventory)
}

func TestPosts_ListLikesComments(t *testing.T) {
	s := setupStore(t)
	r := s.Repos()
	ctx := context.Background()

	createUser(t, r, "u1", "alice")
	createUser(t, r, "u2", "bob")

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		p := models.Post{ID: string(rune('a' + i)), AuthorID: "u1", Content: "hello", CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		require.NoError(t, r.Posts.Create(ctx, &p))
	}

	require.NoError(t, r.Posts.AddLike(ctx, "c", "u2"))
	assert.ErrorIs(t, r.Posts.AddLike(ctx, "c", "u2"), ErrDuplicate)
	require.NoError(t, r.Posts.AddComment(ctx, &models.Comment{ID: "k1", PostID: "c", AuthorID: "u2", Content: "nice", CreatedAt: base}))

	total, err := r.Posts.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, total)

	posts, err := r.Posts.List(ctx, 0, 2)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "c", posts[0].ID)
	assert.Equal(t, "b", posts[1].ID)
	assert.Equal(t, "alice", posts[0].AuthorUsername)
	assert.Equal(t, []string{"u2"}, posts[0].Likes)
	assert.Equal(t, 1, posts[0].LikeCount)
	require.Len(t, posts[0].Comments, 1)
	assert.Equal(t, "bob", posts[0].Comments[0].AuthorUsername)
	assert.Empty(t, posts[1].Likes)

	liked, err := r.Posts.HasLike(ctx, "c", "u2")
	require.NoError(t, err)
	assert.True(t, liked)

	require.NoError(t, r.Posts.RemoveLike(ctx, "c", "u2"))
	p, err := r.Posts.GetByID(ctx, "c")
	require.NoError(t, err)
	assert.Zero(t, p.LikeCount)

	_, err = r.Posts.GetByID(ctx, "zzz")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPosts_MarkLiked(t *testing.T) {
	s := setupStore(t)
	r := s.Repos()
	ctx := context.Background()

	createUser(t, r, "u1", "alice")
	createUser(t, r, "u2", "bob")
	p := models.Post{ID: "p1", AuthorID: "u1", Content: "hello", CreatedAt: time.Now().UTC()}
	require.NoError(t, r.Posts.Create(ctx, &p))

	first, err := r.Posts.MarkLiked(ctx, "p1", "u2")
	require.NoError(t, err)
	assert.True(t, first)

	// history survives the like itself going away
	require.NoError(t, r.Posts.AddLike(ctx, "p1", "u2"))
	require.NoError(t, r.Posts.RemoveLike(ctx, "p1", "u2"))
	first, err = r.Posts.MarkLiked(ctx, "p1", "u2")
	require.NoError(t, err)
	assert.False(t, first)

	first, err = r.Posts.MarkLiked(ctx, "p1", "u1")
	require.NoError(t, err)
	assert.True(t, first)
}

func TestChallenges_Lifecycle(t *testing.T) {
	s := setupStore(t)
	r := s.Repos()
	ctx := context.Background()
	createUser(t, r, "u1", "alice")

	now := time.Now().UTC()
	live := models.Challenge{ID: "c1", OwnerID: "u1", Type: models.ChallengeDaily, Action: models.ActionPost,
		Description: "Create a post", Target: 1, Reward: 50, ExpiresAt: now.Add(time.Hour), CreatedAt: now}
	old := models.Challenge{ID: "c2", OwnerID: "u1", Type: models.ChallengeWeekly, Action: models.ActionLike,
		Description: "Like 10 posts", Target: 10, Reward: 200, ExpiresAt: now.Add(-72 * time.Hour), CreatedAt: now}
	require.NoError(t, r.Challenges.Create(ctx, &live))
	require.NoError(t, r.Challenges.Create(ctx, &old))

	live.Progress = 1
	live.Completed = true
	require.NoError(t, r.Challenges.UpdateProgress(ctx, &live))

	list, err := r.Challenges.ListByOwner(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.True(t, list[0].Completed)
	assert.Equal(t, 1, list[0].Progress)
	assert.WithinDuration(t, live.ExpiresAt, list[0].ExpiresAt, time.Millisecond)

	n, err := r.Challenges.DeleteExpiredBefore(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	list, err = r.Challenges.ListByOwner(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "c1", list[0].ID)
}

func TestEvents_ListRecent(t *testing.T) {
	s := setupStore(t)
	r := s.Repos()
	ctx := context.Background()
	createUser(t, r, "u1", "alice")

	base := time.Now().UTC()
	for i, typ := range []string{models.EventUserRegister, models.EventUserLevelUp, models.EventChallengeComplete} {
		e := models.Event{ID: typ, UserID: "u1", Type: typ, Message: typ, CreatedAt: base.Add(time.Duration(i) * time.Second)}
		require.NoError(t, r.Events.Create(ctx, &e))
	}

	events, err := r.Events.ListRecent(ctx, "u1", 2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, models.EventChallengeComplete, events[0].Type)
	assert.Equal(t, models.EventUserLevelUp, events[1].Type)
}

func TestStore_WithTxRollsBack(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.WithTx(ctx, func(ctx context.Context, r Repos) error {
		u := models.NewUser("u1", "alice", "hash", time.Now())
		if err := r.Users.Create(ctx, &u); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = s.Repos().Users.GetByID(ctx, "u1")
	assert.ErrorIs(t, err, ErrNotFound)
}
