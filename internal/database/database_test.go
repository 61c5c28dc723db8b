package database

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAndMigrate(t *testing.T) {
	db, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	require.NoError(t, Migrate(ctx, db))
	// second run is a no-op
	require.NoError(t, Migrate(ctx, db))

	for _, table := range []string{"users", "posts", "post_likes", "post_comments", "challenges", "events", "post_like_history"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		require.NoError(t, err, table)
		assert.Equal(t, table, name)
	}
}

func TestWithTx(t *testing.T) {
	db, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	_, err = db.Exec(`CREATE TABLE kv (k TEXT PRIMARY KEY, v TEXT)`)
	require.NoError(t, err)

	t.Run("commit", func(t *testing.T) {
		err := WithTx(ctx, db, func(ctx context.Context, tx DBTX) error {
			_, err := tx.ExecContext(ctx, `INSERT INTO kv (k, v) VALUES ('a', '1')`)
			return err
		})
		require.NoError(t, err)

		var v string
		require.NoError(t, db.QueryRow(`SELECT v FROM kv WHERE k = 'a'`).Scan(&v))
		assert.Equal(t, "1", v)
	})

	t.Run("rollback on error", func(t *testing.T) {
		boom := errors.New("boom")
		err := WithTx(ctx, db, func(ctx context.Context, tx DBTX) error {
			if _, err := tx.ExecContext(ctx, `INSERT INTO kv (k, v) VALUES ('b', '2')`); err != nil {
				return err
			}
			return boom
		})
		require.ErrorIs(t, err, boom)

		var n int
		require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM kv WHERE k = 'b'`).Scan(&n))
		assert.Zero(t, n)
	})

	t.Run("rollback on panic", func(t *testing.T) {
		assert.Panics(t, func() {
			_ = WithTx(ctx, db, func(ctx context.Context, tx DBTX) error {
				_, _ = tx.ExecContext(ctx, `INSERT INTO kv (k, v) VALUES ('c', '3')`)
				panic("kaboom")
			})
		})

		var n int
		require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM kv WHERE k = 'c'`).Scan(&n))
		assert.Zero(t, n)
	})
}
