// Package repository isolates persistence behind one interface per entity.
// The SQLite implementations run over database.DBTX, so the same code serves
// plain connections and transactions.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/isdelr/socialquest-be/internal/database"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")
)

// Repos bundles the entity repositories bound to one handle.
type Repos struct {
	Users      Users
	Posts      Posts
	Challenges Challenges
	Events     Events
}

func newRepos(db database.DBTX) Repos {
	return Repos{
		Users:      &SQLiteUsers{db: db},
		Posts:      &SQLitePosts{db: db},
		Challenges: &SQLiteChallenges{db: db},
		Events:     &SQLiteEvents{db: db},
	}
}

// Store hands out repositories, either on the pool or inside a transaction.
type Store struct {
	db *sql.DB
}

// NewStore creates a Store over db.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Repos returns repositories bound to the connection pool.
func (s *Store) Repos() Repos {
	return newRepos(s.db)
}

// WithTx runs fn with repositories bound to a single transaction.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, r Repos) error) error {
	return database.WithTx(ctx, s.db, func(ctx context.Context, tx database.DBTX) error {
		return fn(ctx, newRepos(tx))
	})
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	code := se.Code()
	return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}
