package repository

import (
	"context"
	"fmt"

	"github.com/isdelr/socialquest-be/internal/database"
	"github.com/isdelr/socialquest-be/internal/models"
)

// Events persists the per-user activity log.
type Events interface {
	Create(ctx context.Context, e *models.Event) error
	ListRecent(ctx context.Context, userID string, limit int) ([]models.Event, error)
}

// SQLiteEvents implements Events.
type SQLiteEvents struct {
	db database.DBTX
}

func (r *SQLiteEvents) Create(ctx context.Context, e *models.Event) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO events (id, user_id, type, message, created_at) VALUES (?, ?, ?, ?, ?)`,
		e.ID, e.UserID, e.Type, e.Message, e.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (r *SQLiteEvents) ListRecent(ctx context.Context, userID string, limit int) ([]models.Event, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, type, message, created_at
		FROM events WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	events := []models.Event{}
	for rows.Next() {
		var e models.Event
		if err := rows.Scan(&e.ID, &e.UserID, &e.Type, &e.Message, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
