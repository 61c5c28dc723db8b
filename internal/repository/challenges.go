package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/isdelr/socialquest-be/internal/database"
	"github.com/isdelr/socialquest-be/internal/models"
)

// Challenges persists per-user challenges.
type Challenges interface {
	Create(ctx context.Context, c *models.Challenge) error
	ListByOwner(ctx context.Context, ownerID string) ([]models.Challenge, error)
	// UpdateProgress writes progress and the completed flag.
	UpdateProgress(ctx context.Context, c *models.Challenge) error
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// SQLiteChallenges implements Challenges.
type SQLiteChallenges struct {
	db database.DBTX
}

func (r *SQLiteChallenges) Create(ctx context.Context, c *models.Challenge) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO challenges (id, owner_id, type, action, description, target, progress, reward, completed, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.OwnerID, c.Type, c.Action, c.Description, c.Target, c.Progress, c.Reward, c.Completed,
		c.ExpiresAt.UTC(), c.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert challenge: %w", err)
	}
	return nil
}

func (r *SQLiteChallenges) ListByOwner(ctx context.Context, ownerID string) ([]models.Challenge, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner_id, type, action, description, target, progress, reward, completed, expires_at, created_at
		FROM challenges WHERE owner_id = ?
		ORDER BY created_at, rowid`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list challenges: %w", err)
	}
	defer rows.Close()

	challenges := []models.Challenge{}
	for rows.Next() {
		var c models.Challenge
		err := rows.Scan(
			&c.ID, &c.OwnerID, &c.Type, &c.Action, &c.Description, &c.Target, &c.Progress,
			&c.Reward, &c.Completed, &c.ExpiresAt, &c.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan challenge: %w", err)
		}
		challenges = append(challenges, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate challenges: %w", err)
	}
	return challenges, nil
}

func (r *SQLiteChallenges) UpdateProgress(ctx context.Context, c *models.Challenge) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE challenges SET progress = ?, completed = ? WHERE id = ?`, c.Progress, c.Completed, c.ID)
	if err != nil {
		return fmt.Errorf("update challenge: %w", err)
	}
	return expectOneRow(res)
}

func (r *SQLiteChallenges) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM challenges WHERE expires_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete expired challenges: %w", err)
	}
	return res.RowsAffected()
}
