package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/isdelr/socialquest-be/internal/database"
	"github.com/isdelr/socialquest-be/internal/models"
)

// Users persists user accounts.
type Users interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (models.User, error)
	GetByUsername(ctx context.Context, username string) (models.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	// Update writes the gamification state: level, xp, coins, streak, last active, inventory and title.
	Update(ctx context.Context, user *models.User) error
	SetRefreshToken(ctx context.Context, id, token string) error
	AddXP(ctx context.Context, id string, delta int) error
	AddCoins(ctx context.Context, id string, delta int) error
}

// SQLiteUsers implements Users.
type SQLiteUsers struct {
	db database.DBTX
}

const userColumns = `id, username, password_hash, level, xp, coins, streak, last_active, inventory_json, title, refresh_token, created_at`

func (r *SQLiteUsers) Create(ctx context.Context, user *models.User) error {
	user.PrepareForSave()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, username, password_hash, level, xp, coins, streak, last_active, inventory_json, title, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Username, user.PasswordHash, user.Level, user.XP, user.Coins, user.Streak,
		user.LastActive.UTC(), user.InventoryJSON, user.Title, user.CreatedAt.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *SQLiteUsers) GetByID(ctx context.Context, id string) (models.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (r *SQLiteUsers) GetByUsername(ctx context.Context, username string) (models.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
	return scanUser(row)
}

func (r *SQLiteUsers) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE username = ?)`, username).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check username: %w", err)
	}
	return exists, nil
}

func (r *SQLiteUsers) Update(ctx context.Context, user *models.User) error {
	user.PrepareForSave()
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET level = ?, xp = ?, coins = ?, streak = ?, last_active = ?, inventory_json = ?, title = ?
		WHERE id = ?`,
		user.Level, user.XP, user.Coins, user.Streak, user.LastActive.UTC(), user.InventoryJSON, user.Title, user.ID,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return expectOneRow(res)
}

func (r *SQLiteUsers) SetRefreshToken(ctx context.Context, id, token string) error {
	var value sql.NullString
	if token != "" {
		value = sql.NullString{String: token, Valid: true}
	}
	res, err := r.db.ExecContext(ctx, `UPDATE users SET refresh_token = ? WHERE id = ?`, value, id)
	if err != nil {
		return fmt.Errorf("set refresh token: %w", err)
	}
	return expectOneRow(res)
}

func (r *SQLiteUsers) AddXP(ctx context.Context, id string, delta int) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET xp = xp + ? WHERE id = ?`, delta, id)
	if err != nil {
		return fmt.Errorf("add xp: %w", err)
	}
	return expectOneRow(res)
}

func (r *SQLiteUsers) AddCoins(ctx context.Context, id string, delta int) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET coins = coins + ? WHERE id = ?`, delta, id)
	if err != nil {
		return fmt.Errorf("add coins: %w", err)
	}
	return expectOneRow(res)
}

func scanUser(row *sql.Row) (models.User, error) {
	var user models.User
	var refresh sql.NullString
	err := row.Scan(
		&user.ID, &user.Username, &user.PasswordHash, &user.Level, &user.XP, &user.Coins, &user.Streak,
		&user.LastActive, &user.InventoryJSON, &user.Title, &refresh, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("scan user: %w", err)
	}
	user.RefreshToken = refresh.String
	user.PrepareForAPI()
	return user, nil
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
