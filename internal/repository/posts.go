package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/isdelr/socialquest-be/internal/database"
	"github.com/isdelr/socialquest-be/internal/models"
)

// Posts persists the feed: posts, their like sets and comment lists.
type Posts interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id string) (models.Post, error)
	// List returns posts newest first, with likes and comments loaded.
	List(ctx context.Context, offset, limit int) ([]models.Post, error)
	Count(ctx context.Context) (int, error)
	HasLike(ctx context.Context, postID, userID string) (bool, error)
	AddLike(ctx context.Context, postID, userID string) error
	RemoveLike(ctx context.Context, postID, userID string) error
	// MarkLiked records that userID has liked postID and reports whether this
	// is the first time, unlikes included.
	MarkLiked(ctx context.Context, postID, userID string) (bool, error)
	AddComment(ctx context.Context, comment *models.Comment) error
}

// SQLitePosts implements Posts.
type SQLitePosts struct {
	db database.DBTX
}

func (r *SQLitePosts) Create(ctx context.Context, post *models.Post) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO posts (id, author_id, content, created_at) VALUES (?, ?, ?, ?)`,
		post.ID, post.AuthorID, post.Content, post.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	return nil
}

func (r *SQLitePosts) GetByID(ctx context.Context, id string) (models.Post, error) {
	var p models.Post
	err := r.db.QueryRowContext(ctx, `
		SELECT p.id, p.author_id, u.username, p.content, p.created_at
		FROM posts p JOIN users u ON u.id = p.author_id
		WHERE p.id = ?`, id,
	).Scan(&p.ID, &p.AuthorID, &p.AuthorUsername, &p.Content, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Post{}, ErrNotFound
		}
		return models.Post{}, fmt.Errorf("get post: %w", err)
	}

	posts := []models.Post{p}
	if err := r.loadRelations(ctx, posts); err != nil {
		return models.Post{}, err
	}
	return posts[0], nil
}

func (r *SQLitePosts) List(ctx context.Context, offset, limit int) ([]models.Post, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT p.id, p.author_id, u.username, p.content, p.created_at
		FROM posts p JOIN users u ON u.id = p.author_id
		ORDER BY p.created_at DESC, p.rowid DESC
		LIMIT ? OFFSET ?`, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	posts := []models.Post{}
	for rows.Next() {
		var p models.Post
		if err := rows.Scan(&p.ID, &p.AuthorID, &p.AuthorUsername, &p.Content, &p.CreatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, p)
	}
	err = rows.Err()
	rows.Close() // release the connection before the follow-up queries
	if err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}

	if err := r.loadRelations(ctx, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *SQLitePosts) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return n, nil
}

func (r *SQLitePosts) HasLike(ctx context.Context, postID, userID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM post_likes WHERE post_id = ? AND user_id = ?)`, postID, userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check like: %w", err)
	}
	return exists, nil
}

func (r *SQLitePosts) AddLike(ctx context.Context, postID, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO post_likes (post_id, user_id, created_at) VALUES (?, ?, CURRENT_TIMESTAMP)`, postID, userID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("add like: %w", err)
	}
	return nil
}

func (r *SQLitePosts) RemoveLike(ctx context.Context, postID, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM post_likes WHERE post_id = ? AND user_id = ?`, postID, userID); err != nil {
		return fmt.Errorf("remove like: %w", err)
	}
	return nil
}

func (r *SQLitePosts) MarkLiked(ctx context.Context, postID, userID string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO post_like_history (post_id, user_id, first_liked_at) VALUES (?, ?, CURRENT_TIMESTAMP)`,
		postID, userID,
	)
	if err != nil {
		return false, fmt.Errorf("mark liked: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *SQLitePosts) AddComment(ctx context.Context, c *models.Comment) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO post_comments (id, post_id, author_id, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.PostID, c.AuthorID, c.Content, c.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}

// loadRelations fills Likes, LikeCount and Comments for each post.
func (r *SQLitePosts) loadRelations(ctx context.Context, posts []models.Post) error {
	for i := range posts {
		likes, err := r.likes(ctx, posts[i].ID)
		if err != nil {
			return err
		}
		comments, err := r.comments(ctx, posts[i].ID)
		if err != nil {
			return err
		}
		posts[i].Likes = likes
		posts[i].LikeCount = len(likes)
		posts[i].Comments = comments
	}
	return nil
}

func (r *SQLitePosts) likes(ctx context.Context, postID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT user_id FROM post_likes WHERE post_id = ? ORDER BY created_at, rowid`, postID)
	if err != nil {
		return nil, fmt.Errorf("list likes: %w", err)
	}
	defer rows.Close()

	likes := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan like: %w", err)
		}
		likes = append(likes, id)
	}
	return likes, rows.Err()
}

func (r *SQLitePosts) comments(ctx context.Context, postID string) ([]models.Comment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.id, c.post_id, c.author_id, u.username, c.content, c.created_at
		FROM post_comments c JOIN users u ON u.id = c.author_id
		WHERE c.post_id = ?
		ORDER BY c.created_at, c.rowid`, postID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	comments := []models.Comment{}
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.AuthorUsername, &c.Content, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}
