package services

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/isdelr/socialquest-be/internal/game"
	"github.com/isdelr/socialquest-be/internal/models"
	"github.com/isdelr/socialquest-be/internal/repository"
)

const (
	maxPostLength    = 500
	maxCommentLength = 200
	defaultPageSize  = 10
	maxPageSize      = 50
)

// PostServiceProvider defines the interface for feed services.
type PostServiceProvider interface {
	CreatePost(ctx context.Context, userID, content string) (models.Post, error)
	GetPost(ctx context.Context, postID string) (models.Post, error)
	ListPosts(ctx context.Context, page, limit int) (models.PostPage, error)
	ToggleLike(ctx context.Context, postID, userID string) (models.Post, error)
	AddComment(ctx context.Context, postID, userID, content string) (models.Post, error)
}

// PostService provides the social feed.
type PostService struct {
	store      *repository.Store
	challenges *ChallengeService
	now        func() time.Time
}

// NewPostService creates a new PostService.
func NewPostService(store *repository.Store, challenges *ChallengeService) *PostService {
	return &PostService{store: store, challenges: challenges, now: time.Now}
}

// CreatePost stores a post and grants the author its xp.
func (s *PostService) CreatePost(ctx context.Context, userID, content string) (models.Post, error) {
	content = strings.TrimSpace(content)
	if err := validateText("content", content, maxPostLength); err != nil {
		return models.Post{}, err
	}

	now := s.now().UTC()
	post := models.Post{ID: uuid.New().String(), AuthorID: userID, Content: content, CreatedAt: now}

	var completed []models.Challenge
	err := s.store.WithTx(ctx, func(ctx context.Context, r repository.Repos) error {
		if err := r.Posts.Create(ctx, &post); err != nil {
			return err
		}
		if err := r.Users.AddXP(ctx, userID, game.PostXP); err != nil {
			return err
		}
		var err error
		completed, err = s.challenges.recordEvent(ctx, r, userID, models.ActionPost, now)
		if err != nil {
			return err
		}
		post, err = r.Posts.GetByID(ctx, post.ID)
		return err
	})
	if err != nil {
		return models.Post{}, translate(err)
	}
	s.challenges.notifyCompleted(userID, completed)
	return post, nil
}

// GetPost retrieves one post with its likes and comments.
func (s *PostService) GetPost(ctx context.Context, postID string) (models.Post, error) {
	post, err := s.store.Repos().Posts.GetByID(ctx, postID)
	return post, translate(err)
}

// ListPosts returns one page of the feed, newest first.
func (s *PostService) ListPosts(ctx context.Context, page, limit int) (models.PostPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	r := s.store.Repos()
	total, err := r.Posts.Count(ctx)
	if err != nil {
		return models.PostPage{}, err
	}
	result := models.PostPage{
		Posts: []models.Post{},
		Total: total,
		Page:  page,
		Pages: (total + limit - 1) / limit,
	}
	// Past the last page there is nothing to read, and the offset could overflow.
	if page > result.Pages {
		return result, nil
	}

	result.Posts, err = r.Posts.List(ctx, (page-1)*limit, limit)
	if err != nil {
		return models.PostPage{}, err
	}
	return result, nil
}

// ToggleLike adds or removes userID's like on a post.
//
// Only the adding transition grants the liker xp, and removing a like does not
// take the xp back. Challenges count a (post, user) pair once, so re-liking the
// same post does not advance them again.
func (s *PostService) ToggleLike(ctx context.Context, postID, userID string) (models.Post, error) {
	now := s.now().UTC()
	var post models.Post
	var completed []models.Challenge

	err := s.store.WithTx(ctx, func(ctx context.Context, r repository.Repos) error {
		if _, err := r.Posts.GetByID(ctx, postID); err != nil {
			return err
		}
		liked, err := r.Posts.HasLike(ctx, postID, userID)
		if err != nil {
			return err
		}

		if liked {
			if err := r.Posts.RemoveLike(ctx, postID, userID); err != nil {
				return err
			}
		} else {
			if err := r.Posts.AddLike(ctx, postID, userID); err != nil {
				return err
			}
			if err := r.Users.AddXP(ctx, userID, game.LikeXP); err != nil {
				return err
			}
			first, err := r.Posts.MarkLiked(ctx, postID, userID)
			if err != nil {
				return err
			}
			if first {
				completed, err = s.challenges.recordEvent(ctx, r, userID, models.ActionLike, now)
				if err != nil {
					return err
				}
			}
		}

		post, err = r.Posts.GetByID(ctx, postID)
		return err
	})
	if err != nil {
		return models.Post{}, translate(err)
	}
	s.challenges.notifyCompleted(userID, completed)
	return post, nil
}

// AddComment appends a comment to a post.
func (s *PostService) AddComment(ctx context.Context, postID, userID, content string) (models.Post, error) {
	content = strings.TrimSpace(content)
	if err := validateText("content", content, maxCommentLength); err != nil {
		return models.Post{}, err
	}

	now := s.now().UTC()
	var post models.Post
	var completed []models.Challenge

	err := s.store.WithTx(ctx, func(ctx context.Context, r repository.Repos) error {
		if _, err := r.Posts.GetByID(ctx, postID); err != nil {
			return err
		}
		comment := models.Comment{ID: uuid.New().String(), PostID: postID, AuthorID: userID, Content: content, CreatedAt: now}
		if err := r.Posts.AddComment(ctx, &comment); err != nil {
			return err
		}
		var err error
		completed, err = s.challenges.recordEvent(ctx, r, userID, models.ActionComment, now)
		if err != nil {
			return err
		}
		post, err = r.Posts.GetByID(ctx, postID)
		return err
	})
	if err != nil {
		return models.Post{}, translate(err)
	}
	s.challenges.notifyCompleted(userID, completed)
	return post, nil
}

func validateText(field, s string, limit int) error {
	n := utf8.RuneCountInString(s)
	if n == 0 {
		return invalid(field, "must not be empty")
	}
	if n > limit {
		return invalid(field, "must be at most %d characters", limit)
	}
	return nil
}
