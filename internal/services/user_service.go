package services

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/isdelr/socialquest-be/internal/game"
	"github.com/isdelr/socialquest-be/internal/models"
	"github.com/isdelr/socialquest-be/internal/repository"
	"github.com/rs/zerolog/log"
)

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	GetUserByID(ctx context.Context, id string) (models.User, error)
	LevelUp(ctx context.Context, id string) (game.LevelUpResult, error)
}

// UserService provides profile reads and the level-up check.
type UserService struct {
	store    *repository.Store
	notifier Notifier
	pick     func(n int) int
	now      func() time.Time
}

// NewUserService creates a new UserService.
func NewUserService(store *repository.Store, notifier Notifier) *UserService {
	return &UserService{
		store:    store,
		notifier: orNop(notifier),
		pick:     rand.IntN,
		now:      time.Now,
	}
}

// GetUserByID retrieves a single user by their ID.
func (s *UserService) GetUserByID(ctx context.Context, id string) (models.User, error) {
	user, err := s.store.Repos().Users.GetByID(ctx, id)
	if err != nil {
		return models.User{}, translate(err)
	}
	user.RefreshToken = ""
	return user, nil
}

// LevelUp runs the client-triggered level-up check.
func (s *UserService) LevelUp(ctx context.Context, id string) (game.LevelUpResult, error) {
	var result game.LevelUpResult
	err := s.store.WithTx(ctx, func(ctx context.Context, r repository.Repos) error {
		user, err := r.Users.GetByID(ctx, id)
		if err != nil {
			return err
		}
		result = game.CheckLevelUp(&user, s.pick)
		if !result.LeveledUp {
			return nil
		}
		if err := r.Users.Update(ctx, &user); err != nil {
			return err
		}
		msg := fmt.Sprintf("Reached level %d and found %s.", result.NewLevel, result.RewardItem)
		return createEvent(ctx, r, id, models.EventUserLevelUp, msg, s.now().UTC())
	})
	if err != nil {
		return game.LevelUpResult{}, translate(err)
	}

	if result.LeveledUp {
		log.Info().Str("user_id", id).Int("level", result.NewLevel).Str("item", result.RewardItem).Msg("User leveled up")
		s.notifier.NotifyUser(id, NotifyLevelUp, result)
	}
	return result, nil
}
