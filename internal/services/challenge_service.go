package services

import (
	"context"
	"fmt"
	"time"

	"github.com/isdelr/socialquest-be/internal/game"
	"github.com/isdelr/socialquest-be/internal/models"
	"github.com/isdelr/socialquest-be/internal/repository"
	"github.com/rs/zerolog/log"
)

// ChallengeServiceProvider defines the interface for challenge services.
type ChallengeServiceProvider interface {
	GetChallenges(ctx context.Context, userID string) ([]models.Challenge, error)
	RecordEvent(ctx context.Context, userID, kind string) ([]models.Challenge, error)
	SweepExpired(ctx context.Context, grace time.Duration) (int64, error)
}

// ChallengeService seeds challenges and advances them on user actions.
type ChallengeService struct {
	store     *repository.Store
	notifier  Notifier
	templates []game.Template
	now       func() time.Time
}

// NewChallengeService creates a new ChallengeService.
func NewChallengeService(store *repository.Store, notifier Notifier) *ChallengeService {
	return &ChallengeService{
		store:     store,
		notifier:  orNop(notifier),
		templates: game.DefaultTemplates,
		now:       time.Now,
	}
}

// GetChallenges lists a user's challenges, seeding a fresh set when the user has none.
// Expiry is evaluated here, on read.
func (s *ChallengeService) GetChallenges(ctx context.Context, userID string) ([]models.Challenge, error) {
	now := s.now().UTC()
	var challenges []models.Challenge

	err := s.store.WithTx(ctx, func(ctx context.Context, r repository.Repos) error {
		var err error
		challenges, err = r.Challenges.ListByOwner(ctx, userID)
		if err != nil {
			return err
		}
		if len(challenges) > 0 {
			return nil
		}
		challenges, err = s.seed(ctx, r, userID, now)
		return err
	})
	if err != nil {
		return nil, translate(err)
	}

	for i := range challenges {
		challenges[i].Expired = challenges[i].IsExpired(now)
	}
	return challenges, nil
}

// RecordEvent advances the user's matching challenges by one event of kind.
// It returns the challenges completed by this event.
func (s *ChallengeService) RecordEvent(ctx context.Context, userID, kind string) ([]models.Challenge, error) {
	now := s.now().UTC()
	var completed []models.Challenge

	err := s.store.WithTx(ctx, func(ctx context.Context, r repository.Repos) error {
		var err error
		completed, err = s.recordEvent(ctx, r, userID, kind, now)
		return err
	})
	if err != nil {
		return nil, translate(err)
	}
	s.notifyCompleted(userID, completed)
	return completed, nil
}

// SweepExpired deletes challenges that expired more than grace ago.
func (s *ChallengeService) SweepExpired(ctx context.Context, grace time.Duration) (int64, error) {
	return s.store.Repos().Challenges.DeleteExpiredBefore(ctx, s.now().Add(-grace))
}

func (s *ChallengeService) seed(ctx context.Context, r repository.Repos, userID string, now time.Time) ([]models.Challenge, error) {
	challenges, err := game.SeedChallenges(userID, s.templates, now)
	if err != nil {
		return nil, err
	}
	for i := range challenges {
		if err := r.Challenges.Create(ctx, &challenges[i]); err != nil {
			return nil, err
		}
	}
	return challenges, nil
}

// recordEvent runs inside the caller's transaction. A reward is credited only
// on the transition into completed, so it is paid at most once.
func (s *ChallengeService) recordEvent(ctx context.Context, r repository.Repos, userID, kind string, now time.Time) ([]models.Challenge, error) {
	challenges, err := r.Challenges.ListByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}

	var completed []models.Challenge
	for i := range challenges {
		c := &challenges[i]
		advanced, done := game.Advance(c, kind, now)
		if !advanced {
			continue
		}
		if err := r.Challenges.UpdateProgress(ctx, c); err != nil {
			return nil, err
		}
		if !done {
			continue
		}
		if err := r.Users.AddCoins(ctx, userID, c.Reward); err != nil {
			return nil, err
		}
		msg := fmt.Sprintf("Completed challenge '%s' and earned %d coins.", c.Description, c.Reward)
		if err := createEvent(ctx, r, userID, models.EventChallengeComplete, msg, now); err != nil {
			return nil, err
		}
		completed = append(completed, *c)
	}
	return completed, nil
}

func (s *ChallengeService) notifyCompleted(userID string, completed []models.Challenge) {
	for _, c := range completed {
		log.Info().Str("user_id", userID).Str("challenge_id", c.ID).Int("reward", c.Reward).Msg("Challenge completed")
		s.notifier.NotifyUser(userID, NotifyChallengeComplete, c)
	}
}
