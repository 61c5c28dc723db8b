package game

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/socialquest-be/internal/models"
	"github.com/robfig/cron/v3"
)

// Template describes a challenge handed out by seeding.
type Template struct {
	Type        string
	Action      string
	Description string
	Target      int
	Reward      int
	Expiry      string // cron spec; the next activation after creation is the expiry
}

// DefaultTemplates are seeded at registration and whenever a user's set is empty.
var DefaultTemplates = []Template{
	{Type: models.ChallengeDaily, Action: models.ActionPost, Description: "Create a post", Target: 1, Reward: 50, Expiry: "@daily"},
	{Type: models.ChallengeWeekly, Action: models.ActionLike, Description: "Like 10 posts", Target: 10, Reward: 200, Expiry: "@weekly"},
}

// NewChallenge builds a challenge for ownerID from t. The expiry is the next
// activation of t.Expiry after now, so it is always strictly in the future.
func NewChallenge(ownerID string, t Template, now time.Time) (models.Challenge, error) {
	if t.Target < 1 || t.Reward < 1 {
		return models.Challenge{}, fmt.Errorf("challenge template %q: target and reward must be positive", t.Description)
	}
	sched, err := cron.ParseStandard(t.Expiry)
	if err != nil {
		return models.Challenge{}, fmt.Errorf("challenge template %q: invalid expiry: %w", t.Description, err)
	}
	expires := sched.Next(now)
	if !expires.After(now) {
		return models.Challenge{}, fmt.Errorf("challenge template %q: expiry is not in the future", t.Description)
	}

	return models.Challenge{
		ID:          uuid.New().String(),
		OwnerID:     ownerID,
		Type:        t.Type,
		Action:      t.Action,
		Description: t.Description,
		Target:      t.Target,
		Reward:      t.Reward,
		ExpiresAt:   expires,
		CreatedAt:   now,
	}, nil
}

// SeedChallenges builds one challenge per template.
func SeedChallenges(ownerID string, templates []Template, now time.Time) ([]models.Challenge, error) {
	out := make([]models.Challenge, 0, len(templates))
	for _, t := range templates {
		c, err := NewChallenge(ownerID, t, now)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// Advance applies one event of kind to c.
//
// Completed, expired and non-matching challenges are left alone. Progress is
// clamped at Target. completedNow is true only on the transition into
// completed, which is when the reward must be credited.
func Advance(c *models.Challenge, kind string, now time.Time) (advanced, completedNow bool) {
	if c.Action != kind || c.Completed || c.IsExpired(now) {
		return false, false
	}
	c.Progress = min(c.Progress+1, c.Target)
	if c.Progress >= c.Target {
		c.Completed = true
		return true, true
	}
	return true, false
}
