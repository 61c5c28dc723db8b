package models

import "time"

// Challenge types.
const (
	ChallengeDaily   = "daily"
	ChallengeWeekly  = "weekly"
	ChallengeSpecial = "special"
)

// Actions a challenge can count. They double as the event kinds fed to the tracker.
const (
	ActionPost    = "post"
	ActionLike    = "like"
	ActionComment = "comment"
	ActionLogin   = "login"
)

// Challenge is a per-user task with a progress counter and a coin reward.
type Challenge struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"ownerId"`
	Type        string    `json:"type"`   // daily, weekly, special
	Action      string    `json:"action"` // event kind that advances it
	Description string    `json:"description"`
	Target      int       `json:"target"`
	Progress    int       `json:"progress"`
	Reward      int       `json:"reward"`
	Completed   bool      `json:"completed"`
	Expired     bool      `json:"expired"` // computed on read
	ExpiresAt   time.Time `json:"expiresAt"`
	CreatedAt   time.Time `json:"createdAt"`
}

// IsExpired reports whether the challenge is past its expiry at now.
func (c Challenge) IsExpired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}
