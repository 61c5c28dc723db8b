package models

import "time"

// Event types written to the activity log.
const (
	EventUserRegister      = "user.register"
	EventUserLevelUp       = "user.levelup"
	EventChallengeComplete = "challenge.complete"
)

// Event represents an entry in a user's activity log.
type Event struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Type      string    `json:"type"` // e.g., "user.levelup", "challenge.complete"
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}
