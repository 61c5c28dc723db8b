package models

import (
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
)

// Titles a user can hold.
const (
	TitleNewbie   = "Newbie"
	TitleExplorer = "Explorer"
	TitleVeteran  = "Veteran"
	TitleLegend   = "Legend"
)

// IsValidTitle reports whether t belongs to the fixed title set.
func IsValidTitle(t string) bool {
	switch t {
	case TitleNewbie, TitleExplorer, TitleVeteran, TitleLegend:
		return true
	}
	return false
}

// User represents a player account.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"` // Never expose this to the client
	Level        int       `json:"level"`
	XP           int       `json:"xp"`
	Coins        int       `json:"coins"`
	Streak       int       `json:"streak"`
	LastActive   time.Time `json:"lastActive"`
	Inventory    []string  `json:"inventory"`
	Title        string    `json:"title"`
	RefreshToken string    `json:"-"` // Single active refresh token
	CreatedAt    time.Time `json:"createdAt"`

	InventoryJSON string `json:"-"` // DB storage for Inventory
}

// NewUser returns a user with the registration defaults applied.
func NewUser(id, username, passwordHash string, now time.Time) User {
	return User{
		ID:           id,
		Username:     username,
		PasswordHash: passwordHash,
		Level:        1,
		XP:           0,
		Coins:        100,
		Streak:       0,
		LastActive:   now,
		Inventory:    []string{},
		Title:        TitleNewbie,
		CreatedAt:    now,
	}
}

// PrepareForSave marshals Inventory into its JSON column.
func (u *User) PrepareForSave() {
	if u.Inventory == nil {
		u.Inventory = []string{}
	}
	b, err := json.Marshal(u.Inventory)
	if err != nil {
		log.Error().Err(err).Str("user_id", u.ID).Msg("Failed to marshal inventory")
		b = []byte("[]")
	}
	u.InventoryJSON = string(b)
}

// PrepareForAPI unmarshals the JSON column into Inventory. A column that does
// not decode leaves the inventory empty.
func (u *User) PrepareForAPI() {
	u.Inventory = []string{}
	if u.InventoryJSON == "" {
		return
	}
	var items []string
	if err := json.Unmarshal([]byte(u.InventoryJSON), &items); err != nil {
		log.Error().Err(err).Str("user_id", u.ID).Msg("Failed to unmarshal inventory")
		return
	}
	if items != nil {
		u.Inventory = items
	}
}
