// Package game holds the gamification state transitions: login streaks,
// level-ups and challenge progress. Everything here is pure and operates on
// models values, so it can be tested without a store.
package game

import (
	"time"

	"github.com/isdelr/socialquest-be/internal/models"
)

const (
	PostXP        = 10
	LikeXP        = 5
	XPPerLevel    = 100
	LevelUpCoins  = 100
	StreakWindow  = 48 * time.Hour
	DefaultCoins  = 100
	DefaultLevel  = 1
	DefaultStreak = 0
)

// RewardItems is the fixed set a level-up draws from.
var RewardItems = []string{
	"Bronze Badge",
	"Mystery Box",
	"XP Potion",
	"Golden Frame",
	"Lucky Charm",
}

// ApplyLogin advances the streak for a login at now.
//
// A login on the same calendar day (in loc) as LastActive changes nothing.
// Otherwise the streak grows when the gap is under StreakWindow and restarts
// at 1 when it is not, and LastActive moves to now. The day check and the
// window check can disagree around midnight; both are kept as-is.
func ApplyLogin(u *models.User, now time.Time, loc *time.Location) bool {
	if loc == nil {
		loc = time.UTC
	}
	if sameDay(u.LastActive, now, loc) {
		return false
	}
	if now.Sub(u.LastActive) < StreakWindow {
		u.Streak++
	} else {
		u.Streak = 1
	}
	u.LastActive = now
	return true
}

func sameDay(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}

// LevelUpResult is the outcome of a level-up check.
type LevelUpResult struct {
	LeveledUp  bool   `json:"leveledUp"`
	NewLevel   int    `json:"newLevel,omitempty"`
	RewardItem string `json:"rewardItem,omitempty"`
}

// CheckLevelUp promotes u by one level when xp reaches level*100.
// Only one threshold is subtracted per check. pick(n) must return a value in [0, n).
func CheckLevelUp(u *models.User, pick func(n int) int) LevelUpResult {
	threshold := u.Level * XPPerLevel
	if u.XP < threshold {
		return LevelUpResult{}
	}

	u.Level++
	u.XP -= threshold
	u.Coins += LevelUpCoins
	item := RewardItems[pick(len(RewardItems))]
	u.Inventory = append(u.Inventory, item)

	return LevelUpResult{LeveledUp: true, NewLevel: u.Level, RewardItem: item}
}
