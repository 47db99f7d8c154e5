package db

import (
	"time"
)

// User table. Display fields are what Discovery hands to clients as the
// profile attribute bag.
type User struct {
	ID           uint64 `gorm:"primaryKey;autoIncrement"`
	Username     string `gorm:"uniqueIndex;size:64;not null"`
	Email        string `gorm:"uniqueIndex;size:128;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	Active       bool   `gorm:"default:true;index"`
	LastLoginAt  time.Time
	Gender       string    `gorm:"size:16;not null"`
	DisplayName  string    `gorm:"size:64"`
	Bio          string    `gorm:"size:512"`
	Age          int       `gorm:"not null;default:0"`
	City         string    `gorm:"size:64"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

// Account holds a user's plan and daily quota counters.
//
// Fields:
//   - SwipeLimit: daily swipe allowance, -1 for unlimited.
//   - SwipesUsed: swipes consumed on LastResetDate.
//   - SuperlikesAvailable: superlike inventory; topped up to the plan
//     allotment on reset, never lowered by it.
//   - LastResetDate: quota day ("2006-01-02") in TimeZone.
type Account struct {
	UserID              uint64    `gorm:"primaryKey"`
	PlanTier            string    `gorm:"size:32;not null"`
	SwipeLimit          int       `gorm:"not null"`
	SwipesUsed          int       `gorm:"not null;default:0"`
	SuperlikesAvailable int       `gorm:"not null;default:0"`
	LastResetDate       string    `gorm:"size:10;not null"`
	TimeZone            string    `gorm:"size:64;not null;default:UTC"`
	CreatedAt           time.Time `gorm:"autoCreateTime"`
	UpdatedAt           time.Time `gorm:"autoUpdateTime"`
}

// Decision represents an actor's pass/like/superlike on a recipient.
//
// Composite PK: (ActorID, RecipientID)
//   - A pair is decided at most once; a second decision with a different
//     idempotency key is a conflict.
//
// Indexes:
//   - idx_actor_recipient_liked(actor_id, recipient_id, liked)
//     O(1) lookup for the match check.
//   - idx_idempotency_key(idempotency_key)
//     Replay lookup when the receipt cache has expired.
type Decision struct {
	ActorID        uint64    `gorm:"primaryKey;index:idx_actor_recipient_liked,priority:1"`
	RecipientID    uint64    `gorm:"primaryKey;index:idx_actor_recipient_liked,priority:2"`
	Direction      string    `gorm:"size:16;not null"`
	Liked          bool      `gorm:"not null;type:tinyint(1);index:idx_actor_recipient_liked,priority:3"`
	IdempotencyKey string    `gorm:"size:36;not null;uniqueIndex:idx_idempotency_key"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime"`
}
