package db

import (
	"time"
)

// User account statuses.
const (
	StatusPending   = "pending"
	StatusActive    = "active"
	StatusSuspended = "suspended"
)

// Swipe actions.
const (
	ActionLike = "LIKE"
	ActionPass = "PASS"
)

// User table. Email is stored lowercase; uniqueness is case-insensitive by
// construction.
type User struct {
	ID                  uint64 `gorm:"primaryKey;autoIncrement"`
	Email               string `gorm:"uniqueIndex;size:128;not null"`
	PasswordHash        string `gorm:"size:255;not null"`
	Role                string `gorm:"size:16;not null;default:user"`
	Status              string `gorm:"size:16;not null;default:pending;index"`
	IsVerified          bool   `gorm:"default:false"`
	VerificationExpires *time.Time
	IsPremium           bool `gorm:"default:false"`
	PremiumSince        *time.Time
	PremiumExpires      *time.Time
	StreakCount         int `gorm:"default:0"`
	LastStreakDate      *time.Time
	StreakSeenAt        *time.Time
	CreatedAt           time.Time `gorm:"autoCreateTime"`
	UpdatedAt           time.Time `gorm:"autoUpdateTime"`

	Profile *UserProfile `gorm:"foreignKey:UserID"`
}

// PremiumActive reports whether the premium flag is set and still inside
// its validity window.
func (u *User) PremiumActive(now time.Time) bool {
	if !u.IsPremium {
		return false
	}
	if u.PremiumExpires != nil && u.PremiumExpires.Before(now) {
		return false
	}
	return true
}

// UserProfile holds mutable profile data, 1:0..1 on User.
//
// A profile missing quiz answers or birthday still participates in matching
// with degraded scoring; only users with no profile row at all are excluded
// from candidate pools.
type UserProfile struct {
	ID                    uint64 `gorm:"primaryKey;autoIncrement"`
	UserID                uint64 `gorm:"uniqueIndex;not null"`
	FullName              string `gorm:"size:128"`
	Intentions            []string `gorm:"serializer:json"`
	Birthday              *time.Time
	Gender                string   `gorm:"size:16;index"`
	Preference            string   `gorm:"size:16"`
	Photos                []string `gorm:"serializer:json"`
	Bio                   string   `gorm:"size:1024"`
	Latitude              *float64
	Longitude             *float64
	QuizAnswers           map[string][]string `gorm:"serializer:json"`
	ProfileCompletionStep int                 `gorm:"default:0"`
	BoostedAt             *time.Time
	CreatedAt             time.Time `gorm:"autoCreateTime"`
	UpdatedAt             time.Time `gorm:"autoUpdateTime"`
}

// Age derives the profile's age in whole years, nil when the birthday is
// unknown.
func (p *UserProfile) Age(now time.Time) *int {
	if p.Birthday == nil {
		return nil
	}
	b := *p.Birthday
	years := now.Year() - b.Year()
	if now.Month() < b.Month() || (now.Month() == b.Month() && now.Day() < b.Day()) {
		years--
	}
	return &years
}

// HasCoordinates reports whether both latitude and longitude are set.
func (p *UserProfile) HasCoordinates() bool {
	return p.Latitude != nil && p.Longitude != nil
}

// MatchInteraction is a directional swipe edge actor -> target.
//
// Unique index (actor_id, target_id): one row per directed pair, duplicate
// submits are upserts (overwrite guarantee), never duplicate rows.
//
// Index idx_target_action_match(target_id, action, is_match) backs
// "who liked me" lookups; idx_actor_action_created(actor_id, action,
// created_at) backs the daily like counter.
type MatchInteraction struct {
	ActorID   uint64    `gorm:"primaryKey;index:idx_actor_action_created,priority:1"`
	TargetID  uint64    `gorm:"primaryKey;index:idx_target_action_match,priority:1"`
	Action    string    `gorm:"size:8;not null;index:idx_target_action_match,priority:2;index:idx_actor_action_created,priority:2"`
	IsMatch   bool      `gorm:"not null;default:false;index:idx_target_action_match,priority:3"`
	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_actor_action_created,priority:3"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// ProfileBoost is the free daily boost token for non-premium users, one row
// per (user, calendar day).
type ProfileBoost struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	UserID    uint64    `gorm:"uniqueIndex:idx_boost_user_date,priority:1;not null"`
	Date      string    `gorm:"size:10;uniqueIndex:idx_boost_user_date,priority:2;not null"` // YYYY-MM-DD, UTC
	CreatedAt time.Time `gorm:"autoCreateTime"`
}
