package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/amora-app/amora-server/internal/db"
)

// UserRepository provides data access for User rows and candidate pools.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new repository bound to the given DB connection.
func NewUserRepository(database *gorm.DB) *UserRepository {
	return &UserRepository{db: database}
}

// GetUser fetches a user by id.
func (r *UserRepository) GetUser(ctx context.Context, id uint64) (*db.User, error) {
	var user db.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserWithProfile fetches a user with its profile preloaded. The profile
// may be nil; callers decide whether that is an error.
func (r *UserRepository) GetUserWithProfile(ctx context.Context, id uint64) (*db.User, error) {
	var user db.User
	if err := r.db.WithContext(ctx).Preload("Profile").First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByEmail looks a user up by case-insensitive email.
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*db.User, error) {
	var user db.User
	err := r.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// CandidateFilter narrows the candidate pool query. HasProfile is implied:
// users without a profile row never surface as candidates.
type CandidateFilter struct {
	ExcludeIDs []uint64
	Gender     string // profile gender, empty = any
	Status     string
}

// QueryCandidates returns users matching the filter with profiles preloaded.
//
// Behavior:
//   - Only users whose status matches filter.Status.
//   - Users without a profile row are always excluded.
//   - ExcludeIDs (self + prior interactions) are removed in the query.
//   - Optional gender narrowing against the profile.
func (r *UserRepository) QueryCandidates(ctx context.Context, filter CandidateFilter) ([]db.User, error) {
	query := r.db.WithContext(ctx).
		Preload("Profile").
		Where("users.status = ?", filter.Status).
		Where("users.id IN (SELECT user_id FROM user_profiles)")

	if len(filter.ExcludeIDs) > 0 {
		query = query.Where("users.id NOT IN ?", filter.ExcludeIDs)
	}
	if filter.Gender != "" {
		query = query.Where("users.id IN (SELECT user_id FROM user_profiles WHERE gender = ?)", filter.Gender)
	}

	var users []db.User
	if err := query.Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// UpgradePremium flips the premium flag with a validity window.
func (r *UserRepository) UpgradePremium(ctx context.Context, id uint64, since, expires time.Time) error {
	res := r.db.WithContext(ctx).Model(&db.User{}).Where("id = ?", id).Updates(map[string]any{
		"is_premium":      true,
		"premium_since":   since,
		"premium_expires": expires,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SetStreak writes the streak counter and its last-update date.
func (r *UserRepository) SetStreak(ctx context.Context, id uint64, count int, at time.Time) error {
	return r.db.WithContext(ctx).Model(&db.User{}).Where("id = ?", id).Updates(map[string]any{
		"streak_count":     count,
		"last_streak_date": at,
	}).Error
}

// SetStreakSeen records that today's streak was displayed to the user.
func (r *UserRepository) SetStreakSeen(ctx context.Context, id uint64, at time.Time) error {
	return r.db.WithContext(ctx).Model(&db.User{}).Where("id = ?", id).
		Update("streak_seen_at", at).Error
}
