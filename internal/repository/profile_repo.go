package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/amora-app/amora-server/internal/db"
)

// ProfileRepository provides data access for UserProfile rows.
type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(database *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: database}
}

// GetByUserID fetches the profile owned by the given user.
func (r *ProfileRepository) GetByUserID(ctx context.Context, userID uint64) (*db.UserProfile, error) {
	var profile db.UserProfile
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// ProfilePatch is a partial profile update. Nil pointer / nil slice / nil map
// fields are left untouched.
type ProfilePatch struct {
	FullName    *string
	Intentions  []string
	Birthday    *time.Time
	Gender      *string
	Preference  *string
	Photos      []string
	Bio         *string
	Latitude    *float64
	Longitude   *float64
	QuizAnswers map[string][]string
}

// Apply merges a patch into the user's profile, creating the row when
// missing. The completion step only ever moves forward: step is written
// when it exceeds the stored value.
func (r *ProfileRepository) Apply(ctx context.Context, userID uint64, patch ProfilePatch, step int) (*db.UserProfile, error) {
	var profile db.UserProfile

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("user_id = ?", userID).First(&profile).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			profile = db.UserProfile{UserID: userID}
		} else if err != nil {
			return err
		}

		if patch.FullName != nil {
			profile.FullName = *patch.FullName
		}
		if patch.Intentions != nil {
			profile.Intentions = patch.Intentions
		}
		if patch.Birthday != nil {
			profile.Birthday = patch.Birthday
		}
		if patch.Gender != nil {
			profile.Gender = *patch.Gender
		}
		if patch.Preference != nil {
			profile.Preference = *patch.Preference
		}
		if patch.Photos != nil {
			profile.Photos = patch.Photos
		}
		if patch.Bio != nil {
			profile.Bio = *patch.Bio
		}
		if patch.Latitude != nil {
			profile.Latitude = patch.Latitude
		}
		if patch.Longitude != nil {
			profile.Longitude = patch.Longitude
		}
		if patch.QuizAnswers != nil {
			profile.QuizAnswers = patch.QuizAnswers
		}
		if step > profile.ProfileCompletionStep {
			profile.ProfileCompletionStep = step
		}

		return tx.Save(&profile).Error
	})
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// SetBoostedAt stamps the profile's boosted-at marker.
func (r *ProfileRepository) SetBoostedAt(ctx context.Context, userID uint64, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&db.UserProfile{}).
		Where("user_id = ?", userID).
		Update("boosted_at", at)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
