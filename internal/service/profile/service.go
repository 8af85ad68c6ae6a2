// Package profile implements profile construction: the merge/patch upsert
// behind the stepped onboarding flow and the matching quiz.
package profile

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/amora-app/amora-server/internal/app"
	"github.com/amora-app/amora-server/internal/db"
	apperrors "github.com/amora-app/amora-server/internal/errors"
	"github.com/amora-app/amora-server/internal/repository"
)

// Completion steps advanced by each onboarding field. The stored counter is
// monotonic: a re-run of an earlier step never lowers it.
const (
	StepName       = 1
	StepIntentions = 2
	StepBirthday   = 3
	StepGender     = 4
	StepPreference = 5
	StepPhotos     = 6
)

// MinPhotos is required before the profile counts as complete for matching.
const MinPhotos = 2

type Service struct {
	appCtx   *app.AppContext
	users    *repository.UserRepository
	profiles *repository.ProfileRepository
}

func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:   appCtx,
		users:    repository.NewUserRepository(appCtx.DB),
		profiles: repository.NewProfileRepository(appCtx.DB),
	}
}

// Patch is a partial profile update; nil fields stay untouched.
type Patch struct {
	FullName    *string             `json:"fullName"`
	Intentions  []string            `json:"intentions"`
	Birthday    *time.Time          `json:"birthday"`
	Gender      *string             `json:"gender"`
	Preference  *string             `json:"preference"`
	Photos      []string            `json:"photos"`
	Bio         *string             `json:"bio"`
	Latitude    *float64            `json:"latitude"`
	Longitude   *float64            `json:"longitude"`
	QuizAnswers map[string][]string `json:"quizAnswers"`
}

// Apply merges the patch into the user's profile, creating the row when
// missing, and advances the completion step to the highest step among the
// supplied fields.
func (s *Service) Apply(ctx context.Context, userID uint64, patch Patch) (*db.UserProfile, error) {
	if patch.Photos != nil && len(patch.Photos) < MinPhotos {
		return nil, apperrors.InvalidOperation("please upload at least two photos")
	}
	if (patch.Latitude == nil) != (patch.Longitude == nil) {
		return nil, apperrors.InvalidOperation("latitude and longitude must be set together")
	}

	if _, err := s.users.GetUser(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("user not found")
		}
		return nil, apperrors.Map(err)
	}

	updated, err := s.profiles.Apply(ctx, userID, repository.ProfilePatch(patch), stepFor(patch))
	if err != nil {
		return nil, apperrors.Map(err)
	}
	return updated, nil
}

// SubmitQuiz stores quiz answers on an existing profile. Unlike the
// onboarding patches it does not create the profile row.
func (s *Service) SubmitQuiz(ctx context.Context, userID uint64, answers map[string][]string) (*db.UserProfile, error) {
	if len(answers) == 0 {
		return nil, apperrors.InvalidOperation("quiz answers must not be empty")
	}

	if _, err := s.profiles.GetByUserID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("user profile not found")
		}
		return nil, apperrors.Map(err)
	}

	updated, err := s.profiles.Apply(ctx, userID, repository.ProfilePatch{QuizAnswers: answers}, 0)
	if err != nil {
		return nil, apperrors.Map(err)
	}
	return updated, nil
}

// Summary is the own-profile view.
type Summary struct {
	ID             uint64              `json:"id"`
	Email          string              `json:"email"`
	FullName       string              `json:"fullName,omitempty"`
	Photo          string              `json:"photo,omitempty"`
	IsPremium      bool                `json:"isPremium"`
	StreakCount    int                 `json:"streakCount"`
	CanShowStreak  bool                `json:"canShowStreak"`
	CompletionStep int                 `json:"profileCompletionStep"`
	QuizAnswers    map[string][]string `json:"quizAnswers,omitempty"`
}

// Get returns the user's own profile summary. The streak is only shown when
// it was updated today.
func (s *Service) Get(ctx context.Context, userID uint64) (*Summary, error) {
	user, err := s.users.GetUserWithProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("user not found")
		}
		return nil, apperrors.Map(err)
	}

	now := time.Now().UTC()
	summary := &Summary{
		ID:            user.ID,
		Email:         user.Email,
		IsPremium:     user.PremiumActive(now),
		StreakCount:   user.StreakCount,
		CanShowStreak: user.LastStreakDate != nil && sameDay(*user.LastStreakDate, now),
	}
	if user.Profile != nil {
		summary.FullName = user.Profile.FullName
		if len(user.Profile.Photos) > 0 {
			summary.Photo = user.Profile.Photos[0]
		}
		summary.CompletionStep = user.Profile.ProfileCompletionStep
		summary.QuizAnswers = user.Profile.QuizAnswers
	}
	return summary, nil
}

func stepFor(patch Patch) int {
	step := 0
	if patch.FullName != nil {
		step = StepName
	}
	if patch.Intentions != nil {
		step = StepIntentions
	}
	if patch.Birthday != nil {
		step = StepBirthday
	}
	if patch.Gender != nil {
		step = StepGender
	}
	if patch.Preference != nil {
		step = StepPreference
	}
	if patch.Photos != nil {
		step = StepPhotos
	}
	return step
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
