// Package engagement tracks daily activity streaks.
package engagement

import (
	"context"
	"errors"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/amora-app/amora-server/internal/app"
	apperrors "github.com/amora-app/amora-server/internal/errors"
	"github.com/amora-app/amora-server/internal/notify"
	"github.com/amora-app/amora-server/internal/repository"
)

// streakMilestones trigger a celebration notification when reached.
var streakMilestones = map[int]bool{3: true, 7: true, 14: true, 30: true}

type Service struct {
	appCtx *app.AppContext
	users  *repository.UserRepository
}

func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx: appCtx,
		users:  repository.NewUserRepository(appCtx.DB),
	}
}

// StreakStatus is the result of a streak update.
type StreakStatus struct {
	StreakCount int  `json:"streakCount"`
	Milestone   bool `json:"milestone"`
}

// UpdateStreak advances the user's daily streak. A second call on the same
// UTC day is a no-op, a call the day after the last one increments, and a
// longer gap resets the counter to 1.
func (s *Service) UpdateStreak(ctx context.Context, userID uint64) (*StreakStatus, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("user not found")
		}
		return nil, apperrors.Map(err)
	}

	now := time.Now().UTC()
	today := dateOf(now)

	if user.LastStreakDate != nil && dateOf(*user.LastStreakDate).Equal(today) {
		return &StreakStatus{StreakCount: user.StreakCount}, nil
	}

	count := 1
	if user.LastStreakDate != nil && dateOf(*user.LastStreakDate).Equal(today.AddDate(0, 0, -1)) {
		count = user.StreakCount + 1
	}

	if err := s.users.SetStreak(ctx, userID, count, now); err != nil {
		return nil, apperrors.Map(err)
	}

	milestone := streakMilestones[count]
	if milestone {
		s.appCtx.Logger.Info("streak milestone reached", "user_id", userID, "streak", count)
		event := notify.NewEvent(notify.EventStreak, userID, map[string]any{
			"streak": strconv.Itoa(count),
		})
		if err := s.appCtx.Notifier.Emit(ctx, event); err != nil {
			s.appCtx.Logger.Warn("streak notification failed", "user_id", userID, "err", err)
		}
	}

	return &StreakStatus{StreakCount: count, Milestone: milestone}, nil
}

// MarkStreakAsSeen records that today's streak was shown. Idempotent.
func (s *Service) MarkStreakAsSeen(ctx context.Context, userID uint64) error {
	if _, err := s.users.GetUser(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("user not found")
		}
		return apperrors.Map(err)
	}
	if err := s.users.SetStreakSeen(ctx, userID, time.Now().UTC()); err != nil {
		return apperrors.Map(err)
	}
	return nil
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
