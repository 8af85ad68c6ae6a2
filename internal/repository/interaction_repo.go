package repository

import (
	"context"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/amora-app/amora-server/internal/db"
)

// ErrDailyLikeLimit is returned by RecordSwipe when the actor's daily like
// budget is exhausted. Nothing is written in that case.
var ErrDailyLikeLimit = errors.New("daily like limit reached")

// InteractionRepository provides data access for the MatchInteraction model.
// It owns the transactional swipe unit: the daily-limit check, the
// reciprocal-like detection and the dual is_match flip happen inside one
// database transaction.
type InteractionRepository struct {
	db *gorm.DB
}

func NewInteractionRepository(database *gorm.DB) *InteractionRepository {
	return &InteractionRepository{db: database}
}

// SwipeOutcome reports what a RecordSwipe call did.
type SwipeOutcome struct {
	Matched        bool
	AlreadyMatched bool // the pair was matched before this call; nothing changed
	Overwrote      bool // the upsert replaced an existing actor -> target row
}

// maxSwipeRetries bounds deadlock retries for the swipe transaction.
const maxSwipeRetries = 3

// RecordSwipe upserts the directed interaction actor -> target.
//
// Behavior:
//   - One row per (actor_id, target_id): re-submitting overwrites the action
//     instead of creating a duplicate (overwrite guarantee).
//   - A LIKE re-submitted on a pair that is already matched changes nothing
//     and reports AlreadyMatched, so callers can skip the match fan-out.
//   - For LIKE with maxDailyLikes > 0, the actor's LIKE count since UTC
//     midnight is checked first; at or over budget the transaction aborts
//     with ErrDailyLikeLimit and no row is written. Overwriting an existing
//     LIKE does not consume fresh budget.
//   - For LIKE, an existing reciprocal LIKE row is looked up under a row
//     lock (MySQL; SQLite serializes writers on its own) and, when present,
//     both rows end the transaction with is_match = true. Concurrent mutual
//     likes therefore produce exactly one matched transition.
//   - Two concurrent first likes on a fresh pair can gap-lock each other on
//     MySQL; the victim transaction is retried, where it then sees the
//     winner's row.
//
// maxDailyLikes <= 0 disables the limit (premium actors).
func (r *InteractionRepository) RecordSwipe(
	ctx context.Context,
	actorID, targetID uint64,
	action string,
	maxDailyLikes int,
) (SwipeOutcome, error) {
	var outcome SwipeOutcome
	var err error
	for attempt := 0; attempt < maxSwipeRetries; attempt++ {
		outcome, err = r.recordSwipeOnce(ctx, actorID, targetID, action, maxDailyLikes)
		if !isDeadlock(err) {
			break
		}
	}
	return outcome, err
}

func (r *InteractionRepository) recordSwipeOnce(
	ctx context.Context,
	actorID, targetID uint64,
	action string,
	maxDailyLikes int,
) (SwipeOutcome, error) {
	var outcome SwipeOutcome

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		outcome = SwipeOutcome{}

		var existing db.MatchInteraction
		err := tx.Where("actor_id = ? AND target_id = ?", actorID, targetID).
			First(&existing).Error
		switch {
		case err == nil:
			outcome.Overwrote = true
		case errors.Is(err, gorm.ErrRecordNotFound):
			// first swipe in this direction
		default:
			return err
		}

		if action == db.ActionLike && outcome.Overwrote &&
			existing.Action == db.ActionLike && existing.IsMatch {
			outcome.Matched = true
			outcome.AlreadyMatched = true
			return nil
		}

		newLike := action == db.ActionLike &&
			!(outcome.Overwrote && existing.Action == db.ActionLike)
		if newLike && maxDailyLikes > 0 {
			count, err := countLikesSince(tx, actorID, startOfToday())
			if err != nil {
				return err
			}
			if count >= int64(maxDailyLikes) {
				return ErrDailyLikeLimit
			}
		}

		matched := false
		if action == db.ActionLike {
			query := tx
			if tx.Dialector.Name() == "mysql" {
				query = tx.Clauses(clause.Locking{Strength: "UPDATE"})
			}

			var reciprocal db.MatchInteraction
			err := query.
				Where("actor_id = ? AND target_id = ? AND action = ?", targetID, actorID, db.ActionLike).
				First(&reciprocal).Error
			switch {
			case err == nil:
				matched = true
			case errors.Is(err, gorm.ErrRecordNotFound):
				// no reciprocal like yet
			default:
				return err
			}

			if matched {
				err := tx.Model(&db.MatchInteraction{}).
					Where("actor_id = ? AND target_id = ?", targetID, actorID).
					Update("is_match", true).Error
				if err != nil {
					return err
				}
			}
		}

		interaction := db.MatchInteraction{
			ActorID:  actorID,
			TargetID: targetID,
			Action:   action,
			IsMatch:  matched,
		}
		err = tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "actor_id"}, {Name: "target_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"action", "is_match", "updated_at"}),
		}).Create(&interaction).Error
		if err != nil {
			return err
		}

		outcome.Matched = matched
		return nil
	})

	return outcome, err
}

// ListExcludedTargetIDs returns every target the actor has already swiped
// on, regardless of direction of outcome. These never reappear in the feed.
func (r *InteractionRepository) ListExcludedTargetIDs(ctx context.Context, actorID uint64) ([]uint64, error) {
	var ids []uint64
	err := r.db.WithContext(ctx).
		Model(&db.MatchInteraction{}).
		Where("actor_id = ?", actorID).
		Pluck("target_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// CountLikesSince counts LIKE rows issued by the actor since the given time.
func (r *InteractionRepository) CountLikesSince(ctx context.Context, actorID uint64, since time.Time) (int64, error) {
	return countLikesSince(r.db.WithContext(ctx), actorID, since)
}

// FindReciprocalLike returns the LIKE row target -> actor if it exists.
func (r *InteractionRepository) FindReciprocalLike(ctx context.Context, actorID, targetID uint64) (*db.MatchInteraction, error) {
	var reciprocal db.MatchInteraction
	err := r.db.WithContext(ctx).
		Where("actor_id = ? AND target_id = ? AND action = ?", targetID, actorID, db.ActionLike).
		First(&reciprocal).Error
	if err != nil {
		return nil, err
	}
	return &reciprocal, nil
}

// ListLikers returns users who liked the target and have not been liked
// back (is_match = false), most recent first, with profiles preloaded.
// Reciprocated likes surface through ListMatches instead.
func (r *InteractionRepository) ListLikers(ctx context.Context, targetID uint64) ([]db.User, error) {
	var users []db.User
	err := r.db.WithContext(ctx).
		Preload("Profile").
		Joins("JOIN match_interactions mi ON mi.actor_id = users.id").
		Where("mi.target_id = ? AND mi.action = ? AND mi.is_match = ?", targetID, db.ActionLike, false).
		Order("mi.updated_at DESC").
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

// CountLikers returns how many unreciprocated likes the target has, the DB
// fallback behind the Redis counter.
func (r *InteractionRepository) CountLikers(ctx context.Context, targetID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.MatchInteraction{}).
		Where("target_id = ? AND action = ? AND is_match = ?", targetID, db.ActionLike, false).
		Count(&count).Error
	return count, err
}

// ListMatches returns the users mutually matched with userID, most recent
// first, with profiles preloaded.
func (r *InteractionRepository) ListMatches(ctx context.Context, userID uint64) ([]db.User, error) {
	var users []db.User
	err := r.db.WithContext(ctx).
		Preload("Profile").
		Joins("JOIN match_interactions mi ON mi.target_id = users.id").
		Where("mi.actor_id = ? AND mi.is_match = ?", userID, true).
		Order("mi.updated_at DESC").
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

func countLikesSince(tx *gorm.DB, actorID uint64, since time.Time) (int64, error) {
	var count int64
	err := tx.Model(&db.MatchInteraction{}).
		Where("actor_id = ? AND action = ? AND created_at >= ?", actorID, db.ActionLike, since).
		Count(&count).Error
	return count, err
}

// startOfToday returns UTC midnight; the daily like budget resets on the
// UTC calendar day.
func startOfToday() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// isDeadlock matches InnoDB error 1213, the victim of a lock-wait cycle.
func isDeadlock(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1213
}
