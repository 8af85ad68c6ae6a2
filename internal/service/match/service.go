// Package match implements the matching engine: feed construction,
// swipe recording with mutual-match detection, premium-gated liked-me
// listings and the daily boost.
package match

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/amora-app/amora-server/internal/app"
	"github.com/amora-app/amora-server/internal/cache"
	"github.com/amora-app/amora-server/internal/db"
	apperrors "github.com/amora-app/amora-server/internal/errors"
	"github.com/amora-app/amora-server/internal/metrics"
	"github.com/amora-app/amora-server/internal/notify"
	"github.com/amora-app/amora-server/internal/repository"
)

const (
	// dailyLikeLimit caps LIKEs per UTC calendar day for non-premium users.
	dailyLikeLimit = 10

	defaultFeedLimit   = 20
	defaultSearchLimit = 10
	premiumDefaultDays = 30
)

// Service contains the engine's business logic on top of the repository and
// cache layers.
type Service struct {
	appCtx       *app.AppContext
	users        *repository.UserRepository
	profiles     *repository.ProfileRepository
	interactions *repository.InteractionRepository
	boosts       *repository.BoostRepository
}

// NewService creates the match engine with dependencies from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:       appCtx,
		users:        repository.NewUserRepository(appCtx.DB),
		profiles:     repository.NewProfileRepository(appCtx.DB),
		interactions: repository.NewInteractionRepository(appCtx.DB),
		boosts:       repository.NewBoostRepository(appCtx.DB),
	}
}

// SwipeResult is the outcome of RecordAction.
type SwipeResult struct {
	Message string `json:"message"`
	Match   bool   `json:"match"`
}

// RecordAction records a LIKE or PASS from userID on targetID.
//
// Behavior:
//   - Self-action and unknown actions are rejected before any read.
//   - Unknown targets fail with a not-found error.
//   - Non-premium actors get dailyLikeLimit LIKEs per UTC day; the check
//     and the write share one transaction, so nothing is recorded when the
//     budget is spent.
//   - A reciprocal LIKE upgrades both rows to a match atomically and emits
//     a single match event to the target, after commit, best-effort.
func (s *Service) RecordAction(ctx context.Context, userID, targetID uint64, action string) (*SwipeResult, error) {
	action = strings.ToUpper(strings.TrimSpace(action))
	if action != db.ActionLike && action != db.ActionPass {
		return nil, apperrors.InvalidOperation("action must be LIKE or PASS")
	}
	if userID == targetID {
		return nil, apperrors.InvalidOperation("cannot perform this action on yourself")
	}

	actor, err := s.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("user not found")
		}
		return nil, apperrors.Map(err)
	}
	if _, err := s.users.GetUser(ctx, targetID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("target user not found")
		}
		return nil, apperrors.Map(err)
	}

	maxDailyLikes := dailyLikeLimit
	if actor.PremiumActive(time.Now().UTC()) {
		maxDailyLikes = 0 // unlimited
	}

	outcome, err := s.interactions.RecordSwipe(ctx, userID, targetID, action, maxDailyLikes)
	if err != nil {
		if errors.Is(err, repository.ErrDailyLikeLimit) {
			metrics.RecordLikeLimitRejection()
			return nil, apperrors.LimitExceeded("You've reached your daily like limit. Upgrade to premium for unlimited likes.")
		}
		return nil, apperrors.Map(err)
	}

	if outcome.AlreadyMatched {
		// duplicate submit on an existing match: nothing changed, and the
		// fan-out already happened when the match was first made
		return &SwipeResult{Message: "It's a match!", Match: true}, nil
	}

	metrics.RecordSwipe(action)
	s.maintainLikeCount(ctx, userID, targetID, action, outcome)

	if outcome.Matched {
		metrics.RecordMatch()
		ev := notify.NewEvent(notify.EventMatch, targetID, map[string]any{
			"title": "It's a Match!",
			"body":  "You've got a new match!",
			"from":  strconv.FormatUint(userID, 10),
		})
		if err := s.appCtx.Notifier.Emit(ctx, ev); err != nil {
			// delivery is best-effort; the interaction state is already durable
			s.appCtx.Logger.Error("match notification failed",
				"op", "RecordAction", "actor_id", userID, "target_id", targetID, "err", err)
		}
		return &SwipeResult{Message: "It's a match!", Match: true}, nil
	}

	return &SwipeResult{Message: "Interaction recorded", Match: false}, nil
}

// maintainLikeCount keeps the cached liked-me counters in step with the
// swipe. A fresh one-way like increments the target's counter; a like that
// completed a match invalidates both sides, since the reciprocal row left
// the actor's unreciprocated set too. Any overwrite of an existing row
// invalidates instead of guessing a delta: the prior action may or may not
// have been counted.
func (s *Service) maintainLikeCount(ctx context.Context, actorID, targetID uint64, action string, outcome repository.SwipeOutcome) {
	targetKey := s.appCtx.RedisCache.KeyForLikeCount(targetID)
	switch {
	case action == db.ActionLike && outcome.Matched:
		_ = s.appCtx.RedisCache.Del(ctx, targetKey)
		_ = s.appCtx.RedisCache.Del(ctx, s.appCtx.RedisCache.KeyForLikeCount(actorID))
	case action == db.ActionLike && !outcome.Overwrote:
		_, _ = s.appCtx.RedisCache.Incr(ctx, targetKey)
		_ = s.appCtx.RedisCache.Touch(ctx, targetKey, cache.LikeCountTTL)
	case outcome.Overwrote:
		_ = s.appCtx.RedisCache.Del(ctx, targetKey)
	}
}

// UserCard is the trimmed user view returned by list endpoints.
type UserCard struct {
	ID       uint64 `json:"id"`
	FullName string `json:"fullName"`
	Photo    string `json:"photo,omitempty"`
	Age      *int   `json:"age"`
}

// GetPeopleWhoLikedMe lists users who liked userID and have not been liked
// back. Premium only; reciprocated pairs are surfaced by GetMatchedUsers.
func (s *Service) GetPeopleWhoLikedMe(ctx context.Context, userID uint64) ([]UserCard, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("user not found")
		}
		return nil, apperrors.Map(err)
	}
	if !user.PremiumActive(time.Now().UTC()) {
		return nil, apperrors.PermissionDenied("Upgrade to premium to see who liked you.")
	}

	likers, err := s.interactions.ListLikers(ctx, userID)
	if err != nil {
		return nil, apperrors.Map(err)
	}
	return toCards(likers), nil
}

// MatchesResult is a page of mutual matches.
type MatchesResult struct {
	Page  int        `json:"page"`
	Total int        `json:"total"`
	Items []UserCard `json:"items"`
}

// GetMatchedUsers returns the users mutually matched with userID.
func (s *Service) GetMatchedUsers(ctx context.Context, userID uint64, page, limit int) (*MatchesResult, error) {
	if _, err := s.users.GetUser(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("user not found")
		}
		return nil, apperrors.Map(err)
	}

	matched, err := s.interactions.ListMatches(ctx, userID)
	if err != nil {
		return nil, apperrors.Map(err)
	}

	pg := normalizePage(page, limit, defaultFeedLimit)
	start, end := pg.Slice(len(matched))
	return &MatchesResult{
		Page:  pg.Page,
		Total: len(matched),
		Items: toCards(matched[start:end]),
	}, nil
}

// CountLikedMe returns the number of unreciprocated likes for userID.
// Cache-first: reads Redis, falls back to the DB and repopulates with TTL.
func (s *Service) CountLikedMe(ctx context.Context, userID uint64) (int64, error) {
	key := s.appCtx.RedisCache.KeyForLikeCount(userID)

	if cached, _ := s.appCtx.RedisCache.Get(ctx, key); cached != "" {
		if n, err := strconv.ParseInt(cached, 10, 64); err == nil {
			// refresh TTL since this user is active
			_ = s.appCtx.RedisCache.Touch(ctx, key, cache.LikeCountTTL)
			return n, nil
		}
	}

	count, err := s.interactions.CountLikers(ctx, userID)
	if err != nil {
		return 0, apperrors.Map(err)
	}
	_ = s.appCtx.RedisCache.Set(ctx, key, strconv.FormatInt(count, 10), cache.LikeCountTTL)
	return count, nil
}

// BoostResult is the outcome of BoostProfile.
type BoostResult struct {
	Message   string    `json:"message"`
	BoostedAt time.Time `json:"boostedAt"`
}

// BoostProfile spends the user's free daily boost, or boosts unconditionally
// for premium users, and stamps the profile's boosted-at marker.
func (s *Service) BoostProfile(ctx context.Context, userID uint64) (*BoostResult, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("user not found")
		}
		return nil, apperrors.Map(err)
	}

	now := time.Now().UTC()
	if !user.PremiumActive(now) {
		created, err := s.boosts.TryCreateBoost(ctx, userID, now.Format("2006-01-02"))
		if err != nil {
			return nil, apperrors.Map(err)
		}
		if !created {
			return nil, apperrors.LimitExceeded("Free boost already used today. Upgrade to premium for unlimited boosts.")
		}
	}

	if err := s.profiles.SetBoostedAt(ctx, userID, now); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("user profile not found")
		}
		return nil, apperrors.Map(err)
	}

	metrics.RecordBoost()
	return &BoostResult{Message: "Profile boosted successfully", BoostedAt: now}, nil
}

// UpgradeToPremium flips the premium flag for days (default 30).
func (s *Service) UpgradeToPremium(ctx context.Context, userID uint64, days int) error {
	if days <= 0 {
		days = premiumDefaultDays
	}
	now := time.Now().UTC()
	err := s.users.UpgradePremium(ctx, userID, now, now.AddDate(0, 0, days))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("user not found")
		}
		return apperrors.Map(err)
	}
	return nil
}

func toCards(users []db.User) []UserCard {
	now := time.Now().UTC()
	cards := make([]UserCard, 0, len(users))
	for _, u := range users {
		card := UserCard{ID: u.ID}
		if u.Profile != nil {
			card.FullName = u.Profile.FullName
			if len(u.Profile.Photos) > 0 {
				card.Photo = u.Profile.Photos[0]
			}
			card.Age = u.Profile.Age(now)
		}
		cards = append(cards, card)
	}
	return cards
}
