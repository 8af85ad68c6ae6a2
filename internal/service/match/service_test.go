package match_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/amora-app/amora-server/internal/app"
	"github.com/amora-app/amora-server/internal/cache"
	"github.com/amora-app/amora-server/internal/config"
	"github.com/amora-app/amora-server/internal/db"
	apperrors "github.com/amora-app/amora-server/internal/errors"
	"github.com/amora-app/amora-server/internal/notify"
	"github.com/amora-app/amora-server/internal/service/match"
)

//
// Test helpers
//

// captureDispatcher records emitted events instead of delivering them.
type captureDispatcher struct {
	events []notify.Event
}

func (d *captureDispatcher) Emit(_ context.Context, ev notify.Event) error {
	d.events = append(d.events, ev)
	return nil
}

// seedMinimal wipes the DB and inserts a minimal, deterministic dataset.
//
// Dataset:
//   - Users: user1 (male, premium), user2 (female), user3 (female)
//   - Interactions:
//   - user1 → user2 = LIKE, user2 → user1 = LIKE (mutual, is_match set)
//   - user3 → user1 = LIKE (one-way)
//   - user1 → user3 = PASS
//
// This covers mutual detection, pass exclusion, liked-me listing and the
// cached counter in one fixture.
func seedMinimal(t *testing.T, gdb *gorm.DB) {
	t.Helper()

	require.NoError(t, gdb.Exec("DELETE FROM match_interactions").Error)
	require.NoError(t, gdb.Exec("DELETE FROM user_profiles").Error)
	require.NoError(t, gdb.Exec("DELETE FROM profile_boosts").Error)
	require.NoError(t, gdb.Exec("DELETE FROM users").Error)

	users := []db.User{
		{ID: 1, Email: "u1@test.com", PasswordHash: "x", Status: db.StatusActive, IsPremium: true},
		{ID: 2, Email: "u2@test.com", PasswordHash: "x", Status: db.StatusActive},
		{ID: 3, Email: "u3@test.com", PasswordHash: "x", Status: db.StatusActive},
	}
	require.NoError(t, gdb.Create(&users).Error)

	birthday := func(age int) *time.Time {
		b := time.Now().UTC().AddDate(-age, 0, -1)
		return &b
	}
	profiles := []db.UserProfile{
		{UserID: 1, FullName: "User One", Gender: "male", Preference: "female",
			Birthday: birthday(30), Photos: []string{"1a.jpg", "1b.jpg"},
			QuizAnswers: map[string][]string{"loveLanguage": {"touch"}, "weekendVibe": {"outdoors"}}},
		{UserID: 2, FullName: "User Two", Gender: "female", Preference: "male",
			Birthday: birthday(28), Photos: []string{"2a.jpg", "2b.jpg"},
			QuizAnswers: map[string][]string{"loveLanguage": {"touch"}, "weekendVibe": {"cosy"}}},
		{UserID: 3, FullName: "User Three", Gender: "female", Preference: "male",
			Birthday: birthday(25), Photos: []string{"3a.jpg", "3b.jpg"},
			QuizAnswers: map[string][]string{"loveLanguage": {"words"}, "weekendVibe": {"outdoors"}}},
	}
	require.NoError(t, gdb.Create(&profiles).Error)

	interactions := []db.MatchInteraction{
		{ActorID: 1, TargetID: 2, Action: db.ActionLike, IsMatch: true},
		{ActorID: 2, TargetID: 1, Action: db.ActionLike, IsMatch: true},
		{ActorID: 3, TargetID: 1, Action: db.ActionLike},
		{ActorID: 1, TargetID: 3, Action: db.ActionPass},
	}
	require.NoError(t, gdb.Create(&interactions).Error)
}

// addUser inserts an extra active user with a bare profile.
func addUser(t *testing.T, gdb *gorm.DB, id uint64, gender string) {
	t.Helper()
	user := db.User{ID: id, Email: fmt.Sprintf("u%d@test.com", id), PasswordHash: "x", Status: db.StatusActive}
	require.NoError(t, gdb.Create(&user).Error)
	profile := db.UserProfile{UserID: id, FullName: fmt.Sprintf("User %d", id), Gender: gender,
		Photos: []string{"a.jpg", "b.jpg"}}
	require.NoError(t, gdb.Create(&profile).Error)
}

// setupService spins up an in-memory SQLite DB, applies migrations, seeds
// the minimal dataset, starts a miniredis, and wires everything into a
// match Service.
//
// Each test gets its own isolated DB + Redis.
func setupService(t *testing.T) (*match.Service, *app.AppContext) {
	t.Helper()

	dbName := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	dbase, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{
		NowFunc:                func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	sqlDB, err := dbase.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, dbase.AutoMigrate(&db.User{}, &db.UserProfile{}, &db.MatchInteraction{}, &db.ProfileBoost{}))
	seedMinimal(t, dbase)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(func() { mr.Close() })

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()

	redisCache := cache.NewRedisCache(cfg)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // discard logs in tests

	appCtx := app.New(dbase, redisCache, logger, &captureDispatcher{})
	return match.NewService(appCtx), appCtx
}

func dispatcher(appCtx *app.AppContext) *captureDispatcher {
	return appCtx.Notifier.(*captureDispatcher)
}

//
// Swipe tests
//

// TestRecordActionMutualMatch: user3 already liked user1, and user1's prior
// PASS on user3 gets overwritten by a LIKE, completing the match.
func TestRecordActionMutualMatch(t *testing.T) {
	ctx := context.Background()
	svc, appCtx := setupService(t)

	result, err := svc.RecordAction(ctx, 1, 3, "LIKE")
	require.NoError(t, err)
	assert.True(t, result.Match)
	assert.Equal(t, "It's a match!", result.Message)

	// both rows flipped
	var rows []db.MatchInteraction
	require.NoError(t, appCtx.DB.
		Where("(actor_id = 1 AND target_id = 3) OR (actor_id = 3 AND target_id = 1)").
		Find(&rows).Error)
	require.Len(t, rows, 2)
	for _, row := range rows {
		assert.Equal(t, db.ActionLike, row.Action)
		assert.True(t, row.IsMatch)
	}

	// exactly one match event, addressed to the liked-back user
	events := dispatcher(appCtx).events
	require.Len(t, events, 1)
	assert.Equal(t, notify.EventMatch, events[0].Type)
	assert.Equal(t, uint64(3), events[0].TargetUserID)
}

// TestRecordActionDuplicateOnMatch: re-liking an already matched pair keeps
// the match response but must not re-fire the match notification.
func TestRecordActionDuplicateOnMatch(t *testing.T) {
	ctx := context.Background()
	svc, appCtx := setupService(t)

	// users 1 and 2 are matched in the seed; a client retry of the like
	result, err := svc.RecordAction(ctx, 1, 2, "LIKE")
	require.NoError(t, err)
	assert.True(t, result.Match)
	assert.Equal(t, "It's a match!", result.Message)
	assert.Empty(t, dispatcher(appCtx).events, "retry must not duplicate the fan-out")

	// same from the other side
	result, err = svc.RecordAction(ctx, 2, 1, "LIKE")
	require.NoError(t, err)
	assert.True(t, result.Match)
	assert.Empty(t, dispatcher(appCtx).events)
}

func TestRecordActionOneWayLike(t *testing.T) {
	ctx := context.Background()
	svc, appCtx := setupService(t)
	addUser(t, appCtx.DB, 10, "female")

	result, err := svc.RecordAction(ctx, 2, 10, "LIKE")
	require.NoError(t, err)
	assert.False(t, result.Match)
	assert.Equal(t, "Interaction recorded", result.Message)
	assert.Empty(t, dispatcher(appCtx).events)
}

func TestRecordActionPassNeverMatches(t *testing.T) {
	ctx := context.Background()
	svc, appCtx := setupService(t)
	addUser(t, appCtx.DB, 10, "female")

	// 10 likes 2 first, then 2 passes 10
	_, err := svc.RecordAction(ctx, 10, 2, "PASS")
	require.NoError(t, err)
	result, err := svc.RecordAction(ctx, 2, 10, "LIKE")
	require.NoError(t, err)
	assert.False(t, result.Match)
}

func TestRecordActionValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	_, err := svc.RecordAction(ctx, 1, 1, "LIKE")
	assert.Equal(t, apperrors.KindInvalidOperation, apperrors.KindOf(err))

	_, err = svc.RecordAction(ctx, 1, 2, "SUPERLIKE")
	assert.Equal(t, apperrors.KindInvalidOperation, apperrors.KindOf(err))

	_, err = svc.RecordAction(ctx, 1, 999, "LIKE")
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))

	_, err = svc.RecordAction(ctx, 999, 1, "LIKE")
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

// TestRecordActionDailyLimit: user2 is not premium and already spent one of
// today's likes in the seed (2 → 1). Nine more succeed; the next is rejected
// and leaves no row behind.
func TestRecordActionDailyLimit(t *testing.T) {
	ctx := context.Background()
	svc, appCtx := setupService(t)

	for id := uint64(10); id <= 19; id++ {
		addUser(t, appCtx.DB, id, "male")
	}

	for id := uint64(10); id <= 18; id++ {
		_, err := svc.RecordAction(ctx, 2, id, "LIKE")
		require.NoError(t, err, "like %d should be within the daily budget", id)
	}

	_, err := svc.RecordAction(ctx, 2, 19, "LIKE")
	require.Error(t, err)
	assert.Equal(t, apperrors.KindLimitExceeded, apperrors.KindOf(err))

	var count int64
	require.NoError(t, appCtx.DB.Model(&db.MatchInteraction{}).
		Where("actor_id = 2 AND target_id = 19").Count(&count).Error)
	assert.Zero(t, count, "rejected like must not be recorded")

	// passes are free
	_, err = svc.RecordAction(ctx, 2, 19, "PASS")
	require.NoError(t, err)
}

func TestRecordActionPremiumBypassesLimit(t *testing.T) {
	ctx := context.Background()
	svc, appCtx := setupService(t)

	for id := uint64(10); id <= 24; id++ {
		addUser(t, appCtx.DB, id, "female")
	}
	for id := uint64(10); id <= 24; id++ {
		_, err := svc.RecordAction(ctx, 1, id, "LIKE")
		require.NoError(t, err)
	}
}

//
// Liked-me tests
//

// TestGetPeopleWhoLikedMe expects only user3: user2's like is already
// reciprocated into a match.
func TestGetPeopleWhoLikedMe(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	cards, err := svc.GetPeopleWhoLikedMe(ctx, 1)
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, uint64(3), cards[0].ID)
	assert.Equal(t, "User Three", cards[0].FullName)
	require.NotNil(t, cards[0].Age)
	assert.Equal(t, 25, *cards[0].Age)
}

func TestGetPeopleWhoLikedMePremiumGate(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	_, err := svc.GetPeopleWhoLikedMe(ctx, 2)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindPermissionDenied, apperrors.KindOf(err))
}

// TestCountLikedMeCache verifies the cache-first counter: a DB-sourced first
// read, then increments maintained by subsequent likes.
func TestCountLikedMeCache(t *testing.T) {
	ctx := context.Background()
	svc, appCtx := setupService(t)

	// First call → DB (user3's unreciprocated like)
	count, err := svc.CountLikedMe(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// A fresh one-way like bumps the cached counter
	addUser(t, appCtx.DB, 10, "female")
	_, err = svc.RecordAction(ctx, 10, 1, "LIKE")
	require.NoError(t, err)

	count, err = svc.CountLikedMe(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

// TestCountLikedMeDuplicateLikeNotDoubleCounted: a re-submitted like
// overwrites its row, so the cached counter is invalidated instead of
// incremented again.
func TestCountLikedMeDuplicateLikeNotDoubleCounted(t *testing.T) {
	ctx := context.Background()
	svc, appCtx := setupService(t)
	addUser(t, appCtx.DB, 10, "female")

	_, err := svc.RecordAction(ctx, 10, 1, "LIKE")
	require.NoError(t, err)
	count, err := svc.CountLikedMe(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count) // user3 + user10

	_, err = svc.RecordAction(ctx, 10, 1, "LIKE")
	require.NoError(t, err)
	count, err = svc.CountLikedMe(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

// TestCountLikedMePassOverwriteInvalidates: a PASS that overwrites a prior
// LIKE removes the liker, and the counter follows.
func TestCountLikedMePassOverwriteInvalidates(t *testing.T) {
	ctx := context.Background()
	svc, appCtx := setupService(t)
	addUser(t, appCtx.DB, 10, "female")

	_, err := svc.RecordAction(ctx, 10, 1, "LIKE")
	require.NoError(t, err)
	count, err := svc.CountLikedMe(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	_, err = svc.RecordAction(ctx, 10, 1, "PASS")
	require.NoError(t, err)
	count, err = svc.CountLikedMe(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count, "only user3's like remains")
}

// TestCountLikedMeCacheInvalidatedOnMatch: liking back removes the liker
// from the unreciprocated set, so both sides' counters are invalidated
// rather than left stale.
func TestCountLikedMeCacheInvalidatedOnMatch(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	count, err := svc.CountLikedMe(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	_, err = svc.RecordAction(ctx, 1, 3, "LIKE")
	require.NoError(t, err)

	// re-read goes to the DB: user3's like is now a match
	count, err = svc.CountLikedMe(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

//
// Matches, boost, premium
//

func TestGetMatchedUsers(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	result, err := svc.GetMatchedUsers(ctx, 1, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Total)
	require.Len(t, result.Items, 1)
	assert.Equal(t, uint64(2), result.Items[0].ID)

	// symmetric for the other side
	result, err = svc.GetMatchedUsers(ctx, 2, 1, 20)
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, uint64(1), result.Items[0].ID)
}

func TestBoostProfileDailyGate(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	result, err := svc.BoostProfile(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "Profile boosted successfully", result.Message)

	_, err = svc.BoostProfile(ctx, 2)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindLimitExceeded, apperrors.KindOf(err))
}

func TestBoostProfilePremiumUnlimited(t *testing.T) {
	ctx := context.Background()
	svc, appCtx := setupService(t)

	for i := 0; i < 3; i++ {
		_, err := svc.BoostProfile(ctx, 1)
		require.NoError(t, err)
	}

	var profile db.UserProfile
	require.NoError(t, appCtx.DB.Where("user_id = 1").First(&profile).Error)
	assert.NotNil(t, profile.BoostedAt)
}

func TestUpgradeToPremium(t *testing.T) {
	ctx := context.Background()
	svc, appCtx := setupService(t)

	require.NoError(t, svc.UpgradeToPremium(ctx, 2, 0))

	var user db.User
	require.NoError(t, appCtx.DB.First(&user, 2).Error)
	assert.True(t, user.IsPremium)
	require.NotNil(t, user.PremiumExpires)
	assert.WithinDuration(t, time.Now().UTC().AddDate(0, 0, 30), *user.PremiumExpires, time.Minute)

	// the liked-me gate opens
	_, err := svc.GetPeopleWhoLikedMe(ctx, 2)
	require.NoError(t, err)

	err = svc.UpgradeToPremium(ctx, 999, 0)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}
