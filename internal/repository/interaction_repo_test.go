package repository_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/amora-app/amora-server/internal/db"
	"github.com/amora-app/amora-server/internal/repository"
)

// setup in-memory DB
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := database.AutoMigrate(&db.User{}, &db.UserProfile{}, &db.MatchInteraction{}, &db.ProfileBoost{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return database
}

func createUser(t *testing.T, gdb *gorm.DB, id uint64, gender string) {
	t.Helper()
	user := db.User{ID: id, Email: fmt.Sprintf("u%d@test.com", id), PasswordHash: "x", Status: db.StatusActive}
	require.NoError(t, gdb.Create(&user).Error)
	profile := db.UserProfile{UserID: id, FullName: "User", Gender: gender, Photos: []string{"1.jpg", "2.jpg"}}
	require.NoError(t, gdb.Create(&profile).Error)
}

func TestRecordSwipe_UpsertOverwrites(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewInteractionRepository(dbase)

	out, err := repo.RecordSwipe(ctx, 1, 2, db.ActionLike, 0)
	require.NoError(t, err)
	assert.False(t, out.Overwrote)

	// re-submitting overwrites rather than duplicating
	out, err = repo.RecordSwipe(ctx, 1, 2, db.ActionPass, 0)
	require.NoError(t, err)
	assert.True(t, out.Overwrote)

	var interactions []db.MatchInteraction
	require.NoError(t, dbase.Find(&interactions).Error)
	require.Len(t, interactions, 1)
	assert.Equal(t, db.ActionPass, interactions[0].Action)
}

func TestRecordSwipe_MutualFlipsBothRows(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewInteractionRepository(dbase)

	out, err := repo.RecordSwipe(ctx, 1, 2, db.ActionLike, 0)
	require.NoError(t, err)
	assert.False(t, out.Matched)

	out, err = repo.RecordSwipe(ctx, 2, 1, db.ActionLike, 0)
	require.NoError(t, err)
	assert.True(t, out.Matched)

	var interactions []db.MatchInteraction
	require.NoError(t, dbase.Find(&interactions).Error)
	require.Len(t, interactions, 2)
	for _, i := range interactions {
		assert.True(t, i.IsMatch, "both rows must carry is_match after reciprocity")
	}
}

// TestRecordSwipe_DuplicateLikeOnMatchedPair: a LIKE re-submitted on a pair
// that is already matched reports AlreadyMatched and leaves both rows alone.
func TestRecordSwipe_DuplicateLikeOnMatchedPair(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewInteractionRepository(dbase)

	_, err := repo.RecordSwipe(ctx, 1, 2, db.ActionLike, 0)
	require.NoError(t, err)
	out, err := repo.RecordSwipe(ctx, 2, 1, db.ActionLike, 0)
	require.NoError(t, err)
	require.True(t, out.Matched)
	assert.False(t, out.AlreadyMatched)

	var before []db.MatchInteraction
	require.NoError(t, dbase.Order("actor_id").Find(&before).Error)

	// client retry of either direction
	out, err = repo.RecordSwipe(ctx, 2, 1, db.ActionLike, 0)
	require.NoError(t, err)
	assert.True(t, out.Matched)
	assert.True(t, out.AlreadyMatched)

	out, err = repo.RecordSwipe(ctx, 1, 2, db.ActionLike, 0)
	require.NoError(t, err)
	assert.True(t, out.Matched)
	assert.True(t, out.AlreadyMatched)

	var after []db.MatchInteraction
	require.NoError(t, dbase.Order("actor_id").Find(&after).Error)
	assert.Equal(t, before, after, "retries must not touch matched rows")
}

// TestRecordSwipe_RelikeDoesNotConsumeBudget: overwriting an existing LIKE
// with another LIKE is not a new like against the daily budget.
func TestRecordSwipe_RelikeDoesNotConsumeBudget(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewInteractionRepository(dbase)

	_, err := repo.RecordSwipe(ctx, 1, 2, db.ActionLike, 1)
	require.NoError(t, err)

	// budget of 1 is spent, but the retry targets the same row
	_, err = repo.RecordSwipe(ctx, 1, 2, db.ActionLike, 1)
	require.NoError(t, err)

	// a genuinely new like is still rejected
	_, err = repo.RecordSwipe(ctx, 1, 3, db.ActionLike, 1)
	require.ErrorIs(t, err, repository.ErrDailyLikeLimit)
}

func TestRecordSwipe_PassNeverMatches(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewInteractionRepository(dbase)

	_, err := repo.RecordSwipe(ctx, 2, 1, db.ActionLike, 0)
	require.NoError(t, err)

	out, err := repo.RecordSwipe(ctx, 1, 2, db.ActionPass, 0)
	require.NoError(t, err)
	assert.False(t, out.Matched)
}

func TestRecordSwipe_DailyLimit(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewInteractionRepository(dbase)

	// 10 likes fit inside the budget
	for target := uint64(100); target < 110; target++ {
		_, err := repo.RecordSwipe(ctx, 1, target, db.ActionLike, 10)
		require.NoError(t, err)
	}

	// the 11th is rejected and writes nothing
	_, err := repo.RecordSwipe(ctx, 1, 110, db.ActionLike, 10)
	require.ErrorIs(t, err, repository.ErrDailyLikeLimit)

	var count int64
	require.NoError(t, dbase.Model(&db.MatchInteraction{}).Count(&count).Error)
	assert.Equal(t, int64(10), count)
}

func TestRecordSwipe_LimitIgnoresPassesAndPremium(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewInteractionRepository(dbase)

	_, err := repo.RecordSwipe(ctx, 1, 2, db.ActionLike, 1)
	require.NoError(t, err)

	// passes do not consume the budget
	_, err = repo.RecordSwipe(ctx, 1, 3, db.ActionPass, 1)
	require.NoError(t, err)

	// maxDailyLikes <= 0 disables the check entirely
	_, err = repo.RecordSwipe(ctx, 1, 4, db.ActionLike, 0)
	require.NoError(t, err)
}

func TestListExcludedTargetIDs(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewInteractionRepository(dbase)

	_, _ = repo.RecordSwipe(ctx, 1, 2, db.ActionLike, 0)
	_, _ = repo.RecordSwipe(ctx, 1, 3, db.ActionPass, 0)
	_, _ = repo.RecordSwipe(ctx, 4, 1, db.ActionLike, 0) // inbound, not excluded

	ids, err := repo.ListExcludedTargetIDs(ctx, 1)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint64{2, 3}, ids)
}

func TestListLikers_ExcludesReciprocated(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewInteractionRepository(dbase)

	createUser(t, dbase, 1, "male")
	createUser(t, dbase, 2, "female")
	createUser(t, dbase, 3, "female")

	// 2 <-> 1 mutual, 3 -> 1 one-way
	_, _ = repo.RecordSwipe(ctx, 2, 1, db.ActionLike, 0)
	_, _ = repo.RecordSwipe(ctx, 1, 2, db.ActionLike, 0)
	_, _ = repo.RecordSwipe(ctx, 3, 1, db.ActionLike, 0)

	likers, err := repo.ListLikers(ctx, 1)
	require.NoError(t, err)
	require.Len(t, likers, 1)
	assert.Equal(t, uint64(3), likers[0].ID)
	require.NotNil(t, likers[0].Profile)

	count, err := repo.CountLikers(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestListMatches(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewInteractionRepository(dbase)

	createUser(t, dbase, 1, "male")
	createUser(t, dbase, 2, "female")
	createUser(t, dbase, 3, "female")

	_, _ = repo.RecordSwipe(ctx, 1, 2, db.ActionLike, 0)
	_, _ = repo.RecordSwipe(ctx, 2, 1, db.ActionLike, 0)
	_, _ = repo.RecordSwipe(ctx, 1, 3, db.ActionLike, 0) // unreciprocated

	matches, err := repo.ListMatches(ctx, 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, uint64(2), matches[0].ID)
}

func TestFindReciprocalLike(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewInteractionRepository(dbase)

	_, _ = repo.RecordSwipe(ctx, 2, 1, db.ActionLike, 0)

	reciprocal, err := repo.FindReciprocalLike(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), reciprocal.ActorID)

	_, err = repo.FindReciprocalLike(ctx, 1, 3)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
