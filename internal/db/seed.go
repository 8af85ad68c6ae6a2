package db

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var quizCategories = map[string][]string{
	"loveLanguage":      {"quality time", "words of affirmation", "acts of service", "gifts", "touch"},
	"relationshipStyle": {"serious", "casual", "marriage minded", "open"},
	"weekendVibe":       {"outdoors", "netflix", "nightlife", "brunch", "travel"},
	"communication":     {"texter", "caller", "in person"},
}

// SeedTestData resets the database and populates it with demo users,
// profiles and interactions.
//
// Behavior:
//  1. Clears existing data in all engine tables.
//  2. Creates 20 active users (10 male, 10 female) with completed profiles,
//     quiz answers and coordinates around central London.
//  3. Generates swipes with ~70% likes; every 3rd pair is made mutual so the
//     matches list is non-empty out of the box.
//
// Compatible with both MySQL and SQLite (AUTO_INCREMENT reset skipped for SQLite).
func SeedTestData(database *gorm.DB) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	// --- Fresh start ---
	for _, table := range []string{"profile_boosts", "match_interactions", "user_profiles", "users"} {
		if err := database.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	// Reset auto-increment sequences
	switch database.Dialector.Name() {
	case "mysql":
		database.Exec("ALTER TABLE users AUTO_INCREMENT = 1")
		database.Exec("ALTER TABLE user_profiles AUTO_INCREMENT = 1")
	case "sqlite":
		database.Exec("DELETE FROM sqlite_sequence WHERE name IN ('users', 'user_profiles', 'profile_boosts')")
	}

	log.Println("Cleared existing data")

	// --- Seed Users (10 male, 10 female) ---
	for i := 1; i <= 20; i++ {
		hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}

		gender := "male"
		preference := "female"
		if i > 10 {
			gender = "female"
			preference = "male"
		}

		user := User{
			Email:        fmt.Sprintf("user%d@example.com", i),
			PasswordHash: string(hash),
			Role:         "user",
			Status:       StatusActive,
			IsVerified:   true,
			IsPremium:    i%5 == 0, // every 5th user is premium
		}
		if user.IsPremium {
			since := time.Now().AddDate(0, 0, -r.Intn(20))
			expires := since.AddDate(0, 1, 0)
			user.PremiumSince = &since
			user.PremiumExpires = &expires
		}
		if err := database.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to seed user: %w", err)
		}

		birthday := time.Date(1985+r.Intn(20), time.Month(1+r.Intn(12)), 1+r.Intn(28), 0, 0, 0, 0, time.UTC)
		lat := 51.45 + r.Float64()*0.2
		lng := -0.2 + r.Float64()*0.3

		answers := make(map[string][]string, len(quizCategories))
		for category, tags := range quizCategories {
			answers[category] = []string{tags[r.Intn(len(tags))]}
		}

		profile := UserProfile{
			UserID:                user.ID,
			FullName:              fmt.Sprintf("User %d", i),
			Intentions:            []string{"dating", "long term"},
			Birthday:              &birthday,
			Gender:                gender,
			Preference:            preference,
			Photos:                []string{fmt.Sprintf("https://cdn.example.com/u%d/1.jpg", i), fmt.Sprintf("https://cdn.example.com/u%d/2.jpg", i)},
			Bio:                   "Looking for something real.",
			Latitude:              &lat,
			Longitude:             &lng,
			QuizAnswers:           answers,
			ProfileCompletionStep: 6,
		}
		if err := database.Create(&profile).Error; err != nil {
			return fmt.Errorf("failed to seed profile: %w", err)
		}
	}
	log.Println("Seeded 20 users with profiles.")

	// --- Seed interactions ---
	counter := 0
	for actorID := uint64(1); actorID <= 20; actorID++ {
		for j := 0; j < 8; j++ {
			targetID := uint64(r.Intn(20) + 1)
			if actorID == targetID {
				continue
			}

			var actor, target UserProfile
			if err := database.Where("user_id = ?", actorID).First(&actor).Error; err != nil {
				continue
			}
			if err := database.Where("user_id = ?", targetID).First(&target).Error; err != nil {
				continue
			}
			if actor.Gender == target.Gender {
				continue
			}

			action := ActionLike
			if r.Intn(100) >= 70 {
				action = ActionPass
			}

			mutual := false
			if counter%3 == 0 && action == ActionLike {
				mutual = true
				recip := MatchInteraction{
					ActorID:  targetID,
					TargetID: actorID,
					Action:   ActionLike,
					IsMatch:  true,
				}
				database.Clauses(clause.OnConflict{
					Columns:   []clause.Column{{Name: "actor_id"}, {Name: "target_id"}},
					DoUpdates: clause.AssignmentColumns([]string{"action", "is_match", "updated_at"}),
				}).Create(&recip)
			}

			interaction := MatchInteraction{
				ActorID:  actorID,
				TargetID: targetID,
				Action:   action,
				IsMatch:  mutual,
			}
			if err := database.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "actor_id"}, {Name: "target_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"action", "is_match", "updated_at"}),
			}).Create(&interaction).Error; err != nil {
				return fmt.Errorf("failed to seed interaction: %w", err)
			}

			counter++
		}
	}

	log.Printf("Seeded %d interactions.", counter)
	return nil
}

// SeedMinimalTestData wipes the DB and inserts a small deterministic dataset
// for repeatable tests.
//
// Users: 1 (male, premium), 2 (female), 3 (female).
// Interactions:
//   - 1 → 2 LIKE, 2 → 1 LIKE (mutual)
//   - 3 → 1 LIKE (one-way)
//   - 1 → 3 PASS
func SeedMinimalTestData(database *gorm.DB) error {
	for _, table := range []string{"profile_boosts", "match_interactions", "user_profiles", "users"} {
		if err := database.Exec("DELETE FROM " + table).Error; err != nil {
			return err
		}
	}

	premiumUntil := time.Now().AddDate(0, 1, 0)
	users := []User{
		{ID: 1, Email: "u1@test.com", PasswordHash: "x", Status: StatusActive, IsPremium: true, PremiumExpires: &premiumUntil},
		{ID: 2, Email: "u2@test.com", PasswordHash: "x", Status: StatusActive},
		{ID: 3, Email: "u3@test.com", PasswordHash: "x", Status: StatusActive},
	}
	if err := database.Create(&users).Error; err != nil {
		return err
	}

	b1 := time.Date(1990, 6, 15, 0, 0, 0, 0, time.UTC)
	b2 := time.Date(1995, 3, 2, 0, 0, 0, 0, time.UTC)
	b3 := time.Date(1988, 11, 20, 0, 0, 0, 0, time.UTC)
	profiles := []UserProfile{
		{UserID: 1, FullName: "Alex", Gender: "male", Preference: "female", Birthday: &b1,
			QuizAnswers: map[string][]string{"loveLanguage": {"quality time"}, "weekendVibe": {"outdoors"}},
			Photos:      []string{"a1.jpg", "a2.jpg"}},
		{UserID: 2, FullName: "Bea", Gender: "female", Preference: "male", Birthday: &b2,
			QuizAnswers: map[string][]string{"loveLanguage": {"quality time"}, "weekendVibe": {"netflix"}},
			Photos:      []string{"b1.jpg", "b2.jpg"}},
		{UserID: 3, FullName: "Cleo", Gender: "female", Preference: "male", Birthday: &b3,
			QuizAnswers: map[string][]string{"loveLanguage": {"gifts"}},
			Photos:      []string{"c1.jpg", "c2.jpg"}},
	}
	if err := database.Create(&profiles).Error; err != nil {
		return err
	}

	interactions := []MatchInteraction{
		{ActorID: 1, TargetID: 2, Action: ActionLike, IsMatch: true},
		{ActorID: 2, TargetID: 1, Action: ActionLike, IsMatch: true},
		{ActorID: 3, TargetID: 1, Action: ActionLike},
		{ActorID: 1, TargetID: 3, Action: ActionPass},
	}
	return database.Create(&interactions).Error
}
