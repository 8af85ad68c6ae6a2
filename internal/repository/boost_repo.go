package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/amora-app/amora-server/internal/db"
)

// BoostRepository provides data access for the daily boost tokens.
type BoostRepository struct {
	db *gorm.DB
}

func NewBoostRepository(database *gorm.DB) *BoostRepository {
	return &BoostRepository{db: database}
}

// TryCreateBoost records the free boost for (userID, date) if none exists
// yet. Returns false when today's token was already used; the unique index
// on (user_id, date) makes this safe under concurrent calls.
func (r *BoostRepository) TryCreateBoost(ctx context.Context, userID uint64, date string) (bool, error) {
	boost := db.ProfileBoost{UserID: userID, Date: date}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "date"}},
			DoNothing: true,
		}).
		Create(&boost)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
