package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/oggyb/muzz-swipe/internal/db"
)

// ProfileRepository serves candidate profiles for Discovery.
type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(database *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: database}
}

// Candidates returns active users the actor has not decided on yet.
//
// Behavior:
//   - Excludes the actor, ids in exclude and users with a persisted decision by actor.
//   - Ordered by id ascending; at most limit rows.
//
// Example:
//
//	repo.Candidates(ctx, 1, []uint64{7, 9}, 10)
func (r *ProfileRepository) Candidates(
	ctx context.Context,
	actorID uint64,
	exclude []uint64,
	limit int,
) ([]db.User, error) {
	decided := r.db.
		Table("decisions d").
		Select("1").
		Where("d.actor_id = ? AND d.recipient_id = u.id", actorID)

	query := r.db.WithContext(ctx).
		Table("users u").
		Where("u.active = ? AND u.id <> ?", true, actorID).
		Where("NOT EXISTS (?)", decided).
		Order("u.id ASC").
		Limit(limit)
	if len(exclude) > 0 {
		query = query.Where("u.id NOT IN ?", exclude)
	}

	var users []db.User
	if err := query.Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// IsActive reports whether id names an active user.
func (r *ProfileRepository) IsActive(ctx context.Context, id uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.User{}).
		Where("id = ? AND active = ?", id, true).
		Count(&count).Error
	return count > 0, err
}
