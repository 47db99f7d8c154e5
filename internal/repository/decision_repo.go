package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/oggyb/muzz-swipe/internal/db"
)

var (
	// ErrDuplicate is returned when an insert violates a unique constraint.
	ErrDuplicate = errors.New("duplicate record")
	// ErrQuotaExhausted is returned when a conditional quota update matched no row.
	ErrQuotaExhausted = errors.New("quota exhausted")
)

// DecisionRepository provides data access methods for the Decision model.
// It encapsulates all queries related to decisions between users.
type DecisionRepository struct {
	db *gorm.DB
}

// NewDecisionRepository creates a new repository bound to the given DB connection.
func NewDecisionRepository(database *gorm.DB) *DecisionRepository {
	return &DecisionRepository{db: database}
}

// WithTx returns a copy of the repository bound to tx.
func (r *DecisionRepository) WithTx(tx *gorm.DB) *DecisionRepository {
	return &DecisionRepository{db: tx}
}

// Find returns the decision actor made on recipient, or gorm.ErrRecordNotFound.
func (r *DecisionRepository) Find(ctx context.Context, actorID, recipientID uint64) (*db.Decision, error) {
	var d db.Decision
	err := r.db.WithContext(ctx).
		Where("actor_id = ? AND recipient_id = ?", actorID, recipientID).
		First(&d).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Create inserts a decision made by actor -> recipient.
//
// Behavior:
//   - Composite PK (actor_id, recipient_id) allows one decision per pair.
//   - A second insert for the pair, or a reused idempotency key, yields ErrDuplicate.
//
// Example:
//
//	repo.Create(ctx, &db.Decision{ActorID: 1, RecipientID: 2, Direction: "like", Liked: true, IdempotencyKey: key})
func (r *DecisionRepository) Create(ctx context.Context, d *db.Decision) error {
	if err := r.db.WithContext(ctx).Create(d).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || isDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// HasLiked checks whether an actor has liked a recipient.
//
// Behavior:
//   - Returns true if there exists a decision row where actor_id = X,
//     recipient_id = Y, and liked = true (like or superlike).
//   - Used for the match check in RecordDecision.
//
// Example:
//
//	repo.HasLiked(ctx, 1, 2) // -> true if user 1 liked user 2
func (r *DecisionRepository) HasLiked(
	ctx context.Context,
	actorID, recipientID uint64,
) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("decisions d").
		Where("d.actor_id = ? AND d.recipient_id = ? AND d.liked = true", actorID, recipientID).
		Count(&count).Error
	return count > 0, err
}

// isDuplicate detects unique-constraint violations from drivers that do not
// map to gorm.ErrDuplicatedKey.
func isDuplicate(err error) bool {
	// SQLite: "UNIQUE constraint failed"; MySQL: "Error 1062: Duplicate entry"
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate entry") ||
		strings.Contains(msg, "duplicate key")
}
