package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/oggyb/muzz-swipe/internal/db"
	"github.com/oggyb/muzz-swipe/internal/quota"
)

// AccountRepository reads and updates per-user quota accounts.
type AccountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(database *gorm.DB) *AccountRepository {
	return &AccountRepository{db: database}
}

// WithTx returns a copy of the repository bound to tx.
func (r *AccountRepository) WithTx(tx *gorm.DB) *AccountRepository {
	return &AccountRepository{db: tx}
}

// FindOrCreate loads the account of userID, creating it from plan when the
// user has none yet.
func (r *AccountRepository) FindOrCreate(
	ctx context.Context,
	userID uint64,
	plan quota.Plan,
	timeZone string,
	today quota.Day,
) (*db.Account, error) {
	acct := db.Account{UserID: userID}
	err := r.db.WithContext(ctx).
		Where(db.Account{UserID: userID}).
		Attrs(db.Account{
			PlanTier:            plan.Tier,
			SwipeLimit:          plan.SwipeLimit,
			SuperlikesAvailable: plan.SuperlikeAllotment,
			LastResetDate:       string(today),
			TimeZone:            timeZone,
		}).
		FirstOrCreate(&acct).Error
	if err != nil {
		return nil, err
	}
	return &acct, nil
}

// Find loads the account of userID.
func (r *AccountRepository) Find(ctx context.Context, userID uint64) (*db.Account, error) {
	var acct db.Account
	if err := r.db.WithContext(ctx).First(&acct, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &acct, nil
}

// SaveReset persists the counters written by a daily reset, provided the row
// still carries the reset date it was read with. It returns false when
// another writer got there first; the caller should re-read.
func (r *AccountRepository) SaveReset(ctx context.Context, acct *db.Account, staleDate string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&db.Account{}).
		Where("user_id = ? AND last_reset_date = ?", acct.UserID, staleDate).
		Updates(map[string]any{
			"last_reset_date":      acct.LastResetDate,
			"swipes_used":          acct.SwipesUsed,
			"swipe_limit":          acct.SwipeLimit,
			"superlikes_available": acct.SuperlikesAvailable,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ConsumeSwipe atomically takes one swipe, honouring the daily limit.
// Returns ErrQuotaExhausted when the limit is reached.
func (r *AccountRepository) ConsumeSwipe(ctx context.Context, userID uint64) error {
	res := r.db.WithContext(ctx).
		Model(&db.Account{}).
		Where("user_id = ? AND (swipe_limit = ? OR swipes_used < swipe_limit)", userID, quota.Unlimited).
		Update("swipes_used", gorm.Expr("swipes_used + 1"))
	return consumed(res)
}

// ConsumeSuperlike atomically takes one superlike from the inventory.
// Returns ErrQuotaExhausted when none are left.
func (r *AccountRepository) ConsumeSuperlike(ctx context.Context, userID uint64) error {
	res := r.db.WithContext(ctx).
		Model(&db.Account{}).
		Where("user_id = ? AND superlikes_available > 0", userID).
		Update("superlikes_available", gorm.Expr("superlikes_available - 1"))
	return consumed(res)
}

func consumed(res *gorm.DB) error {
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrQuotaExhausted
	}
	return nil
}

// ToState converts an account row to the ledger's quota state.
func ToState(acct *db.Account) quota.State {
	return quota.State{
		Date:                quota.Day(acct.LastResetDate),
		PlanTier:            acct.PlanTier,
		SwipesUsed:          acct.SwipesUsed,
		SwipeLimit:          acct.SwipeLimit,
		SuperlikesAvailable: acct.SuperlikesAvailable,
	}
}

// ApplyState copies quota counters back onto an account row.
func ApplyState(acct *db.Account, s quota.State) {
	acct.LastResetDate = string(s.Date)
	acct.SwipesUsed = s.SwipesUsed
	acct.SwipeLimit = s.SwipeLimit
	acct.SuperlikesAvailable = s.SuperlikesAvailable
}
