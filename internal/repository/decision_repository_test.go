package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/oggyb/muzz-swipe/internal/db"
	"github.com/oggyb/muzz-swipe/internal/quota"
	"github.com/oggyb/muzz-swipe/internal/repository"
)

const today = quota.Day("2026-03-01")

// setup in-memory DB
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		Logger:  logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "failed to open sqlite")

	// every pooled connection to :memory: is a separate database
	sqlDB, err := database.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.Migrate(database), "failed to migrate")
	require.NoError(t, db.SeedMinimalTestData(database, today))
	return database
}

func TestDecisionCreateAndFind(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewDecisionRepository(dbase)

	err := repo.Create(ctx, &db.Decision{ActorID: 1, RecipientID: 2, Direction: "like", Liked: true, IdempotencyKey: "k-1"})
	require.NoError(t, err)

	d, err := repo.Find(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, "like", d.Direction)
	assert.Equal(t, "k-1", d.IdempotencyKey)

	_, err = repo.Find(ctx, 1, 3)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestDecisionCreate_DuplicatePair(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewDecisionRepository(setupTestDB(t))

	require.NoError(t, repo.Create(ctx, &db.Decision{ActorID: 1, RecipientID: 2, Direction: "pass", IdempotencyKey: "k-1"}))

	err := repo.Create(ctx, &db.Decision{ActorID: 1, RecipientID: 2, Direction: "like", Liked: true, IdempotencyKey: "k-2"})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	err = repo.Create(ctx, &db.Decision{ActorID: 1, RecipientID: 3, Direction: "like", Liked: true, IdempotencyKey: "k-1"})
	assert.ErrorIs(t, err, repository.ErrDuplicate, "idempotency keys are unique")
}

func TestHasLiked(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewDecisionRepository(setupTestDB(t))

	liked, err := repo.HasLiked(ctx, 2, 1)
	require.NoError(t, err)
	assert.True(t, liked)

	liked, err = repo.HasLiked(ctx, 3, 1)
	require.NoError(t, err)
	assert.False(t, liked, "a pass is not a like")
}

func TestDecisionWithTx_RollsBack(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewDecisionRepository(dbase)

	err := dbase.Transaction(func(tx *gorm.DB) error {
		if err := repo.WithTx(tx).Create(ctx, &db.Decision{ActorID: 1, RecipientID: 4, Direction: "pass", IdempotencyKey: "k-tx"}); err != nil {
			return err
		}
		return repository.ErrQuotaExhausted
	})
	assert.ErrorIs(t, err, repository.ErrQuotaExhausted)

	_, err = repo.Find(ctx, 1, 4)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
