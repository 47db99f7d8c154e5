package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/muzz-swipe/internal/db"
	"github.com/oggyb/muzz-swipe/internal/repository"
)

func ids(users []db.User) []uint64 {
	out := make([]uint64, 0, len(users))
	for _, u := range users {
		out = append(out, u.ID)
	}
	return out
}

func TestCandidates(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewProfileRepository(setupTestDB(t))

	// user 1: self and inactive 4 excluded, nothing decided yet
	users, err := repo.Candidates(ctx, 1, nil, 10)
	require.NoError(t, err)
	assert.Equal(t, []uint64{2, 3}, ids(users))

	// user 2 already liked user 1
	users, err = repo.Candidates(ctx, 2, nil, 10)
	require.NoError(t, err)
	assert.Equal(t, []uint64{3}, ids(users))

	// user 3 already passed on user 1
	users, err = repo.Candidates(ctx, 3, nil, 10)
	require.NoError(t, err)
	assert.Equal(t, []uint64{2}, ids(users))
}

func TestCandidates_ExcludeAndLimit(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewProfileRepository(setupTestDB(t))

	users, err := repo.Candidates(ctx, 1, []uint64{2}, 10)
	require.NoError(t, err)
	assert.Equal(t, []uint64{3}, ids(users))

	users, err = repo.Candidates(ctx, 1, nil, 1)
	require.NoError(t, err)
	assert.Equal(t, []uint64{2}, ids(users))
	assert.Equal(t, "Ben", users[0].DisplayName)
}

func TestIsActive(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewProfileRepository(setupTestDB(t))

	ok, err := repo.IsActive(ctx, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.IsActive(ctx, 4)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.IsActive(ctx, 404)
	require.NoError(t, err)
	assert.False(t, ok)
}
