package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDirection(t *testing.T) {
	d, err := ParseDirection(" SuperLike ")
	require.NoError(t, err)
	assert.Equal(t, DirectionSuperlike, d)

	_, err = ParseDirection("maybe")
	assert.Error(t, err)
}

func TestDirectionValid(t *testing.T) {
	assert.True(t, DirectionPass.Valid())
	assert.True(t, DirectionSuperlike.Valid())
	assert.False(t, Direction("Like").Valid())
	assert.False(t, Direction("").Valid())
}

func TestDirectionKind(t *testing.T) {
	assert.Equal(t, KindSwipe, DirectionPass.Kind())
	assert.Equal(t, KindSwipe, DirectionLike.Kind())
	assert.Equal(t, KindSuperlike, DirectionSuperlike.Kind())

	assert.False(t, DirectionPass.Liked())
	assert.True(t, DirectionSuperlike.Liked())
}

func TestIdempotencyKey(t *testing.T) {
	k1 := IdempotencyKey("1", "42", DirectionLike)
	k2 := IdempotencyKey("1", "42", DirectionLike)
	assert.Equal(t, k1, k2, "same inputs must give the same key")

	assert.NotEqual(t, k1, IdempotencyKey("1", "42", DirectionPass))
	assert.NotEqual(t, k1, IdempotencyKey("2", "42", DirectionLike))
}

func TestProfileValidate(t *testing.T) {
	assert.ErrorIs(t, Profile{}.Validate(), ErrMissingProfileID)
	assert.NoError(t, Profile{ID: "7", Attributes: map[string]string{"name": "Ayla"}}.Validate())
	assert.Equal(t, "", Profile{ID: "7"}.Attr("city"))
}
