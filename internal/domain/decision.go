package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Direction is the user's verdict on a candidate.
type Direction string

const (
	DirectionPass      Direction = "pass"
	DirectionLike      Direction = "like"
	DirectionSuperlike Direction = "superlike"
)

// ParseDirection accepts the wire spelling of a direction, case-insensitively.
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(strings.ToLower(strings.TrimSpace(s))); d {
	case DirectionPass, DirectionLike, DirectionSuperlike:
		return d, nil
	}
	return "", fmt.Errorf("unknown direction %q", s)
}

// Valid reports whether d is one of the known directions.
func (d Direction) Valid() bool {
	switch d {
	case DirectionPass, DirectionLike, DirectionSuperlike:
		return true
	}
	return false
}

// Liked reports whether the direction expresses interest.
func (d Direction) Liked() bool {
	return d == DirectionLike || d == DirectionSuperlike
}

// Kind is the quota bucket a direction draws from.
func (d Direction) Kind() Kind {
	if d == DirectionSuperlike {
		return KindSuperlike
	}
	return KindSwipe
}

// Kind names an independent quota counter.
type Kind int

const (
	KindSwipe Kind = iota
	KindSuperlike
)

func (k Kind) String() string {
	switch k {
	case KindSwipe:
		return "swipe"
	case KindSuperlike:
		return "superlike"
	default:
		return "unknown"
	}
}

// Decision is created only once the backend has accepted it.
type Decision struct {
	ProfileID   string
	Direction   Direction
	Matched     bool
	CommittedAt time.Time
}

// keyNamespace scopes decision idempotency keys (UUIDv5).
var keyNamespace = uuid.MustParse("6f1c9a52-3d0e-5b8e-9c1a-2f4f0d3e7a10")

// IdempotencyKey derives a stable key for (actor, profile, direction) so
// retries of the same decision collapse into one write on the backend.
func IdempotencyKey(actorID, profileID string, d Direction) string {
	return uuid.NewSHA1(keyNamespace, []byte(actorID+"|"+profileID+"|"+string(d))).String()
}
