package domain

import (
	"time"

	"github.com/google/uuid"
)

// PlayerStatus enumerates account states.
type PlayerStatus string

const (
	PlayerActive    PlayerStatus = "ACTIVE"
	PlayerSuspended PlayerStatus = "SUSPENDED"
)

// ValidPlayerStatus reports whether s is a known account state.
func ValidPlayerStatus(s PlayerStatus) bool {
	return s == PlayerActive || s == PlayerSuspended
}

// Player represents a players row. Balance is whole DOS (numeric(15,0)).
type Player struct {
	ID        uuid.UUID    `json:"id"`
	Username  string       `json:"username"`
	Balance   int64        `json:"balance"`
	Status    PlayerStatus `json:"status"`
	CreatedAt time.Time    `json:"createdAt"`
}

// LeaderboardRow is a public ranking entry (no timestamps, no status).
type LeaderboardRow struct {
	Rank     int       `json:"rank"`
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Balance  int64     `json:"balance"`
}
