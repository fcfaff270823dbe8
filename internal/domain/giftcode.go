package domain

import (
	"time"

	"github.com/google/uuid"
)

// GiftCodeStatus enumerates gift code states.
type GiftCodeStatus string

const (
	GiftCodeActive   GiftCodeStatus = "ACTIVE"
	GiftCodeRedeemed GiftCodeStatus = "REDEEMED"
	GiftCodeDisabled GiftCodeStatus = "DISABLED"
)

// GiftCodeAlphabet is the 32-character code alphabet: uppercase letters and
// digits with the ambiguous O, 0, I, 1 removed.
const GiftCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GiftCodeLength is the fixed plaintext code length.
const GiftCodeLength = 12

// GiftCode represents a gift_codes row. Only the salted hash of the
// plaintext code is stored; the plaintext is shown once at generation.
type GiftCode struct {
	ID         uuid.UUID      `json:"id"`
	CodeHash   string         `json:"-"`
	Value      int64          `json:"value"`
	Status     GiftCodeStatus `json:"status"`
	ExpiresAt  *time.Time     `json:"expiresAt,omitempty"`
	RedeemedBy *uuid.UUID     `json:"redeemedBy,omitempty"`
	RedeemedAt *time.Time     `json:"redeemedAt,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
}

// Expired reports whether the code's expiry has passed at the given instant.
func (g *GiftCode) Expired(now time.Time) bool {
	return g.ExpiresAt != nil && !g.ExpiresAt.After(now)
}
