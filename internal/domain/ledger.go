package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LedgerKind enumerates all dos_ledger entry kinds.
type LedgerKind string

const (
	LedgerBonusSignup LedgerKind = "BONUS_SIGNUP"
	LedgerRedeem      LedgerKind = "REDEEM"
	LedgerBet         LedgerKind = "BET"
	LedgerWin         LedgerKind = "WIN"
	LedgerAdminAdd    LedgerKind = "ADMIN_ADD"
	LedgerAdminSet    LedgerKind = "ADMIN_SET"
	LedgerAdminStatus LedgerKind = "ADMIN_STATUS"
)

// LedgerEntry represents a dos_ledger row (append-only).
// Amount is the signed DOS delta applied to the player balance.
type LedgerEntry struct {
	ID        int64           `json:"id"`
	PlayerID  uuid.UUID       `json:"playerId"`
	Kind      LedgerKind      `json:"kind"`
	Amount    int64           `json:"amount"`
	Meta      json.RawMessage `json:"meta"`
	CreatedAt time.Time       `json:"createdAt"`
}

// BankLedgerKind enumerates admin_ledger entry kinds (house side).
type BankLedgerKind string

const (
	BankCarry     BankLedgerKind = "CARRY"
	BankAdminTake BankLedgerKind = "ADMIN_TAKE"
)

// BankEntry represents an admin_ledger row: one CARRY and one ADMIN_TAKE
// audit event per settled round.
type BankEntry struct {
	ID        int64           `json:"id"`
	Kind      BankLedgerKind  `json:"kind"`
	Amount    int64           `json:"amount"`
	Meta      json.RawMessage `json:"meta"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Bank is the single game_bank row: the running carry pool and the
// accumulated house take.
type Bank struct {
	Carry     int64     `json:"carry"`
	AdminTake int64     `json:"adminTake"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FormatChoice renders a bet selection for ledger metadata: the deduped,
// sorted numbers joined with dashes, then '#' and the chance number,
// e.g. "3-7-12-19#5".
func FormatChoice(nums []int32, chance int32) string {
	parts := make([]string, len(nums))
	for i, n := range nums {
		parts[i] = fmt.Sprintf("%d", n)
	}
	return strings.Join(parts, "-") + "#" + fmt.Sprintf("%d", chance)
}
