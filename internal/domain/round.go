package domain

import (
	"encoding/json"
	"time"
)

// RoundParams is the timing configuration for the round grid. Immutable;
// updates replace the whole snapshot.
type RoundParams struct {
	RoundSeconds int64 `json:"roundSeconds"`
	CloseBetsAt  int64 `json:"closeBetsAt"`
	AnchorMs     int64 `json:"anchorMs"`
}

// RoundInfo describes one round window at a given instant.
type RoundInfo struct {
	RoundID        int64 `json:"roundId"`
	StartMs        int64 `json:"startMs"`
	EndMs          int64 `json:"endMs"`
	CloseAtMs      int64 `json:"closeAtMs"`
	BetsOpen       bool  `json:"betsOpen"`
	SecondsLeft    int64 `json:"secondsLeft"`
	SecondsToClose int64 `json:"secondsToClose"`
}

// Outcome is a draw result: four distinct main numbers (1..20, ascending)
// and one chance number (1..5).
type Outcome struct {
	Main   []int32 `json:"main"`
	Chance int32   `json:"chance"`
}

// RoundResult represents a round_results row, written exactly once per
// settled round. All amounts are whole DOS.
type RoundResult struct {
	RoundID     int64     `json:"roundId"`
	Outcome     Outcome   `json:"outcome"`
	Pot         int64     `json:"pot"`
	AdminTake   int64     `json:"adminTake"`
	CarryIn     int64     `json:"carryIn"`
	CarryOut    int64     `json:"carryOut"`
	WinPool     int64     `json:"winPool"`
	Winners     int32     `json:"winners"`
	PayoutTotal int64     `json:"payoutTotal"`
	SettledAt   time.Time `json:"settledAt"`
}

// OutcomeJSON marshals the outcome for the round_results jsonb column.
func (r *RoundResult) OutcomeJSON() json.RawMessage {
	b, _ := json.Marshal(r.Outcome)
	return b
}
