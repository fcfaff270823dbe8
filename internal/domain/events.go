package domain

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// NewPlayerSignedUpEvent creates a player lifecycle event.
func NewPlayerSignedUpEvent(p *Player) OutboxDraft {
	payload, _ := json.Marshal(map[string]any{
		"player_id": p.ID.String(),
		"username":  p.Username,
		"balance":   p.Balance,
	})
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: AggregatePlayer,
		AggregateID:   p.ID.String(),
		EventType:     EventPlayerSignedUp,
		PartitionKey:  p.ID.String(),
		Headers:       json.RawMessage(`{}`),
		Payload:       payload,
		OccurredAt:    time.Now(),
	}
}

// NewLedgerEntryPostedEvent creates the standard wallet event for a ledger
// entry. Emitted for every balance mutation.
func NewLedgerEntryPostedEvent(e *LedgerEntry) OutboxDraft {
	payload, _ := json.Marshal(e)
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: AggregatePlayer,
		AggregateID:   e.PlayerID.String(),
		EventType:     EventLedgerEntryPosted,
		PartitionKey:  e.PlayerID.String(),
		Headers:       json.RawMessage(`{}`),
		Payload:       payload,
		OccurredAt:    time.Now(),
	}
}

// NewBetPlacedEvent creates a bet acceptance event.
func NewBetPlacedEvent(b *Bet) OutboxDraft {
	payload, _ := json.Marshal(b)
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: AggregateBet,
		AggregateID:   strconv.FormatInt(b.ID, 10),
		EventType:     EventBetPlaced,
		PartitionKey:  b.PlayerID.String(),
		Headers:       json.RawMessage(`{}`),
		Payload:       payload,
		OccurredAt:    time.Now(),
	}
}

// NewRoundSettledEvent creates the settlement summary event.
func NewRoundSettledEvent(r *RoundResult) OutboxDraft {
	payload, _ := json.Marshal(r)
	roundID := strconv.FormatInt(r.RoundID, 10)
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: AggregateRound,
		AggregateID:   roundID,
		EventType:     EventRoundSettled,
		PartitionKey:  roundID,
		Headers:       json.RawMessage(`{}`),
		Payload:       payload,
		OccurredAt:    time.Now(),
	}
}

// NewGiftCodeRedeemedEvent creates a redemption event. The plaintext code
// never appears in the payload.
func NewGiftCodeRedeemedEvent(g *GiftCode, playerID uuid.UUID) OutboxDraft {
	payload, _ := json.Marshal(map[string]any{
		"code_id":   g.ID.String(),
		"player_id": playerID.String(),
		"value":     g.Value,
	})
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: AggregateGiftCode,
		AggregateID:   g.ID.String(),
		EventType:     EventGiftCodeRedeemed,
		PartitionKey:  playerID.String(),
		Headers:       json.RawMessage(`{}`),
		Payload:       payload,
		OccurredAt:    time.Now(),
	}
}
