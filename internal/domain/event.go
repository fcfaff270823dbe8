package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType enumerates all domain event types.
type EventType string

const (
	EventPlayerSignedUp    EventType = "ddj.player.signed_up"
	EventLedgerEntryPosted EventType = "ddj.ledger.entry_posted"
	EventBetPlaced         EventType = "ddj.bet.placed"
	EventRoundSettled      EventType = "ddj.round.settled"
	EventGiftCodeRedeemed  EventType = "ddj.giftcode.redeemed"
)

// AggregateType enumerates the aggregate root types for outbox events.
type AggregateType string

const (
	AggregatePlayer   AggregateType = "player"
	AggregateBet      AggregateType = "bet"
	AggregateRound    AggregateType = "round"
	AggregateGiftCode AggregateType = "gift_code"
)

// OutboxDraft is the payload written to the event_outbox table inside the
// transaction that produced the state change.
type OutboxDraft struct {
	EventID       uuid.UUID       `json:"eventId"`
	AggregateType AggregateType   `json:"aggregateType"`
	AggregateID   string          `json:"aggregateId"`
	EventType     EventType       `json:"eventType"`
	PartitionKey  string          `json:"partitionKey"`
	Headers       json.RawMessage `json:"headers"`
	Payload       json.RawMessage `json:"payload"`
	OccurredAt    time.Time       `json:"occurredAt"`
}
