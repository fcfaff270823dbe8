package ledger

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dosdraw/platform/internal/domain"
	"github.com/dosdraw/platform/internal/repository"
)

// Engine is the single write path for player balances:
//  1. LockPlayerForUpdate — row-level pessimistic lock
//  2. PostEntry — atomic balance delta + append-only ledger insert + outbox event
//
// Every DOS mutation in the system (signup bonus, redeem, bet debit, win
// credit, admin adjustment) flows through PostEntry so that
// balance == Σ dos_ledger.amount holds at every commit point.
type Engine struct {
	players repository.PlayerRepository
	entries repository.LedgerRepository
	outbox  repository.OutboxRepository
}

// NewEngine creates a ledger engine with the given repositories.
func NewEngine(
	players repository.PlayerRepository,
	entries repository.LedgerRepository,
	outbox repository.OutboxRepository,
) *Engine {
	return &Engine{
		players: players,
		entries: entries,
		outbox:  outbox,
	}
}

// LockPlayerForUpdate acquires a row-level lock and returns the player.
// Must be called within a transaction.
func (e *Engine) LockPlayerForUpdate(ctx context.Context, tx pgx.Tx, playerID uuid.UUID) (*domain.Player, error) {
	player, err := e.players.LockForUpdate(ctx, tx, playerID)
	if err != nil {
		return nil, fmt.Errorf("lock player: %w", err)
	}
	if player == nil {
		return nil, domain.ErrNotFound("player", playerID.String())
	}
	return player, nil
}

// PostEntry applies a signed balance delta and appends the matching ledger
// row, all within the caller's transaction.
//
// Steps:
//  1. Update the balance with server-side arithmetic
//  2. Insert the dos_ledger entry
//  3. Insert the outbox event
//
// Callers hold the player row lock and have already verified the delta
// keeps the balance non-negative; the CHECK constraint is the backstop.
func (e *Engine) PostEntry(ctx context.Context, tx pgx.Tx, playerID uuid.UUID, kind domain.LedgerKind, amount int64, meta any) (*domain.LedgerEntry, *domain.Player, error) {
	player, err := e.players.ApplyBalanceDelta(ctx, tx, playerID, amount)
	if err != nil {
		return nil, nil, fmt.Errorf("apply balance delta: %w", err)
	}

	entry := &domain.LedgerEntry{
		PlayerID: playerID,
		Kind:     kind,
		Amount:   amount,
		Meta:     marshalMeta(meta),
	}
	if err := e.entries.Insert(ctx, tx, entry); err != nil {
		return nil, nil, fmt.Errorf("insert ledger entry: %w", err)
	}

	if err := e.outbox.Insert(ctx, tx, domain.NewLedgerEntryPostedEvent(entry)); err != nil {
		return nil, nil, fmt.Errorf("insert outbox event: %w", err)
	}

	return entry, player, nil
}

// marshalMeta renders entry metadata as JSON, falling back to the empty
// object so the NOT NULL jsonb column never sees SQL NULL.
func marshalMeta(meta any) json.RawMessage {
	if meta == nil {
		return json.RawMessage(`{}`)
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return ensureJSON(data)
}

// ensureJSON guards against empty payloads from upstream marshaling.
func ensureJSON(data json.RawMessage) json.RawMessage {
	if len(data) == 0 {
		return json.RawMessage(`{}`)
	}
	return data
}
