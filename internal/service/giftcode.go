package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dosdraw/platform/internal/domain"
	"github.com/dosdraw/platform/internal/ledger"
	"github.com/dosdraw/platform/internal/metrics"
	"github.com/dosdraw/platform/internal/repository"
	"github.com/dosdraw/platform/internal/rounds"
)

const maxGenerateCount = 500

// GiftCodeService generates and redeems gift codes. Plaintext codes exist
// only in the generation response; storage and lookup use the salted hash.
type GiftCodeService struct {
	pool   *pgxpool.Pool
	codes  repository.GiftCodeRepository
	outbox repository.OutboxRepository
	engine *ledger.Engine
	seed   string
	nowFn  func() time.Time
	logger *slog.Logger
}

// NewGiftCodeService creates a GiftCodeService. seed is the server secret
// used to salt code hashes.
func NewGiftCodeService(
	pool *pgxpool.Pool,
	codes repository.GiftCodeRepository,
	outbox repository.OutboxRepository,
	engine *ledger.Engine,
	seed string,
	logger *slog.Logger,
) *GiftCodeService {
	return &GiftCodeService{
		pool:   pool,
		codes:  codes,
		outbox: outbox,
		engine: engine,
		seed:   seed,
		nowFn:  time.Now,
		logger: logger,
	}
}

// HashCode computes the storage hash for a plaintext code.
func (s *GiftCodeService) HashCode(code string) string {
	sum := sha256.Sum256([]byte("DDJ|" + s.seed + "|" + code))
	return hex.EncodeToString(sum[:])
}

// GenerateInput holds the admin code-generation request fields.
type GenerateInput struct {
	Count     int        `json:"count"`
	Value     int64      `json:"value"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// Generate creates Count codes of Value and returns the plaintexts. All
// codes in a batch are inserted in one transaction.
func (s *GiftCodeService) Generate(ctx context.Context, input GenerateInput) ([]string, error) {
	count := input.Count
	if count == 0 {
		count = 1
	}
	if count < 1 || count > maxGenerateCount {
		return nil, domain.ErrValidation("count must be between 1 and 500")
	}
	if input.Value <= 0 {
		return nil, domain.ErrValidation("value must be positive")
	}
	if input.ExpiresAt != nil && !input.ExpiresAt.After(s.nowFn()) {
		return nil, domain.ErrValidation("expiresAt must be in the future")
	}
	if err := rounds.ValidateSeed(s.seed); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, domain.ErrInternal("begin tx", err)
	}
	defer tx.Rollback(ctx)

	plaintexts := make([]string, 0, count)
	for i := 0; i < count; i++ {
		code, err := randomCode()
		if err != nil {
			return nil, domain.ErrInternal("generate code", err)
		}
		gc := &domain.GiftCode{
			ID:        uuid.New(),
			CodeHash:  s.HashCode(code),
			Value:     input.Value,
			Status:    domain.GiftCodeActive,
			ExpiresAt: input.ExpiresAt,
		}
		if err := s.codes.Insert(ctx, tx, gc); err != nil {
			// Hash collisions are astronomically unlikely; treat as internal.
			return nil, domain.ErrInternal("insert gift code", err)
		}
		plaintexts = append(plaintexts, code)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, domain.ErrInternal("commit tx", err)
	}

	s.logger.Info("gift codes generated", "count", count, "value", input.Value)
	return plaintexts, nil
}

// randomCode draws GiftCodeLength characters from the code alphabet using
// crypto/rand. The alphabet has 32 entries, so byte-modulo is unbiased.
func randomCode() (string, error) {
	buf := make([]byte, domain.GiftCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	out := make([]byte, domain.GiftCodeLength)
	for i, b := range buf {
		out[i] = domain.GiftCodeAlphabet[int(b)%len(domain.GiftCodeAlphabet)]
	}
	return string(out), nil
}

// RedeemInput holds the redemption request fields.
type RedeemInput struct {
	PlayerID string `json:"playerId"`
	Code     string `json:"code"`
}

// RedeemResult is the credited value plus the balance after the credit.
type RedeemResult struct {
	Value   int64 `json:"value"`
	Balance int64 `json:"balance"`
}

// Redeem credits a gift code to a player. Rate limiting happens at the
// transport layer before this is called; every attempt counts there.
func (s *GiftCodeService) Redeem(ctx context.Context, input RedeemInput) (*RedeemResult, error) {
	playerID, err := uuid.Parse(input.PlayerID)
	if err != nil {
		metrics.Game().ObserveRedeem("validation")
		return nil, domain.ErrValidation("playerId must be a UUID")
	}
	if err := domain.ValidateGiftCodeFormat(input.Code); err != nil {
		metrics.Game().ObserveRedeem("invalid_format")
		return nil, domain.ErrValidation(err.Error())
	}
	if err := rounds.ValidateSeed(s.seed); err != nil {
		return nil, err
	}
	codeHash := s.HashCode(input.Code)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, domain.ErrInternal("begin tx", err)
	}
	defer tx.Rollback(ctx)

	player, err := s.engine.LockPlayerForUpdate(ctx, tx, playerID)
	if err != nil {
		metrics.Game().ObserveRedeem("player_not_found")
		return nil, err
	}
	if player.Status != domain.PlayerActive {
		metrics.Game().ObserveRedeem("suspended")
		return nil, domain.ErrForbidden("player is suspended")
	}

	code, err := s.codes.LockByHash(ctx, tx, codeHash)
	if err != nil {
		return nil, domain.ErrInternal("lock gift code", err)
	}
	if code == nil {
		metrics.Game().ObserveRedeem("not_found")
		return nil, domain.ErrNotFound("code", input.Code)
	}
	switch {
	case code.Status == domain.GiftCodeRedeemed:
		metrics.Game().ObserveRedeem("already_redeemed")
		return nil, domain.ErrConflict("code already redeemed")
	case code.Status == domain.GiftCodeDisabled:
		metrics.Game().ObserveRedeem("disabled")
		return nil, domain.ErrConflict("code disabled")
	case code.Expired(s.nowFn()):
		metrics.Game().ObserveRedeem("expired")
		return nil, domain.ErrConflict("code expired")
	}

	_, updated, err := s.engine.PostEntry(ctx, tx, playerID, domain.LedgerRedeem, code.Value, map[string]any{
		"codeId": code.ID,
	})
	if err != nil {
		return nil, err
	}
	if err := s.codes.MarkRedeemed(ctx, tx, code.ID, playerID); err != nil {
		return nil, domain.ErrInternal("mark code redeemed", err)
	}
	if err := s.outbox.Insert(ctx, tx, domain.NewGiftCodeRedeemedEvent(code, playerID)); err != nil {
		return nil, domain.ErrInternal("insert outbox event", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, domain.ErrInternal("commit tx", err)
	}

	metrics.Game().ObserveRedeem("redeemed")
	s.logger.Info("gift code redeemed", "code_id", code.ID, "player_id", playerID, "value", code.Value)
	return &RedeemResult{Value: code.Value, Balance: updated.Balance}, nil
}
