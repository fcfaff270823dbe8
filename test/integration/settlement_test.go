//go:build integration

package integration

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dosdraw/platform/internal/domain"
	"github.com/dosdraw/platform/internal/rounds"
	"github.com/dosdraw/platform/test/integration/testutil"
)

// losingPick returns 4 numbers outside the outcome's main set and a chance
// number different from the outcome's, so the bet matches no category.
func losingPick(t *testing.T, outcome domain.Outcome) ([]int32, int32) {
	t.Helper()
	drawn := make(map[int32]bool, 4)
	for _, n := range outcome.Main {
		drawn[n] = true
	}
	var nums []int32
	for n := int32(1); n <= 20 && len(nums) < 4; n++ {
		if !drawn[n] {
			nums = append(nums, n)
		}
	}
	require.Len(t, nums, 4)

	chance := int32(1)
	if outcome.Chance == 1 {
		chance = 2
	}
	return nums, chance
}

type settleResponse struct {
	OK             bool               `json:"ok"`
	AlreadySettled bool               `json:"alreadySettled"`
	Round          domain.RoundResult `json:"round"`
}

// ─── Settlement Tests (7) ───────────────────────────────────────────────────

func TestSettle_PaysWinnerAndConserves(t *testing.T) {
	env := testutil.NewTestEnv(t)
	roundID := env.PastRoundID(0)

	outcome, err := rounds.Draw(testutil.TestSecretSeed, roundID)
	require.NoError(t, err)
	loserNums, loserChance := losingPick(t, outcome)

	winner := env.Signup("winner")
	loser := env.Signup("loser")
	env.CreditPlayer(winner.ID, 100)
	env.CreditPlayer(loser.ID, 100)

	// 100 DOS each into the already-finished round: pot 200.
	winnerBetID := env.SeedBet(winner.ID, roundID, outcome.Main, outcome.Chance, 100)
	env.SeedBet(loser.ID, roundID, loserNums, loserChance, 100)

	resp := env.AdminPOST("/api/admin/settle", map[string]any{"roundId": roundID})
	testutil.AssertStatus(t, resp, http.StatusOK)

	var result settleResponse
	testutil.DecodeJSON(t, resp, &result)

	// Pot 200 splits 25/10/65 into 50/20/130. The 4+1 pool is
	// floor(130*350/1000) = 45 and the sole winner takes all of it; the six
	// empty pools and the allocation remainder roll into carry.
	assert.False(t, result.AlreadySettled)
	assert.Equal(t, roundID, result.Round.RoundID)
	assert.Equal(t, outcome, result.Round.Outcome)
	assert.Equal(t, int64(200), result.Round.Pot)
	assert.Equal(t, int64(50), result.Round.AdminTake)
	assert.Equal(t, int64(130), result.Round.WinPool)
	assert.Equal(t, int64(0), result.Round.CarryIn)
	assert.Equal(t, int64(105), result.Round.CarryOut)
	assert.Equal(t, int64(45), result.Round.PayoutTotal)
	assert.Equal(t, int32(1), result.Round.Winners)

	// Conservation: everything staked plus carry-in is accounted for.
	assert.Equal(t,
		result.Round.Pot+result.Round.CarryIn,
		result.Round.AdminTake+result.Round.CarryOut+result.Round.PayoutTotal)

	// Winner: 50 bonus + 100 credit - 100 stake + 45 payout.
	assert.Equal(t, int64(95), testutil.PlayerBalance(t, env, winner.ID))
	assert.Equal(t, int64(50), testutil.PlayerBalance(t, env, loser.ID))
	assert.Equal(t, 1, testutil.CountLedger(t, env, winner.ID, domain.LedgerWin))
	assert.Equal(t, 0, testutil.CountLedger(t, env, loser.ID, domain.LedgerWin))
	assert.Equal(t, testutil.PlayerBalance(t, env, winner.ID), testutil.LedgerSum(t, env, winner.ID))
	assert.Equal(t, testutil.PlayerBalance(t, env, loser.ID), testutil.LedgerSum(t, env, loser.ID))

	carry, adminTake := testutil.BankState(t, env)
	assert.Equal(t, int64(105), carry)
	assert.Equal(t, int64(50), adminTake)

	// Both bets are settled; only the winner's carries payout and category.
	var payout int64
	var category *string
	var settled bool
	err = env.Pool.QueryRow(context.Background(),
		"SELECT payout, category, settled FROM bets WHERE id = $1", winnerBetID).
		Scan(&payout, &category, &settled)
	require.NoError(t, err)
	assert.Equal(t, int64(45), payout)
	require.NotNil(t, category)
	assert.Equal(t, "4+1", *category)
	assert.True(t, settled)

	var unsettled int
	require.NoError(t, env.Pool.QueryRow(context.Background(),
		"SELECT COUNT(*) FROM bets WHERE round_id = $1 AND NOT settled", roundID).Scan(&unsettled))
	assert.Zero(t, unsettled)

	assert.Equal(t, 1, testutil.CountOutbox(t, env, domain.EventRoundSettled))
}

func TestSettle_SecondCallIsIdempotent(t *testing.T) {
	env := testutil.NewTestEnv(t)
	roundID := env.PastRoundID(0)

	outcome, err := rounds.Draw(testutil.TestSecretSeed, roundID)
	require.NoError(t, err)

	player := env.Signup("repeat")
	env.CreditPlayer(player.ID, 100)
	env.SeedBet(player.ID, roundID, outcome.Main, outcome.Chance, 100)

	resp := env.AdminPOST("/api/admin/settle", map[string]any{"roundId": roundID})
	var first settleResponse
	testutil.DecodeJSON(t, resp, &first)
	require.False(t, first.AlreadySettled)

	balanceAfterFirst := testutil.PlayerBalance(t, env, player.ID)

	resp = env.AdminPOST("/api/admin/settle", map[string]any{"roundId": roundID})
	testutil.AssertStatus(t, resp, http.StatusOK)

	var second settleResponse
	testutil.DecodeJSON(t, resp, &second)
	assert.True(t, second.AlreadySettled)
	assert.Equal(t, first.Round.Pot, second.Round.Pot)
	assert.Equal(t, first.Round.PayoutTotal, second.Round.PayoutTotal)
	assert.Equal(t, first.Round.Outcome, second.Round.Outcome)

	// No double payout, no second event.
	assert.Equal(t, balanceAfterFirst, testutil.PlayerBalance(t, env, player.ID))
	assert.Equal(t, 1, testutil.CountLedger(t, env, player.ID, domain.LedgerWin))
	assert.Equal(t, 1, testutil.CountOutbox(t, env, domain.EventRoundSettled))
}

func TestSettle_EmptyRoundRollsCarryForward(t *testing.T) {
	env := testutil.NewTestEnv(t)

	// First settle a round with one losing bet so the bank holds carry.
	funded := env.PastRoundID(1)
	outcome, err := rounds.Draw(testutil.TestSecretSeed, funded)
	require.NoError(t, err)
	loserNums, loserChance := losingPick(t, outcome)

	player := env.Signup("house-money")
	env.CreditPlayer(player.ID, 100)
	env.SeedBet(player.ID, funded, loserNums, loserChance, 100)

	resp := env.AdminPOST("/api/admin/settle", map[string]any{"roundId": funded})
	var first settleResponse
	testutil.DecodeJSON(t, resp, &first)
	require.False(t, first.AlreadySettled)
	require.Zero(t, first.Round.PayoutTotal)

	// Pot 100: admin 25, win pool 65 + rounding 0... all pools empty, so
	// carry = 10 + 65 = 75.
	require.Equal(t, int64(75), first.Round.CarryOut)

	// Now settle the following round, which has no bets at all.
	empty := env.PastRoundID(0)
	resp = env.AdminPOST("/api/admin/settle", map[string]any{"roundId": empty})
	testutil.AssertStatus(t, resp, http.StatusOK)

	var second settleResponse
	testutil.DecodeJSON(t, resp, &second)
	assert.False(t, second.AlreadySettled)
	assert.Equal(t, int64(0), second.Round.Pot)
	assert.Equal(t, int64(75), second.Round.CarryIn)
	assert.Equal(t, int64(75), second.Round.CarryOut)
	assert.Equal(t, int64(0), second.Round.AdminTake)
	assert.Equal(t, int32(0), second.Round.Winners)

	carry, adminTake := testutil.BankState(t, env)
	assert.Equal(t, int64(75), carry)
	assert.Equal(t, int64(25), adminTake)
}

func TestSettle_DefaultsToLastFinishedRound(t *testing.T) {
	env := testutil.NewTestEnv(t)

	resp := env.AdminPOST("/api/admin/settle", nil)
	testutil.AssertStatus(t, resp, http.StatusOK)

	var result settleResponse
	testutil.DecodeJSON(t, resp, &result)
	assert.Equal(t, env.PastRoundID(0), result.Round.RoundID)
}

func TestSettle_ChunkedEmptyBodyDefaults(t *testing.T) {
	env := testutil.NewTestEnv(t)

	// Chunked requests report ContentLength -1 even when the body is empty;
	// the handler must still fall back to the default round.
	req, err := http.NewRequest(http.MethodPost, env.Server.URL+"/api/admin/settle",
		io.MultiReader(strings.NewReader("")))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-admin-key", testutil.TestAdminKey)
	req.TransferEncoding = []string{"chunked"}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	testutil.AssertStatus(t, resp, http.StatusOK)

	var result settleResponse
	testutil.DecodeJSON(t, resp, &result)
	assert.Equal(t, env.PastRoundID(0), result.Round.RoundID)
}

func TestSettle_UnfinishedRoundConflicts(t *testing.T) {
	env := testutil.NewTestEnv(t)

	resp := env.AdminPOST("/api/admin/settle", map[string]any{"roundId": env.Clock.CurrentRoundID()})
	testutil.AssertStatus(t, resp, http.StatusConflict)

	var body struct {
		Error       string `json:"error"`
		SecondsLeft int64  `json:"secondsLeft"`
	}
	testutil.DecodeJSON(t, resp, &body)
	assert.Equal(t, "round not finished", body.Error)
	assert.Positive(t, body.SecondsLeft)
}

func TestSettle_NegativeRoundRejected(t *testing.T) {
	env := testutil.NewTestEnv(t)

	resp := env.AdminPOST("/api/admin/settle", map[string]any{"roundId": -1})
	testutil.AssertStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()
}

func TestSettle_SharedPotSplitsByStake(t *testing.T) {
	env := testutil.NewTestEnv(t)
	roundID := env.PastRoundID(0)

	outcome, err := rounds.Draw(testutil.TestSecretSeed, roundID)
	require.NoError(t, err)

	big := env.Signup("whale")
	small := env.Signup("minnow")
	env.CreditPlayer(big.ID, 300)
	env.CreditPlayer(small.ID, 100)

	// Same winning pick, stakes 3:1. Pot 400 → win pool 260, 4+1 pool
	// floor(260*350/1000) = 91; whale floor(91*300/400) = 68, minnow
	// floor(91*100/400) = 22, leftover 1 rolls to carry.
	env.SeedBet(big.ID, roundID, outcome.Main, outcome.Chance, 300)
	env.SeedBet(small.ID, roundID, outcome.Main, outcome.Chance, 100)

	resp := env.AdminPOST("/api/admin/settle", map[string]any{"roundId": roundID})
	testutil.AssertStatus(t, resp, http.StatusOK)

	var result settleResponse
	testutil.DecodeJSON(t, resp, &result)
	assert.Equal(t, int64(90), result.Round.PayoutTotal)
	assert.Equal(t, int32(2), result.Round.Winners)

	// Whale: 50 + 300 - 300 + 68; minnow: 50 + 100 - 100 + 22.
	assert.Equal(t, int64(118), testutil.PlayerBalance(t, env, big.ID))
	assert.Equal(t, int64(72), testutil.PlayerBalance(t, env, small.ID))

	assert.Equal(t,
		result.Round.Pot+result.Round.CarryIn,
		result.Round.AdminTake+result.Round.CarryOut+result.Round.PayoutTotal)
}
