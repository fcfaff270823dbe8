package rounds

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dosdraw/platform/internal/domain"
)

func testParams() domain.RoundParams {
	return domain.RoundParams{RoundSeconds: 300, CloseBetsAt: 30, AnchorMs: 1_000_000}
}

// --- Window Tests ---

func TestInfoAt(t *testing.T) {
	p := testParams()

	tests := []struct {
		name           string
		nowMs          int64
		wantRoundID    int64
		wantBetsOpen   bool
		wantSecLeft    int64
		wantSecToClose int64
	}{
		{"round start", 1_000_000, 0, true, 300, 270},
		{"mid round", 1_000_000 + 150_000, 0, true, 150, 120},
		{"just before close", 1_000_000 + 269_999, 0, true, 31, 1},
		{"exactly at close", 1_000_000 + 270_000, 0, false, 30, 0},
		{"after close", 1_000_000 + 280_000, 0, false, 20, 0},
		{"last ms of round", 1_000_000 + 299_999, 0, false, 1, 0},
		{"next round start", 1_000_000 + 300_000, 1, true, 300, 270},
		{"far future", 1_000_000 + 300_000*1000, 1000, true, 300, 270},
		{"before anchor", 999_999, -1, false, 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := InfoAt(tt.nowMs, p)
			assert.Equal(t, tt.wantRoundID, info.RoundID)
			assert.Equal(t, tt.wantBetsOpen, info.BetsOpen)
			assert.Equal(t, tt.wantSecLeft, info.SecondsLeft)
			assert.Equal(t, tt.wantSecToClose, info.SecondsToClose)
		})
	}
}

func TestInfoAtWindowBounds(t *testing.T) {
	p := testParams()
	now := p.AnchorMs + 7*300_000 + 12_345
	info := InfoAt(now, p)

	assert.Equal(t, int64(7), info.RoundID)
	assert.Equal(t, p.AnchorMs+7*300_000, info.StartMs)
	assert.Equal(t, info.StartMs+300_000, info.EndMs)
	assert.Equal(t, info.EndMs-30_000, info.CloseAtMs)
	assert.GreaterOrEqual(t, now, info.StartMs)
	assert.Less(t, now, info.EndMs)
}

func TestInfoByIDReconstructsWindow(t *testing.T) {
	p := testParams()
	now := p.AnchorMs + 42*300_000 + 99_999

	cur := InfoAt(now, p)
	byID := InfoByID(cur.RoundID, now, p)
	assert.Equal(t, cur, byID)

	prev := InfoByID(cur.RoundID-1, now, p)
	assert.Equal(t, cur.StartMs, prev.EndMs)
	assert.False(t, prev.BetsOpen)
	assert.Zero(t, prev.SecondsLeft)
}

func TestRoundMonotonicity(t *testing.T) {
	p := testParams()
	last := int64(-1 << 62)
	for now := p.AnchorMs - 600_000; now < p.AnchorMs+900_000; now += 7_501 {
		id := InfoAt(now, p).RoundID
		require.GreaterOrEqual(t, id, last, "round id regressed at now=%d", now)
		last = id
	}
}

func TestFloorDiv(t *testing.T) {
	tests := []struct {
		a, b, want int64
	}{
		{0, 300, 0},
		{299, 300, 0},
		{300, 300, 1},
		{-1, 300, -1},
		{-300, 300, -1},
		{-301, 300, -2},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, floorDiv(tt.a, tt.b), "floorDiv(%d, %d)", tt.a, tt.b)
	}
}

// --- Guardrail Tests ---

func TestNormalize(t *testing.T) {
	now := int64(5_000_000)

	tests := []struct {
		name string
		in   domain.RoundParams
		want domain.RoundParams
	}{
		{
			"valid unchanged",
			domain.RoundParams{RoundSeconds: 300, CloseBetsAt: 30, AnchorMs: 1},
			domain.RoundParams{RoundSeconds: 300, CloseBetsAt: 30, AnchorMs: 1},
		},
		{
			"round too short",
			domain.RoundParams{RoundSeconds: 10, CloseBetsAt: 5, AnchorMs: 1},
			domain.RoundParams{RoundSeconds: 30, CloseBetsAt: 5, AnchorMs: 1},
		},
		{
			"close below floor",
			domain.RoundParams{RoundSeconds: 60, CloseBetsAt: 0, AnchorMs: 1},
			domain.RoundParams{RoundSeconds: 60, CloseBetsAt: 1, AnchorMs: 1},
		},
		{
			"close at round length",
			domain.RoundParams{RoundSeconds: 60, CloseBetsAt: 60, AnchorMs: 1},
			domain.RoundParams{RoundSeconds: 60, CloseBetsAt: 59, AnchorMs: 1},
		},
		{
			"close above round length",
			domain.RoundParams{RoundSeconds: 60, CloseBetsAt: 120, AnchorMs: 1},
			domain.RoundParams{RoundSeconds: 60, CloseBetsAt: 59, AnchorMs: 1},
		},
		{
			"zero anchor resets to now",
			domain.RoundParams{RoundSeconds: 300, CloseBetsAt: 30, AnchorMs: 0},
			domain.RoundParams{RoundSeconds: 300, CloseBetsAt: 30, AnchorMs: now},
		},
		{
			"negative anchor resets to now",
			domain.RoundParams{RoundSeconds: 300, CloseBetsAt: 30, AnchorMs: -42},
			domain.RoundParams{RoundSeconds: 300, CloseBetsAt: 30, AnchorMs: now},
		},
		{
			"everything clamped",
			domain.RoundParams{RoundSeconds: 1, CloseBetsAt: 500, AnchorMs: -1},
			domain.RoundParams{RoundSeconds: 30, CloseBetsAt: 29, AnchorMs: now},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in, now))
		})
	}
}

// --- Clock Tests ---

func TestClockUpdate(t *testing.T) {
	c := NewClock(testParams())

	t.Run("partial update keeps other fields", func(t *testing.T) {
		sec := int64(60)
		applied := c.Update(ParamsUpdate{RoundSeconds: &sec})
		assert.Equal(t, int64(60), applied.RoundSeconds)
		assert.Equal(t, int64(30), applied.CloseBetsAt)
		assert.Equal(t, int64(1_000_000), applied.AnchorMs)
	})

	t.Run("clamps on update", func(t *testing.T) {
		sec, close := int64(5), int64(99)
		applied := c.Update(ParamsUpdate{RoundSeconds: &sec, CloseBetsAt: &close})
		assert.Equal(t, int64(30), applied.RoundSeconds)
		assert.Equal(t, int64(29), applied.CloseBetsAt)
	})

	t.Run("readers see the new snapshot", func(t *testing.T) {
		assert.Equal(t, c.Params(), *c.params.Load())
	})
}

func TestClockCurrent(t *testing.T) {
	c := NewClock(domain.RoundParams{RoundSeconds: 300, CloseBetsAt: 30, AnchorMs: 1})
	info := c.Current()

	assert.GreaterOrEqual(t, c.NowMs(), info.StartMs)
	assert.Less(t, c.NowMs(), info.EndMs)
	assert.Equal(t, info.RoundID, c.CurrentRoundID())

	byID := c.ByID(info.RoundID - 1)
	assert.False(t, byID.BetsOpen)
	assert.Zero(t, byID.SecondsLeft)
}

func TestClockFrozenTime(t *testing.T) {
	c := NewClock(testParams())
	frozen := time.UnixMilli(1_000_000 + 270_000)
	c.nowFn = func() time.Time { return frozen }

	info := c.Current()
	assert.Equal(t, int64(0), info.RoundID)
	assert.False(t, info.BetsOpen, "bets close exactly at closeAt")
	assert.Equal(t, int64(0), info.SecondsToClose)
	assert.Equal(t, int64(30), info.SecondsLeft)
}
