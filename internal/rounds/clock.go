package rounds

import (
	"sync/atomic"
	"time"

	"github.com/dosdraw/platform/internal/domain"
)

// Timing guardrails. Updates are clamped, never rejected.
const (
	MinRoundSeconds = 30
	MinCloseBetsAt  = 1
)

// Clock derives round windows from wall-clock time and a params snapshot.
// Params live behind an atomic pointer so config updates never block reads;
// in-flight computations keep the snapshot they started with.
type Clock struct {
	params atomic.Pointer[domain.RoundParams]
	nowFn  func() time.Time
}

// NewClock creates a clock with guardrails applied to the initial params.
func NewClock(p domain.RoundParams) *Clock {
	c := &Clock{nowFn: time.Now}
	norm := Normalize(p, time.Now().UnixMilli())
	c.params.Store(&norm)
	return c
}

// ParamsUpdate is a partial config change; nil fields keep current values.
type ParamsUpdate struct {
	RoundSeconds *int64 `json:"roundSeconds,omitempty"`
	CloseBetsAt  *int64 `json:"closeBetsAt,omitempty"`
	AnchorMs     *int64 `json:"anchorMs,omitempty"`
}

// Params returns the current snapshot.
func (c *Clock) Params() domain.RoundParams {
	return *c.params.Load()
}

// Update applies a partial change with guardrails and swaps the snapshot.
// Returns the params actually applied. Takes effect for subsequent
// computations only; a round id is never reused within one configuration.
func (c *Clock) Update(upd ParamsUpdate) domain.RoundParams {
	cur := c.Params()
	if upd.RoundSeconds != nil {
		cur.RoundSeconds = *upd.RoundSeconds
	}
	if upd.CloseBetsAt != nil {
		cur.CloseBetsAt = *upd.CloseBetsAt
	}
	if upd.AnchorMs != nil {
		cur.AnchorMs = *upd.AnchorMs
	}
	norm := Normalize(cur, c.NowMs())
	c.params.Store(&norm)
	return norm
}

// NowMs returns current wall-clock milliseconds.
func (c *Clock) NowMs() int64 {
	return c.nowFn().UnixMilli()
}

// Current returns the round window at the current instant.
func (c *Clock) Current() domain.RoundInfo {
	return InfoAt(c.NowMs(), c.Params())
}

// CurrentRoundID returns the round id at the current instant.
func (c *Clock) CurrentRoundID() int64 {
	return c.Current().RoundID
}

// ByID reconstructs the window of an arbitrary round id at the current
// instant (settlement preconditions).
func (c *Clock) ByID(roundID int64) domain.RoundInfo {
	return InfoByID(roundID, c.NowMs(), c.Params())
}

// Normalize clamps params to the guardrails: roundSeconds >= 30,
// 1 <= closeBetsAt < roundSeconds, non-positive anchor resets to nowMs.
func Normalize(p domain.RoundParams, nowMs int64) domain.RoundParams {
	if p.RoundSeconds < MinRoundSeconds {
		p.RoundSeconds = MinRoundSeconds
	}
	if p.CloseBetsAt < MinCloseBetsAt {
		p.CloseBetsAt = MinCloseBetsAt
	}
	if p.CloseBetsAt >= p.RoundSeconds {
		p.CloseBetsAt = p.RoundSeconds - 1
	}
	if p.AnchorMs <= 0 {
		p.AnchorMs = nowMs
	}
	return p
}

// InfoAt computes the round window containing nowMs. Pure.
func InfoAt(nowMs int64, p domain.RoundParams) domain.RoundInfo {
	roundMs := p.RoundSeconds * 1000
	roundID := floorDiv(nowMs-p.AnchorMs, roundMs)
	return infoFor(roundID, nowMs, p)
}

// InfoByID computes the window of a specific round id as seen at nowMs. Pure.
func InfoByID(roundID, nowMs int64, p domain.RoundParams) domain.RoundInfo {
	return infoFor(roundID, nowMs, p)
}

func infoFor(roundID, nowMs int64, p domain.RoundParams) domain.RoundInfo {
	roundMs := p.RoundSeconds * 1000
	start := p.AnchorMs + roundID*roundMs
	end := start + roundMs
	closeAt := end - p.CloseBetsAt*1000
	return domain.RoundInfo{
		RoundID:        roundID,
		StartMs:        start,
		EndMs:          end,
		CloseAtMs:      closeAt,
		BetsOpen:       nowMs >= start && nowMs < closeAt,
		SecondsLeft:    ceilSeconds(end - nowMs),
		SecondsToClose: ceilSeconds(closeAt - nowMs),
	}
}

// floorDiv is integer division rounding toward negative infinity.
func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

// ceilSeconds converts a millisecond delta to whole seconds, rounding up,
// clamped at zero.
func ceilSeconds(deltaMs int64) int64 {
	if deltaMs <= 0 {
		return 0
	}
	return (deltaMs + 999) / 1000
}
