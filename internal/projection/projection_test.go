package projection

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiff_AllBalanced(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	stored := map[uuid.UUID]int64{a: 100, b: 0}
	rebuilt := map[uuid.UUID]int64{a: 100}

	assert.Empty(t, Diff(stored, rebuilt))
}

func TestDiff_ReportsMismatch(t *testing.T) {
	a := uuid.New()
	stored := map[uuid.UUID]int64{a: 100}
	rebuilt := map[uuid.UUID]int64{a: 93}

	got := Diff(stored, rebuilt)
	require.Len(t, got, 1)
	assert.Equal(t, a, got[0].PlayerID)
	assert.Equal(t, int64(100), got[0].Stored)
	assert.Equal(t, int64(93), got[0].Rebuilt)
}

func TestDiff_MissingLedgerCountsAsZero(t *testing.T) {
	a := uuid.New()
	stored := map[uuid.UUID]int64{a: 50}

	got := Diff(stored, map[uuid.UUID]int64{})
	require.Len(t, got, 1)
	assert.Equal(t, int64(0), got[0].Rebuilt)
}

func TestDiff_OrphanLedgerTotal(t *testing.T) {
	ghost := uuid.New()
	rebuilt := map[uuid.UUID]int64{ghost: 7}

	got := Diff(map[uuid.UUID]int64{}, rebuilt)
	require.Len(t, got, 1)
	assert.Equal(t, ghost, got[0].PlayerID)
	assert.Equal(t, int64(0), got[0].Stored)
	assert.Equal(t, int64(7), got[0].Rebuilt)
}

func TestDiff_SortedByPlayerID(t *testing.T) {
	a := uuid.MustParse("00000000-0000-0000-0000-00000000000a")
	b := uuid.MustParse("00000000-0000-0000-0000-00000000000b")
	stored := map[uuid.UUID]int64{b: 2, a: 1}

	got := Diff(stored, map[uuid.UUID]int64{})
	require.Len(t, got, 2)
	assert.Equal(t, a, got[0].PlayerID)
	assert.Equal(t, b, got[1].PlayerID)
}
