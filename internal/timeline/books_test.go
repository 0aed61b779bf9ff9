package timeline_test

import (
	"testing"

	"github.com/alejandrodnm/fillscope/internal/domain"
	"github.com/alejandrodnm/fillscope/internal/timeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapAt(ts float64) domain.BookSnapshot {
	return domain.BookSnapshot{
		TS:    ts,
		Asset: "up",
		Bids:  map[domain.Tick]float64{50: 10},
		Asks:  map[domain.Tick]float64{54: 10},
	}
}

func makeTimeline(t *testing.T, timestamps ...float64) *timeline.BookTimeline {
	t.Helper()
	snaps := make([]domain.BookSnapshot, len(timestamps))
	for i, ts := range timestamps {
		snaps[i] = snapAt(ts)
	}
	store := timeline.NewBookStore(snaps, 1)
	tl, ok := store.Timeline("up")
	require.True(t, ok)
	return tl
}

func TestBookStore_DropsSparseSeries(t *testing.T) {
	store := timeline.NewBookStore([]domain.BookSnapshot{snapAt(1), snapAt(2)}, 5)
	_, ok := store.Timeline("up")
	assert.False(t, ok)
	assert.Empty(t, store.Assets())
}

func TestBookStore_SortsUnorderedInput(t *testing.T) {
	tl := makeTimeline(t, 30, 10, 20)
	assert.InDelta(t, 10, tl.First().TS, 1e-9)
	assert.InDelta(t, 30, tl.Last().TS, 1e-9)
	assert.InDelta(t, 20, tl.Duration(), 1e-9)
}

func TestBookTimeline_Around_BracketsTimestamp(t *testing.T) {
	tl := makeTimeline(t, 10, 20, 30)

	before, after, okB, okA := tl.Around(25, 5)
	require.True(t, okB)
	require.True(t, okA)
	assert.InDelta(t, 20, before.TS, 1e-9)
	assert.InDelta(t, 30, after.TS, 1e-9)
}

func TestBookTimeline_Around_BeforeIsStrictlyEarlier(t *testing.T) {
	tl := makeTimeline(t, 10, 20, 30)

	// En un match exacto el snapshot va al lado "after": puede incluir el
	// efecto del propio fill, el "before" jamás.
	before, after, okB, okA := tl.Around(20, 5)
	require.True(t, okB)
	require.True(t, okA)
	assert.InDelta(t, 10, before.TS, 1e-9)
	assert.InDelta(t, 20, after.TS, 1e-9)
}

func TestBookTimeline_Around_GapValidatedPerSide(t *testing.T) {
	tl := makeTimeline(t, 10, 100)

	before, _, okB, okA := tl.Around(12, 5)
	require.True(t, okB)
	assert.InDelta(t, 10, before.TS, 1e-9)
	assert.False(t, okA, "after a 88s no es utilizable con gap 5")

	_, _, okB, okA = tl.Around(60, 5)
	assert.False(t, okB)
	assert.False(t, okA)
}

func TestBookTimeline_Nearest_WithinGapOnly(t *testing.T) {
	tl := makeTimeline(t, 10, 20, 30)

	snap, ok := tl.Nearest(21, 5)
	require.True(t, ok)
	assert.InDelta(t, 20, snap.TS, 1e-9)

	// 36 está a 6s del más cercano: fuera de tolerancia aunque exista.
	_, ok = tl.Nearest(36, 5)
	assert.False(t, ok)
}
