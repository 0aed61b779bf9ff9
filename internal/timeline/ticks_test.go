package timeline_test

import (
	"testing"

	"github.com/alejandrodnm/fillscope/internal/domain"
	"github.com/alejandrodnm/fillscope/internal/timeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeSeries(t *testing.T, points []domain.PricePoint) *timeline.TickSeries {
	t.Helper()
	store := timeline.NewTickStore(map[string][]domain.PricePoint{"w": points}, 1)
	series, ok := store.Series("w")
	require.True(t, ok)
	return series
}

func TestTickStore_DropsSparseSeries(t *testing.T) {
	store := timeline.NewTickStore(map[string][]domain.PricePoint{
		"w": {{TS: 1, Yes: 0.5, No: 0.5}},
	}, 10)
	_, ok := store.Series("w")
	assert.False(t, ok)
	assert.Zero(t, store.Len())
}

func TestTickSeries_At_NeverLooksForward(t *testing.T) {
	series := makeSeries(t, []domain.PricePoint{
		{TS: 10, Yes: 0.50, No: 0.50},
		{TS: 20, Yes: 0.60, No: 0.40},
	})

	// En ts=19 la única observación pasada es la de ts=10; la de ts=20 está
	// en el futuro y no debe usarse aunque sea más cercana.
	p, ok := series.At(19, 60)
	require.True(t, ok)
	assert.InDelta(t, 10, p.TS, 1e-9)

	_, ok = series.At(9, 60)
	assert.False(t, ok, "sin observación pasada no hay match")

	_, ok = series.At(100, 5)
	assert.False(t, ok, "última observación fuera de tolerancia")
}

func TestTickSeries_Outcome(t *testing.T) {
	up := makeSeries(t, []domain.PricePoint{
		{TS: 10, Yes: 0.50, No: 0.50},
		{TS: 900, Yes: 0.97, No: 0.03},
	})
	outcome, ok := up.Outcome(0.95)
	require.True(t, ok)
	assert.Equal(t, domain.OutcomeUp, outcome)

	undecided := makeSeries(t, []domain.PricePoint{
		{TS: 10, Yes: 0.50, No: 0.50},
		{TS: 900, Yes: 0.60, No: 0.40},
	})
	_, ok = undecided.Outcome(0.95)
	assert.False(t, ok, "ningún lado llegó al umbral")
}

func TestTickSeries_Volatility_NeedsEnoughPoints(t *testing.T) {
	series := makeSeries(t, []domain.PricePoint{
		{TS: 1, Yes: 0.50}, {TS: 2, Yes: 0.52}, {TS: 3, Yes: 0.48}, {TS: 4, Yes: 0.50},
	})

	vol, ok := series.Volatility(4, 10)
	require.True(t, ok)
	assert.Greater(t, vol, 0.0)

	_, ok = series.Volatility(2, 10)
	assert.False(t, ok, "dos puntos no alcanzan para un stdev de cambios")
}

func TestTickSeries_OpeningStats_PreWindowOnly(t *testing.T) {
	series := makeSeries(t, []domain.PricePoint{
		{TS: 890, Yes: 0.50, No: 0.50},
		{TS: 895, Yes: 0.52, No: 0.48},
		{TS: 898, Yes: 0.51, No: 0.49},
		{TS: 899, Yes: 0.53, No: 0.47},
		// Esta observación es posterior al inicio de la ventana (900):
		// un salto enorme que NO debe entrar en las stats de apertura.
		{TS: 901, Yes: 0.99, No: 0.01},
	})

	vol, skew, ok := series.OpeningStats(900, 60)
	require.True(t, ok)
	assert.Less(t, vol, 0.1, "la observación post-apertura no debe contaminar")
	assert.InDelta(t, 0.06, skew, 1e-9) // 0.53 - 0.47 del último punto pre-ventana
}

func TestTickSeries_Momentum(t *testing.T) {
	series := makeSeries(t, []domain.PricePoint{
		{TS: 10, Yes: 0.50},
		{TS: 60, Yes: 0.58},
	})

	m, ok := series.Momentum(60, 50, 5)
	require.True(t, ok)
	assert.InDelta(t, 0.08, m, 1e-9)
}
