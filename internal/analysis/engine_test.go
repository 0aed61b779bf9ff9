package analysis_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alejandrodnm/fillscope/internal/analysis"
	"github.com/alejandrodnm/fillscope/internal/classify"
	"github.com/alejandrodnm/fillscope/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockFillSource struct {
	fills []domain.Fill
	err   error
}

func (m *mockFillSource) Fills(_ context.Context) ([]domain.Fill, error) {
	return m.fills, m.err
}

type mockBookSource struct {
	snaps []domain.BookSnapshot
	err   error
}

func (m *mockBookSource) Snapshots(_ context.Context) ([]domain.BookSnapshot, error) {
	return m.snaps, m.err
}

type mockPriceSource struct {
	prices map[string][]domain.PricePoint
	err    error
}

func (m *mockPriceSource) Prices(_ context.Context) (map[string][]domain.PricePoint, error) {
	return m.prices, m.err
}

type mockStorage struct {
	saved []domain.Report
	err   error
}

func (m *mockStorage) SaveRun(_ context.Context, report domain.Report) error {
	m.saved = append(m.saved, report)
	return m.err
}

func (m *mockStorage) GetRuns(_ context.Context, _, _ time.Time) ([]domain.Report, error) {
	return nil, nil
}

func (m *mockStorage) Close() error { return nil }

type mockReporter struct {
	published []domain.Report
	err       error
}

func (m *mockReporter) Publish(_ context.Context, report domain.Report) error {
	m.published = append(m.published, report)
	return m.err
}

// --- helpers ---

const testSlug = "btc-updown-15m-1000"

func testConfig(mode string) analysis.Config {
	cfg := analysis.DefaultConfig()
	cfg.Mode = mode
	cfg.Method = classify.MethodVanished
	cfg.MinBookEvents = 2
	cfg.MinObservations = 2
	cfg.MinWindowDuration = 100
	cfg.AnalysisWorkers = 2
	return cfg
}

func snap(ts float64, askSize float64) domain.BookSnapshot {
	return domain.BookSnapshot{
		TS:    ts,
		Asset: "up",
		Bids:  map[domain.Tick]float64{50: 10},
		Asks:  map[domain.Tick]float64{52: askSize},
	}
}

func buyFill(ts, price, size float64) domain.Fill {
	return domain.Fill{
		TS: ts, Slug: testSlug, Outcome: domain.OutcomeUp,
		Side: domain.SideBuy, Price: price, Size: size,
		Notional: price * size,
	}
}

// --- tests ---

func TestEngine_RunL2_ClassifiesAndAggregates(t *testing.T) {
	fills := &mockFillSource{fills: []domain.Fill{
		buyFill(1100, 0.52, 40),
		{TS: 1200, Slug: testSlug, Outcome: domain.OutcomeUp, Side: domain.SideBuy}, // inválido: size 0
	}}
	books := &mockBookSource{snaps: []domain.BookSnapshot{
		snap(1098, 80),
		snap(1102, 20), // desaparecieron 60 asks ≥ 0.8×40 → taker
	}}
	store := &mockStorage{}
	reporter := &mockReporter{}

	engine := analysis.New(testConfig(domain.ModeL2), fills, books, nil, store, reporter)
	report, err := engine.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.ModeL2, report.Mode)
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 2, report.Counters.FillsTotal)
	assert.Equal(t, 1, report.Counters.FillsInvalid)

	assert.Equal(t, 1, report.Flow.Total)
	assert.Equal(t, 1, report.Flow.Takers)

	require.Len(t, store.saved, 1)
	require.Len(t, reporter.published, 1)
	assert.Equal(t, report.RunID, store.saved[0].RunID)
}

func TestEngine_RunL2_FillWithoutBookIsCounted(t *testing.T) {
	fills := &mockFillSource{fills: []domain.Fill{buyFill(5000, 0.52, 40)}}
	books := &mockBookSource{snaps: []domain.BookSnapshot{snap(1098, 80), snap(1102, 20)}}

	engine := analysis.New(testConfig(domain.ModeL2), fills, books, nil, nil, nil)
	report, err := engine.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Counters.FillsNoBook)
	assert.Equal(t, 1, report.Flow.Unresolved)
}

func TestEngine_RunEdge_ReplaysWindows(t *testing.T) {
	fills := &mockFillSource{fills: []domain.Fill{
		buyFill(1010, 0.48, 60),
		{TS: 1100, Slug: testSlug, Outcome: domain.OutcomeDown, Side: domain.SideBuy,
			Price: 0.45, Size: 40, Notional: 18},
	}}
	prices := &mockPriceSource{prices: map[string][]domain.PricePoint{
		testSlug: {
			{TS: 1005, Yes: 0.50, No: 0.50},
			{TS: 1099, Yes: 0.55, No: 0.45},
			{TS: 1899, Yes: 0.97, No: 0.03},
		},
		// Ventana observada sin fills: entra al análisis de selección.
		"btc-updown-15m-2000": {
			{TS: 2005, Yes: 0.50, No: 0.50},
			{TS: 2899, Yes: 0.02, No: 0.98},
		},
	}}
	store := &mockStorage{}
	reporter := &mockReporter{}

	engine := analysis.New(testConfig(domain.ModeEdge), fills, nil, prices, store, reporter)
	report, err := engine.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.ModeEdge, report.Mode)
	require.Len(t, report.Results, 1)
	assert.Equal(t, domain.OutcomeUp, report.Results[0].Outcome)
	assert.True(t, report.Results[0].Win)

	assert.Equal(t, 1, report.WinLoss.Wins)
	assert.Equal(t, len(report.Features), report.Triggers.Total)
	assert.Equal(t, 2, report.Selection.TotalWindows)
	assert.Equal(t, 1, report.Selection.Skipped)

	require.Len(t, store.saved, 1)
	require.Len(t, reporter.published, 1)
}

func TestEngine_RunEdge_WindowWithoutSeriesIsCounted(t *testing.T) {
	fills := &mockFillSource{fills: []domain.Fill{buyFill(1010, 0.48, 60)}}
	prices := &mockPriceSource{prices: map[string][]domain.PricePoint{}}

	engine := analysis.New(testConfig(domain.ModeEdge), fills, nil, prices, nil, nil)
	report, err := engine.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Counters.WindowsNoSeries)
	assert.Empty(t, report.Results)
}

func TestEngine_Run_SourceErrorPropagates(t *testing.T) {
	fills := &mockFillSource{err: errors.New("boom")}
	engine := analysis.New(testConfig(domain.ModeL2), fills, &mockBookSource{}, nil, nil, nil)

	_, err := engine.Run(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "boom")
}
