package domain_test

import (
	"testing"

	"github.com/alejandrodnm/fillscope/internal/domain"
	"github.com/stretchr/testify/assert"
)

// --- helpers ---

func tick(p float64) domain.Tick {
	return domain.TickFromPrice(p)
}

func makeBook(ts float64, bids, asks map[float64]float64) domain.BookSnapshot {
	snap := domain.BookSnapshot{
		TS:    ts,
		Asset: "up",
		Bids:  make(map[domain.Tick]float64),
		Asks:  make(map[domain.Tick]float64),
	}
	for p, s := range bids {
		snap.Bids[tick(p)] = s
	}
	for p, s := range asks {
		snap.Asks[tick(p)] = s
	}
	return snap
}

// --- tests ---

func TestTickFromPrice_RoundsFloatNoise(t *testing.T) {
	// 0.57999999 y 0.58 deben caer en el mismo nivel.
	assert.Equal(t, tick(0.58), domain.TickFromPrice(0.57999999))
	assert.Equal(t, tick(0.58), domain.TickFromPrice(0.58000001))
	assert.InDelta(t, 0.58, tick(0.58).Price(), 1e-9)
}

func TestBookSnapshot_BestPrices(t *testing.T) {
	book := makeBook(100, map[float64]float64{0.50: 10, 0.52: 5}, map[float64]float64{0.54: 8, 0.56: 3})

	assert.InDelta(t, 0.52, book.BestBid(), 1e-9)
	assert.InDelta(t, 0.54, book.BestAsk(), 1e-9)
	assert.InDelta(t, 0.53, book.Mid(), 1e-9)
	assert.InDelta(t, 0.02, book.Spread(), 1e-9)
}

func TestBookSnapshot_BestPrices_EmptySides(t *testing.T) {
	book := makeBook(100, nil, nil)

	// Lados vacíos: extremos del rango de precios de un binario.
	assert.InDelta(t, 0.0, book.BestBid(), 1e-9)
	assert.InDelta(t, 1.0, book.BestAsk(), 1e-9)
}

func TestBookSnapshot_BestBid_IgnoresZeroSize(t *testing.T) {
	book := makeBook(100, map[float64]float64{0.52: 0, 0.50: 10}, nil)
	assert.InDelta(t, 0.50, book.BestBid(), 1e-9)
}

func TestBookSnapshot_Imbalance(t *testing.T) {
	book := makeBook(100, map[float64]float64{0.50: 30}, map[float64]float64{0.54: 10})

	// (30 - 10) / (30 + 10) = 0.5
	assert.InDelta(t, 0.5, book.Imbalance(5), 1e-9)

	empty := makeBook(100, nil, nil)
	assert.Zero(t, empty.Imbalance(5))
}

func TestBookSnapshot_Depth_TopLevelsOnly(t *testing.T) {
	book := makeBook(100,
		map[float64]float64{0.50: 10, 0.49: 20, 0.48: 30, 0.47: 40},
		nil,
	)

	// Top 2 niveles de bid: 0.50 y 0.49.
	assert.InDelta(t, 30, book.BidDepth(2), 1e-9)
	assert.InDelta(t, 100, book.BidDepth(10), 1e-9)
}

func TestOFI_BidGrowthMinusAskGrowth(t *testing.T) {
	before := makeBook(100, map[float64]float64{0.50: 10}, map[float64]float64{0.54: 20})
	after := makeBook(101, map[float64]float64{0.50: 25}, map[float64]float64{0.54: 5})

	// Δbid = +15, Δask = -15 → OFI = 30: presión compradora.
	assert.InDelta(t, 30, domain.OFI(before, after, 5), 1e-9)
}

func TestRound4(t *testing.T) {
	assert.InDelta(t, 0.1235, domain.Round4(0.12345), 1e-9)
	assert.InDelta(t, -0.1235, domain.Round4(-0.12345), 1e-9)
}
