package polymarket_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/alejandrodnm/fillscope/internal/adapters/polymarket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type activityPayload struct {
	Timestamp int64   `json:"timestamp"`
	Type      string  `json:"type"`
	Slug      string  `json:"slug"`
	Outcome   string  `json:"outcome"`
	Side      string  `json:"side"`
	Price     float64 `json:"price"`
	Size      float64 `json:"size"`
	USDCSize  float64 `json:"usdcSize"`
}

func trade(ts int64, slug string) activityPayload {
	return activityPayload{
		Timestamp: ts, Type: "TRADE", Slug: slug, Outcome: "Up",
		Side: "BUY", Price: 0.52, Size: 100, USDCSize: 52,
	}
}

func TestActivitySource_Fills_PaginatesAndFilters(t *testing.T) {
	// Página 0 llena (500 registros) fuerza el fetch de la página 1.
	page0 := make([]activityPayload, 0, 500)
	for i := 0; i < 499; i++ {
		page0 = append(page0, trade(int64(1000+i), "btc-updown-15m-1000"))
	}
	// Registros que el filtro debe excluir: otro mercado y un no-trade.
	page0 = append(page0, trade(2000, "eth-updown-15m-1000"))
	page1 := []activityPayload{
		trade(3000, "btc-updown-15m-2000"),
		{Timestamp: 3001, Type: "REDEEM", Slug: "btc-updown-15m-2000"},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/activity", r.URL.Path)
		assert.Equal(t, "0xwallet", r.URL.Query().Get("user"))
		assert.Equal(t, "TRADE", r.URL.Query().Get("type"))

		offset, err := strconv.Atoi(r.URL.Query().Get("offset"))
		require.NoError(t, err)

		w.Header().Set("Content-Type", "application/json")
		switch offset {
		case 0:
			json.NewEncoder(w).Encode(page0)
		case 500:
			json.NewEncoder(w).Encode(page1)
		default:
			fmt.Fprint(w, "[]")
		}
	}))
	defer srv.Close()

	client := polymarket.NewClient(srv.URL)
	source := polymarket.NewActivitySource(client, "0xwallet", "btc-updown-15m-")

	fills, err := source.Fills(context.Background())
	require.NoError(t, err)

	// 499 de la página 0 (sin el slug ajeno) + 1 trade de la página 1.
	require.Len(t, fills, 500)
	last := fills[len(fills)-1]
	assert.Equal(t, "btc-updown-15m-2000", last.Slug)
	assert.InDelta(t, 3000, last.TS, 1e-9)
	assert.InDelta(t, 52, last.Notional, 1e-9)
}

func TestActivitySource_Fills_EmptyHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "[]")
	}))
	defer srv.Close()

	client := polymarket.NewClient(srv.URL)
	source := polymarket.NewActivitySource(client, "0xwallet", "")

	fills, err := source.Fills(context.Background())
	require.NoError(t, err)
	assert.Empty(t, fills)
}

func TestActivitySource_Fills_ClientError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	client := polymarket.NewClient(srv.URL)
	source := polymarket.NewActivitySource(client, "0xwallet", "")

	_, err := source.Fills(context.Background())
	require.Error(t, err)
}
