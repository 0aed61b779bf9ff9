package pricelog_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alejandrodnm/fillscope/internal/adapters/pricelog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "price_log.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReader_Prices_GroupsByWindow(t *testing.T) {
	path := writeLog(t, `timestamp,yes_price,no_price,market_id
1733500805,0.52,0.48,btc-updown-15m-1733500800
1733500810,0.54,0.46,btc-updown-15m-1733500800
1733501705,0.50,0.50,btc-updown-15m-1733501700
`)

	byWindow, err := pricelog.NewReader(path).Prices(context.Background())
	require.NoError(t, err)

	require.Len(t, byWindow, 2)
	points := byWindow["btc-updown-15m-1733500800"]
	require.Len(t, points, 2)
	assert.InDelta(t, 1733500805, points[0].TS, 1e-9)
	assert.InDelta(t, 0.52, points[0].Yes, 1e-9)
	assert.InDelta(t, 0.48, points[0].No, 1e-9)
}

func TestReader_Prices_AcceptsRFC3339Timestamps(t *testing.T) {
	path := writeLog(t, "2024-12-06T16:00:05Z,0.52,0.48,btc-updown-15m-1733500800\n")

	byWindow, err := pricelog.NewReader(path).Prices(context.Background())
	require.NoError(t, err)
	require.Len(t, byWindow["btc-updown-15m-1733500800"], 1)
}

func TestReader_Prices_DropsMalformedRows(t *testing.T) {
	path := writeLog(t, `1733500805,0.52,0.48,btc-updown-15m-1733500800
notatimestamp,0.52,0.48,btc-updown-15m-1733500800
1733500810,1.52,0.48,btc-updown-15m-1733500800
1733500815,0.52,0.48,
1733500820,0.55
`)

	byWindow, err := pricelog.NewReader(path).Prices(context.Background())
	require.NoError(t, err)

	// Solo la primera fila es válida: precio fuera de [0,1], slug vacío y
	// filas cortas se descartan sin tumbar la carga.
	require.Len(t, byWindow, 1)
	assert.Len(t, byWindow["btc-updown-15m-1733500800"], 1)
}

func TestReader_Prices_MissingFile(t *testing.T) {
	_, err := pricelog.NewReader("/nonexistent/price_log.csv").Prices(context.Background())
	require.Error(t, err)
}
