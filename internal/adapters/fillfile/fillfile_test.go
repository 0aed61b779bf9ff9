package fillfile_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alejandrodnm/fillscope/internal/adapters/fillfile"
	"github.com/alejandrodnm/fillscope/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReader_Fills_ParsesActivityDump(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fills.json")
	dump := `[
	  {"ts": 1733500810, "slug": "btc-updown-15m-1733500800", "outcome": "Up",
	   "side": "BUY", "price": 0.52, "size": 100, "usdcSize": 52}
	]`
	require.NoError(t, os.WriteFile(path, []byte(dump), 0o644))

	fills, err := fillfile.NewReader(path).Fills(context.Background())
	require.NoError(t, err)
	require.Len(t, fills, 1)

	f := fills[0]
	assert.InDelta(t, 1733500810, f.TS, 1e-9)
	assert.Equal(t, "btc-updown-15m-1733500800", f.Slug)
	assert.Equal(t, domain.OutcomeUp, f.Outcome)
	assert.Equal(t, domain.SideBuy, f.Side)
	assert.InDelta(t, 52, f.Notional, 1e-9)
}

func TestWrite_ProducesReadableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fills.json")
	fills := []domain.Fill{
		{TS: 100, Slug: "btc-updown-15m-1000", Outcome: domain.OutcomeDown,
			Side: domain.SideSell, Price: 0.45, Size: 40, Notional: 18},
	}

	require.NoError(t, fillfile.Write(path, fills))

	loaded, err := fillfile.NewReader(path).Fills(context.Background())
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, fills[0], loaded[0])
}

func TestReader_Fills_CorruptJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fills.json")
	require.NoError(t, os.WriteFile(path, []byte("{not an array"), 0o644))

	_, err := fillfile.NewReader(path).Fills(context.Background())
	require.Error(t, err)
}
