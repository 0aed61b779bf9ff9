package l2file_test

import (
	"bytes"
	"compress/gzip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alejandrodnm/fillscope/internal/adapters/l2file"
	"github.com/alejandrodnm/fillscope/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gzipLines(t *testing.T, lines ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	for _, line := range lines {
		_, err := gz.Write([]byte(line + "\n"))
		require.NoError(t, err)
	}
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

func writeCapture(t *testing.T, dir, name string, data []byte) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o644))
}

func TestReader_Snapshots_ParsesCapture(t *testing.T) {
	dir := t.TempDir()
	writeCapture(t, dir, "btc-updown-15m-1000.jsonl.gz", gzipLines(t,
		`{"ts":1001.5,"event":"book","asset":"up","bids":[{"price":"0.50","size":"30"}],"asks":[{"price":"0.54","size":"20"}]}`,
		`{"ts":1002.0,"event":"price_change","asset":"up","bids":[{"price":"0.51","size":"5"}],"asks":[]}`,
		`{"ts":1002.5,"event":"book","asset":"dn","bids":[{"price":"0.44","size":"10"}],"asks":[]}`,
	))

	snaps, err := l2file.NewReader(dir).Snapshots(context.Background())
	require.NoError(t, err)
	// El delta incremental no participa: solo los dos snapshots "book".
	require.Len(t, snaps, 2)

	up := snaps[0]
	assert.InDelta(t, 1001.5, up.TS, 1e-9)
	assert.Equal(t, "up", up.Asset)
	assert.InDelta(t, 30, up.Bids[domain.TickFromPrice(0.50)], 1e-9)
	assert.InDelta(t, 20, up.Asks[domain.TickFromPrice(0.54)], 1e-9)
}

func TestReader_Snapshots_DropsMalformedLines(t *testing.T) {
	dir := t.TempDir()
	writeCapture(t, dir, "w.jsonl.gz", gzipLines(t,
		`{"ts":1001,"event":"book","asset":"up","bids":[],"asks":[]}`,
		`not json at all`,
		`{"ts":0,"event":"book","asset":"up"}`,
		`{"ts":1002,"event":"book","asset":"up","bids":[{"price":"abc","size":"10"},{"price":"0.50","size":"5"}],"asks":[]}`,
	))

	snaps, err := l2file.NewReader(dir).Snapshots(context.Background())
	require.NoError(t, err)

	// Línea corrupta y línea sin timestamp fuera; el nivel ilegible se ignora
	// sin tirar el resto del snapshot.
	require.Len(t, snaps, 2)
	assert.Len(t, snaps[1].Bids, 1)
}

func TestReader_Snapshots_ToleratesTruncatedGzip(t *testing.T) {
	dir := t.TempDir()
	full := gzipLines(t,
		`{"ts":1001,"event":"book","asset":"up","bids":[],"asks":[]}`,
		`{"ts":1002,"event":"book","asset":"up","bids":[],"asks":[]}`,
	)
	// Captura matada a mitad de escritura: sin trailer gzip.
	writeCapture(t, dir, "w.jsonl.gz", full[:len(full)-6])

	snaps, err := l2file.NewReader(dir).Snapshots(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, snaps, "lo decodificado antes del corte es válido")
}

func TestReader_Snapshots_EmptyDir(t *testing.T) {
	_, err := l2file.NewReader(t.TempDir()).Snapshots(context.Background())
	require.Error(t, err)
}
