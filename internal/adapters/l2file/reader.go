package l2file

// reader.go — lector de capturas L2 (<dir>/<slug>.jsonl.gz).
//
// Cada archivo es el dump de una sesión de captura: una línea JSON por evento
// de book. Los capture processes mueren con la ventana, así que el gzip suele
// quedar truncado sin trailer — se usa todo lo que decodifique bien y el resto
// se descarta contado, nunca en silencio.

import (
	"bufio"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/alejandrodnm/fillscope/internal/domain"
)

// Líneas de hasta 1 MiB: un book de 100 niveles por lado entra de sobra.
const maxLineBytes = 1 << 20

// rawLevel es un nivel del book tal como lo emite el feed (strings).
type rawLevel struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

// rawEvent es una línea del capture. El feed mezcla tipos de evento; solo los
// "book" (snapshot completo) sirven — los deltas incrementales se saltean.
type rawEvent struct {
	TS    float64    `json:"ts"`
	Event string     `json:"event"` // solo "book" participa
	Asset string     `json:"asset"` // "up" | "dn"
	Bids  []rawLevel `json:"bids"`
	Asks  []rawLevel `json:"asks"`
}

// Reader implementa ports.BookSource sobre un directorio de capturas.
type Reader struct {
	dir string
}

// NewReader crea el lector sobre el directorio dado.
func NewReader(dir string) *Reader {
	return &Reader{dir: dir}
}

// Snapshots lee todas las capturas del directorio. Devuelve error solo si el
// directorio es ilegible; los archivos y líneas corruptos se saltean contados.
func (r *Reader) Snapshots(_ context.Context) ([]domain.BookSnapshot, error) {
	paths, err := filepath.Glob(filepath.Join(r.dir, "*.jsonl.gz"))
	if err != nil {
		return nil, fmt.Errorf("l2file.Snapshots: glob %q: %w", r.dir, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("l2file.Snapshots: no captures in %q", r.dir)
	}

	var snaps []domain.BookSnapshot
	var dropped int
	for _, path := range paths {
		fileSnaps, fileDropped, err := readCapture(path)
		if err != nil {
			slog.Warn("skipping unreadable capture", "path", path, "err", err)
			continue
		}
		snaps = append(snaps, fileSnaps...)
		dropped += fileDropped
	}

	slog.Info("l2 captures loaded",
		"files", len(paths),
		"snapshots", len(snaps),
		"dropped_lines", dropped,
	)
	return snaps, nil
}

// readCapture decodifica un archivo de captura completo.
func readCapture(path string) ([]domain.BookSnapshot, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, 0, err
	}
	defer gz.Close()

	var snaps []domain.BookSnapshot
	dropped := 0

	scanner := bufio.NewScanner(gz)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	for scanner.Scan() {
		snap, ok, malformed := parseLine(scanner.Bytes())
		if malformed {
			dropped++
		}
		if !ok {
			continue
		}
		snaps = append(snaps, snap)
	}

	// Gzip truncado (captura matada a mitad de escritura): lo decodificado
	// hasta el corte es válido.
	if err := scanner.Err(); err != nil && !truncatedGzip(err) {
		return nil, 0, err
	}
	return snaps, dropped, nil
}

// truncatedGzip reconoce los errores de un stream gzip cortado sin trailer.
func truncatedGzip(err error) bool {
	return errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, gzip.ErrChecksum)
}

// parseLine decodifica una línea del capture a snapshot. malformed marca las
// líneas corruptas o sin timestamp; los eventos de otro tipo (deltas, trades
// del feed) no son errores, solo no participan.
func parseLine(line []byte) (snap domain.BookSnapshot, ok, malformed bool) {
	var ev rawEvent
	if err := json.Unmarshal(line, &ev); err != nil {
		return domain.BookSnapshot{}, false, true
	}
	if ev.TS <= 0 || ev.Asset == "" {
		return domain.BookSnapshot{}, false, true
	}
	if ev.Event != "book" {
		return domain.BookSnapshot{}, false, false
	}

	snap = domain.BookSnapshot{
		TS:    ev.TS,
		Asset: ev.Asset,
		Bids:  parseLevels(ev.Bids),
		Asks:  parseLevels(ev.Asks),
	}
	return snap, true, false
}

// parseLevels convierte niveles crudos a mapa por tick. Niveles con precio o
// size no numéricos se ignoran.
func parseLevels(raw []rawLevel) map[domain.Tick]float64 {
	levels := make(map[domain.Tick]float64, len(raw))
	for _, l := range raw {
		price, err := strconv.ParseFloat(l.Price, 64)
		if err != nil || price < 0 || price > 1 {
			continue
		}
		size, err := strconv.ParseFloat(l.Size, 64)
		if err != nil || size < 0 {
			continue
		}
		levels[domain.TickFromPrice(price)] = size
	}
	return levels
}
