package pricelog

// reader.go — lector del price log CSV (timestamp, yes_price, no_price,
// market_id). Implementa ports.PriceSource agrupando por slug de ventana.

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/alejandrodnm/fillscope/internal/domain"
)

// Reader implementa ports.PriceSource sobre un archivo CSV.
type Reader struct {
	path string
}

// NewReader crea el lector sobre la ruta dada.
func NewReader(path string) *Reader {
	return &Reader{path: path}
}

// Prices lee el log completo agrupado por slug. Las filas malformadas o con
// precios fuera de [0,1] se descartan contadas.
func (r *Reader) Prices(_ context.Context) (map[string][]domain.PricePoint, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("pricelog.Prices: open %q: %w", r.path, err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1 // validamos por fila: el log puede mezclar versiones

	byWindow := make(map[string][]domain.PricePoint)
	rows, dropped := 0, 0
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			dropped++
			continue
		}
		rows++

		point, slug, ok := parseRow(record)
		if !ok {
			dropped++
			continue
		}
		byWindow[slug] = append(byWindow[slug], point)
	}

	// El header cuenta como fila descartada; más de eso es data sucia real.
	slog.Info("price log loaded",
		"path", r.path,
		"rows", rows,
		"windows", len(byWindow),
		"dropped", dropped,
	)
	return byWindow, nil
}

// parseRow valida y convierte una fila (ts, yes, no, slug).
func parseRow(record []string) (domain.PricePoint, string, bool) {
	if len(record) < 4 {
		return domain.PricePoint{}, "", false
	}

	ts, ok := parseTimestamp(record[0])
	if !ok {
		return domain.PricePoint{}, "", false
	}
	yes, err := strconv.ParseFloat(record[1], 64)
	if err != nil || yes < 0 || yes > 1 {
		return domain.PricePoint{}, "", false
	}
	no, err := strconv.ParseFloat(record[2], 64)
	if err != nil || no < 0 || no > 1 {
		return domain.PricePoint{}, "", false
	}
	slug := record[3]
	if slug == "" {
		return domain.PricePoint{}, "", false
	}

	return domain.PricePoint{TS: ts, Yes: yes, No: no}, slug, true
}

// parseTimestamp acepta unix seconds (entero o decimal) o RFC3339.
func parseTimestamp(s string) (float64, bool) {
	if ts, err := strconv.ParseFloat(s, 64); err == nil {
		return ts, ts > 0
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return float64(t.UnixNano()) / 1e9, true
	}
	return 0, false
}
