package fillfile

// fillfile.go — archivo local de fills (JSON array). Es el formato que escribe
// el modo -fetch y que leen las corridas de análisis: descargar una vez,
// analizar muchas.

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/alejandrodnm/fillscope/internal/domain"
)

// record es el fill serializado en disco.
type record struct {
	TS       float64 `json:"ts"`
	Slug     string  `json:"slug"`
	Outcome  string  `json:"outcome"`
	Side     string  `json:"side"`
	Price    float64 `json:"price"`
	Size     float64 `json:"size"`
	Notional float64 `json:"usdcSize"`
}

// Reader implementa ports.FillSource sobre un archivo local.
type Reader struct {
	path string
}

// NewReader crea el lector sobre la ruta dada.
func NewReader(path string) *Reader {
	return &Reader{path: path}
}

// Fills lee el archivo completo. La validación por fill ocurre aguas arriba;
// acá solo falla el archivo ilegible o el JSON corrupto.
func (r *Reader) Fills(_ context.Context) ([]domain.Fill, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("fillfile.Fills: read %q: %w", r.path, err)
	}

	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("fillfile.Fills: parse %q: %w", r.path, err)
	}

	fills := make([]domain.Fill, len(records))
	for i, rec := range records {
		fills[i] = domain.Fill{
			TS:       rec.TS,
			Slug:     rec.Slug,
			Outcome:  rec.Outcome,
			Side:     rec.Side,
			Price:    rec.Price,
			Size:     rec.Size,
			Notional: rec.Notional,
		}
	}

	slog.Info("fills loaded", "path", r.path, "count", len(fills))
	return fills, nil
}

// Write persiste los fills al archivo dado, sobreescribiendo.
func Write(path string, fills []domain.Fill) error {
	records := make([]record, len(fills))
	for i, f := range fills {
		records[i] = record{
			TS:       f.TS,
			Slug:     f.Slug,
			Outcome:  f.Outcome,
			Side:     f.Side,
			Price:    f.Price,
			Size:     f.Size,
			Notional: f.Notional,
		}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("fillfile.Write: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("fillfile.Write: write %q: %w", path, err)
	}
	return nil
}
