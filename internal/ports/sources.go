package ports

import (
	"context"

	"github.com/alejandrodnm/fillscope/internal/domain"
)

// FillSource provee los fills del wallet objetivo, sin orden garantizado.
type FillSource interface {
	Fills(ctx context.Context) ([]domain.Fill, error)
}

// BookSource provee los snapshots L2 capturados durante la sesión.
type BookSource interface {
	Snapshots(ctx context.Context) ([]domain.BookSnapshot, error)
}

// PriceSource provee las series del price log, agrupadas por slug de ventana.
type PriceSource interface {
	Prices(ctx context.Context) (map[string][]domain.PricePoint, error)
}
