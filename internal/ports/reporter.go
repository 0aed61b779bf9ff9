package ports

import (
	"context"

	"github.com/alejandrodnm/fillscope/internal/domain"
)

// Reporter publica el reporte de una corrida (consola, archivo, etc.).
type Reporter interface {
	Publish(ctx context.Context, report domain.Report) error
}
