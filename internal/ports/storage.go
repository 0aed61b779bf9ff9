package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/fillscope/internal/domain"
)

// Storage persiste los reportes de cada corrida de análisis.
type Storage interface {
	// SaveRun persiste el reporte completo de una corrida.
	SaveRun(ctx context.Context, report domain.Report) error

	// GetRuns devuelve los reportes registrados en el rango de tiempo dado,
	// sin los detalles por ventana (solo resumen y contadores).
	GetRuns(ctx context.Context, from, to time.Time) ([]domain.Report, error)

	// Close cierra la conexión a la base de datos limpiamente.
	Close() error
}
