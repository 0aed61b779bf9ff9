package analysis

// engine.go — orquestador de una corrida de análisis.
//
// Pipeline batch: cargar fills y observaciones de mercado, reconciliarlos en
// el tiempo, clasificar o reproducir según el modo, y agregar. Todo el estado
// compartido (stores, clasificador) es de solo lectura durante la fase
// concurrente; cada worker escribe únicamente en su resultado.

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/alejandrodnm/fillscope/internal/aggregate"
	"github.com/alejandrodnm/fillscope/internal/classify"
	"github.com/alejandrodnm/fillscope/internal/domain"
	"github.com/alejandrodnm/fillscope/internal/ports"
	"github.com/alejandrodnm/fillscope/internal/replay"
	"github.com/alejandrodnm/fillscope/internal/timeline"
)

// Config parametriza la corrida completa.
type Config struct {
	Mode string // domain.ModeL2 | domain.ModeEdge

	// Reconciliación temporal.
	MaxBookGap  float64 // tolerancia de snapshots alrededor de un fill
	PriceMaxGap float64 // tolerancia del lookup causal de precio

	// Clasificación (modo L2).
	Method            classify.Method
	VanishedTolerance float64
	DepthLevels       int
	MinBookEvents     int // mínimo de snapshots por serie de asset

	// Replay (modo edge).
	MinObservations     int     // mínimo de puntos por serie de ventana
	WindowDuration      float64 // segundos por ventana
	MinWindowDuration   float64 // cobertura mínima de la serie para analizar
	SettlementThreshold float64

	// Workers del pool de análisis; <= 0 usa NumCPU × 2.
	AnalysisWorkers int
}

// DefaultConfig devuelve los parámetros empíricos de la sesión original.
func DefaultConfig() Config {
	return Config{
		Mode:                domain.ModeL2,
		MaxBookGap:          5,
		PriceMaxGap:         5,
		Method:              classify.MethodVanished,
		VanishedTolerance:   0.8,
		DepthLevels:         5,
		MinBookEvents:       100,
		MinObservations:     10,
		WindowDuration:      900,
		MinWindowDuration:   850,
		SettlementThreshold: 0.95,
	}
}

// Engine conecta las fuentes de datos con el pipeline de análisis.
type Engine struct {
	cfg      Config
	fills    ports.FillSource
	books    ports.BookSource
	prices   ports.PriceSource
	storage  ports.Storage
	reporter ports.Reporter
}

// New crea el Engine. books se usa en modo L2, prices en modo edge; storage
// puede ser nil (corrida sin persistencia).
func New(cfg Config, fills ports.FillSource, books ports.BookSource, prices ports.PriceSource, storage ports.Storage, reporter ports.Reporter) *Engine {
	return &Engine{
		cfg:      cfg,
		fills:    fills,
		books:    books,
		prices:   prices,
		storage:  storage,
		reporter: reporter,
	}
}

// Run ejecuta la corrida completa: carga, análisis, agregación, persistencia
// y publicación del reporte.
func (e *Engine) Run(ctx context.Context) (domain.Report, error) {
	start := time.Now()

	fills, err := e.loadFills(ctx)
	if err != nil {
		return domain.Report{}, err
	}

	var report domain.Report
	switch e.cfg.Mode {
	case domain.ModeEdge:
		report, err = e.runEdge(ctx, fills.valid)
	default:
		report, err = e.runL2(ctx, fills.valid)
	}
	if err != nil {
		return domain.Report{}, err
	}

	report.RunID = uuid.NewString()
	report.Mode = e.cfg.Mode
	report.GeneratedAt = time.Now().UTC()
	report.Counters.FillsTotal = fills.total
	report.Counters.FillsInvalid = fills.invalid

	slog.Info("analysis complete",
		"run_id", report.RunID,
		"mode", report.Mode,
		"fills", fills.total,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)

	if e.storage != nil {
		if err := e.storage.SaveRun(ctx, report); err != nil {
			return domain.Report{}, fmt.Errorf("analysis.Run: save run: %w", err)
		}
	}
	if e.reporter != nil {
		if err := e.reporter.Publish(ctx, report); err != nil {
			return domain.Report{}, fmt.Errorf("analysis.Run: publish report: %w", err)
		}
	}

	return report, nil
}

// loadedFills separa los fills válidos de los descartados en la carga.
type loadedFills struct {
	valid   []domain.Fill
	total   int
	invalid int
}

// loadFills carga y valida los fills. Los inválidos se descartan y cuentan.
func (e *Engine) loadFills(ctx context.Context) (loadedFills, error) {
	raw, err := e.fills.Fills(ctx)
	if err != nil {
		return loadedFills{}, fmt.Errorf("analysis.loadFills: %w", err)
	}

	out := loadedFills{total: len(raw), valid: make([]domain.Fill, 0, len(raw))}
	for _, f := range raw {
		if !f.Valid() {
			out.invalid++
			continue
		}
		out.valid = append(out.valid, f)
	}
	if out.invalid > 0 {
		slog.Warn("dropped invalid fills", "count", out.invalid)
	}
	return out, nil
}

// runL2 clasifica cada fill contra la línea de tiempo de snapshots de su
// asset y agrega flujo y ladders.
func (e *Engine) runL2(ctx context.Context, fills []domain.Fill) (domain.Report, error) {
	snaps, err := e.books.Snapshots(ctx)
	if err != nil {
		return domain.Report{}, fmt.Errorf("analysis.runL2: load snapshots: %w", err)
	}

	store := timeline.NewBookStore(snaps, e.cfg.MinBookEvents)
	classifier := classify.New(classify.Config{
		Method:      e.cfg.Method,
		Tolerance:   e.cfg.VanishedTolerance,
		DepthLevels: e.cfg.DepthLevels,
	})

	classified, counters := e.classifyConcurrent(ctx, classifier, store, fills)

	report := domain.Report{
		Flow:     aggregate.Flow(classified),
		Ladders:  aggregate.Ladders(classified),
		Counters: counters,
	}

	slog.Debug("l2 analysis",
		"classified", len(classified),
		"makers", report.Flow.Makers,
		"takers", report.Flow.Takers,
		"unresolved", report.Flow.Unresolved,
		"ladders", len(report.Ladders),
	)
	return report, nil
}

// runEdge reproduce cada ventana con fills contra su serie de precios y
// agrega resultados, win/loss y sesgo de selección.
func (e *Engine) runEdge(ctx context.Context, fills []domain.Fill) (domain.Report, error) {
	byWindow, err := e.prices.Prices(ctx)
	if err != nil {
		return domain.Report{}, fmt.Errorf("analysis.runEdge: load prices: %w", err)
	}

	ticks := timeline.NewTickStore(byWindow, e.cfg.MinObservations)
	tracker := replay.New(replay.Config{
		WindowDuration:      e.cfg.WindowDuration,
		PriceMaxGap:         e.cfg.PriceMaxGap,
		SettlementThreshold: e.cfg.SettlementThreshold,
	})

	fillsBySlug := groupBySlug(fills)
	report, traded := e.replayConcurrent(ctx, tracker, ticks, fillsBySlug)

	report.WinLoss = aggregate.WinLoss(report.Results)
	report.Triggers = aggregate.Triggers(report.Features)
	report.Selection = aggregate.Selection(ticks, traded, e.cfg.SettlementThreshold)

	slog.Debug("edge analysis",
		"windows", len(report.Results),
		"features", len(report.Features),
		"win_rate", report.WinLoss.WinRate,
		"skip_rate", report.Selection.SkipRate,
	)
	return report, nil
}

// groupBySlug particiona los fills por ventana.
func groupBySlug(fills []domain.Fill) map[string][]domain.Fill {
	out := make(map[string][]domain.Fill)
	for _, f := range fills {
		out[f.Slug] = append(out[f.Slug], f)
	}
	return out
}

// sortedSlugs devuelve las claves ordenadas para un recorrido determinista.
func sortedSlugs(m map[string][]domain.Fill) []string {
	slugs := make([]string, 0, len(m))
	for slug := range m {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)
	return slugs
}
