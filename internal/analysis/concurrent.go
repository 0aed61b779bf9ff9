package analysis

// concurrent.go — worker pool para el análisis paralelo.
//
// El trabajo es embarrassingly parallel: cada fill (L2) o cada ventana (edge)
// se analiza contra estructuras inmutables compartidas. Los workers solo
// escriben en sus resultados; la agregación ocurre en el goroutine principal.

import (
	"context"
	"log/slog"
	"runtime"
	"sort"
	"sync"

	"github.com/alejandrodnm/fillscope/internal/classify"
	"github.com/alejandrodnm/fillscope/internal/domain"
	"github.com/alejandrodnm/fillscope/internal/replay"
	"github.com/alejandrodnm/fillscope/internal/timeline"
)

// workers normaliza la cantidad de workers del pool.
func (e *Engine) workers() int {
	if e.cfg.AnalysisWorkers > 0 {
		return e.cfg.AnalysisWorkers
	}
	return runtime.NumCPU() * 2
}

// classifyResult es la salida por fill del pool de clasificación.
type classifyResult struct {
	cf        domain.ClassifiedFill
	noBook    bool
	malformed bool
}

// classifyConcurrent clasifica todos los fills en paralelo contra las líneas
// de tiempo de snapshots. Devuelve los fills clasificados ordenados por
// timestamp y los contadores de descarte.
func (e *Engine) classifyConcurrent(
	ctx context.Context,
	classifier *classify.Classifier,
	store *timeline.BookStore,
	fills []domain.Fill,
) ([]domain.ClassifiedFill, domain.RunCounters) {
	workers := e.workers()

	workCh := make(chan domain.Fill, len(fills))
	resultCh := make(chan classifyResult, len(fills))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for f := range workCh {
				resultCh <- e.classifyOne(classifier, store, f)
			}
		}()
	}

	for _, f := range fills {
		workCh <- f
	}
	close(workCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	classified := make([]domain.ClassifiedFill, 0, len(fills))
	var counters domain.RunCounters
	for r := range resultCh {
		if r.noBook {
			counters.FillsNoBook++
		}
		if r.malformed {
			counters.WindowsMalformed++
		}
		classified = append(classified, r.cf)
	}

	sort.SliceStable(classified, func(i, j int) bool { return classified[i].TS < classified[j].TS })

	slog.Debug("concurrent classification complete",
		"fills", len(fills),
		"no_book", counters.FillsNoBook,
		"workers", workers,
	)
	return classified, counters
}

// classifyOne reconcilia un fill con los snapshots de su asset y lo anota.
func (e *Engine) classifyOne(classifier *classify.Classifier, store *timeline.BookStore, f domain.Fill) classifyResult {
	var before, after *domain.BookSnapshot
	if tl, ok := store.Timeline(f.Asset()); ok {
		b, a, okB, okA := tl.Around(f.TS, e.cfg.MaxBookGap)
		if okB {
			before = &b
		}
		if okA {
			after = &a
		}
	}

	windowStart := f.TS // slug malformado: timing relativo al propio fill
	ws, ok := domain.WindowStart(f.Slug)
	if ok {
		windowStart = float64(ws)
	}

	return classifyResult{
		cf:        classifier.Annotate(f, before, after, windowStart, e.cfg.WindowDuration),
		noBook:    before == nil && after == nil,
		malformed: !ok,
	}
}

// replayResult es la salida por ventana del pool de replay.
type replayResult struct {
	slug      string
	replay    replay.WindowReplay
	malformed bool
}

// replayConcurrent reproduce todas las ventanas con fills en paralelo.
// Devuelve el reporte parcial (Results + Features + contadores) y el set de
// ventanas operadas para el análisis de selección.
func (e *Engine) replayConcurrent(
	ctx context.Context,
	tracker *replay.Tracker,
	ticks *timeline.TickStore,
	fillsBySlug map[string][]domain.Fill,
) (domain.Report, map[string]bool) {
	var report domain.Report
	traded := make(map[string]bool, len(fillsBySlug))

	type work struct {
		slug   string
		fills  []domain.Fill
		series *timeline.TickSeries
	}

	workCh := make(chan work, len(fillsBySlug))
	resultCh := make(chan replayResult, len(fillsBySlug))

	workers := e.workers()
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for w := range workCh {
				wr, err := tracker.Replay(w.slug, w.fills, w.series)
				if err != nil {
					slog.Debug("replay failed", "slug", w.slug, "err", err)
					resultCh <- replayResult{slug: w.slug, malformed: true}
					continue
				}
				resultCh <- replayResult{slug: w.slug, replay: wr}
			}
		}()
	}

	queued := 0
	for _, slug := range sortedSlugs(fillsBySlug) {
		traded[slug] = true

		series, ok := ticks.Series(slug)
		if !ok {
			report.Counters.WindowsNoSeries++
			continue
		}
		if series.Duration() < e.cfg.MinWindowDuration {
			report.Counters.WindowsShort++
			continue
		}

		workCh <- work{slug: slug, fills: fillsBySlug[slug], series: series}
		queued++
	}
	close(workCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	replays := make([]replayResult, 0, queued)
	for r := range resultCh {
		if r.malformed {
			report.Counters.WindowsMalformed++
			continue
		}
		replays = append(replays, r)
	}

	// Orden determinista independiente del scheduling de los workers.
	sort.Slice(replays, func(i, j int) bool { return replays[i].slug < replays[j].slug })

	for _, r := range replays {
		report.Results = append(report.Results, r.replay.Result)
		report.Features = append(report.Features, r.replay.Features...)
		report.Counters.FillsNoPrice += r.replay.NoPriceMatch
		if r.replay.Result.Outcome == "" {
			report.Counters.WindowsUnsettled++
		}
	}

	slog.Debug("concurrent replay complete",
		"windows_queued", queued,
		"windows_done", len(replays),
		"workers", workers,
	)
	return report, traded
}
