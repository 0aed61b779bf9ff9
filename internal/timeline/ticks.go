package timeline

// ticks.go — series del price log (modo sin book): precios yes/no por ventana.
//
// Este modo alimenta la clasificación por comparación de precio y el replay
// causal del tracker. Momentum y volatilidad usan SOLO observaciones con
// TS <= t del fill — usar una observación posterior es un bug de corrección,
// no un tema de tolerancia.

import (
	"math"
	"sort"

	"github.com/alejandrodnm/fillscope/internal/domain"
)

// TickStore agrupa las series del price log por slug de ventana.
// Inmutable después de construirse.
type TickStore struct {
	series map[string]*TickSeries
}

// NewTickStore ordena cada serie por timestamp y descarta las que tienen
// menos de minObs observaciones.
func NewTickStore(byWindow map[string][]domain.PricePoint, minObs int) *TickStore {
	store := &TickStore{series: make(map[string]*TickSeries, len(byWindow))}
	for slug, points := range byWindow {
		if len(points) < minObs {
			continue
		}
		sorted := make([]domain.PricePoint, len(points))
		copy(sorted, points)
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].TS < sorted[j].TS })
		store.series[slug] = &TickSeries{points: sorted}
	}
	return store
}

// Series devuelve la serie de una ventana, si sobrevivió el filtro mínimo.
func (s *TickStore) Series(slug string) (*TickSeries, bool) {
	t, ok := s.series[slug]
	return t, ok
}

// Slugs devuelve los slugs con serie utilizable, ordenados.
func (s *TickStore) Slugs() []string {
	slugs := make([]string, 0, len(s.series))
	for slug := range s.series {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)
	return slugs
}

// Len devuelve la cantidad de ventanas con serie utilizable.
func (s *TickStore) Len() int {
	return len(s.series)
}

// TickSeries es la serie ordenada de precios de una ventana.
type TickSeries struct {
	points []domain.PricePoint
}

// Len devuelve la cantidad de observaciones.
func (t *TickSeries) Len() int {
	return len(t.points)
}

// First devuelve la observación más antigua.
func (t *TickSeries) First() domain.PricePoint {
	return t.points[0]
}

// Last devuelve la observación más reciente.
func (t *TickSeries) Last() domain.PricePoint {
	return t.points[len(t.points)-1]
}

// Duration devuelve los segundos cubiertos por la serie.
func (t *TickSeries) Duration() float64 {
	if len(t.points) < 2 {
		return 0
	}
	return t.Last().TS - t.First().TS
}

// Nearest devuelve la observación que minimiza |TS - ts| dentro de maxGap.
// Lookup bilateral — para features por fill usar At, que es causal.
func (t *TickSeries) Nearest(ts, maxGap float64) (domain.PricePoint, bool) {
	idx := sort.Search(len(t.points), func(i int) bool { return t.points[i].TS >= ts })

	best := -1
	bestDiff := maxGap
	for _, i := range []int{idx - 1, idx} {
		if i < 0 || i >= len(t.points) {
			continue
		}
		diff := math.Abs(t.points[i].TS - ts)
		if diff <= bestDiff {
			best = i
			bestDiff = diff
		}
	}
	if best < 0 {
		return domain.PricePoint{}, false
	}
	return t.points[best], true
}

// At devuelve la última observación con TS <= ts dentro de maxGap.
// Es la variante causal de Nearest: nunca mira hacia adelante.
func (t *TickSeries) At(ts, maxGap float64) (domain.PricePoint, bool) {
	idx := sort.Search(len(t.points), func(i int) bool { return t.points[i].TS > ts })
	if idx == 0 {
		return domain.PricePoint{}, false
	}
	p := t.points[idx-1]
	if ts-p.TS > maxGap {
		return domain.PricePoint{}, false
	}
	return p, true
}

// Momentum devuelve el cambio del precio yes sobre el período lookback,
// usando solo observaciones pasadas.
func (t *TickSeries) Momentum(ts, lookback, maxGap float64) (float64, bool) {
	current, ok := t.At(ts, maxGap)
	if !ok {
		return 0, false
	}
	past, ok := t.At(ts-lookback, lookback)
	if !ok {
		return 0, false
	}
	return current.Yes - past.Yes, true
}

// Volatility devuelve la desviación estándar de los cambios consecutivos del
// precio yes dentro de (ts-lookback, ts]. Requiere al menos 2 cambios.
func (t *TickSeries) Volatility(ts, lookback float64) (float64, bool) {
	end := sort.Search(len(t.points), func(i int) bool { return t.points[i].TS > ts })
	start := sort.Search(len(t.points), func(i int) bool { return t.points[i].TS > ts-lookback })

	if end-start < 3 {
		return 0, false
	}

	changes := make([]float64, 0, end-start-1)
	for i := start + 1; i < end; i++ {
		changes = append(changes, t.points[i].Yes-t.points[i-1].Yes)
	}
	return stdev(changes)
}

// Outcome resuelve el outcome terminal de la ventana: el lado cuyo precio
// final alcanza el umbral gana. Si ninguno llega, el outcome es indeterminado
// y la ventana queda fuera de todo análisis que requiera PnL.
func (t *TickSeries) Outcome(threshold float64) (string, bool) {
	if len(t.points) == 0 {
		return "", false
	}
	last := t.Last()
	switch {
	case last.Yes >= threshold:
		return domain.OutcomeUp, true
	case last.No >= threshold:
		return domain.OutcomeDown, true
	default:
		return "", false
	}
}

// OpeningStats devuelve volatilidad y skew de apertura de la ventana usando
// únicamente observaciones con TS < windowStart — la única información que
// una política de selección pudo haber visto antes de decidir operar.
func (t *TickSeries) OpeningStats(windowStart, lookback float64) (vol, skew float64, ok bool) {
	end := sort.Search(len(t.points), func(i int) bool { return t.points[i].TS >= windowStart })
	start := sort.Search(len(t.points), func(i int) bool { return t.points[i].TS > windowStart-lookback })

	if end-start < 3 {
		return 0, 0, false
	}

	changes := make([]float64, 0, end-start-1)
	for i := start + 1; i < end; i++ {
		changes = append(changes, t.points[i].Yes-t.points[i-1].Yes)
	}
	vol, volOK := stdev(changes)
	if !volOK {
		return 0, 0, false
	}
	last := t.points[end-1]
	return vol, domain.Round4(last.Yes - last.No), true
}

// stdev devuelve la desviación estándar muestral.
func stdev(vals []float64) (float64, bool) {
	if len(vals) < 2 {
		return 0, false
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	mean := sum / float64(len(vals))

	var ss float64
	for _, v := range vals {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(vals)-1)), true
}
