package timeline

// books.go — series temporales de snapshots L2, una por asset.
//
// El workload típico lanza millones de lookups contra series de miles de
// puntos: todos los accesos van por búsqueda binaria (O(log n)) sobre el
// slice ordenado, nunca por scan lineal.

import (
	"sort"

	"github.com/alejandrodnm/fillscope/internal/domain"
)

// BookStore agrupa las series de snapshots por asset ("up"/"dn").
// Inmutable después de construirse — seguro para lectura concurrente.
type BookStore struct {
	series map[string]*BookTimeline
}

// NewBookStore particiona los snapshots por asset y ordena cada serie por
// timestamp ascendente (orden estable: empates conservan el orden de carga).
// Las series con menos de minObs observaciones se descartan — demasiado
// ralas para que un lookup por tolerancia sea confiable.
func NewBookStore(snaps []domain.BookSnapshot, minObs int) *BookStore {
	byAsset := make(map[string][]domain.BookSnapshot)
	for _, s := range snaps {
		byAsset[s.Asset] = append(byAsset[s.Asset], s)
	}

	store := &BookStore{series: make(map[string]*BookTimeline, len(byAsset))}
	for asset, obs := range byAsset {
		if len(obs) < minObs {
			continue
		}
		sort.SliceStable(obs, func(i, j int) bool { return obs[i].TS < obs[j].TS })
		store.series[asset] = &BookTimeline{obs: obs}
	}
	return store
}

// Timeline devuelve la serie del asset dado, si sobrevivió el filtro mínimo.
func (s *BookStore) Timeline(asset string) (*BookTimeline, bool) {
	t, ok := s.series[asset]
	return t, ok
}

// Assets devuelve los assets con serie utilizable, ordenados.
func (s *BookStore) Assets() []string {
	assets := make([]string, 0, len(s.series))
	for a := range s.series {
		assets = append(assets, a)
	}
	sort.Strings(assets)
	return assets
}

// BookTimeline es la serie ordenada de snapshots de un asset.
type BookTimeline struct {
	obs []domain.BookSnapshot
}

// Len devuelve la cantidad de snapshots.
func (t *BookTimeline) Len() int {
	return len(t.obs)
}

// First devuelve el snapshot más antiguo.
func (t *BookTimeline) First() domain.BookSnapshot {
	return t.obs[0]
}

// Last devuelve el snapshot más reciente.
func (t *BookTimeline) Last() domain.BookSnapshot {
	return t.obs[len(t.obs)-1]
}

// Duration devuelve los segundos cubiertos por la serie.
func (t *BookTimeline) Duration() float64 {
	if len(t.obs) < 2 {
		return 0
	}
	return t.Last().TS - t.First().TS
}

// All devuelve la serie completa en orden temporal. El slice es compartido:
// el caller no debe mutarlo.
func (t *BookTimeline) All() []domain.BookSnapshot {
	return t.obs
}

// Around devuelve los snapshots que rodean un timestamp: before es el último
// con TS estrictamente menor a ts (nunca incluye el efecto del propio fill),
// after es el primero con TS >= ts. Cada lado se valida contra maxGap por
// separado: okBefore/okAfter en false significa que no hay snapshot utilizable
// de ese lado, no que la serie esté vacía.
func (t *BookTimeline) Around(ts, maxGap float64) (before, after domain.BookSnapshot, okBefore, okAfter bool) {
	idx := sort.Search(len(t.obs), func(i int) bool { return t.obs[i].TS >= ts })

	if idx > 0 && ts-t.obs[idx-1].TS <= maxGap {
		before = t.obs[idx-1]
		okBefore = true
	}
	if idx < len(t.obs) && t.obs[idx].TS-ts <= maxGap {
		after = t.obs[idx]
		okAfter = true
	}
	return before, after, okBefore, okAfter
}

// Nearest devuelve el snapshot que minimiza |TS - ts|, siempre que esa
// distancia mínima no supere maxGap. Un snapshot más lejano jamás se
// devuelve aunque exista.
func (t *BookTimeline) Nearest(ts, maxGap float64) (domain.BookSnapshot, bool) {
	if len(t.obs) == 0 {
		return domain.BookSnapshot{}, false
	}
	idx := sort.Search(len(t.obs), func(i int) bool { return t.obs[i].TS >= ts })

	best := -1
	bestDiff := maxGap
	for _, i := range []int{idx - 1, idx} {
		if i < 0 || i >= len(t.obs) {
			continue
		}
		diff := t.obs[i].TS - ts
		if diff < 0 {
			diff = -diff
		}
		if diff <= bestDiff {
			best = i
			bestDiff = diff
		}
	}
	if best < 0 {
		return domain.BookSnapshot{}, false
	}
	return t.obs[best], true
}
