package aggregate

// ladder.go — reconstrucción de ladders de órdenes pasivas a partir de los
// fills maker de cada (ventana, asset). Solo vemos los fills, no las órdenes:
// la estructura inferida es un piso de la real (niveles sin fill no aparecen).

import (
	"sort"

	"github.com/alejandrodnm/fillscope/internal/domain"
)

// ladderKey identifica el grupo de un ladder.
type ladderKey struct {
	slug  string
	asset string
}

// Ladders agrupa los fills maker por (ventana, asset) e infiere la estructura
// de niveles de cada grupo. Los grupos con menos de 2 niveles de precio
// distintos se descartan: un solo nivel no es evidencia de ladder.
// El resultado viene ordenado por slug y asset.
func Ladders(fills []domain.ClassifiedFill) []domain.Ladder {
	groups := make(map[ladderKey][]domain.ClassifiedFill)
	for _, f := range fills {
		if f.Type != domain.Maker {
			continue
		}
		k := ladderKey{slug: f.Slug, asset: f.Asset()}
		groups[k] = append(groups[k], f)
	}

	keys := make([]ladderKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].slug != keys[j].slug {
			return keys[i].slug < keys[j].slug
		}
		return keys[i].asset < keys[j].asset
	})

	ladders := make([]domain.Ladder, 0, len(keys))
	for _, k := range keys {
		if l, ok := buildLadder(k, groups[k]); ok {
			ladders = append(ladders, l)
		}
	}
	return ladders
}

// buildLadder arma el ladder de un grupo. ok=false con menos de 2 niveles.
func buildLadder(k ladderKey, fills []domain.ClassifiedFill) (domain.Ladder, bool) {
	sizeSum := make(map[domain.Tick]float64)
	count := make(map[domain.Tick]int)
	for _, f := range fills {
		t := f.PriceTick()
		sizeSum[t] += f.Size
		count[t]++
	}
	if len(count) < 2 {
		return domain.Ladder{}, false
	}

	ticks := make([]domain.Tick, 0, len(count))
	for t := range count {
		ticks = append(ticks, t)
	}
	sort.Slice(ticks, func(i, j int) bool { return ticks[i] < ticks[j] })

	l := domain.Ladder{
		Slug:       k.slug,
		Asset:      k.asset,
		Levels:     make([]float64, len(ticks)),
		Spacing:    make([]float64, len(ticks)-1),
		MeanSizeAt: make(map[domain.Tick]float64, len(ticks)),
		FillsAt:    make(map[domain.Tick]int, len(ticks)),
	}

	var spacingSum float64
	for i, t := range ticks {
		l.Levels[i] = t.Price()
		l.MeanSizeAt[t] = sizeSum[t] / float64(count[t])
		l.FillsAt[t] = count[t]
		if i > 0 {
			sp := domain.Round4(l.Levels[i] - l.Levels[i-1])
			l.Spacing[i-1] = sp
			spacingSum += sp
		}
	}
	l.MeanSpacing = domain.Round4(spacingSum / float64(len(l.Spacing)))

	return l, true
}
