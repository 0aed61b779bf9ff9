package aggregate

// flow.go — agregados de flujo sobre los fills clasificados: ratios
// maker/taker, splits por timing e imbalance, matches exactos y los fill
// sizes que funcionan como fingerprint del market maker.

import (
	"math"
	"sort"

	"github.com/alejandrodnm/fillscope/internal/domain"
)

// Rangos de los buckets. Elapsed sobre la fracción de ventana transcurrida;
// imbalance sobre el imbalance de profundidad del book en [-1, 1].
var (
	elapsedEdges   = []float64{0, 0.2, 0.4, 0.6, 0.8, 1.0}
	imbalanceEdges = []float64{-1.0, -0.6, -0.2, 0.2, 0.6, 1.0}
)

// Cantidad de sizes maker frecuentes a reportar.
const topMakerSizes = 10

// Flow agrega los fills clasificados en FlowStats. Los unresolved cuentan en
// el total pero salen del denominador de los porcentajes maker/taker.
func Flow(fills []domain.ClassifiedFill) domain.FlowStats {
	stats := domain.FlowStats{
		Total:       len(fills),
		ByElapsed:   newBuckets(elapsedEdges),
		ByImbalance: newBuckets(imbalanceEdges),
	}

	sizeCount := make(map[int]int)
	var (
		buyOFISum  float64
		buyOFIN    int
		sellOFISum float64
		sellOFIN   int
	)

	for _, f := range fills {
		switch f.Type {
		case domain.Maker:
			stats.Makers++
			sizeCount[int(math.Round(f.Size))]++
		case domain.Taker:
			stats.Takers++
		default:
			stats.Unresolved++
			continue
		}

		bucketAdd(stats.ByElapsed, f.PctElapsed, f.Type)
		bucketAdd(stats.ByImbalance, f.Book.Imbalance, f.Type)

		if f.VanishedRatio > 0.95 && f.VanishedRatio < 1.05 {
			stats.ExactMatches++
		}

		if f.Side == domain.SideBuy {
			buyOFISum += f.Book.OFI
			buyOFIN++
		} else {
			sellOFISum += f.Book.OFI
			sellOFIN++
		}
	}

	resolved := stats.Makers + stats.Takers
	if resolved > 0 {
		stats.MakerPct = float64(stats.Makers) / float64(resolved)
		stats.TakerPct = float64(stats.Takers) / float64(resolved)
		stats.ExactMatchPct = float64(stats.ExactMatches) / float64(resolved)
	}
	if buyOFIN > 0 {
		stats.MeanBuyOFI = buyOFISum / float64(buyOFIN)
	}
	if sellOFIN > 0 {
		stats.MeanSellOFI = sellOFISum / float64(sellOFIN)
	}

	stats.CommonMakerSizes = topSizes(sizeCount, topMakerSizes)

	return stats
}

// newBuckets arma los buckets [edges[i], edges[i+1]) a partir de los bordes.
func newBuckets(edges []float64) []domain.BucketCount {
	buckets := make([]domain.BucketCount, len(edges)-1)
	for i := range buckets {
		buckets[i] = domain.BucketCount{Lo: edges[i], Hi: edges[i+1]}
	}
	return buckets
}

// bucketAdd incrementa el bucket que contiene v. Valores en el borde superior
// del último bucket caen dentro; fuera de rango se clampean al extremo.
func bucketAdd(buckets []domain.BucketCount, v float64, t domain.Classification) {
	idx := len(buckets) - 1
	for i := range buckets {
		if v < buckets[i].Hi {
			idx = i
			break
		}
	}
	if v < buckets[0].Lo {
		idx = 0
	}
	if t == domain.Maker {
		buckets[idx].Makers++
	} else {
		buckets[idx].Takers++
	}
}

// topSizes devuelve los n sizes más frecuentes, descendente por conteo y
// ascendente por size en empates.
func topSizes(counts map[int]int, n int) []domain.SizeCount {
	sizes := make([]domain.SizeCount, 0, len(counts))
	for size, count := range counts {
		sizes = append(sizes, domain.SizeCount{Size: size, Count: count})
	}
	sort.Slice(sizes, func(i, j int) bool {
		if sizes[i].Count != sizes[j].Count {
			return sizes[i].Count > sizes[j].Count
		}
		return sizes[i].Size < sizes[j].Size
	})
	if len(sizes) > n {
		sizes = sizes[:n]
	}
	return sizes
}
