package aggregate

// selection.go — sesgo de selección: ¿las ventanas donde el wallet operó se
// distinguen de las que dejó pasar? Las features de apertura se calculan solo
// con observaciones anteriores al inicio de la ventana — lo único que una
// política de selección pudo haber visto al decidir.

import (
	"github.com/alejandrodnm/fillscope/internal/domain"
	"github.com/alejandrodnm/fillscope/internal/timeline"
)

// Lookback en segundos para las features de apertura de la ventana.
const openingLookback = 300

// Selection compara las ventanas operadas contra las salteadas. El universo
// son todas las ventanas con serie de precios utilizable; traded marca las
// que recibieron al menos un fill.
func Selection(ticks *timeline.TickStore, traded map[string]bool, threshold float64) domain.SelectionStats {
	stats := domain.SelectionStats{}

	var (
		tradedVolSum, tradedSkewSum   float64
		tradedOpenN                   int
		skippedVolSum, skippedSkewSum float64
		skippedOpenN                  int
	)

	for _, slug := range ticks.Slugs() {
		series, ok := ticks.Series(slug)
		if !ok {
			continue
		}
		stats.TotalWindows++

		outcome, settled := series.Outcome(threshold)
		isTraded := traded[slug]

		dist := &stats.SkippedOutcomes
		if isTraded {
			stats.Traded++
			dist = &stats.TradedOutcomes
		} else {
			stats.Skipped++
		}
		switch {
		case !settled:
			dist.Unknown++
		case outcome == domain.OutcomeUp:
			dist.Up++
		default:
			dist.Down++
		}

		windowStart, ok := domain.WindowStart(slug)
		if !ok {
			continue
		}
		vol, skew, ok := series.OpeningStats(float64(windowStart), openingLookback)
		if !ok {
			continue
		}
		if isTraded {
			tradedVolSum += vol
			tradedSkewSum += skew
			tradedOpenN++
		} else {
			skippedVolSum += vol
			skippedSkewSum += skew
			skippedOpenN++
		}
	}

	if stats.TotalWindows > 0 {
		stats.SkipRate = float64(stats.Skipped) / float64(stats.TotalWindows)
	}
	if tradedOpenN > 0 {
		stats.TradedOpenVol = tradedVolSum / float64(tradedOpenN)
		stats.TradedOpenSkew = tradedSkewSum / float64(tradedOpenN)
	}
	if skippedOpenN > 0 {
		stats.SkippedOpenVol = skippedVolSum / float64(skippedOpenN)
		stats.SkippedOpenSkew = skippedSkewSum / float64(skippedOpenN)
	}

	return stats
}
