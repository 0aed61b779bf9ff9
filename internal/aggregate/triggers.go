package aggregate

// triggers.go — ¿cuándo deja el wallet de descansar en el book y cruza?
//
// Compara el estado de mercado y de posición entre fills pasivos (edge > 0)
// y agresivos (edge <= 0). El delta por señal dibuja el borde de decisión de
// su manejo de inventario.

import "github.com/alejandrodnm/fillscope/internal/domain"

// triggerAccum acumula una señal por grupo con conteo propio: no todas las
// filas traen todas las señales (momentum/volatility dependen de la serie).
type triggerAccum struct {
	passiveSum    float64
	passiveN      int
	aggressiveSum float64
	aggressiveN   int
}

func (a *triggerAccum) add(aggressive bool, v float64) {
	if aggressive {
		a.aggressiveSum += v
		a.aggressiveN++
		return
	}
	a.passiveSum += v
	a.passiveN++
}

// metric cierra el acumulador. ok=false si algún grupo quedó sin datos: un
// promedio contra un grupo vacío no compara nada.
func (a *triggerAccum) metric(name string) (domain.TriggerMetric, bool) {
	if a.passiveN == 0 || a.aggressiveN == 0 {
		return domain.TriggerMetric{}, false
	}
	passive := a.passiveSum / float64(a.passiveN)
	aggressive := a.aggressiveSum / float64(a.aggressiveN)
	return domain.TriggerMetric{
		Name:       name,
		Passive:    passive,
		Aggressive: aggressive,
		Delta:      aggressive - passive,
	}, true
}

// Triggers compara los fills pasivos contra los agresivos sobre las features
// causales por fill.
func Triggers(features []domain.FillFeature) domain.TriggerStats {
	stats := domain.TriggerStats{Total: len(features)}

	var imbalance, secsRemaining, pctElapsed, unmatched, spread, momentum, volatility triggerAccum
	for _, f := range features {
		if f.Aggressive {
			stats.Aggressive++
		} else {
			stats.Passive++
		}

		imbalance.add(f.Aggressive, f.Imbalance)
		secsRemaining.add(f.Aggressive, f.SecsRemaining)
		pctElapsed.add(f.Aggressive, f.PctElapsed)
		unmatched.add(f.Aggressive, f.UnmatchedShares)
		spread.add(f.Aggressive, f.Spread)
		if f.HasMomentum {
			momentum.add(f.Aggressive, f.Momentum)
		}
		if f.HasVolatility {
			volatility.add(f.Aggressive, f.Volatility)
		}
	}

	ordered := []struct {
		name  string
		accum *triggerAccum
	}{
		{"position imbalance", &imbalance},
		{"seconds remaining", &secsRemaining},
		{"pct window elapsed", &pctElapsed},
		{"unmatched shares", &unmatched},
		{"market spread", &spread},
		{"price momentum", &momentum},
		{"price volatility", &volatility},
	}
	for _, entry := range ordered {
		if m, ok := entry.accum.metric(entry.name); ok {
			stats.Metrics = append(stats.Metrics, m)
		}
	}
	return stats
}
