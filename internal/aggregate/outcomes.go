package aggregate

// outcomes.go — comparación de ventanas ganadoras contra perdedoras: ¿qué
// hace distinto el wallet cuando gana?

import (
	"github.com/alejandrodnm/fillscope/internal/domain"
)

// WinLoss agrega los resultados de ventana con outcome terminal conocido.
// Las ventanas indeterminadas no entran: sin settlement no hay PnL.
func WinLoss(results []domain.WindowResult) domain.WinLossStats {
	stats := domain.WinLossStats{}

	var wins, losses groupAccum
	for _, r := range results {
		if r.Outcome == "" {
			continue
		}
		stats.Windows++
		stats.TotalPnL += r.PnL
		if r.Win {
			stats.Wins++
			wins.add(r)
		} else {
			stats.Losses++
			losses.add(r)
		}
	}

	if stats.Windows > 0 {
		stats.WinRate = float64(stats.Wins) / float64(stats.Windows)
	}
	stats.WinMeans = wins.means()
	stats.LossMeans = losses.means()

	return stats
}

// groupAccum acumula las métricas de un grupo de ventanas.
type groupAccum struct {
	n         int
	nFills    float64
	aggPct    float64
	entryPct  float64
	exitPct   float64
	balance   float64
	combined  float64
	nCombined int
}

func (g *groupAccum) add(r domain.WindowResult) {
	g.n++
	g.nFills += float64(r.NFills)
	g.aggPct += r.AggPct
	g.entryPct += r.EntryPct
	g.exitPct += r.ExitPct
	g.balance += r.Balance
	if r.HasCombine {
		g.combined += r.Combined
		g.nCombined++
	}
}

func (g *groupAccum) means() domain.GroupMeans {
	if g.n == 0 {
		return domain.GroupMeans{}
	}
	m := domain.GroupMeans{
		NFills:   g.nFills / float64(g.n),
		AggPct:   g.aggPct / float64(g.n),
		EntryPct: g.entryPct / float64(g.n),
		ExitPct:  g.exitPct / float64(g.n),
		Balance:  g.balance / float64(g.n),
	}
	if g.nCombined > 0 {
		m.Combined = g.combined / float64(g.nCombined)
	}
	return m
}
