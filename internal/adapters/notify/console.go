package notify

// console.go — reporte de la corrida por stdout. Tablas para lo enumerable,
// prosa corta para los veredictos.

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/alejandrodnm/fillscope/internal/domain"
	"github.com/olekukonko/tablewriter"
)

// Filas máximas en las tablas de detalle (ladders, ventanas).
const maxDetailRows = 15

// Console implementa ports.Reporter.
type Console struct {
	out io.Writer
}

// NewConsole crea un reporter que escribe a stdout.
func NewConsole() *Console {
	return &Console{out: os.Stdout}
}

// NewConsoleWriter crea un reporter para tests.
func NewConsoleWriter(w io.Writer) *Console {
	return &Console{out: w}
}

// Publish imprime el reporte completo de la corrida.
func (c *Console) Publish(_ context.Context, report domain.Report) error {
	fmt.Fprintf(c.out, "\n=== RUN %s — mode %s — %s ===\n",
		report.RunID, report.Mode, report.GeneratedAt.Format("2006-01-02 15:04:05"))

	c.printCounters(report.Counters)

	switch report.Mode {
	case domain.ModeEdge:
		c.printWinLoss(report.WinLoss)
		c.printTriggers(report.Triggers)
		c.printSelection(report.Selection)
		c.printWindows(report.Results)
	default:
		c.printFlow(report.Flow)
		c.printLadders(report.Ladders)
	}

	fmt.Fprintln(c.out)
	return nil
}

// printCounters imprime los contadores de auditoría: qué se descartó y por qué.
func (c *Console) printCounters(ct domain.RunCounters) {
	fmt.Fprintf(c.out, "  fills: %d total, %d invalid", ct.FillsTotal, ct.FillsInvalid)
	if ct.FillsNoBook > 0 {
		fmt.Fprintf(c.out, ", %d without book snapshot", ct.FillsNoBook)
	}
	if ct.FillsNoPrice > 0 {
		fmt.Fprintf(c.out, ", %d without price match", ct.FillsNoPrice)
	}
	fmt.Fprintln(c.out)

	skipped := ct.WindowsMalformed + ct.WindowsNoSeries + ct.WindowsShort
	if skipped > 0 || ct.WindowsUnsettled > 0 {
		fmt.Fprintf(c.out, "  windows skipped: %d malformed, %d no series, %d short coverage; %d unsettled\n",
			ct.WindowsMalformed, ct.WindowsNoSeries, ct.WindowsShort, ct.WindowsUnsettled)
	}
}

// printFlow imprime la clasificación maker/taker y las señales de flujo.
func (c *Console) printFlow(flow domain.FlowStats) {
	fmt.Fprintf(c.out, "\n--- MAKER/TAKER CLASSIFICATION ---\n")
	fmt.Fprintf(c.out, "  %d fills: %d maker (%.1f%%), %d taker (%.1f%%), %d unresolved\n",
		flow.Total, flow.Makers, flow.MakerPct*100, flow.Takers, flow.TakerPct*100,
		flow.Unresolved)
	fmt.Fprintf(c.out, "  exact size matches (single resting order): %d (%.1f%%)\n",
		flow.ExactMatches, flow.ExactMatchPct*100)
	fmt.Fprintf(c.out, "  mean OFI around fills: buy %.2f, sell %.2f\n",
		flow.MeanBuyOFI, flow.MeanSellOFI)

	if len(flow.ByElapsed) > 0 {
		fmt.Fprintf(c.out, "\n  split by window progress:\n")
		c.printBuckets(flow.ByElapsed, "progress")
	}
	if len(flow.ByImbalance) > 0 {
		fmt.Fprintf(c.out, "\n  split by book imbalance:\n")
		c.printBuckets(flow.ByImbalance, "imbalance")
	}

	if len(flow.CommonMakerSizes) > 0 {
		fmt.Fprintf(c.out, "\n  most common maker fill sizes (fingerprint):\n")
		table := tablewriter.NewWriter(c.out)
		table.Header("Size", "Fills")
		for _, s := range flow.CommonMakerSizes {
			table.Append(fmt.Sprintf("%d", s.Size), fmt.Sprintf("%d", s.Count))
		}
		table.Render()
	}
}

// printBuckets imprime una tabla de split maker/taker por rango.
func (c *Console) printBuckets(buckets []domain.BucketCount, label string) {
	table := tablewriter.NewWriter(c.out)
	table.Header(label, "Makers", "Takers", "Maker%")

	for _, b := range buckets {
		total := b.Makers + b.Takers
		pct := "-"
		if total > 0 {
			pct = fmt.Sprintf("%.1f%%", float64(b.Makers)/float64(total)*100)
		}
		table.Append(
			fmt.Sprintf("[%.2f, %.2f)", b.Lo, b.Hi),
			fmt.Sprintf("%d", b.Makers),
			fmt.Sprintf("%d", b.Takers),
			pct,
		)
	}
	table.Render()
}

// printLadders imprime los ladders inferidos, los de más fills primero.
func (c *Console) printLadders(ladders []domain.Ladder) {
	if len(ladders) == 0 {
		fmt.Fprintf(c.out, "\n  no ladders inferred (need >= 2 maker price levels per window/asset)\n")
		return
	}

	sorted := make([]domain.Ladder, len(ladders))
	copy(sorted, ladders)
	sort.Slice(sorted, func(i, j int) bool {
		return totalFills(sorted[i]) > totalFills(sorted[j])
	})

	fmt.Fprintf(c.out, "\n--- INFERRED LADDERS (%d total, top %d) ---\n",
		len(ladders), min(maxDetailRows, len(ladders)))

	table := tablewriter.NewWriter(c.out)
	table.Header("Window", "Asset", "Levels", "Spacing", "Fills")

	for i, l := range sorted {
		if i >= maxDetailRows {
			break
		}
		table.Append(
			shortSlug(l.Slug),
			l.Asset,
			formatLevels(l.Levels),
			fmt.Sprintf("%.4f", l.MeanSpacing),
			fmt.Sprintf("%d", totalFills(l)),
		)
	}
	table.Render()
}

// printWinLoss imprime la comparación de ventanas ganadoras y perdedoras.
func (c *Console) printWinLoss(wl domain.WinLossStats) {
	fmt.Fprintf(c.out, "\n--- WIN/LOSS (%d settled windows) ---\n", wl.Windows)
	if wl.Windows == 0 {
		fmt.Fprintf(c.out, "  no settled windows — nothing to compare\n")
		return
	}

	fmt.Fprintf(c.out, "  %d wins / %d losses (%.1f%% win rate), total PnL $%.2f\n",
		wl.Wins, wl.Losses, wl.WinRate*100, wl.TotalPnL)

	table := tablewriter.NewWriter(c.out)
	table.Header("Metric", "Wins", "Losses")
	table.Append("fills/window", fmt.Sprintf("%.1f", wl.WinMeans.NFills), fmt.Sprintf("%.1f", wl.LossMeans.NFills))
	table.Append("aggressive %", fmt.Sprintf("%.1f%%", wl.WinMeans.AggPct*100), fmt.Sprintf("%.1f%%", wl.LossMeans.AggPct*100))
	table.Append("entry pct", fmt.Sprintf("%.2f", wl.WinMeans.EntryPct), fmt.Sprintf("%.2f", wl.LossMeans.EntryPct))
	table.Append("exit pct", fmt.Sprintf("%.2f", wl.WinMeans.ExitPct), fmt.Sprintf("%.2f", wl.LossMeans.ExitPct))
	table.Append("balance", fmt.Sprintf("%.3f", wl.WinMeans.Balance), fmt.Sprintf("%.3f", wl.LossMeans.Balance))
	table.Append("combined avg", fmt.Sprintf("%.4f", wl.WinMeans.Combined), fmt.Sprintf("%.4f", wl.LossMeans.Combined))
	table.Render()
}

// printTriggers imprime el borde de decisión pasivo→agresivo: estado de
// mercado y de posición promedio de cada grupo.
func (c *Console) printTriggers(tr domain.TriggerStats) {
	if tr.Total == 0 {
		return
	}

	fmt.Fprintf(c.out, "\n--- AGGRESSION TRIGGERS ---\n")
	fmt.Fprintf(c.out, "  %d passive (%.1f%%) vs %d aggressive (%.1f%%)\n",
		tr.Passive, float64(tr.Passive)/float64(tr.Total)*100,
		tr.Aggressive, float64(tr.Aggressive)/float64(tr.Total)*100)

	if len(tr.Metrics) == 0 {
		return
	}
	table := tablewriter.NewWriter(c.out)
	table.Header("Feature", "Passive", "Aggressive", "Delta")
	for _, m := range tr.Metrics {
		table.Append(
			m.Name,
			fmt.Sprintf("%.3f", m.Passive),
			fmt.Sprintf("%.3f", m.Aggressive),
			fmt.Sprintf("%+.3f", m.Delta),
		)
	}
	table.Render()
}

// printSelection imprime el sesgo de selección de ventanas.
func (c *Console) printSelection(sel domain.SelectionStats) {
	fmt.Fprintf(c.out, "\n--- WINDOW SELECTION ---\n")
	fmt.Fprintf(c.out, "  %d windows observed: %d traded, %d skipped (%.1f%% skip rate)\n",
		sel.TotalWindows, sel.Traded, sel.Skipped, sel.SkipRate*100)
	fmt.Fprintf(c.out, "  traded outcomes:  %d up / %d down / %d unknown\n",
		sel.TradedOutcomes.Up, sel.TradedOutcomes.Down, sel.TradedOutcomes.Unknown)
	fmt.Fprintf(c.out, "  skipped outcomes: %d up / %d down / %d unknown\n",
		sel.SkippedOutcomes.Up, sel.SkippedOutcomes.Down, sel.SkippedOutcomes.Unknown)
	fmt.Fprintf(c.out, "  pre-window vol:  traded %.5f vs skipped %.5f\n",
		sel.TradedOpenVol, sel.SkippedOpenVol)
	fmt.Fprintf(c.out, "  pre-window skew: traded %+.4f vs skipped %+.4f\n",
		sel.TradedOpenSkew, sel.SkippedOpenSkew)
}

// printWindows imprime las ventanas settled, mejores y peores por PnL.
func (c *Console) printWindows(results []domain.WindowResult) {
	settled := make([]domain.WindowResult, 0, len(results))
	for _, r := range results {
		if r.Outcome != "" {
			settled = append(settled, r)
		}
	}
	if len(settled) == 0 {
		return
	}
	sort.Slice(settled, func(i, j int) bool { return settled[i].PnL > settled[j].PnL })

	fmt.Fprintf(c.out, "\n--- WINDOWS BY PNL (top %d of %d) ---\n",
		min(maxDetailRows, len(settled)), len(settled))

	table := tablewriter.NewWriter(c.out)
	table.Header("Window", "Outcome", "Fills", "Agg%", "Combined", "Sub$1", "PnL")

	for i, r := range settled {
		if i >= maxDetailRows {
			break
		}
		combined := "-"
		if r.HasCombine {
			combined = fmt.Sprintf("%.4f", r.Combined)
		}
		subDollar := "never"
		if r.SecsToSubDollar >= 0 {
			subDollar = fmt.Sprintf("%.0fs", r.SecsToSubDollar)
		}
		table.Append(
			shortSlug(r.Slug),
			r.Outcome,
			fmt.Sprintf("%d", r.NFills),
			fmt.Sprintf("%.0f%%", r.AggPct*100),
			combined,
			subDollar,
			fmt.Sprintf("$%.2f", r.PnL),
		)
	}
	table.Render()
}

// --- helpers ---

func totalFills(l domain.Ladder) int {
	total := 0
	for _, n := range l.FillsAt {
		total += n
	}
	return total
}

// shortSlug recorta el prefijo común de la serie dejando el epoch legible.
// Slugs sin estructura de serie (último "-" demasiado temprano) se devuelven
// enteros antes que recortar con índice negativo.
func shortSlug(slug string) string {
	if idx := strings.LastIndex(slug, "-"); idx >= 4 && len(slug) > 24 {
		return "…" + slug[idx-4:]
	}
	return slug
}

// formatLevels imprime hasta 6 niveles del ladder.
func formatLevels(levels []float64) string {
	var sb strings.Builder
	for i, l := range levels {
		if i >= 6 {
			fmt.Fprintf(&sb, " +%d", len(levels)-6)
			break
		}
		if i > 0 {
			sb.WriteString(" ")
		}
		fmt.Fprintf(&sb, "%.2f", l)
	}
	return sb.String()
}
