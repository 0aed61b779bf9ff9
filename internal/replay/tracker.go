package replay

// tracker.go — replay causal de los fills de una ventana.
//
// Máquina de estados por ventana: empty → accumulating → settled. Cada fill
// registra primero sus features usando la posición PRE-fill y recién después
// se aplica a los totales — el contexto registrado de un fill jamás incluye
// su propia contribución. Los totales solo crecen; la posición se destruye en
// el límite de la ventana.

import (
	"fmt"
	"sort"

	"github.com/alejandrodnm/fillscope/internal/domain"
	"github.com/alejandrodnm/fillscope/internal/timeline"
)

// Lookback en segundos de momentum y volatilidad por fill.
const featureLookback = 60

// Config parametriza el replay.
type Config struct {
	// WindowDuration en segundos (las ventanas BTC 15m duran 900).
	WindowDuration float64
	// PriceMaxGap es la tolerancia del lookup causal de precio por fill.
	PriceMaxGap float64
	// SettlementThreshold: un outcome gana cuando su precio final lo alcanza.
	SettlementThreshold float64
}

// DefaultConfig devuelve los parámetros del análisis original.
func DefaultConfig() Config {
	return Config{
		WindowDuration:      900,
		PriceMaxGap:         5,
		SettlementThreshold: 0.95,
	}
}

// Tracker reproduce ventanas una por una. Solo lectura después de crearse.
type Tracker struct {
	cfg Config
}

// New crea un Tracker, normalizando parámetros inválidos a los defaults.
func New(cfg Config) *Tracker {
	def := DefaultConfig()
	if cfg.WindowDuration <= 0 {
		cfg.WindowDuration = def.WindowDuration
	}
	if cfg.PriceMaxGap <= 0 {
		cfg.PriceMaxGap = def.PriceMaxGap
	}
	if cfg.SettlementThreshold <= 0 || cfg.SettlementThreshold > 1 {
		cfg.SettlementThreshold = def.SettlementThreshold
	}
	return &Tracker{cfg: cfg}
}

// WindowReplay es la salida de reproducir una ventana completa.
type WindowReplay struct {
	Result domain.WindowResult

	// Features por fill con match de precio; vacío si la ventana no settled.
	Features []domain.FillFeature

	// NoPriceMatch cuenta fills aplicados a la posición sin observación de
	// precio dentro de la tolerancia — excluidos de Features, nunca
	// defaulteados.
	NoPriceMatch int
}

// Replay reproduce los fills de una ventana en orden temporal estricto contra
// su serie de precios. Devuelve error solo si el slug no codifica el inicio
// de la ventana (registro malformado — el caller lo cuenta y sigue).
func (t *Tracker) Replay(slug string, fills []domain.Fill, prices *timeline.TickSeries) (WindowReplay, error) {
	windowStart, ok := domain.WindowStart(slug)
	if !ok {
		return WindowReplay{}, fmt.Errorf("replay.Replay: slug %q does not encode window start", slug)
	}
	start := float64(windowStart)
	end := start + t.cfg.WindowDuration

	outcome, settled := prices.Outcome(t.cfg.SettlementThreshold)

	ordered := make([]domain.Fill, len(fills))
	copy(ordered, fills)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].TS < ordered[j].TS })

	var (
		pos          domain.Position
		replay       WindowReplay
		prevTS       float64
		prevSide     string
		alternations int
		intervalSum  float64
		intervalN    int
		subDollarAt  = -1.0
	)

	for _, f := range ordered {
		if settled {
			if feat, ok := t.fillFeature(f, &pos, prices, outcome, start, end); ok {
				replay.Features = append(replay.Features, feat)
			} else {
				replay.NoPriceMatch++
			}
		}

		// Features registradas: recién ahora el fill entra a la posición.
		pos.Apply(f)

		if prevSide != "" && f.Outcome != prevSide {
			alternations++
		}
		prevSide = f.Outcome

		if prevTS > 0 && f.TS > prevTS {
			intervalSum += f.TS - prevTS
			intervalN++
		}
		prevTS = f.TS

		if subDollarAt < 0 {
			if combined, ok := pos.Combined(); ok && combined < 1.0 {
				subDollarAt = f.TS - start
			}
		}
	}

	replay.Result = t.windowResult(slug, windowStart, ordered, &pos, outcome, settled, start)
	replay.Result.Alternations = alternations
	replay.Result.SecsToSubDollar = subDollarAt
	if intervalN > 0 {
		replay.Result.MeanInterval = intervalSum / float64(intervalN)
	}

	if settled {
		var agg int
		for _, feat := range replay.Features {
			if feat.Aggressive {
				agg++
			}
		}
		replay.Result.Aggressive = agg
		if len(replay.Features) > 0 {
			replay.Result.AggPct = float64(agg) / float64(len(replay.Features))
		}
	}

	return replay, nil
}

// fillFeature arma la fila de features de un fill usando la posición pre-fill
// y el precio de mercado causal más cercano.
func (t *Tracker) fillFeature(
	f domain.Fill,
	pos *domain.Position,
	prices *timeline.TickSeries,
	outcome string,
	start, end float64,
) (domain.FillFeature, bool) {
	point, ok := prices.At(f.TS, t.cfg.PriceMaxGap)
	if !ok {
		return domain.FillFeature{}, false
	}

	marketPrice := point.Yes
	if f.Outcome != domain.OutcomeUp {
		marketPrice = point.No
	}
	edge := domain.Round4(marketPrice - f.Price)

	feat := domain.FillFeature{
		Slug:            f.Slug,
		Outcome:         outcome,
		Side:            f.Outcome,
		Size:            f.Size,
		FillPrice:       f.Price,
		MarketPrice:     domain.Round4(marketPrice),
		Edge:            edge,
		Aggressive:      edge <= 0,
		Spread:          domain.Round4(point.Yes + point.No - 1.0),
		PriceSkew:       domain.Round4(point.Yes - point.No),
		Balance:         domain.Round4(pos.Balance()),
		Imbalance:       domain.Round4(pos.Imbalance()),
		FillsSoFar:      pos.Fills,
		UnmatchedShares: pos.Unmatched(),
		SecsRemaining:   end - f.TS,
		PctElapsed:      domain.Round4((f.TS - start) / t.cfg.WindowDuration),
	}

	if m, ok := prices.Momentum(f.TS, featureLookback, t.cfg.PriceMaxGap); ok {
		feat.Momentum = domain.Round4(m)
		feat.HasMomentum = true
	}
	if v, ok := prices.Volatility(f.TS, featureLookback); ok {
		feat.Volatility = v
		feat.HasVolatility = true
	}

	return feat, true
}

// windowResult cierra la ventana: settlement, payout y PnL.
func (t *Tracker) windowResult(
	slug string,
	windowStart int64,
	fills []domain.Fill,
	pos *domain.Position,
	outcome string,
	settled bool,
	start float64,
) domain.WindowResult {
	result := domain.WindowResult{
		Slug:        slug,
		WindowStart: windowStart,
		NFills:      pos.Fills,
		FirstSide:   pos.FirstSide,
		UpShares:    pos.UpShares,
		DownShares:  pos.DownShares,
		UpAvg:       pos.UpAvg(),
		DownAvg:     pos.DownAvg(),
		Balance:     pos.Balance(),
		TotalCost:   pos.TotalCost(),
	}

	if combined, ok := pos.Combined(); ok {
		result.Combined = combined
		result.HasCombine = true
	}

	if len(fills) > 0 {
		result.FirstFillSecs = fills[0].TS - start
		result.EntryPct = (fills[0].TS - start) / t.cfg.WindowDuration
		result.ExitPct = (fills[len(fills)-1].TS - start) / t.cfg.WindowDuration
	}

	// Sin outcome terminal la ventana nunca llega a settled: queda fuera de
	// todo análisis que requiera PnL, pero no es un error.
	if settled {
		pos.Settle()
		result.Outcome = outcome
		result.Payout = pos.Payout(outcome)
		result.PnL = result.Payout - result.TotalCost
		result.Win = result.PnL > 0
	}

	return result
}
