package domain

import (
	"strconv"
	"strings"
)

// WindowStart extrae el epoch de inicio de una ventana desde su slug
// (formato "btc-updown-15m-<epoch>"). Devuelve false si el slug no lo codifica.
func WindowStart(slug string) (int64, bool) {
	idx := strings.LastIndex(slug, "-")
	if idx < 0 || idx == len(slug)-1 {
		return 0, false
	}
	epoch, err := strconv.ParseInt(slug[idx+1:], 10, 64)
	if err != nil || epoch <= 0 {
		return 0, false
	}
	return epoch, true
}

// PricePoint es una observación del price log: los precios yes/no de una
// ventana en un instante dado.
type PricePoint struct {
	TS  float64
	Yes float64
	No  float64
}

// WindowState es el estado del ciclo de vida de la posición en una ventana.
type WindowState int

const (
	// StateEmpty: sin fills aplicados todavía.
	StateEmpty WindowState = iota
	// StateAccumulating: al menos un fill aplicado, sin settlement.
	StateAccumulating
	// StateSettled: outcome terminal conocido, PnL calculable.
	StateSettled
)

// Position es el inventario acumulado dentro de una ventana.
// Los totales solo crecen (no se modelan cancels ni unwinds) y la posición
// muere en el límite de la ventana — nunca se comparte entre ventanas.
type Position struct {
	UpShares   float64
	UpCost     float64
	DownShares float64
	DownCost   float64

	Fills     int
	FirstSide string // primer lado comprado ("Up"/"Down")

	state WindowState
}

// State devuelve el estado actual del ciclo de vida.
func (p *Position) State() WindowState {
	return p.state
}

// Apply acumula un fill en la posición y pasa a StateAccumulating.
// El caller debe registrar features ANTES de llamar Apply: el contexto
// registrado de un fill nunca incluye su propia contribución.
func (p *Position) Apply(f Fill) {
	if f.Outcome == OutcomeUp {
		p.UpShares += f.Size
		p.UpCost += f.Notional
	} else {
		p.DownShares += f.Size
		p.DownCost += f.Notional
	}
	if p.FirstSide == "" {
		p.FirstSide = f.Outcome
	}
	p.Fills++
	p.state = StateAccumulating
}

// Settle marca la posición como settled. No modifica los totales.
func (p *Position) Settle() {
	p.state = StateSettled
}

// TotalShares devuelve las shares totales en ambos lados.
func (p *Position) TotalShares() float64 {
	return p.UpShares + p.DownShares
}

// TotalCost devuelve el costo total en USDC de ambos lados.
func (p *Position) TotalCost() float64 {
	return p.UpCost + p.DownCost
}

// Balance devuelve la fracción UP de las shares totales (0.5 si no hay posición).
func (p *Position) Balance() float64 {
	total := p.TotalShares()
	if total == 0 {
		return 0.5
	}
	return p.UpShares / total
}

// Imbalance devuelve la distancia absoluta del balance a 0.5.
func (p *Position) Imbalance() float64 {
	bal := p.Balance()
	if bal < 0.5 {
		return 0.5 - bal
	}
	return bal - 0.5
}

// Unmatched devuelve las shares sin contraparte en el otro lado.
func (p *Position) Unmatched() float64 {
	if p.UpShares > p.DownShares {
		return p.UpShares - p.DownShares
	}
	return p.DownShares - p.UpShares
}

// UpAvg devuelve el costo promedio por share del lado UP (0 sin posición).
func (p *Position) UpAvg() float64 {
	if p.UpShares == 0 {
		return 0
	}
	return p.UpCost / p.UpShares
}

// DownAvg devuelve el costo promedio por share del lado DOWN (0 sin posición).
func (p *Position) DownAvg() float64 {
	if p.DownShares == 0 {
		return 0
	}
	return p.DownCost / p.DownShares
}

// Combined devuelve la suma de promedios de ambos lados. Solo está definido
// cuando hay posición en AMBOS lados: combined < 1.0 implica ganancia
// garantizada al settlement (las shares ganadoras pagan exactamente $1).
func (p *Position) Combined() (float64, bool) {
	if p.UpShares == 0 || p.DownShares == 0 {
		return 0, false
	}
	return p.UpAvg() + p.DownAvg(), true
}

// Payout devuelve las shares del lado ganador para el outcome dado.
func (p *Position) Payout(outcome string) float64 {
	if outcome == OutcomeUp {
		return p.UpShares
	}
	return p.DownShares
}

// WindowResult es el agregado por ventana que emite el tracker.
type WindowResult struct {
	Slug        string
	WindowStart int64

	// Outcome terminal ("Up"/"Down"); vacío = indeterminado, sin PnL.
	Outcome string

	NFills     int
	Aggressive int     // fills con edge <= 0
	AggPct     float64 // aggressive / nfills

	FirstSide     string
	FirstFillSecs float64 // segundos desde window start al primer fill
	EntryPct      float64 // pct elapsed del primer fill
	ExitPct       float64 // pct elapsed del último fill
	Alternations  int     // cambios de lado entre fills consecutivos
	MeanInterval  float64 // intervalo medio entre fills (solo > 0)

	UpShares   float64
	DownShares float64
	UpAvg      float64
	DownAvg    float64
	Balance    float64

	// Combined average final; ok=false si falta un lado.
	Combined   float64
	HasCombine bool
	// Segundos hasta lograr combined < 1.0 por primera vez; <0 = nunca.
	SecsToSubDollar float64

	TotalCost float64
	Payout    float64
	PnL       float64
	Win       bool
}
