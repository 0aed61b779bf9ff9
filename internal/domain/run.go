package domain

import "time"

// Modos de análisis: con snapshots L2 o con price log.
const (
	ModeL2   = "l2"
	ModeEdge = "edge"
)

// RunCounters son los contadores de auditoría de una corrida: todo lo que se
// descartó o quedó sin resolver, contado — nunca silenciado.
type RunCounters struct {
	FillsTotal   int
	FillsInvalid int // fills malformados descartados en la carga

	// Modo L2.
	FillsNoBook int // sin ningún snapshot dentro de la tolerancia

	// Modo edge.
	FillsNoPrice     int // sin precio causal dentro de la tolerancia
	WindowsMalformed int // slug sin epoch de inicio
	WindowsNoSeries  int // ventanas con fills pero sin serie de precios utilizable
	WindowsShort     int // serie de precios que no cubre la ventana
	WindowsUnsettled int // sin outcome terminal — fuera de los análisis con PnL
}

// Report es el resultado completo de una corrida de análisis. Según el modo
// se llenan unas secciones u otras; las vacías quedan en cero.
type Report struct {
	RunID       string
	Mode        string // ModeL2 | ModeEdge
	GeneratedAt time.Time
	Counters    RunCounters

	// Modo L2: clasificación maker/taker y estructura de órdenes.
	Flow    FlowStats
	Ladders []Ladder

	// Modo edge: replay por ventana y comparaciones.
	Results   []WindowResult
	Features  []FillFeature
	WinLoss   WinLossStats
	Triggers  TriggerStats
	Selection SelectionStats
}
