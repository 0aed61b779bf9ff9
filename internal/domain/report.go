package domain

// Ladder es la estructura de niveles inferida de los fills maker de un
// (ventana, asset). Describe la estrategia de órdenes pasivas *inferida* —
// nunca observamos las órdenes reales del wallet, solo sus fills.
type Ladder struct {
	Slug  string
	Asset string

	// Levels son los precios distintos con fills maker, ordenados ascendente.
	// Siempre >= 2 — con un solo nivel no hay evidencia de ladder.
	Levels []float64
	// Spacing son las diferencias entre niveles adyacentes (len(Levels)-1).
	Spacing     []float64
	MeanSpacing float64

	// MeanSizeAt es el fill size promedio por nivel; FillsAt el conteo.
	MeanSizeAt map[Tick]float64
	FillsAt    map[Tick]int
}

// BucketCount es el conteo maker/taker dentro de un rango de una métrica.
type BucketCount struct {
	Lo     float64
	Hi     float64
	Makers int
	Takers int
}

// SizeCount es la frecuencia de un fill size entero — el "fingerprint" del
// market maker son sus sizes más repetidos.
type SizeCount struct {
	Size  int
	Count int
}

// FlowStats agrega la clasificación maker/taker y las señales de flujo.
type FlowStats struct {
	Total      int
	Makers     int
	Takers     int
	Unresolved int

	// Porcentajes sobre fills RESUELTOS — los unresolved salen del denominador.
	MakerPct float64
	TakerPct float64

	// Split maker/taker por bucket de tiempo transcurrido y de imbalance.
	ByElapsed   []BucketCount
	ByImbalance []BucketCount

	// Vanished/fill ratio en (0.95, 1.05) = única orden en el nivel.
	ExactMatches  int
	ExactMatchPct float64

	// Fill sizes maker más frecuentes, descendente por conteo.
	CommonMakerSizes []SizeCount

	MeanBuyOFI  float64
	MeanSellOFI float64
}

// OutcomeDist es la distribución de outcomes de un conjunto de ventanas.
type OutcomeDist struct {
	Up      int
	Down    int
	Unknown int
}

// SelectionStats compara las ventanas operadas contra las salteadas.
// Las features de apertura usan solo observaciones anteriores al inicio de
// la ventana — la selección es una política, no hindsight.
type SelectionStats struct {
	TotalWindows int
	Traded       int
	Skipped      int
	SkipRate     float64

	TradedOutcomes  OutcomeDist
	SkippedOutcomes OutcomeDist

	TradedOpenVol   float64
	SkippedOpenVol  float64
	TradedOpenSkew  float64
	SkippedOpenSkew float64
}

// TriggerMetric compara el promedio de una señal entre fills pasivos y
// agresivos. Delta = agresivo − pasivo.
type TriggerMetric struct {
	Name       string
	Passive    float64
	Aggressive float64
	Delta      float64
}

// TriggerStats describe el borde de decisión pasivo→agresivo del wallet: con
// qué estado de mercado y de posición cruza el spread en vez de descansar.
type TriggerStats struct {
	Total      int
	Passive    int // edge > 0
	Aggressive int // edge <= 0

	// Una entrada por señal con datos en ambos grupos.
	Metrics []TriggerMetric
}

// GroupMeans son promedios de métricas de ventana para un grupo (wins/losses).
type GroupMeans struct {
	NFills   float64
	AggPct   float64
	EntryPct float64
	ExitPct  float64
	Balance  float64
	Combined float64
}

// WinLossStats compara ventanas ganadoras contra perdedoras.
// Solo incluye ventanas con outcome terminal conocido.
type WinLossStats struct {
	Windows  int
	Wins     int
	Losses   int
	WinRate  float64
	TotalPnL float64

	WinMeans  GroupMeans
	LossMeans GroupMeans
}
