package domain

// Lados de un fill tal como los reporta la data API.
const (
	SideBuy  = "BUY"
	SideSell = "SELL"
)

// Outcomes de un mercado binario up/down.
const (
	OutcomeUp   = "Up"
	OutcomeDown = "Down"
)

// Fill es una ejecución individual del wallet objetivo.
type Fill struct {
	TS       float64 // unix seconds
	Slug     string  // slug de la ventana (codifica el epoch de inicio)
	Outcome  string  // "Up" | "Down"
	Side     string  // BUY | SELL
	Price    float64
	Size     float64
	Notional float64 // USDC pagados/recibidos
}

// Asset devuelve la clave de asset del fill: "up" o "dn".
func (f Fill) Asset() string {
	if f.Outcome == OutcomeUp {
		return "up"
	}
	return "dn"
}

// PriceTick devuelve el precio del fill como tick entero de book.
func (f Fill) PriceTick() Tick {
	return TickFromPrice(f.Price)
}

// Valid devuelve true si el fill tiene precio en [0,1], size positivo y
// timestamp definido. Los fills inválidos se descartan y se cuentan.
func (f Fill) Valid() bool {
	return f.TS > 0 && f.Price >= 0 && f.Price <= 1 && f.Size > 0
}

// Classification es el resultado maker/taker de un fill.
type Classification string

const (
	// Maker: la ejecución fue contra una orden pasiva propia que descansaba en el book.
	Maker Classification = "maker"
	// Taker: el wallet cruzó el spread contra liquidez ajena.
	Taker Classification = "taker"
	// Unresolved: la evidencia no alcanza para decidir — se excluye de los
	// ratios maker/taker pero se conserva en el resto de agregados.
	Unresolved Classification = "unresolved"
)

// BookContext son las métricas del book alrededor de un fill.
// Todas derivan del snapshot "before" salvo los campos Post* y OFI, que
// comparan contra el snapshot "after".
type BookContext struct {
	BestBid    float64
	BestAsk    float64
	Mid        float64
	Microprice float64
	Spread     float64
	BidDepth   float64
	AskDepth   float64
	Imbalance  float64

	// Profundidad en el nivel exacto del precio del fill.
	PreBidAtFill  float64
	PostBidAtFill float64
	PreAskAtFill  float64
	PostAskAtFill float64

	OFI float64
}

// ClassifiedFill es un Fill con su clasificación y features adjuntos.
// Se construye una vez durante la clasificación y es inmutable después.
type ClassifiedFill struct {
	Fill

	Type Classification

	// Vanished es la cantidad que desapareció del book en el nivel del fill
	// (en el lado que decidió la clasificación). Ratio = vanished / size.
	Vanished      float64
	VanishedRatio float64
	RestingBefore float64

	Book BookContext

	// Timing dentro de la ventana.
	Elapsed    float64 // segundos desde window start
	PctElapsed float64 // fracción de la ventana transcurrida
}

// FillFeature es la fila de features por fill en modo price-log, donde no hay
// book y la agresión se infiere comparando el precio de ejecución contra el
// precio de mercado más cercano en el tiempo.
type FillFeature struct {
	Slug    string
	Outcome string // outcome final de la ventana ("Up"/"Down")
	Side    string // "Up" | "Down" — lado del fill
	Size    float64

	FillPrice   float64
	MarketPrice float64
	Edge        float64 // marketPrice - fillPrice; <= 0 = fill agresivo
	Aggressive  bool

	Spread    float64 // yes + no - 1.0
	PriceSkew float64 // yes - no

	// Momentum y Volatility del precio Yes sobre el lookback previo al fill,
	// causales. Has* queda en false cuando la serie no cubre el lookback.
	Momentum      float64
	HasMomentum   bool
	Volatility    float64
	HasVolatility bool

	// Estado de posición ANTES de aplicar este fill — invariante causal.
	Balance         float64 // upShares / totalShares
	Imbalance       float64 // |balance - 0.5|
	FillsSoFar      int
	UnmatchedShares float64

	SecsRemaining float64
	PctElapsed    float64
}
