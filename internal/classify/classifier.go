package classify

// classifier.go — clasificación maker/taker de fills contra el estado del book.
//
// Dos métodos de evidencia detrás del mismo tipo:
//
//   - MethodVanished: diffea el book en el nivel del fill entre el snapshot
//     anterior y el posterior. El lado que muestra cantidad desaparecida
//     >= tolerancia × size decide la clasificación. Requiere ambos snapshots;
//     es el método para fingerprinting (matchea órdenes individuales).
//   - MethodBBO: compara el precio del fill contra el BBO del snapshot
//     anterior. Solo necesita el "before"; es el método para estadística
//     agregada (no depende de matchear sizes exactos).
//
// Un fill sin snapshot utilizable queda Unresolved y sale del denominador de
// los ratios maker/taker — nunca se lo defaultea a una clase.

import (
	"github.com/alejandrodnm/fillscope/internal/domain"
)

// Method selecciona la regla de evidencia.
type Method string

const (
	MethodVanished Method = "vanished"
	MethodBBO      Method = "bbo"
)

const (
	defaultTolerance   = 0.8
	defaultDepthLevels = 5
)

// Config parametriza el clasificador.
type Config struct {
	Method Method
	// Tolerance es la fracción del fill size que debe desaparecer del book
	// para considerar match (absorbe fills parciales o simultáneos).
	Tolerance float64
	// DepthLevels es el top-N de niveles para depth/imbalance/OFI.
	DepthLevels int
}

// DefaultConfig devuelve la configuración empírica del análisis original.
func DefaultConfig() Config {
	return Config{
		Method:      MethodBBO,
		Tolerance:   defaultTolerance,
		DepthLevels: defaultDepthLevels,
	}
}

// Classifier aplica un método de clasificación a fills individuales.
// Es de solo lectura después de crearse — compartible entre workers.
type Classifier struct {
	cfg Config
}

// New crea un Classifier, normalizando parámetros fuera de rango.
func New(cfg Config) *Classifier {
	if cfg.Tolerance <= 0 || cfg.Tolerance > 1 {
		cfg.Tolerance = defaultTolerance
	}
	if cfg.DepthLevels <= 0 {
		cfg.DepthLevels = defaultDepthLevels
	}
	if cfg.Method == "" {
		cfg.Method = MethodBBO
	}
	return &Classifier{cfg: cfg}
}

// Method devuelve el método activo.
func (c *Classifier) Method() Method {
	return c.cfg.Method
}

// Result es el veredicto de clasificación de un fill.
type Result struct {
	Type domain.Classification

	// Evidencia del método vanished: cuánto desapareció del nivel y cuánto
	// descansaba antes. Cero para MethodBBO.
	Vanished      float64
	RestingBefore float64
}

// Classify decide maker/taker/unresolved para un fill dado el estado
// disponible. before/after en nil significan "sin snapshot dentro de la
// tolerancia" de ese lado.
func (c *Classifier) Classify(f domain.Fill, before, after *domain.BookSnapshot) Result {
	switch c.cfg.Method {
	case MethodVanished:
		return c.classifyVanished(f, before, after)
	default:
		return c.classifyBBO(f, before)
	}
}

// classifyVanished aplica la regla de cantidad desaparecida en el nivel del fill.
//
// Un BUY o consumió asks (taker) o tenía un bid descansando (maker); un SELL
// es el espejo. Se chequean ambos lados y decide el que muestre cantidad
// desaparecida >= tolerancia × size — distinguir el lado correcto separa un
// match real del churn casual de profundidad en el mismo instante.
func (c *Classifier) classifyVanished(f domain.Fill, before, after *domain.BookSnapshot) Result {
	if before == nil || after == nil {
		return Result{Type: domain.Unresolved}
	}

	tick := f.PriceTick()
	askBefore := before.AskAt(tick)
	askVanished := askBefore - after.AskAt(tick)
	bidBefore := before.BidAt(tick)
	bidVanished := bidBefore - after.BidAt(tick)

	threshold := f.Size * c.cfg.Tolerance

	if f.Side == domain.SideBuy {
		if askVanished >= threshold {
			return Result{Type: domain.Taker, Vanished: askVanished, RestingBefore: askBefore}
		}
		if bidVanished >= threshold {
			return Result{Type: domain.Maker, Vanished: bidVanished, RestingBefore: bidBefore}
		}
	} else {
		if bidVanished >= threshold {
			return Result{Type: domain.Taker, Vanished: bidVanished, RestingBefore: bidBefore}
		}
		if askVanished >= threshold {
			return Result{Type: domain.Maker, Vanished: askVanished, RestingBefore: askBefore}
		}
	}

	// Ningún lado cruza el umbral: evidencia ambigua, no se fuerza una clase.
	return Result{Type: domain.Unresolved}
}

// classifyBBO compara el precio del fill contra el BBO anterior:
// BUY en o sobre el best ask cruzó el spread (taker); debajo, una orden
// pasiva fue llenada (maker). SELL es el espejo contra el best bid.
func (c *Classifier) classifyBBO(f domain.Fill, before *domain.BookSnapshot) Result {
	if before == nil {
		return Result{Type: domain.Unresolved}
	}

	if f.Side == domain.SideBuy {
		if f.Price >= before.BestAsk() {
			return Result{Type: domain.Taker}
		}
		return Result{Type: domain.Maker}
	}
	if f.Price <= before.BestBid() {
		return Result{Type: domain.Taker}
	}
	return Result{Type: domain.Maker}
}
