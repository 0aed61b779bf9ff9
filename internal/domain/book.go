package domain

import (
	"math"
	"sort"
)

// Tick es un precio de nivel del book expresado en centésimas (centavos).
// Las claves del book son ticks enteros en lugar de float64 para que la
// igualdad de niveles entre snapshots capturados en momentos distintos sea
// exacta — comparar floats como claves es la fuente clásica de bugs aquí.
type Tick int

// TickFromPrice convierte un precio en [0,1] al tick entero más cercano.
func TickFromPrice(p float64) Tick {
	return Tick(math.Round(p * 100))
}

// Price devuelve el precio del tick como float64.
func (t Tick) Price() float64 {
	return float64(t) / 100
}

// Round4 redondea a 4 decimales — la precisión fija de los precios derivados.
func Round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// BookSnapshot es un snapshot completo de profundidad L2 para un asset
// ("up" o "dn") en un instante dado. Solo los eventos de tipo "book"
// (snapshot completo, no deltas) producen un BookSnapshot.
type BookSnapshot struct {
	TS    float64 // unix seconds, con fracción
	Asset string  // "up" | "dn"
	Bids  map[Tick]float64
	Asks  map[Tick]float64
}

// BestBid devuelve el mejor bid (mayor precio con size positivo).
// Si el lado está vacío devuelve 0.0 — el límite inferior del mercado binario.
func (b BookSnapshot) BestBid() float64 {
	best := Tick(-1)
	for t, sz := range b.Bids {
		if sz > 0 && t > best {
			best = t
		}
	}
	if best < 0 {
		return 0.0
	}
	return best.Price()
}

// BestAsk devuelve el mejor ask (menor precio con size positivo).
// Si el lado está vacío devuelve 1.0 — el límite superior del mercado binario.
func (b BookSnapshot) BestAsk() float64 {
	best := Tick(-1)
	for t, sz := range b.Asks {
		if sz > 0 && (best < 0 || t < best) {
			best = t
		}
	}
	if best < 0 {
		return 1.0
	}
	return best.Price()
}

// Mid devuelve el punto medio entre best bid y best ask.
func (b BookSnapshot) Mid() float64 {
	return Round4((b.BestBid() + b.BestAsk()) / 2)
}

// Microprice devuelve el midpoint ponderado por la profundidad en el BBO.
// Si no hay profundidad relevante en ninguno de los dos niveles, cae al mid.
func (b BookSnapshot) Microprice() float64 {
	bb := b.BestBid()
	ba := b.BestAsk()
	bidSz := b.Bids[TickFromPrice(bb)]
	askSz := b.Asks[TickFromPrice(ba)]
	total := bidSz + askSz
	if total == 0 {
		return Round4((bb + ba) / 2)
	}
	return Round4((bb*askSz + ba*bidSz) / total)
}

// Spread devuelve best ask menos best bid.
func (b BookSnapshot) Spread() float64 {
	return Round4(b.BestAsk() - b.BestBid())
}

// BidDepth suma el size de los top `levels` niveles bid (de mayor a menor precio).
func (b BookSnapshot) BidDepth(levels int) float64 {
	return topDepth(b.Bids, levels, true)
}

// AskDepth suma el size de los top `levels` niveles ask (de menor a mayor precio).
func (b BookSnapshot) AskDepth(levels int) float64 {
	return topDepth(b.Asks, levels, false)
}

// Imbalance devuelve (bidDepth - askDepth) / (bidDepth + askDepth) sobre los
// top `levels` niveles. Devuelve 0 cuando ambos lados están vacíos — un book
// vacío no tiene dirección, no es un error.
func (b BookSnapshot) Imbalance(levels int) float64 {
	bd := b.BidDepth(levels)
	ad := b.AskDepth(levels)
	total := bd + ad
	if total == 0 {
		return 0
	}
	return (bd - ad) / total
}

// BidAt devuelve el size del nivel bid en el tick dado (0 si no existe).
func (b BookSnapshot) BidAt(t Tick) float64 {
	return b.Bids[t]
}

// AskAt devuelve el size del nivel ask en el tick dado (0 si no existe).
func (b BookSnapshot) AskAt(t Tick) float64 {
	return b.Asks[t]
}

// OFI calcula el order flow imbalance entre dos snapshots:
// [bidDepth(after) - bidDepth(before)] - [askDepth(after) - askDepth(before)].
// Positivo = se añadió liquidez del lado bid (o se retiró del ask).
func OFI(before, after BookSnapshot, levels int) float64 {
	return (after.BidDepth(levels) - before.BidDepth(levels)) -
		(after.AskDepth(levels) - before.AskDepth(levels))
}

// topDepth suma los sizes de los primeros `levels` niveles del lado dado.
// descending=true ranquea de mayor a menor precio (bids).
func topDepth(side map[Tick]float64, levels int, descending bool) float64 {
	if len(side) == 0 {
		return 0
	}
	ticks := make([]Tick, 0, len(side))
	for t := range side {
		ticks = append(ticks, t)
	}
	if descending {
		sort.Slice(ticks, func(i, j int) bool { return ticks[i] > ticks[j] })
	} else {
		sort.Slice(ticks, func(i, j int) bool { return ticks[i] < ticks[j] })
	}
	if levels > 0 && len(ticks) > levels {
		ticks = ticks[:levels]
	}
	var total float64
	for _, t := range ticks {
		total += side[t]
	}
	return total
}
