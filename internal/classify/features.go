package classify

// features.go — construcción del ClassifiedFill: clasificación + métricas del
// book alrededor del fill. El record se crea una vez y no se muta después.

import (
	"github.com/alejandrodnm/fillscope/internal/domain"
)

// Annotate clasifica el fill y adjunta el contexto completo del book.
// before/after en nil indican que no hay snapshot dentro de la tolerancia de
// ese lado; las features que dependen del lado faltante quedan en cero y la
// clasificación puede resultar Unresolved según el método.
func (c *Classifier) Annotate(
	f domain.Fill,
	before, after *domain.BookSnapshot,
	windowStart, windowDur float64,
) domain.ClassifiedFill {
	res := c.Classify(f, before, after)

	cf := domain.ClassifiedFill{
		Fill:          f,
		Type:          res.Type,
		Vanished:      res.Vanished,
		RestingBefore: res.RestingBefore,
		Elapsed:       f.TS - windowStart,
	}
	if windowDur > 0 {
		cf.PctElapsed = cf.Elapsed / windowDur
	}

	tick := f.PriceTick()

	if before != nil {
		cf.Book.BestBid = before.BestBid()
		cf.Book.BestAsk = before.BestAsk()
		cf.Book.Mid = before.Mid()
		cf.Book.Microprice = before.Microprice()
		cf.Book.Spread = before.Spread()
		cf.Book.BidDepth = before.BidDepth(c.cfg.DepthLevels)
		cf.Book.AskDepth = before.AskDepth(c.cfg.DepthLevels)
		cf.Book.Imbalance = before.Imbalance(c.cfg.DepthLevels)
		cf.Book.PreBidAtFill = before.BidAt(tick)
		cf.Book.PreAskAtFill = before.AskAt(tick)
	}
	if after != nil {
		cf.Book.PostBidAtFill = after.BidAt(tick)
		cf.Book.PostAskAtFill = after.AskAt(tick)
	}
	if before != nil && after != nil {
		cf.Book.OFI = domain.OFI(*before, *after, c.cfg.DepthLevels)
	}

	// Vanished como feature: cuánto desapareció del lado que el fill consume
	// (BUY barre asks, SELL barre bids). Con MethodVanished la clasificación
	// ya lo trae del lado de la evidencia; con MethodBBO se calcula acá.
	if res.Vanished == 0 && before != nil && after != nil {
		if f.Side == domain.SideBuy {
			cf.Vanished = cf.Book.PreAskAtFill - cf.Book.PostAskAtFill
		} else {
			cf.Vanished = cf.Book.PreBidAtFill - cf.Book.PostBidAtFill
		}
	}

	size := f.Size
	if size < 0.01 {
		size = 0.01
	}
	cf.VanishedRatio = cf.Vanished / size

	return cf
}
