package polymarket

// activity.go — fetch paginado del historial de trades de un wallet desde la
// data API (/activity). Implementa ports.FillSource contra la API en vivo;
// para sesiones ya archivadas usar el adapter fillfile.

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/alejandrodnm/fillscope/internal/domain"
)

const (
	activityPageSize = 500
	// Corte de seguridad: ~250k trades. Un wallet real de market making en
	// ventanas 15m genera decenas de miles por día, no cientos de miles.
	activityMaxPages = 500
)

// activityRecord es el registro crudo de la data API.
type activityRecord struct {
	Timestamp int64   `json:"timestamp"`
	Type      string  `json:"type"`
	Slug      string  `json:"slug"`
	Outcome   string  `json:"outcome"`
	Side      string  `json:"side"`
	Price     float64 `json:"price"`
	Size      float64 `json:"size"`
	USDCSize  float64 `json:"usdcSize"`
}

// ActivitySource descarga los fills de un wallet filtrando por prefijo de
// slug (solo ventanas de la serie analizada).
type ActivitySource struct {
	client     *Client
	wallet     string
	slugPrefix string
}

// NewActivitySource crea la fuente para el wallet dado. slugPrefix filtra los
// trades a las ventanas de interés (ej. "btc-updown-15m-"); vacío no filtra.
func NewActivitySource(client *Client, wallet, slugPrefix string) *ActivitySource {
	return &ActivitySource{client: client, wallet: wallet, slugPrefix: slugPrefix}
}

// Fills descarga el historial completo paginando hasta agotar los registros.
func (s *ActivitySource) Fills(ctx context.Context) ([]domain.Fill, error) {
	var fills []domain.Fill

	for page := 0; page < activityMaxPages; page++ {
		records, err := s.fetchPage(ctx, page*activityPageSize)
		if err != nil {
			return nil, fmt.Errorf("polymarket.Fills: page %d: %w", page, err)
		}
		if len(records) == 0 {
			break
		}

		for _, r := range records {
			if r.Type != "TRADE" {
				continue
			}
			if s.slugPrefix != "" && !strings.HasPrefix(r.Slug, s.slugPrefix) {
				continue
			}
			fills = append(fills, domain.Fill{
				TS:       float64(r.Timestamp),
				Slug:     r.Slug,
				Outcome:  r.Outcome,
				Side:     r.Side,
				Price:    r.Price,
				Size:     r.Size,
				Notional: r.USDCSize,
			})
		}

		if len(records) < activityPageSize {
			break
		}
	}

	slog.Info("activity fetch complete", "wallet", s.wallet, "fills", len(fills))
	return fills, nil
}

// fetchPage trae una página del endpoint /activity.
func (s *ActivitySource) fetchPage(ctx context.Context, offset int) ([]activityRecord, error) {
	q := url.Values{}
	q.Set("user", s.wallet)
	q.Set("type", "TRADE")
	q.Set("limit", fmt.Sprintf("%d", activityPageSize))
	q.Set("offset", fmt.Sprintf("%d", offset))

	var records []activityRecord
	u := fmt.Sprintf("%s/activity?%s", s.client.dataBase, q.Encode())
	if err := s.client.get(ctx, u, &records); err != nil {
		return nil, err
	}
	return records, nil
}
