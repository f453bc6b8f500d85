package campaign

import (
	"time"

	"github.com/shopspring/decimal"
)

type Campaign struct {
	ID               int64           `json:"id"`
	Nome             string          `json:"nome"`
	Loja             string          `json:"loja"`
	DataInicio       time.Time       `json:"data_inicio"`
	DataFim          time.Time       `json:"data_fim"`
	Ativa            bool            `json:"ativa"`
	ThresholdVisitas int             `json:"threshold_visitas"`
	FatorPontuacao   decimal.Decimal `json:"fator_pontuacao"`
}

// ActiveAt reports whether the campaign applies at instant t. The
// window is half-open: [data_inicio, data_fim).
func (c *Campaign) ActiveAt(t time.Time) bool {
	return c.Ativa && !t.Before(c.DataInicio) && t.Before(c.DataFim)
}

// Pick resolves overlapping campaigns deterministically: highest
// fator_pontuacao wins, ties break on lowest id.
func Pick(candidates []*Campaign) *Campaign {
	var best *Campaign
	for _, c := range candidates {
		if best == nil ||
			c.FatorPontuacao.GreaterThan(best.FatorPontuacao) ||
			(c.FatorPontuacao.Equal(best.FatorPontuacao) && c.ID < best.ID) {
			best = c
		}
	}
	return best
}

// BasePoints truncates a purchase amount to whole points. Currency
// sub-units are discarded; a zero amount earns zero points.
func BasePoints(valor decimal.Decimal) int64 {
	if valor.Sign() <= 0 {
		return 0
	}
	return valor.IntPart()
}

// AccruedPoints computes the points a visit earns. The multiplier
// applies only when the customer's visit count at the campaign's
// store (counting the visit being recorded) has reached the
// campaign's threshold. Rounding policy: floor the amount first,
// then floor again after the multiplication.
func AccruedPoints(valor decimal.Decimal, c *Campaign, storeVisitCount int) int64 {
	base := BasePoints(valor)
	if c == nil || storeVisitCount < c.ThresholdVisitas {
		return base
	}
	return decimal.NewFromInt(base).Mul(c.FatorPontuacao).IntPart()
}
