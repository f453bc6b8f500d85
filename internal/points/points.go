package points

import "time"

// Tier is the loyalty level derived from a customer's cumulative
// points. It is never stored; call TierFor on every read so the label
// cannot go stale relative to the ledger.
type Tier string

const (
	TierBronze Tier = "Bronze"
	TierPrata  Tier = "Prata"
	TierOuro   Tier = "Ouro"
)

const (
	PrataThreshold = 500
	OuroThreshold  = 1000
)

// TierFor maps cumulative points to a tier. Boundary values belong to
// the higher tier.
func TierFor(total int64) Tier {
	switch {
	case total >= OuroThreshold:
		return TierOuro
	case total >= PrataThreshold:
		return TierPrata
	default:
		return TierBronze
	}
}

// rank orders tiers for eligibility comparisons.
func rank(t Tier) int {
	switch t {
	case TierOuro:
		return 2
	case TierPrata:
		return 1
	default:
		return 0
	}
}

// Meets reports whether tier t satisfies a required minimum tier.
func Meets(t, required Tier) bool {
	return rank(t) >= rank(required)
}

func ParseTier(s string) (Tier, bool) {
	switch s {
	case string(TierBronze):
		return TierBronze, true
	case string(TierPrata):
		return TierPrata, true
	case string(TierOuro):
		return TierOuro, true
	}
	return "", false
}

// Entry is one append-only ledger row. A customer's total is always
// SUM(pontos_acumulados) over their entries.
type Entry struct {
	ID              int64     `json:"id"`
	ClienteID       int64     `json:"cliente_id"`
	VisitaID        *int64    `json:"visita_id,omitempty"`
	Pontos          int64     `json:"pontos_acumulados"`
	DataAtualizacao time.Time `json:"data_atualizacao"`
}
