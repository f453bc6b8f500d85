package visit

import (
	"time"

	"github.com/shopspring/decimal"
)

// Visit is append-only: the purchase amount and timestamp are fixed
// at creation because the points they generated are already in the
// ledger.
type Visit struct {
	ID          int64           `json:"id"`
	ClienteID   int64           `json:"cliente_id"`
	ClienteNome string          `json:"cliente_nome,omitempty"`
	DataVisita  time.Time       `json:"data_visita"`
	ValorCompra decimal.Decimal `json:"valor_compra"`
	Loja        string          `json:"loja"`

	// PontosGerados is the ledger entry created for this visit.
	PontosGerados int64 `json:"pontos_gerados"`
}

type CreateRequest struct {
	ClienteID   int64           `json:"cliente_id" validate:"required"`
	ValorCompra decimal.Decimal `json:"valor_compra"`
	Loja        string          `json:"loja" validate:"required"`
	DataVisita  *string         `json:"data_visita,omitempty"`
}

type UpdateRequest struct {
	Loja *string `json:"loja,omitempty"`
}

type ListParams struct {
	ClienteID int64
	Loja      string
	Page      int
	PerPage   int
}
