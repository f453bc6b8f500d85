package redemption

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is the redemption state machine. Pendente is the only
// non-terminal state.
type Status string

const (
	StatusPending   Status = "Pendente"
	StatusDelivered Status = "Entregue"
	StatusCancelled Status = "Cancelado"
)

func ParseStatus(s string) (Status, bool) {
	switch s {
	case string(StatusPending):
		return StatusPending, true
	case string(StatusDelivered):
		return StatusDelivered, true
	case string(StatusCancelled):
		return StatusCancelled, true
	}
	return "", false
}

// CanTransition reports whether moving from -> to is a legal step.
// Both terminal states are only reachable from Pendente.
func CanTransition(from, to Status) bool {
	if from != StatusPending {
		return false
	}
	return to == StatusDelivered || to == StatusCancelled
}

// NewVoucherCode generates a candidate voucher code. Uniqueness is
// enforced by the resgates unique index; callers retry on collision.
func NewVoucherCode() string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))
	return "VCH-" + raw[:12]
}

type Redemption struct {
	ID            int64      `json:"id"`
	ClienteID     int64      `json:"cliente_id"`
	ClienteNome   string     `json:"cliente_nome,omitempty"`
	BrindeID      int64      `json:"brinde_id"`
	ProdutoNome   string     `json:"produto_nome,omitempty"`
	DataResgate   time.Time  `json:"data_resgate"`
	Status        Status     `json:"status"`
	VoucherCodigo string     `json:"voucher_codigo"`
	DataEntrega   *time.Time `json:"data_entrega"`
}

type CreateRequest struct {
	ClienteID int64 `json:"cliente_id" validate:"required"`
	BrindeID  int64 `json:"brinde_id" validate:"required"`
}

type EligibilityRequest struct {
	ClienteID int64 `json:"cliente_id" validate:"required"`
	BrindeID  int64 `json:"brinde_id" validate:"required"`
}

type EligibilityResponse struct {
	Elegivel bool   `json:"elegivel"`
	Motivo   string `json:"motivo,omitempty"`
}

type ListParams struct {
	ClienteID int64
	Status    string
	Page      int
	PerPage   int
}
