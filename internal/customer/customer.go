package customer

import (
	"time"

	"fidelidadeAPI/internal/points"
)

type Customer struct {
	ID           int64     `json:"id"`
	CPF          string    `json:"cpf"`
	Nome         string    `json:"nome"`
	Telefone     string    `json:"telefone"`
	Email        *string   `json:"email"`
	SemEmail     bool      `json:"sem_email"`
	DataCadastro time.Time `json:"data_cadastro"`

	// Derived on read, never stored.
	TotalVisitas int         `json:"total_visitas"`
	PontosTotais int64       `json:"pontos_totais"`
	NivelAtual   points.Tier `json:"nivel_atual"`
}

type CreateRequest struct {
	CPF      string  `json:"cpf" validate:"required"`
	Nome     string  `json:"nome" validate:"required"`
	Telefone string  `json:"telefone" validate:"required"`
	Email    *string `json:"email,omitempty"`
	SemEmail bool    `json:"sem_email"`
}

type UpdateRequest struct {
	Nome     *string `json:"nome,omitempty"`
	Telefone *string `json:"telefone,omitempty"`
	Email    *string `json:"email,omitempty"`
	SemEmail *bool   `json:"sem_email,omitempty"`
}

type ListParams struct {
	Busca   string
	Page    int
	PerPage int
}
