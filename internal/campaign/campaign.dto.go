package campaign

import "github.com/shopspring/decimal"

type CreateRequest struct {
	Nome             string          `json:"nome" validate:"required"`
	Loja             string          `json:"loja" validate:"required"`
	DataInicio       string          `json:"data_inicio" validate:"required"`
	DataFim          string          `json:"data_fim" validate:"required"`
	Ativa            *bool           `json:"ativa,omitempty"`
	ThresholdVisitas int             `json:"threshold_visitas"`
	FatorPontuacao   decimal.Decimal `json:"fator_pontuacao"`
}

type UpdateRequest struct {
	Nome             *string          `json:"nome,omitempty"`
	Loja             *string          `json:"loja,omitempty"`
	DataInicio       *string          `json:"data_inicio,omitempty"`
	DataFim          *string          `json:"data_fim,omitempty"`
	Ativa            *bool            `json:"ativa,omitempty"`
	ThresholdVisitas *int             `json:"threshold_visitas,omitempty"`
	FatorPontuacao   *decimal.Decimal `json:"fator_pontuacao,omitempty"`
}
