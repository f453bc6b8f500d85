package reward

import "fidelidadeAPI/internal/points"

// Product is pure reference data for the catalog.
type Product struct {
	ID        int64   `json:"id"`
	SKU       string  `json:"sku"`
	Nome      string  `json:"nome"`
	Descricao *string `json:"descricao"`
	URLImagem *string `json:"url_imagem"`
}

// Offer (brinde) allocates stock of a product to a campaign, gated by
// a minimum tier. Stock never goes negative.
type Offer struct {
	ID                   int64       `json:"id"`
	ProdutoID            int64       `json:"produto_id"`
	ProdutoNome          string      `json:"produto_nome,omitempty"`
	CampanhaID           int64       `json:"campanha_id"`
	CampanhaNome         string      `json:"campanha_nome,omitempty"`
	Nivel                points.Tier `json:"nivel"`
	QuantidadeDisponivel int         `json:"quantidade_disponivel"`
}

type CreateProductRequest struct {
	SKU       string  `json:"sku" validate:"required"`
	Nome      string  `json:"nome" validate:"required"`
	Descricao *string `json:"descricao,omitempty"`
	URLImagem *string `json:"url_imagem,omitempty"`
}

type CreateOfferRequest struct {
	ProdutoID            int64  `json:"produto_id" validate:"required"`
	CampanhaID           int64  `json:"campanha_id" validate:"required"`
	Nivel                string `json:"nivel" validate:"required"`
	QuantidadeDisponivel int    `json:"quantidade_disponivel"`
}

type UpdateOfferRequest struct {
	Nivel                *string `json:"nivel,omitempty"`
	QuantidadeDisponivel *int    `json:"quantidade_disponivel,omitempty"`
}
