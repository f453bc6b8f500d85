package services

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"fidelidadeAPI/internal/apperr"
	"fidelidadeAPI/internal/points"
	"fidelidadeAPI/internal/reward"
)

type RewardService struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewRewardService(db *pgxpool.Pool, logger *zap.Logger) *RewardService {
	return &RewardService{db: db, logger: logger}
}

// Products

func (s *RewardService) ListProducts(ctx context.Context, busca string) ([]*reward.Product, error) {
	builder := sq.Select("id", "sku", "nome", "descricao", "url_imagem").
		From("produtos").
		OrderBy("nome").
		PlaceholderFormat(sq.Dollar)

	if busca != "" {
		like := "%" + busca + "%"
		builder = builder.Where(sq.Or{sq.ILike{"nome": like}, sq.ILike{"sku": like}})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []*reward.Product{}
	for rows.Next() {
		var p reward.Product
		if err := rows.Scan(&p.ID, &p.SKU, &p.Nome, &p.Descricao, &p.URLImagem); err != nil {
			return nil, err
		}
		products = append(products, &p)
	}
	return products, rows.Err()
}

func (s *RewardService) CreateProduct(ctx context.Context, req *reward.CreateProductRequest) (*reward.Product, error) {
	if req.SKU == "" || req.Nome == "" {
		return nil, apperr.New(apperr.Validation, "SKU e nome são obrigatórios")
	}

	var p reward.Product
	err := s.db.QueryRow(ctx,
		`INSERT INTO produtos (sku, nome, descricao, url_imagem)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, sku, nome, descricao, url_imagem`,
		req.SKU, req.Nome, req.Descricao, req.URLImagem,
	).Scan(&p.ID, &p.SKU, &p.Nome, &p.Descricao, &p.URLImagem)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.New(apperr.Conflict, "SKU já cadastrado")
		}
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.logger.Info("product created", zap.Int64("id", p.ID), zap.String("sku", p.SKU))
	return &p, nil
}

// Offers (brindes)

const offerSelect = `
	SELECT b.id, b.produto_id, p.nome, b.campanha_id, c.nome, b.nivel, b.quantidade_disponivel
	FROM brindes b
	JOIN produtos p ON p.id = b.produto_id
	JOIN campanhas c ON c.id = b.campanha_id`

func scanOffer(row pgx.Row) (*reward.Offer, error) {
	var o reward.Offer
	var nivel string
	err := row.Scan(&o.ID, &o.ProdutoID, &o.ProdutoNome, &o.CampanhaID, &o.CampanhaNome, &nivel, &o.QuantidadeDisponivel)
	if err != nil {
		return nil, err
	}
	tier, ok := points.ParseTier(nivel)
	if !ok {
		return nil, fmt.Errorf("unknown reward tier %q", nivel)
	}
	o.Nivel = tier
	return &o, nil
}

func (s *RewardService) ListOffers(ctx context.Context, campanhaID int64) ([]*reward.Offer, error) {
	query := offerSelect + ` ORDER BY b.id`
	args := []interface{}{}
	if campanhaID != 0 {
		query = offerSelect + ` WHERE b.campanha_id = $1 ORDER BY b.id`
		args = append(args, campanhaID)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list offers: %w", err)
	}
	defer rows.Close()

	offers := []*reward.Offer{}
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, err
		}
		offers = append(offers, o)
	}
	return offers, rows.Err()
}

func (s *RewardService) CreateOffer(ctx context.Context, req *reward.CreateOfferRequest) (*reward.Offer, error) {
	if req.ProdutoID == 0 || req.CampanhaID == 0 {
		return nil, apperr.New(apperr.Validation, "Produto e campanha são obrigatórios")
	}
	tier, ok := points.ParseTier(req.Nivel)
	if !ok {
		return nil, apperr.Validationf("Nível inválido: %s", req.Nivel)
	}
	if req.QuantidadeDisponivel < 0 {
		return nil, apperr.New(apperr.Validation, "Quantidade disponível não pode ser negativa")
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM produtos WHERE id = $1)`, req.ProdutoID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to check product: %w", err)
	}
	if !exists {
		return nil, apperr.New(apperr.NotFound, "Produto não encontrado")
	}
	if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM campanhas WHERE id = $1)`, req.CampanhaID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to check campaign: %w", err)
	}
	if !exists {
		return nil, apperr.New(apperr.NotFound, "Campanha não encontrada")
	}

	var offerID int64
	err = tx.QueryRow(ctx,
		`INSERT INTO brindes (produto_id, campanha_id, nivel, quantidade_disponivel)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		req.ProdutoID, req.CampanhaID, string(tier), req.QuantidadeDisponivel,
	).Scan(&offerID)
	if err != nil {
		return nil, fmt.Errorf("failed to create offer: %w", err)
	}

	o, err := scanOffer(tx.QueryRow(ctx, offerSelect+` WHERE b.id = $1`, offerID))
	if err != nil {
		return nil, fmt.Errorf("failed to load offer: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Info("reward offer created", zap.Int64("id", o.ID), zap.Int64("campanha_id", o.CampanhaID))
	return o, nil
}

func (s *RewardService) UpdateOffer(ctx context.Context, id int64, req *reward.UpdateOfferRequest) (*reward.Offer, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	o, err := scanOffer(tx.QueryRow(ctx, offerSelect+` WHERE b.id = $1 FOR UPDATE OF b`, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperr.New(apperr.NotFound, "Brinde não encontrado")
		}
		return nil, fmt.Errorf("failed to load offer: %w", err)
	}

	if req.Nivel != nil {
		tier, ok := points.ParseTier(*req.Nivel)
		if !ok {
			return nil, apperr.Validationf("Nível inválido: %s", *req.Nivel)
		}
		o.Nivel = tier
	}
	if req.QuantidadeDisponivel != nil {
		if *req.QuantidadeDisponivel < 0 {
			return nil, apperr.New(apperr.Validation, "Quantidade disponível não pode ser negativa")
		}
		o.QuantidadeDisponivel = *req.QuantidadeDisponivel
	}

	_, err = tx.Exec(ctx,
		`UPDATE brindes SET nivel = $1, quantidade_disponivel = $2 WHERE id = $3`,
		string(o.Nivel), o.QuantidadeDisponivel, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update offer: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return o, nil
}

func (s *RewardService) DeleteOffer(ctx context.Context, id int64) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var hasRedemptions bool
	err = tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM resgates WHERE brinde_id = $1)`, id).Scan(&hasRedemptions)
	if err != nil {
		return fmt.Errorf("failed to check redemptions: %w", err)
	}
	if hasRedemptions {
		return apperr.New(apperr.Conflict, "Brinde possui resgates e não pode ser removido")
	}

	tag, err := tx.Exec(ctx, `DELETE FROM brindes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete offer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.New(apperr.NotFound, "Brinde não encontrado")
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Info("reward offer deleted", zap.Int64("id", id))
	return nil
}
