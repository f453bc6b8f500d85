package services

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"fidelidadeAPI/internal/apperr"
	"fidelidadeAPI/internal/campaign"
	"fidelidadeAPI/internal/points"
	"fidelidadeAPI/internal/visit"
)

type VisitService struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewVisitService(db *pgxpool.Pool, logger *zap.Logger) *VisitService {
	return &VisitService{db: db, logger: logger}
}

// Create records a visit and runs the point accrual in one
// transaction: the visit row, the campaign lookup and the ledger
// entry either all land or none do. The customer row is locked first
// so two concurrent visits for the same customer cannot race the
// store visit count.
func (s *VisitService) Create(ctx context.Context, req *visit.CreateRequest) (*visit.Visit, error) {
	if req.ClienteID == 0 || req.Loja == "" {
		return nil, apperr.New(apperr.Validation, "Cliente e loja são obrigatórios")
	}
	if req.ValorCompra.Sign() < 0 {
		return nil, apperr.New(apperr.Validation, "Valor da compra não pode ser negativo")
	}

	when := time.Now().UTC()
	if req.DataVisita != nil && *req.DataVisita != "" {
		parsed, err := time.Parse(time.RFC3339, *req.DataVisita)
		if err != nil {
			return nil, apperr.Validationf("Data da visita inválida: %s", *req.DataVisita)
		}
		when = parsed.UTC()
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var clienteNome string
	err = tx.QueryRow(ctx, `SELECT nome FROM clientes WHERE id = $1 FOR UPDATE`, req.ClienteID).Scan(&clienteNome)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperr.New(apperr.NotFound, "Cliente não encontrado")
		}
		return nil, fmt.Errorf("failed to load customer: %w", err)
	}

	v := visit.Visit{
		ClienteID:   req.ClienteID,
		ClienteNome: clienteNome,
		DataVisita:  when,
		ValorCompra: req.ValorCompra,
		Loja:        req.Loja,
	}
	err = tx.QueryRow(ctx,
		`INSERT INTO visitas (cliente_id, data_visita, valor_compra, loja)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		v.ClienteID, v.DataVisita, v.ValorCompra, v.Loja,
	).Scan(&v.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create visit: %w", err)
	}

	// Visit count for this store, counting the row just inserted.
	var storeVisits int
	err = tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM visitas WHERE cliente_id = $1 AND loja = $2`,
		v.ClienteID, v.Loja,
	).Scan(&storeVisits)
	if err != nil {
		return nil, fmt.Errorf("failed to count visits: %w", err)
	}

	active, err := activeCampaigns(ctx, tx, v.Loja, when)
	if err != nil {
		return nil, err
	}
	picked := campaign.Pick(active)
	v.PontosGerados = campaign.AccruedPoints(v.ValorCompra, picked, storeVisits)

	_, err = tx.Exec(ctx,
		`INSERT INTO pontos (cliente_id, visita_id, pontos_acumulados, data_atualizacao)
		 VALUES ($1, $2, $3, $4)`,
		v.ClienteID, v.ID, v.PontosGerados, when)
	if err != nil {
		return nil, fmt.Errorf("failed to record points: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	fields := []zap.Field{
		zap.Int64("cliente_id", v.ClienteID),
		zap.String("loja", v.Loja),
		zap.Int64("pontos", v.PontosGerados),
	}
	if picked != nil {
		fields = append(fields, zap.Int64("campanha_id", picked.ID))
	}
	s.logger.Info("visit recorded", fields...)
	return &v, nil
}

// activeCampaigns loads every campaign covering loja at instant t.
func activeCampaigns(ctx context.Context, tx pgx.Tx, loja string, t time.Time) ([]*campaign.Campaign, error) {
	rows, err := tx.Query(ctx,
		`SELECT id, nome, loja, data_inicio, data_fim, ativa, threshold_visitas, fator_pontuacao
		 FROM campanhas
		 WHERE loja = $1 AND ativa = TRUE AND data_inicio <= $2 AND $2 < data_fim`,
		loja, t)
	if err != nil {
		return nil, fmt.Errorf("failed to load campaigns: %w", err)
	}
	defer rows.Close()

	var campaigns []*campaign.Campaign
	for rows.Next() {
		var c campaign.Campaign
		var fator decimal.Decimal
		err := rows.Scan(&c.ID, &c.Nome, &c.Loja, &c.DataInicio, &c.DataFim, &c.Ativa, &c.ThresholdVisitas, &fator)
		if err != nil {
			return nil, err
		}
		c.FatorPontuacao = fator
		campaigns = append(campaigns, &c)
	}
	return campaigns, rows.Err()
}

func (s *VisitService) List(ctx context.Context, params visit.ListParams) ([]*visit.Visit, error) {
	builder := sq.Select(
		"v.id", "v.cliente_id", "c.nome", "v.data_visita", "v.valor_compra", "v.loja",
		"COALESCE(p.pontos_acumulados, 0)",
	).
		From("visitas v").
		Join("clientes c ON c.id = v.cliente_id").
		LeftJoin("pontos p ON p.visita_id = v.id").
		OrderBy("v.data_visita DESC").
		PlaceholderFormat(sq.Dollar)

	if params.ClienteID != 0 {
		builder = builder.Where(sq.Eq{"v.cliente_id": params.ClienteID})
	}
	if params.Loja != "" {
		builder = builder.Where(sq.Eq{"v.loja": params.Loja})
	}
	if params.PerPage > 0 {
		builder = builder.Limit(uint64(params.PerPage))
		if params.Page > 1 {
			builder = builder.Offset(uint64((params.Page - 1) * params.PerPage))
		}
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list visits: %w", err)
	}
	defer rows.Close()

	visits := []*visit.Visit{}
	for rows.Next() {
		var v visit.Visit
		err := rows.Scan(&v.ID, &v.ClienteID, &v.ClienteNome, &v.DataVisita, &v.ValorCompra, &v.Loja, &v.PontosGerados)
		if err != nil {
			return nil, err
		}
		visits = append(visits, &v)
	}
	return visits, rows.Err()
}

// Update only allows correcting the store label. Amount and timestamp
// are immutable because their points are already in the ledger.
func (s *VisitService) Update(ctx context.Context, id int64, req *visit.UpdateRequest) (*visit.Visit, error) {
	if req.Loja == nil || *req.Loja == "" {
		return nil, apperr.New(apperr.Validation, "Loja é obrigatória")
	}

	tag, err := s.db.Exec(ctx, `UPDATE visitas SET loja = $1 WHERE id = $2`, *req.Loja, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update visit: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, apperr.New(apperr.NotFound, "Visita não encontrada")
	}

	return s.Get(ctx, id)
}

func (s *VisitService) Get(ctx context.Context, id int64) (*visit.Visit, error) {
	var v visit.Visit
	err := s.db.QueryRow(ctx,
		`SELECT v.id, v.cliente_id, c.nome, v.data_visita, v.valor_compra, v.loja,
		        COALESCE(p.pontos_acumulados, 0)
		 FROM visitas v
		 JOIN clientes c ON c.id = v.cliente_id
		 LEFT JOIN pontos p ON p.visita_id = v.id
		 WHERE v.id = $1`, id,
	).Scan(&v.ID, &v.ClienteID, &v.ClienteNome, &v.DataVisita, &v.ValorCompra, &v.Loja, &v.PontosGerados)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperr.New(apperr.NotFound, "Visita não encontrada")
		}
		return nil, fmt.Errorf("failed to load visit: %w", err)
	}
	return &v, nil
}

// Delete removes a visit together with its ledger entry, in one
// transaction so the derived totals stay consistent.
func (s *VisitService) Delete(ctx context.Context, id int64) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM pontos WHERE visita_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete points entry: %w", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM visitas WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete visit: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.New(apperr.NotFound, "Visita não encontrada")
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Info("visit deleted", zap.Int64("id", id))
	return nil
}

// Ledger returns a customer's points entries, newest first.
func (s *VisitService) Ledger(ctx context.Context, clienteID int64) ([]*points.Entry, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM clientes WHERE id = $1)`, clienteID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check customer: %w", err)
	}
	if !exists {
		return nil, apperr.New(apperr.NotFound, "Cliente não encontrado")
	}

	rows, err := s.db.Query(ctx,
		`SELECT id, cliente_id, visita_id, pontos_acumulados, data_atualizacao
		 FROM pontos WHERE cliente_id = $1 ORDER BY data_atualizacao DESC`, clienteID)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger: %w", err)
	}
	defer rows.Close()

	entries := []*points.Entry{}
	for rows.Next() {
		var e points.Entry
		if err := rows.Scan(&e.ID, &e.ClienteID, &e.VisitaID, &e.Pontos, &e.DataAtualizacao); err != nil {
			return nil, err
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
