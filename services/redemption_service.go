package services

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"fidelidadeAPI/internal/apperr"
	"fidelidadeAPI/internal/campaign"
	"fidelidadeAPI/internal/points"
	"fidelidadeAPI/internal/redemption"
	"fidelidadeAPI/internal/reward"
	"fidelidadeAPI/middleware"
)

type RedemptionService struct {
	db      *pgxpool.Pool
	logger  *zap.Logger
	voucher func() string
}

func NewRedemptionService(db *pgxpool.Pool, logger *zap.Logger) *RedemptionService {
	return &RedemptionService{db: db, logger: logger, voucher: redemption.NewVoucherCode}
}

const voucherRetries = 5

// lockedOffer is the offer row plus its campaign window, read under
// FOR UPDATE of the brinde row.
type lockedOffer struct {
	id         int64
	nivel      points.Tier
	stock      int
	campaign   campaign.Campaign
	produtoNom string
}

func lockOffer(ctx context.Context, tx pgx.Tx, brindeID int64) (*lockedOffer, error) {
	var o lockedOffer
	var nivel string
	err := tx.QueryRow(ctx,
		`SELECT b.id, b.nivel, b.quantidade_disponivel, p.nome,
		        c.id, c.nome, c.loja, c.data_inicio, c.data_fim, c.ativa, c.threshold_visitas, c.fator_pontuacao
		 FROM brindes b
		 JOIN produtos p ON p.id = b.produto_id
		 JOIN campanhas c ON c.id = b.campanha_id
		 WHERE b.id = $1
		 FOR UPDATE OF b`, brindeID,
	).Scan(&o.id, &nivel, &o.stock, &o.produtoNom,
		&o.campaign.ID, &o.campaign.Nome, &o.campaign.Loja, &o.campaign.DataInicio,
		&o.campaign.DataFim, &o.campaign.Ativa, &o.campaign.ThresholdVisitas, &o.campaign.FatorPontuacao)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperr.New(apperr.NotFound, "Brinde não encontrado")
		}
		return nil, fmt.Errorf("failed to lock offer: %w", err)
	}
	tier, ok := points.ParseTier(nivel)
	if !ok {
		return nil, fmt.Errorf("unknown reward tier %q", nivel)
	}
	o.nivel = tier
	return &o, nil
}

func customerTier(ctx context.Context, tx pgx.Tx, clienteID int64) (points.Tier, error) {
	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM clientes WHERE id = $1)`, clienteID).Scan(&exists); err != nil {
		return "", fmt.Errorf("failed to check customer: %w", err)
	}
	if !exists {
		return "", apperr.New(apperr.NotFound, "Cliente não encontrado")
	}

	var total int64
	err := tx.QueryRow(ctx,
		`SELECT COALESCE(SUM(pontos_acumulados), 0) FROM pontos WHERE cliente_id = $1`, clienteID,
	).Scan(&total)
	if err != nil {
		return "", fmt.Errorf("failed to sum points: %w", err)
	}
	return points.TierFor(total), nil
}

// Create runs the redemption state machine's entry point: the stock
// decrement and the Pendente record with its voucher are committed
// atomically, with the brinde row locked so concurrent requests
// against the last unit cannot both succeed.
func (s *RedemptionService) Create(ctx context.Context, req *redemption.CreateRequest) (*redemption.Redemption, error) {
	if req.ClienteID == 0 || req.BrindeID == 0 {
		return nil, apperr.New(apperr.Validation, "Cliente e brinde são obrigatórios")
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	offer, err := lockOffer(ctx, tx, req.BrindeID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if !offer.campaign.ActiveAt(now) {
		middleware.CountRedemption("campaign_inactive")
		return nil, apperr.New(apperr.Validation, "Campanha do brinde não está ativa")
	}
	if offer.stock <= 0 {
		middleware.CountRedemption("out_of_stock")
		return nil, apperr.New(apperr.Conflict, "Brinde sem estoque disponível")
	}

	tier, err := customerTier(ctx, tx, req.ClienteID)
	if err != nil {
		return nil, err
	}
	if !points.Meets(tier, offer.nivel) {
		middleware.CountRedemption("tier_ineligible")
		return nil, apperr.Validationf("Cliente no nível %s não pode resgatar brinde do nível %s", tier, offer.nivel)
	}

	tag, err := tx.Exec(ctx,
		`UPDATE brindes SET quantidade_disponivel = quantidade_disponivel - 1
		 WHERE id = $1 AND quantidade_disponivel > 0`, offer.id)
	if err != nil {
		return nil, fmt.Errorf("failed to decrement stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		middleware.CountRedemption("out_of_stock")
		return nil, apperr.New(apperr.Conflict, "Brinde sem estoque disponível")
	}

	r := redemption.Redemption{
		ClienteID:   req.ClienteID,
		BrindeID:    offer.id,
		ProdutoNome: offer.produtoNom,
		DataResgate: now,
		Status:      redemption.StatusPending,
	}

	// The voucher index enforces global uniqueness; regenerate on the
	// (astronomically unlikely) collision. Each attempt runs inside a
	// savepoint: a unique violation aborts the enclosing transaction
	// otherwise, and the next insert would fail with 25P02 instead of
	// retrying.
	inserted := false
	for attempt := 0; attempt < voucherRetries; attempt++ {
		r.VoucherCodigo = s.voucher()

		sp, err := tx.Begin(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to begin savepoint: %w", err)
		}
		err = sp.QueryRow(ctx,
			`INSERT INTO resgates (cliente_id, brinde_id, data_resgate, status, voucher_codigo)
			 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
			r.ClienteID, r.BrindeID, r.DataResgate, string(r.Status), r.VoucherCodigo,
		).Scan(&r.ID)
		if err == nil {
			if err := sp.Commit(ctx); err != nil {
				return nil, fmt.Errorf("failed to release savepoint: %w", err)
			}
			inserted = true
			break
		}
		_ = sp.Rollback(ctx)
		if !isUniqueViolation(err) {
			return nil, fmt.Errorf("failed to create redemption: %w", err)
		}
	}
	if !inserted {
		return nil, fmt.Errorf("failed to generate a unique voucher after %d attempts", voucherRetries)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	middleware.CountRedemption("success")
	s.logger.Info("redemption created",
		zap.Int64("cliente_id", r.ClienteID),
		zap.Int64("brinde_id", r.BrindeID),
		zap.String("voucher", r.VoucherCodigo),
	)
	return &r, nil
}

// MarkDelivered moves a Pendente redemption to Entregue and stamps
// data_entrega. Terminal states are immutable.
func (s *RedemptionService) MarkDelivered(ctx context.Context, id int64) (*redemption.Redemption, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	r, err := s.lockRedemption(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if !redemption.CanTransition(r.Status, redemption.StatusDelivered) {
		return nil, apperr.Validationf("Resgate com status %s não pode ser entregue", r.Status)
	}

	now := time.Now().UTC()
	_, err = tx.Exec(ctx,
		`UPDATE resgates SET status = $1, data_entrega = $2 WHERE id = $3`,
		string(redemption.StatusDelivered), now, id)
	if err != nil {
		return nil, fmt.Errorf("failed to mark delivered: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.Status = redemption.StatusDelivered
	r.DataEntrega = &now
	return r, nil
}

// Cancel moves a Pendente redemption to Cancelado and restores the
// offer's stock in the same transaction, so cancelled vouchers never
// leak stock.
func (s *RedemptionService) Cancel(ctx context.Context, id int64) (*redemption.Redemption, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	r, err := s.lockRedemption(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if !redemption.CanTransition(r.Status, redemption.StatusCancelled) {
		return nil, apperr.Validationf("Resgate com status %s não pode ser cancelado", r.Status)
	}

	_, err = tx.Exec(ctx,
		`UPDATE resgates SET status = $1 WHERE id = $2`,
		string(redemption.StatusCancelled), id)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel redemption: %w", err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE brindes SET quantidade_disponivel = quantidade_disponivel + 1 WHERE id = $1`,
		r.BrindeID)
	if err != nil {
		return nil, fmt.Errorf("failed to restore stock: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	middleware.CountRedemption("cancelled")
	s.logger.Info("redemption cancelled", zap.Int64("id", id), zap.Int64("brinde_id", r.BrindeID))
	r.Status = redemption.StatusCancelled
	return r, nil
}

func (s *RedemptionService) lockRedemption(ctx context.Context, tx pgx.Tx, id int64) (*redemption.Redemption, error) {
	var r redemption.Redemption
	var status string
	err := tx.QueryRow(ctx,
		`SELECT id, cliente_id, brinde_id, data_resgate, status, voucher_codigo, data_entrega
		 FROM resgates WHERE id = $1 FOR UPDATE`, id,
	).Scan(&r.ID, &r.ClienteID, &r.BrindeID, &r.DataResgate, &status, &r.VoucherCodigo, &r.DataEntrega)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperr.New(apperr.NotFound, "Resgate não encontrado")
		}
		return nil, fmt.Errorf("failed to load redemption: %w", err)
	}
	parsed, ok := redemption.ParseStatus(status)
	if !ok {
		return nil, fmt.Errorf("unknown redemption status %q", status)
	}
	r.Status = parsed
	return &r, nil
}

func redemptionSelect() sq.SelectBuilder {
	return sq.Select(
		"r.id", "r.cliente_id", "cl.nome", "r.brinde_id", "p.nome",
		"r.data_resgate", "r.status", "r.voucher_codigo", "r.data_entrega",
	).
		From("resgates r").
		Join("clientes cl ON cl.id = r.cliente_id").
		Join("brindes b ON b.id = r.brinde_id").
		Join("produtos p ON p.id = b.produto_id").
		PlaceholderFormat(sq.Dollar)
}

func scanRedemption(row pgx.Row) (*redemption.Redemption, error) {
	var r redemption.Redemption
	var status string
	err := row.Scan(&r.ID, &r.ClienteID, &r.ClienteNome, &r.BrindeID, &r.ProdutoNome,
		&r.DataResgate, &status, &r.VoucherCodigo, &r.DataEntrega)
	if err != nil {
		return nil, err
	}
	parsed, ok := redemption.ParseStatus(status)
	if !ok {
		return nil, fmt.Errorf("unknown redemption status %q", status)
	}
	r.Status = parsed
	return &r, nil
}

func (s *RedemptionService) List(ctx context.Context, params redemption.ListParams) ([]*redemption.Redemption, error) {
	builder := redemptionSelect().OrderBy("r.data_resgate DESC")

	if params.ClienteID != 0 {
		builder = builder.Where(sq.Eq{"r.cliente_id": params.ClienteID})
	}
	if params.Status != "" {
		status, ok := redemption.ParseStatus(params.Status)
		if !ok {
			return nil, apperr.Validationf("Status inválido: %s", params.Status)
		}
		builder = builder.Where(sq.Eq{"r.status": string(status)})
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
		return nil, fmt.Errorf("failed to list redemptions: %w", err)
	}
	defer rows.Close()

	redemptions := []*redemption.Redemption{}
	for rows.Next() {
		r, err := scanRedemption(rows)
		if err != nil {
			return nil, err
		}
		redemptions = append(redemptions, r)
	}
	return redemptions, rows.Err()
}

// GetByVoucher resolves a voucher code for fulfilment lookups.
func (s *RedemptionService) GetByVoucher(ctx context.Context, codigo string) (*redemption.Redemption, error) {
	query, args, err := redemptionSelect().Where(sq.Eq{"r.voucher_codigo": codigo}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	r, err := scanRedemption(s.db.QueryRow(ctx, query, args...))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperr.New(apperr.NotFound, "Voucher não encontrado")
		}
		return nil, fmt.Errorf("failed to load redemption: %w", err)
	}
	return r, nil
}

// CheckEligibility answers the same preconditions Create enforces,
// without locking or mutating anything.
func (s *RedemptionService) CheckEligibility(ctx context.Context, req *redemption.EligibilityRequest) (*redemption.EligibilityResponse, error) {
	if req.ClienteID == 0 || req.BrindeID == 0 {
		return nil, apperr.New(apperr.Validation, "Cliente e brinde são obrigatórios")
	}

	var nivel string
	var stock int
	var c campaign.Campaign
	err := s.db.QueryRow(ctx,
		`SELECT b.nivel, b.quantidade_disponivel,
		        c.id, c.nome, c.loja, c.data_inicio, c.data_fim, c.ativa, c.threshold_visitas, c.fator_pontuacao
		 FROM brindes b
		 JOIN campanhas c ON c.id = b.campanha_id
		 WHERE b.id = $1`, req.BrindeID,
	).Scan(&nivel, &stock, &c.ID, &c.Nome, &c.Loja, &c.DataInicio, &c.DataFim, &c.Ativa, &c.ThresholdVisitas, &c.FatorPontuacao)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperr.New(apperr.NotFound, "Brinde não encontrado")
		}
		return nil, fmt.Errorf("failed to load offer: %w", err)
	}

	if !c.ActiveAt(time.Now().UTC()) {
		return &redemption.EligibilityResponse{Elegivel: false, Motivo: "Campanha não está ativa"}, nil
	}
	if stock <= 0 {
		return &redemption.EligibilityResponse{Elegivel: false, Motivo: "Brinde sem estoque disponível"}, nil
	}

	var total int64
	var exists bool
	if err := s.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM clientes WHERE id = $1)`, req.ClienteID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to check customer: %w", err)
	}
	if !exists {
		return nil, apperr.New(apperr.NotFound, "Cliente não encontrado")
	}
	if err := s.db.QueryRow(ctx,
		`SELECT COALESCE(SUM(pontos_acumulados), 0) FROM pontos WHERE cliente_id = $1`, req.ClienteID,
	).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to sum points: %w", err)
	}

	required, ok := points.ParseTier(nivel)
	if !ok {
		return nil, fmt.Errorf("unknown reward tier %q", nivel)
	}
	tier := points.TierFor(total)
	if !points.Meets(tier, required) {
		return &redemption.EligibilityResponse{
			Elegivel: false,
			Motivo:   fmt.Sprintf("Cliente no nível %s; brinde exige nível %s", tier, required),
		}, nil
	}

	return &redemption.EligibilityResponse{Elegivel: true}, nil
}

// AvailableOffers lists the offers a customer can redeem right now:
// active campaign, stock remaining, tier at or above the offer's
// nivel.
func (s *RedemptionService) AvailableOffers(ctx context.Context, clienteID int64) ([]*reward.Offer, error) {
	var exists bool
	if err := s.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM clientes WHERE id = $1)`, clienteID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to check customer: %w", err)
	}
	if !exists {
		return nil, apperr.New(apperr.NotFound, "Cliente não encontrado")
	}

	var total int64
	if err := s.db.QueryRow(ctx,
		`SELECT COALESCE(SUM(pontos_acumulados), 0) FROM pontos WHERE cliente_id = $1`, clienteID,
	).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to sum points: %w", err)
	}
	tier := points.TierFor(total)

	now := time.Now().UTC()
	rows, err := s.db.Query(ctx,
		`SELECT b.id, b.produto_id, p.nome, b.campanha_id, c.nome, b.nivel, b.quantidade_disponivel
		 FROM brindes b
		 JOIN produtos p ON p.id = b.produto_id
		 JOIN campanhas c ON c.id = b.campanha_id
		 WHERE b.quantidade_disponivel > 0
		   AND c.ativa = TRUE AND c.data_inicio <= $1 AND $1 < c.data_fim
		 ORDER BY b.id`, now)
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
		if points.Meets(tier, o.Nivel) {
			offers = append(offers, o)
		}
	}
	return offers, rows.Err()
}
