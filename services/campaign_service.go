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
)

type CampaignService struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewCampaignService(db *pgxpool.Pool, logger *zap.Logger) *CampaignService {
	return &CampaignService{db: db, logger: logger}
}

const campaignColumns = `id, nome, loja, data_inicio, data_fim, ativa, threshold_visitas, fator_pontuacao`

func scanCampaign(row pgx.Row) (*campaign.Campaign, error) {
	var c campaign.Campaign
	err := row.Scan(&c.ID, &c.Nome, &c.Loja, &c.DataInicio, &c.DataFim, &c.Ativa, &c.ThresholdVisitas, &c.FatorPontuacao)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func parseWindow(inicio, fim string) (time.Time, time.Time, error) {
	start, err := time.Parse(time.RFC3339, inicio)
	if err != nil {
		return time.Time{}, time.Time{}, apperr.Validationf("Data de início inválida: %s", inicio)
	}
	end, err := time.Parse(time.RFC3339, fim)
	if err != nil {
		return time.Time{}, time.Time{}, apperr.Validationf("Data de fim inválida: %s", fim)
	}
	if !start.Before(end) {
		return time.Time{}, time.Time{}, apperr.New(apperr.Validation, "Data de início deve ser anterior à data de fim")
	}
	return start.UTC(), end.UTC(), nil
}

func (s *CampaignService) List(ctx context.Context, loja string, onlyActive bool) ([]*campaign.Campaign, error) {
	builder := sq.Select(campaignColumns).
		From("campanhas").
		OrderBy("data_inicio DESC").
		PlaceholderFormat(sq.Dollar)

	if loja != "" {
		builder = builder.Where(sq.Eq{"loja": loja})
	}
	if onlyActive {
		now := time.Now().UTC()
		builder = builder.Where(sq.Eq{"ativa": true}).
			Where(sq.LtOrEq{"data_inicio": now}).
			Where(sq.Gt{"data_fim": now})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	defer rows.Close()

	campaigns := []*campaign.Campaign{}
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}

func (s *CampaignService) Get(ctx context.Context, id int64) (*campaign.Campaign, error) {
	c, err := scanCampaign(s.db.QueryRow(ctx,
		`SELECT `+campaignColumns+` FROM campanhas WHERE id = $1`, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperr.New(apperr.NotFound, "Campanha não encontrada")
		}
		return nil, fmt.Errorf("failed to load campaign: %w", err)
	}
	return c, nil
}

func (s *CampaignService) Create(ctx context.Context, req *campaign.CreateRequest) (*campaign.Campaign, error) {
	if req.Nome == "" || req.Loja == "" || req.DataInicio == "" || req.DataFim == "" {
		return nil, apperr.New(apperr.Validation, "Nome, loja e período são obrigatórios")
	}
	if req.ThresholdVisitas < 0 {
		return nil, apperr.New(apperr.Validation, "Threshold de visitas não pode ser negativo")
	}
	if req.FatorPontuacao.Sign() <= 0 {
		return nil, apperr.New(apperr.Validation, "Fator de pontuação deve ser positivo")
	}

	start, end, err := parseWindow(req.DataInicio, req.DataFim)
	if err != nil {
		return nil, err
	}

	ativa := true
	if req.Ativa != nil {
		ativa = *req.Ativa
	}

	c, err := scanCampaign(s.db.QueryRow(ctx,
		`INSERT INTO campanhas (nome, loja, data_inicio, data_fim, ativa, threshold_visitas, fator_pontuacao)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+campaignColumns,
		req.Nome, req.Loja, start, end, ativa, req.ThresholdVisitas, req.FatorPontuacao))
	if err != nil {
		return nil, fmt.Errorf("failed to create campaign: %w", err)
	}

	s.logger.Info("campaign created", zap.Int64("id", c.ID), zap.String("loja", c.Loja))
	return c, nil
}

func (s *CampaignService) Update(ctx context.Context, id int64, req *campaign.UpdateRequest) (*campaign.Campaign, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	c, err := scanCampaign(tx.QueryRow(ctx,
		`SELECT `+campaignColumns+` FROM campanhas WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperr.New(apperr.NotFound, "Campanha não encontrada")
		}
		return nil, fmt.Errorf("failed to load campaign: %w", err)
	}

	if req.Nome != nil {
		c.Nome = *req.Nome
	}
	if req.Loja != nil {
		c.Loja = *req.Loja
	}
	if req.DataInicio != nil || req.DataFim != nil {
		inicio := c.DataInicio.Format(time.RFC3339)
		fim := c.DataFim.Format(time.RFC3339)
		if req.DataInicio != nil {
			inicio = *req.DataInicio
		}
		if req.DataFim != nil {
			fim = *req.DataFim
		}
		start, end, err := parseWindow(inicio, fim)
		if err != nil {
			return nil, err
		}
		c.DataInicio, c.DataFim = start, end
	}
	if req.Ativa != nil {
		c.Ativa = *req.Ativa
	}
	if req.ThresholdVisitas != nil {
		if *req.ThresholdVisitas < 0 {
			return nil, apperr.New(apperr.Validation, "Threshold de visitas não pode ser negativo")
		}
		c.ThresholdVisitas = *req.ThresholdVisitas
	}
	if req.FatorPontuacao != nil {
		if req.FatorPontuacao.Sign() <= 0 {
			return nil, apperr.New(apperr.Validation, "Fator de pontuação deve ser positivo")
		}
		c.FatorPontuacao = *req.FatorPontuacao
	}

	_, err = tx.Exec(ctx,
		`UPDATE campanhas
		 SET nome = $1, loja = $2, data_inicio = $3, data_fim = $4, ativa = $5,
		     threshold_visitas = $6, fator_pontuacao = $7
		 WHERE id = $8`,
		c.Nome, c.Loja, c.DataInicio, c.DataFim, c.Ativa, c.ThresholdVisitas, c.FatorPontuacao, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update campaign: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return c, nil
}

func (s *CampaignService) Delete(ctx context.Context, id int64) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var hasOffers bool
	err = tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM brindes WHERE campanha_id = $1)`, id).Scan(&hasOffers)
	if err != nil {
		return fmt.Errorf("failed to check offers: %w", err)
	}
	if hasOffers {
		return apperr.New(apperr.Conflict, "Campanha possui brindes e não pode ser removida")
	}

	tag, err := tx.Exec(ctx, `DELETE FROM campanhas WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete campaign: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.New(apperr.NotFound, "Campanha não encontrada")
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Info("campaign deleted", zap.Int64("id", id))
	return nil
}
