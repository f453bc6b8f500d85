package services

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"fidelidadeAPI/internal/points"
	"fidelidadeAPI/internal/redemption"
)

// DashboardService serves read-only aggregates. These queries run at
// default isolation; they show approximately-current data and are not
// correctness-critical.
type DashboardService struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewDashboardService(db *pgxpool.Pool, logger *zap.Logger) *DashboardService {
	return &DashboardService{db: db, logger: logger}
}

type Summary struct {
	TotalClientes     int64 `json:"total_clientes"`
	TotalVisitas      int64 `json:"total_visitas"`
	PontosEmitidos    int64 `json:"pontos_emitidos"`
	CampanhasAtivas   int64 `json:"campanhas_ativas"`
	ResgatesPendentes int64 `json:"resgates_pendentes"`
}

func (s *DashboardService) Summary(ctx context.Context) (*Summary, error) {
	var sum Summary
	now := time.Now().UTC()
	err := s.db.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM clientes),
			(SELECT COUNT(*) FROM visitas),
			(SELECT COALESCE(SUM(pontos_acumulados), 0) FROM pontos),
			(SELECT COUNT(*) FROM campanhas WHERE ativa = TRUE AND data_inicio <= $1 AND $1 < data_fim),
			(SELECT COUNT(*) FROM resgates WHERE status = $2)`,
		now, string(redemption.StatusPending),
	).Scan(&sum.TotalClientes, &sum.TotalVisitas, &sum.PontosEmitidos, &sum.CampanhasAtivas, &sum.ResgatesPendentes)
	if err != nil {
		return nil, fmt.Errorf("failed to load summary: %w", err)
	}
	return &sum, nil
}

type TopCustomer struct {
	ClienteID    int64       `json:"cliente_id"`
	Nome         string      `json:"nome"`
	PontosTotais int64       `json:"pontos_totais"`
	Nivel        points.Tier `json:"nivel"`
}

func (s *DashboardService) TopCustomers(ctx context.Context, limit int) ([]*TopCustomer, error) {
	if limit <= 0 {
		limit = 10
	}

	query, args, err := sq.Select("c.id", "c.nome", "COALESCE(SUM(p.pontos_acumulados), 0) AS total").
		From("clientes c").
		LeftJoin("pontos p ON p.cliente_id = c.id").
		GroupBy("c.id", "c.nome").
		OrderBy("total DESC", "c.id").
		Limit(uint64(limit)).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load top customers: %w", err)
	}
	defer rows.Close()

	top := []*TopCustomer{}
	for rows.Next() {
		var t TopCustomer
		if err := rows.Scan(&t.ClienteID, &t.Nome, &t.PontosTotais); err != nil {
			return nil, err
		}
		t.Nivel = points.TierFor(t.PontosTotais)
		top = append(top, &t)
	}
	return top, rows.Err()
}

type DailyVisits struct {
	Dia     string `json:"dia"`
	Visitas int64  `json:"visitas"`
}

func (s *DashboardService) VisitsByPeriod(ctx context.Context, days int) ([]*DailyVisits, error) {
	if days <= 0 {
		days = 30
	}
	since := time.Now().UTC().AddDate(0, 0, -days)

	rows, err := s.db.Query(ctx,
		`SELECT TO_CHAR(DATE(data_visita), 'YYYY-MM-DD') AS dia, COUNT(*)
		 FROM visitas WHERE data_visita >= $1
		 GROUP BY DATE(data_visita) ORDER BY dia`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load visit series: %w", err)
	}
	defer rows.Close()

	series := []*DailyVisits{}
	for rows.Next() {
		var d DailyVisits
		if err := rows.Scan(&d.Dia, &d.Visitas); err != nil {
			return nil, err
		}
		series = append(series, &d)
	}
	return series, rows.Err()
}

// TierDistribution counts customers per derived tier. The tier is
// computed from the summed ledger, never read from a stored column.
func (s *DashboardService) TierDistribution(ctx context.Context) (map[points.Tier]int64, error) {
	rows, err := s.db.Query(ctx,
		`SELECT COALESCE(SUM(p.pontos_acumulados), 0) AS total
		 FROM clientes c
		 LEFT JOIN pontos p ON p.cliente_id = c.id
		 GROUP BY c.id`)
	if err != nil {
		return nil, fmt.Errorf("failed to load tier distribution: %w", err)
	}
	defer rows.Close()

	dist := map[points.Tier]int64{
		points.TierBronze: 0,
		points.TierPrata:  0,
		points.TierOuro:   0,
	}
	for rows.Next() {
		var total int64
		if err := rows.Scan(&total); err != nil {
			return nil, err
		}
		dist[points.TierFor(total)]++
	}
	return dist, rows.Err()
}

func (s *DashboardService) RedemptionsByStatus(ctx context.Context) (map[string]int64, error) {
	rows, err := s.db.Query(ctx, `SELECT status, COUNT(*) FROM resgates GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to load redemption counts: %w", err)
	}
	defer rows.Close()

	counts := map[string]int64{
		string(redemption.StatusPending):   0,
		string(redemption.StatusDelivered): 0,
		string(redemption.StatusCancelled): 0,
	}
	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

type CustomerReport struct {
	ClienteID    int64       `json:"cliente_id"`
	Nome         string      `json:"nome"`
	CPF          string      `json:"cpf"`
	TotalVisitas int64       `json:"total_visitas"`
	PontosTotais int64       `json:"pontos_totais"`
	Nivel        points.Tier `json:"nivel"`
	UltimaVisita *time.Time  `json:"ultima_visita"`
	Resgates     int64       `json:"resgates"`
}

func (s *DashboardService) CustomerReport(ctx context.Context) ([]*CustomerReport, error) {
	query, args, err := sq.Select(
		"c.id", "c.nome", "c.cpf",
		"COUNT(DISTINCT v.id)",
		"COALESCE(pt.pontos, 0)",
		"MAX(v.data_visita)",
		"COUNT(DISTINCT r.id)",
	).
		From("clientes c").
		LeftJoin("visitas v ON v.cliente_id = c.id").
		LeftJoin("(SELECT cliente_id, SUM(pontos_acumulados) AS pontos FROM pontos GROUP BY cliente_id) pt ON pt.cliente_id = c.id").
		LeftJoin("resgates r ON r.cliente_id = c.id").
		GroupBy("c.id", "c.nome", "c.cpf", "pt.pontos").
		OrderBy("c.nome").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load customer report: %w", err)
	}
	defer rows.Close()

	report := []*CustomerReport{}
	for rows.Next() {
		var r CustomerReport
		if err := rows.Scan(&r.ClienteID, &r.Nome, &r.CPF, &r.TotalVisitas, &r.PontosTotais, &r.UltimaVisita, &r.Resgates); err != nil {
			return nil, err
		}
		r.Nivel = points.TierFor(r.PontosTotais)
		report = append(report, &r)
	}
	return report, rows.Err()
}

type CampaignPerformance struct {
	CampanhaID     int64           `json:"campanha_id"`
	Nome           string          `json:"nome"`
	Loja           string          `json:"loja"`
	Ativa          bool            `json:"ativa"`
	FatorPontuacao decimal.Decimal `json:"fator_pontuacao"`
	VisitasJanela  int64           `json:"visitas_janela"`
	Resgates       int64           `json:"resgates"`
}

func (s *DashboardService) CampaignPerformance(ctx context.Context) ([]*CampaignPerformance, error) {
	rows, err := s.db.Query(ctx, `
		SELECT c.id, c.nome, c.loja, c.ativa, c.fator_pontuacao,
			(SELECT COUNT(*) FROM visitas v
			  WHERE v.loja = c.loja AND v.data_visita >= c.data_inicio AND v.data_visita < c.data_fim),
			(SELECT COUNT(*) FROM resgates r
			  JOIN brindes b ON b.id = r.brinde_id
			 WHERE b.campanha_id = c.id)
		FROM campanhas c
		ORDER BY c.data_inicio DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to load campaign performance: %w", err)
	}
	defer rows.Close()

	report := []*CampaignPerformance{}
	for rows.Next() {
		var p CampaignPerformance
		if err := rows.Scan(&p.CampanhaID, &p.Nome, &p.Loja, &p.Ativa, &p.FatorPontuacao, &p.VisitasJanela, &p.Resgates); err != nil {
			return nil, err
		}
		report = append(report, &p)
	}
	return report, rows.Err()
}
