package services

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"fidelidadeAPI/internal/apperr"
	"fidelidadeAPI/internal/customer"
	"fidelidadeAPI/internal/points"
)

type CustomerService struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewCustomerService(db *pgxpool.Pool, logger *zap.Logger) *CustomerService {
	return &CustomerService{db: db, logger: logger}
}

// customerSelect joins the derived aggregates in so every read gets
// fresh totals; the tier is derived in Go from the summed ledger.
func customerSelect() sq.SelectBuilder {
	return sq.Select(
		"c.id", "c.cpf", "c.nome", "c.telefone", "c.email", "c.sem_email", "c.data_cadastro",
		"COALESCE(v.total_visitas, 0)", "COALESCE(p.pontos_totais, 0)",
	).
		From("clientes c").
		LeftJoin("(SELECT cliente_id, COUNT(*) AS total_visitas FROM visitas GROUP BY cliente_id) v ON v.cliente_id = c.id").
		LeftJoin("(SELECT cliente_id, SUM(pontos_acumulados) AS pontos_totais FROM pontos GROUP BY cliente_id) p ON p.cliente_id = c.id").
		PlaceholderFormat(sq.Dollar)
}

func validCPF(cpf string) bool {
	if len(cpf) != 11 {
		return false
	}
	for _, r := range cpf {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func scanCustomer(row pgx.Row) (*customer.Customer, error) {
	var c customer.Customer
	err := row.Scan(&c.ID, &c.CPF, &c.Nome, &c.Telefone, &c.Email, &c.SemEmail, &c.DataCadastro,
		&c.TotalVisitas, &c.PontosTotais)
	if err != nil {
		return nil, err
	}
	c.NivelAtual = points.TierFor(c.PontosTotais)
	return &c, nil
}

func (s *CustomerService) List(ctx context.Context, params customer.ListParams) ([]*customer.Customer, error) {
	builder := customerSelect().OrderBy("c.nome")

	if params.Busca != "" {
		like := "%" + params.Busca + "%"
		builder = builder.Where(sq.Or{
			sq.ILike{"c.nome": like},
			sq.Like{"c.cpf": like},
		})
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
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	defer rows.Close()

	customers := []*customer.Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

func (s *CustomerService) Get(ctx context.Context, id int64) (*customer.Customer, error) {
	query, args, err := customerSelect().Where(sq.Eq{"c.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	c, err := scanCustomer(s.db.QueryRow(ctx, query, args...))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperr.New(apperr.NotFound, "Cliente não encontrado")
		}
		return nil, fmt.Errorf("failed to load customer: %w", err)
	}
	return c, nil
}

func (s *CustomerService) GetByCPF(ctx context.Context, cpf string) (*customer.Customer, error) {
	query, args, err := customerSelect().Where(sq.Eq{"c.cpf": cpf}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	c, err := scanCustomer(s.db.QueryRow(ctx, query, args...))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperr.New(apperr.NotFound, "Cliente não encontrado")
		}
		return nil, fmt.Errorf("failed to load customer: %w", err)
	}
	return c, nil
}

func (s *CustomerService) Create(ctx context.Context, req *customer.CreateRequest) (*customer.Customer, error) {
	if req.CPF == "" || req.Nome == "" || req.Telefone == "" {
		return nil, apperr.New(apperr.Validation, "CPF, nome e telefone são obrigatórios")
	}
	if !validCPF(req.CPF) {
		return nil, apperr.New(apperr.Validation, "CPF deve ter 11 dígitos")
	}

	var c customer.Customer
	err := s.db.QueryRow(ctx,
		`INSERT INTO clientes (cpf, nome, telefone, email, sem_email)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, cpf, nome, telefone, email, sem_email, data_cadastro`,
		req.CPF, req.Nome, req.Telefone, req.Email, req.SemEmail,
	).Scan(&c.ID, &c.CPF, &c.Nome, &c.Telefone, &c.Email, &c.SemEmail, &c.DataCadastro)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.New(apperr.Conflict, "CPF já cadastrado")
		}
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}

	c.NivelAtual = points.TierFor(0)
	s.logger.Info("customer created", zap.Int64("id", c.ID))
	return &c, nil
}

func (s *CustomerService) Update(ctx context.Context, id int64, req *customer.UpdateRequest) (*customer.Customer, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var c customer.Customer
	err = tx.QueryRow(ctx,
		`SELECT id, cpf, nome, telefone, email, sem_email, data_cadastro
		 FROM clientes WHERE id = $1 FOR UPDATE`, id,
	).Scan(&c.ID, &c.CPF, &c.Nome, &c.Telefone, &c.Email, &c.SemEmail, &c.DataCadastro)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperr.New(apperr.NotFound, "Cliente não encontrado")
		}
		return nil, fmt.Errorf("failed to load customer: %w", err)
	}

	if req.Nome != nil {
		c.Nome = *req.Nome
	}
	if req.Telefone != nil {
		c.Telefone = *req.Telefone
	}
	if req.Email != nil {
		c.Email = req.Email
	}
	if req.SemEmail != nil {
		c.SemEmail = *req.SemEmail
	}

	_, err = tx.Exec(ctx,
		`UPDATE clientes SET nome = $1, telefone = $2, email = $3, sem_email = $4 WHERE id = $5`,
		c.Nome, c.Telefone, c.Email, c.SemEmail, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update customer: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return s.Get(ctx, id)
}

func (s *CustomerService) Delete(ctx context.Context, id int64) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var hasRedemptions bool
	err = tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM resgates WHERE cliente_id = $1)`, id).Scan(&hasRedemptions)
	if err != nil {
		return fmt.Errorf("failed to check redemptions: %w", err)
	}
	if hasRedemptions {
		return apperr.New(apperr.Conflict, "Cliente possui resgates e não pode ser removido")
	}

	if _, err := tx.Exec(ctx, `DELETE FROM pontos WHERE cliente_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete points: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM visitas WHERE cliente_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete visits: %w", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM clientes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete customer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.New(apperr.NotFound, "Cliente não encontrado")
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Info("customer deleted", zap.Int64("id", id))
	return nil
}
