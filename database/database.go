package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"fidelidadeAPI/internal/staff"
)

// Connect builds the shared pgx pool.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}

// Migrate creates all tables if they don't exist, in foreign-key
// order.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS usuarios (
			id BIGSERIAL PRIMARY KEY,
			login VARCHAR(50) UNIQUE NOT NULL,
			nome VARCHAR(100) NOT NULL,
			email VARCHAR(120) UNIQUE,
			senha_hash VARCHAR(255) NOT NULL,
			tipo VARCHAR(20) NOT NULL DEFAULT 'Operador',
			ativo BOOLEAN NOT NULL DEFAULT TRUE,
			data_criacao TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			ultimo_login TIMESTAMPTZ
		)`,
		`CREATE TABLE IF NOT EXISTS clientes (
			id BIGSERIAL PRIMARY KEY,
			cpf VARCHAR(11) UNIQUE NOT NULL,
			nome VARCHAR(100) NOT NULL,
			telefone VARCHAR(15) NOT NULL,
			email VARCHAR(120),
			sem_email BOOLEAN NOT NULL DEFAULT FALSE,
			data_cadastro TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS visitas (
			id BIGSERIAL PRIMARY KEY,
			cliente_id BIGINT NOT NULL REFERENCES clientes(id),
			data_visita TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			valor_compra NUMERIC(10,2) NOT NULL CHECK (valor_compra >= 0),
			loja VARCHAR(50) NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS pontos (
			id BIGSERIAL PRIMARY KEY,
			cliente_id BIGINT NOT NULL REFERENCES clientes(id),
			visita_id BIGINT REFERENCES visitas(id),
			pontos_acumulados BIGINT NOT NULL,
			data_atualizacao TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS campanhas (
			id BIGSERIAL PRIMARY KEY,
			nome VARCHAR(100) NOT NULL,
			loja VARCHAR(50) NOT NULL,
			data_inicio TIMESTAMPTZ NOT NULL,
			data_fim TIMESTAMPTZ NOT NULL,
			ativa BOOLEAN NOT NULL DEFAULT TRUE,
			threshold_visitas INTEGER NOT NULL DEFAULT 0,
			fator_pontuacao NUMERIC(3,2) NOT NULL,
			CHECK (data_inicio < data_fim)
		)`,
		`CREATE TABLE IF NOT EXISTS produtos (
			id BIGSERIAL PRIMARY KEY,
			sku VARCHAR(50) UNIQUE NOT NULL,
			nome VARCHAR(100) NOT NULL,
			descricao TEXT,
			url_imagem VARCHAR(255)
		)`,
		`CREATE TABLE IF NOT EXISTS brindes (
			id BIGSERIAL PRIMARY KEY,
			produto_id BIGINT NOT NULL REFERENCES produtos(id),
			campanha_id BIGINT NOT NULL REFERENCES campanhas(id),
			nivel VARCHAR(20) NOT NULL,
			quantidade_disponivel INTEGER NOT NULL CHECK (quantidade_disponivel >= 0)
		)`,
		`CREATE TABLE IF NOT EXISTS resgates (
			id BIGSERIAL PRIMARY KEY,
			cliente_id BIGINT NOT NULL REFERENCES clientes(id),
			brinde_id BIGINT NOT NULL REFERENCES brindes(id),
			data_resgate TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			status VARCHAR(20) NOT NULL DEFAULT 'Pendente',
			voucher_codigo VARCHAR(50) UNIQUE NOT NULL,
			data_entrega TIMESTAMPTZ
		)`,
		`CREATE INDEX IF NOT EXISTS idx_visitas_cliente ON visitas(cliente_id)`,
		`CREATE INDEX IF NOT EXISTS idx_visitas_loja ON visitas(loja)`,
		`CREATE INDEX IF NOT EXISTS idx_pontos_cliente ON pontos(cliente_id)`,
		`CREATE INDEX IF NOT EXISTS idx_resgates_cliente ON resgates(cliente_id)`,
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// SeedAdmin creates the default administrator account when no user
// with login "Admin" exists yet.
func SeedAdmin(ctx context.Context, pool *pgxpool.Pool, password string) error {
	var id int64
	err := pool.QueryRow(ctx, `SELECT id FROM usuarios WHERE login = 'Admin'`).Scan(&id)
	if err == nil {
		return nil
	}
	if err != pgx.ErrNoRows {
		return fmt.Errorf("failed to check for admin user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	_, err = pool.Exec(ctx,
		`INSERT INTO usuarios (login, nome, email, senha_hash, tipo, ativo)
		 VALUES ($1, $2, $3, $4, $5, TRUE)`,
		"Admin", "Administrador do Sistema", "admin@megaloja.com", string(hash), string(staff.RoleAdmin),
	)
	if err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}
	return nil
}
