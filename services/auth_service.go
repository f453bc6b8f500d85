package services

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"fidelidadeAPI/internal/apperr"
	"fidelidadeAPI/internal/staff"
)

type AuthService struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewAuthService(db *pgxpool.Pool, logger *zap.Logger) *AuthService {
	return &AuthService{db: db, logger: logger}
}

const userColumns = `id, login, nome, email, tipo, ativo, data_criacao, ultimo_login`

func scanUser(row pgx.Row) (*staff.User, error) {
	var u staff.User
	var tipo string
	err := row.Scan(&u.ID, &u.Login, &u.Nome, &u.Email, &tipo, &u.Ativo, &u.DataCriacao, &u.UltimoLogin)
	if err != nil {
		return nil, err
	}
	role, ok := staff.ParseRole(tipo)
	if !ok {
		role = staff.RoleOperator
	}
	u.Tipo = role
	return &u, nil
}

// Login verifies credentials for an active staff user and stamps
// ultimo_login. Inactive accounts fail exactly like wrong passwords.
func (s *AuthService) Login(ctx context.Context, login, senha string) (*staff.User, error) {
	if login == "" || senha == "" {
		return nil, apperr.New(apperr.Validation, "Login e senha são obrigatórios")
	}

	var senhaHash string
	row := s.db.QueryRow(ctx,
		`SELECT `+userColumns+`, senha_hash FROM usuarios WHERE login = $1 AND ativo = TRUE`, login)

	var u staff.User
	var tipo string
	err := row.Scan(&u.ID, &u.Login, &u.Nome, &u.Email, &tipo, &u.Ativo, &u.DataCriacao, &u.UltimoLogin, &senhaHash)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperr.New(apperr.Authentication, "Credenciais inválidas")
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(senhaHash), []byte(senha)); err != nil {
		return nil, apperr.New(apperr.Authentication, "Credenciais inválidas")
	}

	role, ok := staff.ParseRole(tipo)
	if !ok {
		role = staff.RoleOperator
	}
	u.Tipo = role

	now := time.Now().UTC()
	_, err = s.db.Exec(ctx, `UPDATE usuarios SET ultimo_login = $1 WHERE id = $2`, now, u.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to update last login: %w", err)
	}
	u.UltimoLogin = &now

	s.logger.Info("staff login", zap.String("login", u.Login))
	return &u, nil
}

// GetActiveUser loads a staff user for protected calls; missing or
// deactivated accounts are treated as not found.
func (s *AuthService) GetActiveUser(ctx context.Context, id int64) (*staff.User, error) {
	u, err := scanUser(s.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM usuarios WHERE id = $1`, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperr.New(apperr.NotFound, "Usuário não encontrado")
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if !u.Ativo {
		return nil, apperr.New(apperr.NotFound, "Usuário não encontrado")
	}
	return u, nil
}

// requireAdmin enforces that the acting user exists, is active and
// holds the Administrador role.
func (s *AuthService) requireAdmin(ctx context.Context, actorID int64) (*staff.User, error) {
	actor, err := s.GetActiveUser(ctx, actorID)
	if err != nil {
		if _, ok := apperr.KindOf(err); ok {
			return nil, apperr.New(apperr.Authentication, "Usuário não autenticado")
		}
		return nil, err
	}
	if !actor.Tipo.IsAdmin() {
		return nil, apperr.New(apperr.Authorization, "Acesso negado")
	}
	return actor, nil
}

func (s *AuthService) ListUsers(ctx context.Context, actorID int64) ([]*staff.User, error) {
	if _, err := s.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, `SELECT `+userColumns+` FROM usuarios ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []*staff.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *AuthService) CreateUser(ctx context.Context, actorID int64, req *staff.CreateUserRequest) (*staff.User, error) {
	if _, err := s.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}
	if req.Login == "" || req.Nome == "" || req.Senha == "" {
		return nil, apperr.New(apperr.Validation, "Login, nome e senha são obrigatórios")
	}

	role := staff.RoleOperator
	if req.Tipo != "" {
		parsed, ok := staff.ParseRole(req.Tipo)
		if !ok {
			return nil, apperr.Validationf("Tipo de usuário inválido: %s", req.Tipo)
		}
		role = parsed
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Senha), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM usuarios WHERE login = $1)`, req.Login).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to check login: %w", err)
	}
	if exists {
		return nil, apperr.New(apperr.Conflict, "Login já existe")
	}

	if req.Email != nil && *req.Email != "" {
		if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM usuarios WHERE email = $1)`, *req.Email).Scan(&exists); err != nil {
			return nil, fmt.Errorf("failed to check email: %w", err)
		}
		if exists {
			return nil, apperr.New(apperr.Conflict, "Email já existe")
		}
	}

	u, err := scanUser(tx.QueryRow(ctx,
		`INSERT INTO usuarios (login, nome, email, senha_hash, tipo, ativo)
		 VALUES ($1, $2, $3, $4, $5, TRUE)
		 RETURNING `+userColumns,
		req.Login, req.Nome, req.Email, string(hash), string(role)))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.New(apperr.Conflict, "Login já existe")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Info("staff user created", zap.String("login", u.Login), zap.String("tipo", string(u.Tipo)))
	return u, nil
}

func (s *AuthService) UpdateUser(ctx context.Context, actorID, userID int64, req *staff.UpdateUserRequest) (*staff.User, error) {
	if _, err := s.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	u, err := scanUser(tx.QueryRow(ctx,
		`SELECT `+userColumns+` FROM usuarios WHERE id = $1 FOR UPDATE`, userID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperr.New(apperr.NotFound, "Usuário não encontrado")
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if req.Nome != nil {
		u.Nome = *req.Nome
	}
	if req.Email != nil {
		if *req.Email != "" {
			var exists bool
			err := tx.QueryRow(ctx,
				`SELECT EXISTS(SELECT 1 FROM usuarios WHERE email = $1 AND id <> $2)`,
				*req.Email, userID).Scan(&exists)
			if err != nil {
				return nil, fmt.Errorf("failed to check email: %w", err)
			}
			if exists {
				return nil, apperr.New(apperr.Conflict, "Email já existe")
			}
		}
		u.Email = req.Email
	}
	if req.Tipo != nil {
		role, ok := staff.ParseRole(*req.Tipo)
		if !ok {
			return nil, apperr.Validationf("Tipo de usuário inválido: %s", *req.Tipo)
		}
		u.Tipo = role
	}
	if req.Ativo != nil {
		u.Ativo = *req.Ativo
	}

	if req.Senha != nil && *req.Senha != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Senha), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		if _, err := tx.Exec(ctx, `UPDATE usuarios SET senha_hash = $1 WHERE id = $2`, string(hash), userID); err != nil {
			return nil, fmt.Errorf("failed to update password: %w", err)
		}
	}

	_, err = tx.Exec(ctx,
		`UPDATE usuarios SET nome = $1, email = $2, tipo = $3, ativo = $4 WHERE id = $5`,
		u.Nome, u.Email, string(u.Tipo), u.Ativo, userID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.New(apperr.Conflict, "Email já existe")
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return u, nil
}

// DeleteUser removes a staff account. An admin cannot delete their
// own account.
func (s *AuthService) DeleteUser(ctx context.Context, actorID, userID int64) error {
	if _, err := s.requireAdmin(ctx, actorID); err != nil {
		return err
	}
	if actorID == userID {
		return apperr.New(apperr.Validation, "Não é possível deletar seu próprio usuário")
	}

	tag, err := s.db.Exec(ctx, `DELETE FROM usuarios WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.New(apperr.NotFound, "Usuário não encontrado")
	}

	s.logger.Info("staff user deleted", zap.Int64("id", userID), zap.Int64("actor", actorID))
	return nil
}
