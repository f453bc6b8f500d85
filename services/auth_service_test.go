package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fidelidadeAPI/internal/apperr"
	"fidelidadeAPI/internal/staff"
)

func requireKind(t *testing.T, err error, want apperr.Kind) {
	t.Helper()
	require.Error(t, err)
	kind, ok := apperr.KindOf(err)
	require.True(t, ok, "error has no kind: %v", err)
	assert.Equal(t, want, kind, "err=%v", err)
}

func TestLogin(t *testing.T) {
	pool := testPool(t)
	svc := NewAuthService(pool, testLogger())
	ctx := context.Background()

	seedStaff(t, pool, "maria", "Operador")

	t.Run("success", func(t *testing.T) {
		u, err := svc.Login(ctx, "maria", testPassword)
		require.NoError(t, err)
		assert.Equal(t, "maria", u.Login)
		assert.Equal(t, staff.RoleOperator, u.Tipo)
		assert.NotNil(t, u.UltimoLogin)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, "maria", "errada")
		requireKind(t, err, apperr.Authentication)
	})

	t.Run("unknown login", func(t *testing.T) {
		_, err := svc.Login(ctx, "ninguem", testPassword)
		requireKind(t, err, apperr.Authentication)
	})

	t.Run("missing fields", func(t *testing.T) {
		_, err := svc.Login(ctx, "", "")
		requireKind(t, err, apperr.Validation)
	})
}

func TestLoginInactiveUser(t *testing.T) {
	pool := testPool(t)
	svc := NewAuthService(pool, testLogger())
	ctx := context.Background()

	id := seedStaff(t, pool, "jose", "Operador")
	_, err := pool.Exec(ctx, `UPDATE usuarios SET ativo = FALSE WHERE id = $1`, id)
	require.NoError(t, err)

	_, err = svc.Login(ctx, "jose", testPassword)
	requireKind(t, err, apperr.Authentication)
}

func TestCreateUserRequiresAdmin(t *testing.T) {
	pool := testPool(t)
	svc := NewAuthService(pool, testLogger())
	ctx := context.Background()

	adminID := seedStaff(t, pool, "admin", "Administrador")
	operatorID := seedStaff(t, pool, "operador", "Operador")

	req := &staff.CreateUserRequest{
		Login: "novo",
		Nome:  "Novo Usuário",
		Senha: "OutraSenha@1",
		Tipo:  "Visualizador",
	}

	_, err := svc.CreateUser(ctx, operatorID, req)
	requireKind(t, err, apperr.Authorization)

	u, err := svc.CreateUser(ctx, adminID, req)
	require.NoError(t, err)
	assert.Equal(t, staff.RoleViewer, u.Tipo)
	assert.True(t, u.Ativo)
}

func TestCreateUserDuplicateLogin(t *testing.T) {
	pool := testPool(t)
	svc := NewAuthService(pool, testLogger())
	ctx := context.Background()

	adminID := seedStaff(t, pool, "admin", "Administrador")
	seedStaff(t, pool, "ana", "Operador")

	_, err := svc.CreateUser(ctx, adminID, &staff.CreateUserRequest{
		Login: "ana",
		Nome:  "Outra Ana",
		Senha: "OutraSenha@1",
	})
	requireKind(t, err, apperr.Conflict)
}

func TestUpdateUserRole(t *testing.T) {
	pool := testPool(t)
	svc := NewAuthService(pool, testLogger())
	ctx := context.Background()

	adminID := seedStaff(t, pool, "admin", "Administrador")
	targetID := seedStaff(t, pool, "carlos", "Visualizador")

	tipo := "Operador"
	u, err := svc.UpdateUser(ctx, adminID, targetID, &staff.UpdateUserRequest{Tipo: &tipo})
	require.NoError(t, err)
	assert.Equal(t, staff.RoleOperator, u.Tipo)
}

func TestDeleteUser(t *testing.T) {
	pool := testPool(t)
	svc := NewAuthService(pool, testLogger())
	ctx := context.Background()

	adminID := seedStaff(t, pool, "admin", "Administrador")
	targetID := seedStaff(t, pool, "temp", "Visualizador")

	t.Run("cannot delete self", func(t *testing.T) {
		err := svc.DeleteUser(ctx, adminID, adminID)
		requireKind(t, err, apperr.Validation)
	})

	t.Run("admin deletes another user", func(t *testing.T) {
		require.NoError(t, svc.DeleteUser(ctx, adminID, targetID))

		_, err := svc.GetActiveUser(ctx, targetID)
		requireKind(t, err, apperr.NotFound)
	})
}
