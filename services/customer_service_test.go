package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fidelidadeAPI/internal/apperr"
	"fidelidadeAPI/internal/customer"
	"fidelidadeAPI/internal/points"
)

func TestCreateCustomer(t *testing.T) {
	pool := testPool(t)
	svc := NewCustomerService(pool, testLogger())
	ctx := context.Background()

	c := seedCustomer(t, svc, "12345678901")
	assert.Equal(t, "12345678901", c.CPF)
	assert.Equal(t, 0, c.TotalVisitas)
	assert.Equal(t, int64(0), c.PontosTotais)
	assert.Equal(t, points.TierBronze, c.NivelAtual)

	t.Run("duplicate cpf", func(t *testing.T) {
		_, err := svc.Create(ctx, &customer.CreateRequest{
			CPF:      "12345678901",
			Nome:     "Outro Cliente",
			Telefone: "11988887777",
			SemEmail: true,
		})
		requireKind(t, err, apperr.Conflict)
	})

	t.Run("malformed cpf", func(t *testing.T) {
		for _, cpf := range []string{"", "123", "1234567890a", "123456789012"} {
			_, err := svc.Create(ctx, &customer.CreateRequest{
				CPF:      cpf,
				Nome:     "Cliente Inválido",
				Telefone: "11988887777",
				SemEmail: true,
			})
			requireKind(t, err, apperr.Validation)
		}
	})
}

func TestGetCustomerByCPF(t *testing.T) {
	pool := testPool(t)
	svc := NewCustomerService(pool, testLogger())
	ctx := context.Background()

	created := seedCustomer(t, svc, "98765432100")

	got, err := svc.GetByCPF(ctx, "98765432100")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = svc.GetByCPF(ctx, "00000000000")
	requireKind(t, err, apperr.NotFound)
}

func TestUpdateCustomer(t *testing.T) {
	pool := testPool(t)
	svc := NewCustomerService(pool, testLogger())
	ctx := context.Background()

	c := seedCustomer(t, svc, "11122233344")

	nome := "Nome Corrigido"
	email := "cliente@exemplo.com"
	semEmail := false
	got, err := svc.Update(ctx, c.ID, &customer.UpdateRequest{
		Nome:     &nome,
		Email:    &email,
		SemEmail: &semEmail,
	})
	require.NoError(t, err)
	assert.Equal(t, nome, got.Nome)
	require.NotNil(t, got.Email)
	assert.Equal(t, email, *got.Email)

	// CPF is immutable after creation.
	assert.Equal(t, "11122233344", got.CPF)
}

func TestCustomerDerivedTotals(t *testing.T) {
	pool := testPool(t)
	customerSvc := NewCustomerService(pool, testLogger())
	visitSvc := NewVisitService(pool, testLogger())
	ctx := context.Background()

	c := seedCustomer(t, customerSvc, "55566677788")
	seedVisits(t, visitSvc, c.ID, "Loja Centro", "300.00", 2)

	got, err := customerSvc.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.TotalVisitas)
	assert.Equal(t, int64(600), got.PontosTotais)
	assert.Equal(t, points.TierPrata, got.NivelAtual)
}

func TestListCustomersSearch(t *testing.T) {
	pool := testPool(t)
	svc := NewCustomerService(pool, testLogger())
	ctx := context.Background()

	a, err := svc.Create(ctx, &customer.CreateRequest{
		CPF: "10000000001", Nome: "Beatriz Souza", Telefone: "11911112222", SemEmail: true,
	})
	require.NoError(t, err)
	_, err = svc.Create(ctx, &customer.CreateRequest{
		CPF: "10000000002", Nome: "Carlos Lima", Telefone: "11933334444", SemEmail: true,
	})
	require.NoError(t, err)

	byName, err := svc.List(ctx, customer.ListParams{Busca: "beatriz", Page: 1, PerPage: 10})
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, a.ID, byName[0].ID)

	byCPF, err := svc.List(ctx, customer.ListParams{Busca: "10000000002", Page: 1, PerPage: 10})
	require.NoError(t, err)
	require.Len(t, byCPF, 1)
	assert.Equal(t, "Carlos Lima", byCPF[0].Nome)
}

func TestDeleteCustomerCascades(t *testing.T) {
	pool := testPool(t)
	customerSvc := NewCustomerService(pool, testLogger())
	visitSvc := NewVisitService(pool, testLogger())
	ctx := context.Background()

	c := seedCustomer(t, customerSvc, "31415926535")
	seedVisits(t, visitSvc, c.ID, "Loja Centro", "50.00", 1)

	require.NoError(t, customerSvc.Delete(ctx, c.ID))

	_, err := customerSvc.Get(ctx, c.ID)
	requireKind(t, err, apperr.NotFound)

	var visitas int
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM visitas WHERE cliente_id = $1`, c.ID).Scan(&visitas))
	assert.Equal(t, 0, visitas)
}
