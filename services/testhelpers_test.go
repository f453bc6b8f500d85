package services

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"fidelidadeAPI/database"
	"fidelidadeAPI/internal/campaign"
	"fidelidadeAPI/internal/customer"
	"fidelidadeAPI/internal/reward"
	"fidelidadeAPI/internal/visit"
)

// testPool connects to the database named by TEST_DATABASE_URL, runs
// the migrations and wipes all rows so every test starts from an
// empty schema. Tests that need a database are skipped when the
// variable is unset.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping database tests")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	require.NoError(t, err)
	require.NoError(t, pool.Ping(ctx))
	require.NoError(t, database.Migrate(ctx, pool))

	_, err = pool.Exec(ctx,
		`TRUNCATE resgates, pontos, visitas, brindes, produtos, campanhas, clientes, usuarios RESTART IDENTITY CASCADE`)
	require.NoError(t, err)

	t.Cleanup(pool.Close)
	return pool
}

func testLogger() *zap.Logger {
	return zap.NewNop()
}

const testPassword = "Senha@123"

// seedStaff inserts a staff user directly and returns its id.
func seedStaff(t *testing.T, pool *pgxpool.Pool, login, tipo string) int64 {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.DefaultCost)
	require.NoError(t, err)

	var id int64
	email := login + "@megaloja.com"
	err = pool.QueryRow(context.Background(),
		`INSERT INTO usuarios (login, nome, email, senha_hash, tipo, ativo)
		 VALUES ($1, $2, $3, $4, $5, TRUE) RETURNING id`,
		login, "Usuário "+login, email, string(hash), tipo,
	).Scan(&id)
	require.NoError(t, err)
	return id
}

func seedCustomer(t *testing.T, svc *CustomerService, cpf string) *customer.Customer {
	t.Helper()

	c, err := svc.Create(context.Background(), &customer.CreateRequest{
		CPF:      cpf,
		Nome:     "Cliente " + cpf[:3],
		Telefone: "11999990000",
		SemEmail: true,
	})
	require.NoError(t, err)
	return c
}

// seedVisits records n visits for the customer, each worth the given
// amount at the given store.
func seedVisits(t *testing.T, svc *VisitService, clienteID int64, loja string, valor string, n int) {
	t.Helper()

	amount, err := decimal.NewFromString(valor)
	require.NoError(t, err)

	for i := 0; i < n; i++ {
		_, err := svc.Create(context.Background(), &visit.CreateRequest{
			ClienteID:   clienteID,
			ValorCompra: amount,
			Loja:        loja,
		})
		require.NoError(t, err)
	}
}

// seedCampaign creates a campaign whose window surrounds time.Now.
func seedCampaign(t *testing.T, svc *CampaignService, loja string, threshold int, fator string) *campaign.Campaign {
	t.Helper()

	f, err := decimal.NewFromString(fator)
	require.NoError(t, err)

	now := time.Now().UTC()
	c, err := svc.Create(context.Background(), &campaign.CreateRequest{
		Nome:             fmt.Sprintf("Campanha %s %s", loja, fator),
		Loja:             loja,
		DataInicio:       now.Add(-24 * time.Hour).Format(time.RFC3339),
		DataFim:          now.Add(24 * time.Hour).Format(time.RFC3339),
		ThresholdVisitas: threshold,
		FatorPontuacao:   f,
	})
	require.NoError(t, err)
	return c
}

func seedOffer(t *testing.T, svc *RewardService, sku string, campanhaID int64, nivel string, stock int) *reward.Offer {
	t.Helper()

	p, err := svc.CreateProduct(context.Background(), &reward.CreateProductRequest{
		SKU:  sku,
		Nome: "Produto " + sku,
	})
	require.NoError(t, err)

	o, err := svc.CreateOffer(context.Background(), &reward.CreateOfferRequest{
		ProdutoID:            p.ID,
		CampanhaID:           campanhaID,
		Nivel:                nivel,
		QuantidadeDisponivel: stock,
	})
	require.NoError(t, err)
	return o
}
