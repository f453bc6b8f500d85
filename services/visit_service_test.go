package services

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fidelidadeAPI/internal/apperr"
	"fidelidadeAPI/internal/visit"
)

func TestCreateVisitAccruesBasePoints(t *testing.T) {
	pool := testPool(t)
	customerSvc := NewCustomerService(pool, testLogger())
	visitSvc := NewVisitService(pool, testLogger())
	ctx := context.Background()

	c := seedCustomer(t, customerSvc, "20000000001")

	v, err := visitSvc.Create(ctx, &visit.CreateRequest{
		ClienteID:   c.ID,
		ValorCompra: decimal.RequireFromString("150.75"),
		Loja:        "Loja Centro",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(150), v.PontosGerados)

	entries, err := visitSvc.Ledger(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(150), entries[0].Pontos)
	require.NotNil(t, entries[0].VisitaID)
	assert.Equal(t, v.ID, *entries[0].VisitaID)
}

func TestCreateVisitZeroAmount(t *testing.T) {
	pool := testPool(t)
	customerSvc := NewCustomerService(pool, testLogger())
	visitSvc := NewVisitService(pool, testLogger())
	ctx := context.Background()

	c := seedCustomer(t, customerSvc, "20000000002")

	v, err := visitSvc.Create(ctx, &visit.CreateRequest{
		ClienteID: c.ID,
		Loja:      "Loja Centro",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), v.PontosGerados)

	entries, err := visitSvc.Ledger(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(0), entries[0].Pontos)
}

func TestCreateVisitRejectsNegativeAmount(t *testing.T) {
	pool := testPool(t)
	customerSvc := NewCustomerService(pool, testLogger())
	visitSvc := NewVisitService(pool, testLogger())
	ctx := context.Background()

	c := seedCustomer(t, customerSvc, "20000000003")

	_, err := visitSvc.Create(ctx, &visit.CreateRequest{
		ClienteID:   c.ID,
		ValorCompra: decimal.RequireFromString("-1.00"),
		Loja:        "Loja Centro",
	})
	requireKind(t, err, apperr.Validation)
}

func TestCreateVisitUnknownCustomer(t *testing.T) {
	pool := testPool(t)
	visitSvc := NewVisitService(pool, testLogger())

	_, err := visitSvc.Create(context.Background(), &visit.CreateRequest{
		ClienteID:   99999,
		ValorCompra: decimal.RequireFromString("10.00"),
		Loja:        "Loja Centro",
	})
	requireKind(t, err, apperr.NotFound)
}

func TestCreateVisitAppliesCampaignMultiplier(t *testing.T) {
	pool := testPool(t)
	customerSvc := NewCustomerService(pool, testLogger())
	visitSvc := NewVisitService(pool, testLogger())
	campaignSvc := NewCampaignService(pool, testLogger())
	ctx := context.Background()

	c := seedCustomer(t, customerSvc, "20000000004")
	seedCampaign(t, campaignSvc, "Loja Centro", 2, "2.0")

	// First visit is below the threshold, base points only.
	v1, err := visitSvc.Create(ctx, &visit.CreateRequest{
		ClienteID:   c.ID,
		ValorCompra: decimal.RequireFromString("100.00"),
		Loja:        "Loja Centro",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(100), v1.PontosGerados)

	// Second visit reaches the threshold, multiplier applies.
	v2, err := visitSvc.Create(ctx, &visit.CreateRequest{
		ClienteID:   c.ID,
		ValorCompra: decimal.RequireFromString("100.00"),
		Loja:        "Loja Centro",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(200), v2.PontosGerados)
}

func TestCreateVisitOtherStoreIgnoresCampaign(t *testing.T) {
	pool := testPool(t)
	customerSvc := NewCustomerService(pool, testLogger())
	visitSvc := NewVisitService(pool, testLogger())
	campaignSvc := NewCampaignService(pool, testLogger())
	ctx := context.Background()

	c := seedCustomer(t, customerSvc, "20000000005")
	seedCampaign(t, campaignSvc, "Loja Centro", 0, "3.0")

	v, err := visitSvc.Create(ctx, &visit.CreateRequest{
		ClienteID:   c.ID,
		ValorCompra: decimal.RequireFromString("100.00"),
		Loja:        "Loja Norte",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(100), v.PontosGerados)
}

func TestCreateVisitOverlappingCampaignsPicksHighestFactor(t *testing.T) {
	pool := testPool(t)
	customerSvc := NewCustomerService(pool, testLogger())
	visitSvc := NewVisitService(pool, testLogger())
	campaignSvc := NewCampaignService(pool, testLogger())
	ctx := context.Background()

	c := seedCustomer(t, customerSvc, "20000000006")
	seedCampaign(t, campaignSvc, "Loja Centro", 0, "1.5")
	seedCampaign(t, campaignSvc, "Loja Centro", 0, "2.5")

	v, err := visitSvc.Create(ctx, &visit.CreateRequest{
		ClienteID:   c.ID,
		ValorCompra: decimal.RequireFromString("100.00"),
		Loja:        "Loja Centro",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(250), v.PontosGerados)
}

func TestUpdateVisitOnlyChangesStore(t *testing.T) {
	pool := testPool(t)
	customerSvc := NewCustomerService(pool, testLogger())
	visitSvc := NewVisitService(pool, testLogger())
	ctx := context.Background()

	c := seedCustomer(t, customerSvc, "20000000007")

	v, err := visitSvc.Create(ctx, &visit.CreateRequest{
		ClienteID:   c.ID,
		ValorCompra: decimal.RequireFromString("80.00"),
		Loja:        "Loja Centro",
	})
	require.NoError(t, err)

	loja := "Loja Norte"
	got, err := visitSvc.Update(ctx, v.ID, &visit.UpdateRequest{Loja: &loja})
	require.NoError(t, err)
	assert.Equal(t, "Loja Norte", got.Loja)
	assert.True(t, got.ValorCompra.Equal(v.ValorCompra))
	assert.Equal(t, v.PontosGerados, got.PontosGerados)
}

func TestDeleteVisitRemovesLedgerEntry(t *testing.T) {
	pool := testPool(t)
	customerSvc := NewCustomerService(pool, testLogger())
	visitSvc := NewVisitService(pool, testLogger())
	ctx := context.Background()

	c := seedCustomer(t, customerSvc, "20000000008")

	v, err := visitSvc.Create(ctx, &visit.CreateRequest{
		ClienteID:   c.ID,
		ValorCompra: decimal.RequireFromString("120.00"),
		Loja:        "Loja Centro",
	})
	require.NoError(t, err)

	require.NoError(t, visitSvc.Delete(ctx, v.ID))

	entries, err := visitSvc.Ledger(ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)

	got, err := customerSvc.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.PontosTotais)
}
