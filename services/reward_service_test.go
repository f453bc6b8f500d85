package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fidelidadeAPI/internal/apperr"
	"fidelidadeAPI/internal/points"
	"fidelidadeAPI/internal/reward"
)

func TestCreateProduct(t *testing.T) {
	pool := testPool(t)
	svc := NewRewardService(pool, testLogger())
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, &reward.CreateProductRequest{
		SKU:  "CANECA-01",
		Nome: "Caneca Personalizada",
	})
	require.NoError(t, err)
	assert.Equal(t, "CANECA-01", p.SKU)

	t.Run("duplicate sku", func(t *testing.T) {
		_, err := svc.CreateProduct(ctx, &reward.CreateProductRequest{
			SKU:  "CANECA-01",
			Nome: "Outra Caneca",
		})
		requireKind(t, err, apperr.Conflict)
	})

	t.Run("missing fields", func(t *testing.T) {
		_, err := svc.CreateProduct(ctx, &reward.CreateProductRequest{SKU: "X"})
		requireKind(t, err, apperr.Validation)
	})
}

func TestCreateOffer(t *testing.T) {
	pool := testPool(t)
	campaignSvc := NewCampaignService(pool, testLogger())
	rewardSvc := NewRewardService(pool, testLogger())
	ctx := context.Background()

	camp := seedCampaign(t, campaignSvc, "Loja Centro", 0, "1.0")
	p, err := rewardSvc.CreateProduct(ctx, &reward.CreateProductRequest{
		SKU:  "BONE-01",
		Nome: "Boné",
	})
	require.NoError(t, err)

	t.Run("success", func(t *testing.T) {
		o, err := rewardSvc.CreateOffer(ctx, &reward.CreateOfferRequest{
			ProdutoID:            p.ID,
			CampanhaID:           camp.ID,
			Nivel:                "Prata",
			QuantidadeDisponivel: 10,
		})
		require.NoError(t, err)
		assert.Equal(t, points.TierPrata, o.Nivel)
		assert.Equal(t, 10, o.QuantidadeDisponivel)
	})

	t.Run("unknown product", func(t *testing.T) {
		_, err := rewardSvc.CreateOffer(ctx, &reward.CreateOfferRequest{
			ProdutoID:  99999,
			CampanhaID: camp.ID,
			Nivel:      "Bronze",
		})
		requireKind(t, err, apperr.NotFound)
	})

	t.Run("unknown campaign", func(t *testing.T) {
		_, err := rewardSvc.CreateOffer(ctx, &reward.CreateOfferRequest{
			ProdutoID:  p.ID,
			CampanhaID: 99999,
			Nivel:      "Bronze",
		})
		requireKind(t, err, apperr.NotFound)
	})

	t.Run("invalid tier", func(t *testing.T) {
		_, err := rewardSvc.CreateOffer(ctx, &reward.CreateOfferRequest{
			ProdutoID:  p.ID,
			CampanhaID: camp.ID,
			Nivel:      "Platina",
		})
		requireKind(t, err, apperr.Validation)
	})

	t.Run("negative stock", func(t *testing.T) {
		_, err := rewardSvc.CreateOffer(ctx, &reward.CreateOfferRequest{
			ProdutoID:            p.ID,
			CampanhaID:           camp.ID,
			Nivel:                "Bronze",
			QuantidadeDisponivel: -1,
		})
		requireKind(t, err, apperr.Validation)
	})
}

func TestUpdateOfferStock(t *testing.T) {
	pool := testPool(t)
	campaignSvc := NewCampaignService(pool, testLogger())
	rewardSvc := NewRewardService(pool, testLogger())
	ctx := context.Background()

	camp := seedCampaign(t, campaignSvc, "Loja Centro", 0, "1.0")
	o := seedOffer(t, rewardSvc, "SKU-200", camp.ID, "Bronze", 5)

	qty := 12
	nivel := "Ouro"
	got, err := rewardSvc.UpdateOffer(ctx, o.ID, &reward.UpdateOfferRequest{
		QuantidadeDisponivel: &qty,
		Nivel:                &nivel,
	})
	require.NoError(t, err)
	assert.Equal(t, 12, got.QuantidadeDisponivel)
	assert.Equal(t, points.TierOuro, got.Nivel)

	bad := -3
	_, err = rewardSvc.UpdateOffer(ctx, o.ID, &reward.UpdateOfferRequest{QuantidadeDisponivel: &bad})
	requireKind(t, err, apperr.Validation)
}

func TestListOffersRejectsCorruptTier(t *testing.T) {
	pool := testPool(t)
	campaignSvc := NewCampaignService(pool, testLogger())
	rewardSvc := NewRewardService(pool, testLogger())
	ctx := context.Background()

	camp := seedCampaign(t, campaignSvc, "Loja Centro", 0, "1.0")
	o := seedOffer(t, rewardSvc, "SKU-203", camp.ID, "Bronze", 1)

	_, err := pool.Exec(ctx, `UPDATE brindes SET nivel = 'Diamante' WHERE id = $1`, o.ID)
	require.NoError(t, err)

	_, err = rewardSvc.ListOffers(ctx, camp.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Diamante")
}

func TestListOffersByCampaign(t *testing.T) {
	pool := testPool(t)
	campaignSvc := NewCampaignService(pool, testLogger())
	rewardSvc := NewRewardService(pool, testLogger())
	ctx := context.Background()

	campA := seedCampaign(t, campaignSvc, "Loja Centro", 0, "1.0")
	campB := seedCampaign(t, campaignSvc, "Loja Norte", 0, "1.0")
	seedOffer(t, rewardSvc, "SKU-201", campA.ID, "Bronze", 1)
	seedOffer(t, rewardSvc, "SKU-202", campB.ID, "Bronze", 1)

	got, err := rewardSvc.ListOffers(ctx, campA.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, campA.ID, got[0].CampanhaID)

	all, err := rewardSvc.ListOffers(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
