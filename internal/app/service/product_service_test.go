package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/threadline/storefront-backend/internal/app/model"
	"github.com/threadline/storefront-backend/internal/app/repository"
)

func TestProductService_ListProducts(t *testing.T) {
	env := setupEnv(t)
	env.product(t, "a", 90000, nil)
	env.product(t, "b", 80000, int64Ptr(30000))
	hidden := env.product(t, "c", 50000, nil)
	require.NoError(t, env.db.Model(&model.Product{}).Where("id = ?", hidden.ID).
		UpdateColumn("is_active", false).Error)

	listings, total, err := env.products.ListProducts(ProductListOptions{
		Sort:          repository.ProductSortPrice,
		SortAscending: true,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, listings, 2)
	assert.Equal(t, "b", listings[0].Slug)
	assert.Equal(t, int64(30000), listings[0].PriceCents)
	assert.True(t, listings[0].OnSale)
	assert.Equal(t, "₹300", listings[0].PriceLabel)
}

func TestProductService_GetProductHidesInactive(t *testing.T) {
	env := setupEnv(t)
	p := env.product(t, "tee", 59900, nil)

	got, err := env.products.GetProductBySlug("TEE")
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	require.NoError(t, env.db.Model(&model.Product{}).Where("id = ?", p.ID).
		UpdateColumn("is_active", false).Error)
	_, err = env.products.GetProductByID(p.ID)
	assert.ErrorIs(t, err, ErrProductNotFound)
	_, err = env.products.GetProductByID(9999)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestProductService_QuotePrice(t *testing.T) {
	env := setupEnv(t)
	p := env.product(t, "tee", 59900, int64Ptr(49900),
		variant("Black", "M", nil, 4),
		variant("Red", "L", int64Ptr(54900), 0),
	)

	quote, err := env.products.QuotePrice(p.ID, "black", "m")
	require.NoError(t, err)
	assert.True(t, quote.VariantMatched)
	assert.Equal(t, int64(49900), quote.PriceCents)
	assert.True(t, quote.OnSale)
	assert.True(t, quote.InStock)
	assert.Equal(t, "Black.jpg", quote.Image)
	require.NotNil(t, quote.Inventory)
	assert.Equal(t, 4, *quote.Inventory)

	quote, err = env.products.QuotePrice(p.ID, "Red", "L")
	require.NoError(t, err)
	assert.Equal(t, int64(54900), quote.PriceCents)
	assert.False(t, quote.InStock)

	quote, err = env.products.QuotePrice(p.ID, "Green", "")
	require.NoError(t, err)
	assert.False(t, quote.VariantMatched)
	assert.Equal(t, int64(49900), quote.PriceCents)
	assert.Equal(t, "tee.jpg", quote.Image)
	assert.Nil(t, quote.VariantID)
}
