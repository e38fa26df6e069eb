package repository

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/threadline/storefront-backend/internal/app/model"
	"github.com/threadline/storefront-backend/internal/db"
	"github.com/threadline/storefront-backend/internal/pricing"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })
	return testDB
}

func int64Ptr(v int64) *int64 { return &v }
func intPtr(v int) *int       { return &v }

func createProduct(t *testing.T, testDB *gorm.DB, slug string, base int64, sale *int64, variants ...model.ProductVariant) *model.Product {
	t.Helper()
	p := &model.Product{
		Title:          "Product " + slug,
		BasePriceCents: base,
		SalePriceCents: sale,
		Category:       "shirts",
		Slug:           slug,
		Images:         []string{slug + ".jpg"},
		IsActive:       true,
		Variants:       variants,
	}
	require.NoError(t, testDB.Create(p).Error)
	return p
}

func createCoupon(t *testing.T, testDB *gorm.DB, code string, limit *int, used int) *model.Coupon {
	t.Helper()
	c := &model.Coupon{
		Code:          code,
		DiscountType:  pricing.DiscountPercentage,
		DiscountValue: decimal.NewFromInt(10),
		UsageLimit:    limit,
		UsedCount:     used,
		IsActive:      true,
		ValidFrom:     time.Now().Add(-time.Hour),
	}
	require.NoError(t, testDB.Create(c).Error)
	return c
}
