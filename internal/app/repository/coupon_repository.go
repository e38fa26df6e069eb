package repository

import (
	"errors"
	"time"

	"github.com/threadline/storefront-backend/internal/app/model"
	"github.com/threadline/storefront-backend/internal/pricing"
	"github.com/threadline/storefront-backend/pkg/logger"
	"gorm.io/gorm"
)

type CouponRepository interface {
	Create(coupon *model.Coupon) error
	FindByCode(code string) (*model.Coupon, error)
	DeactivateExpired(now time.Time) (int64, error)
}

type couponRepository struct {
	db *gorm.DB
}

func NewCouponRepository(db *gorm.DB) CouponRepository {
	return &couponRepository{db: db}
}

func (r *couponRepository) Create(coupon *model.Coupon) error {
	logger.Debug("Creating coupon in database", map[string]interface{}{
		"code": coupon.Code,
		"type": coupon.DiscountType,
	})

	if err := r.db.Create(coupon).Error; err != nil {
		logger.Error("Failed to create coupon in database", err, map[string]interface{}{
			"code": coupon.Code,
		})
		return err
	}
	return nil
}

// FindByCode matches case-insensitively; codes are stored upper-case.
func (r *couponRepository) FindByCode(code string) (*model.Coupon, error) {
	code = pricing.NormalizeCouponCode(code)
	logger.Debug("Finding coupon by code in database", map[string]interface{}{
		"code": code,
	})

	var coupon model.Coupon
	if err := r.db.Where("code = ?", code).First(&coupon).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Debug("Coupon not found", map[string]interface{}{"code": code})
		} else {
			logger.Error("Failed to find coupon by code in database", err, map[string]interface{}{
				"code": code,
			})
		}
		return nil, err
	}
	return &coupon, nil
}

// DeactivateExpired flips is_active off for coupons whose window has closed.
func (r *couponRepository) DeactivateExpired(now time.Time) (int64, error) {
	res := r.db.Model(&model.Coupon{}).
		Where("is_active = ? AND valid_until IS NOT NULL AND valid_until < ?", true, now).
		UpdateColumn("is_active", false)
	if res.Error != nil {
		logger.Error("Failed to deactivate expired coupons", res.Error)
		return 0, res.Error
	}

	logger.Debug("Expired coupons deactivated", map[string]interface{}{
		"count": res.RowsAffected,
	})
	return res.RowsAffected, nil
}
