package service

import (
	"errors"
	"time"

	"github.com/threadline/storefront-backend/internal/app/repository"
	"github.com/threadline/storefront-backend/internal/metrics"
	"github.com/threadline/storefront-backend/internal/pricing"
	"github.com/threadline/storefront-backend/pkg/logger"
	"gorm.io/gorm"
)

type CouponService interface {
	// ValidateCoupon evaluates code against a subtotal. Rejections are
	// reported in the result, not as errors.
	ValidateCoupon(code string, subtotalCents int64) (pricing.CouponResult, error)
	// FindCoupon returns nil without error for unknown codes.
	FindCoupon(code string) (*pricing.Coupon, error)
	DeactivateExpired() (int64, error)
}

type couponService struct {
	couponRepo repository.CouponRepository
	metrics    *metrics.StorefrontMetrics
	now        func() time.Time
}

func NewCouponService(couponRepo repository.CouponRepository, m *metrics.StorefrontMetrics) CouponService {
	return &couponService{
		couponRepo: couponRepo,
		metrics:    m,
		now:        time.Now,
	}
}

func (s *couponService) FindCoupon(code string) (*pricing.Coupon, error) {
	if pricing.NormalizeCouponCode(code) == "" {
		return nil, nil
	}
	stored, err := s.couponRepo.FindByCode(code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	c := stored.PricingCoupon()
	return &c, nil
}

func (s *couponService) ValidateCoupon(code string, subtotalCents int64) (pricing.CouponResult, error) {
	coupon, err := s.FindCoupon(code)
	if err != nil {
		logger.Error("Failed to load coupon", err, map[string]interface{}{
			"code": code,
		})
		return pricing.CouponResult{}, err
	}

	var result pricing.CouponResult
	if coupon == nil {
		result = pricing.RejectUnknownCoupon(code)
	} else {
		result = pricing.ValidateCoupon(*coupon, subtotalCents, s.now())
	}
	s.metrics.ObserveCoupon(result.Reason.String())

	logger.Info("Coupon evaluated", map[string]interface{}{
		"code":           result.Code,
		"subtotal_cents": subtotalCents,
		"result":         result.Reason.String(),
		"discount_cents": result.DiscountCents,
	})
	return result, nil
}

func (s *couponService) DeactivateExpired() (int64, error) {
	n, err := s.couponRepo.DeactivateExpired(s.now())
	if err != nil {
		logger.Error("Failed to deactivate expired coupons", err)
		return 0, err
	}
	if n > 0 {
		logger.Info("Expired coupons deactivated", map[string]interface{}{
			"count": n,
		})
	}
	return n, nil
}
