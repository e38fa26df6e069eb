package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/threadline/storefront-backend/internal/app/service"
	apperrors "github.com/threadline/storefront-backend/internal/errors"
	"github.com/threadline/storefront-backend/internal/middleware"
)

type CouponController struct {
	couponService service.CouponService
}

func NewCouponController(couponService service.CouponService) *CouponController {
	return &CouponController{couponService: couponService}
}

type ValidateCouponRequest struct {
	Code          string `json:"code" binding:"required,coupon_code"`
	SubtotalCents int64  `json:"subtotal_cents" binding:"gte=0"`
}

// ValidateCoupon checks a code against a subtotal
// POST /api/v1/coupons/validate
func (ctrl *CouponController) ValidateCoupon(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req ValidateCouponRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := ctrl.couponService.ValidateCoupon(req.Code, req.SubtotalCents)
	if err != nil {
		respondError(c, err, "validate coupon")
		return
	}

	if !result.OK() {
		log.Info("Coupon rejected", map[string]interface{}{
			"code":   result.Code,
			"reason": result.Reason.String(),
		})
		apperrors.Unprocessable(c, CouponErrorCode(result.Reason), result.Message)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"coupon": service.NewCouponView(result),
	})
}
