package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/threadline/storefront-backend/internal/app/service"
	apperrors "github.com/threadline/storefront-backend/internal/errors"
	"github.com/threadline/storefront-backend/internal/middleware"
	"github.com/threadline/storefront-backend/internal/pricing"
)

type errorMapping struct {
	target error
	status int
	code   string
}

// serviceErrors maps service and pricing sentinels to HTTP responses. The
// error's own text is the message.
var serviceErrors = []errorMapping{
	{service.ErrProductNotFound, http.StatusNotFound, apperrors.ProductNotFound},
	{service.ErrVariantNotFound, http.StatusNotFound, apperrors.ProductVariantNotFound},
	{service.ErrOutOfStock, http.StatusUnprocessableEntity, apperrors.ProductOutOfStock},
	{service.ErrComboNotFound, http.StatusNotFound, apperrors.ComboNotFound},
	{service.ErrInvalidQuantity, http.StatusBadRequest, apperrors.ValidationInvalidRange},
	{service.ErrCartItemNotFound, http.StatusNotFound, apperrors.CartItemNotFound},
	{service.ErrCartEmpty, http.StatusUnprocessableEntity, apperrors.CartEmpty},
	{service.ErrCartConflict, http.StatusConflict, apperrors.CartConflict},
	{service.ErrCartUnavailable, http.StatusUnprocessableEntity, apperrors.CartUnavailable},
	{service.ErrAddressNotFound, http.StatusNotFound, apperrors.AddressNotFound},
	{service.ErrOrderNotFound, http.StatusNotFound, apperrors.OrderNotFound},
	{service.ErrInvalidStatusTransition, http.StatusConflict, apperrors.OrderInvalidTransition},
	{service.ErrPaymentNotFound, http.StatusNotFound, apperrors.PaymentNotFound},
	{service.ErrPaymentVerificationFailed, http.StatusPaymentRequired, apperrors.PaymentVerificationFailed},
	{service.ErrPaymentNotRequired, http.StatusUnprocessableEntity, apperrors.PaymentNotRequired},
	{service.ErrPaymentClosed, http.StatusConflict, apperrors.PaymentClosed},
	{service.ErrPaymentAmountMismatch, http.StatusPaymentRequired, apperrors.PaymentAmountMismatch},
	{pricing.ErrComboIncomplete, http.StatusUnprocessableEntity, apperrors.ComboIncomplete},
	{pricing.ErrComboOverfilled, http.StatusUnprocessableEntity, apperrors.ComboOverfilled},
	{pricing.ErrComboSizeRequired, http.StatusUnprocessableEntity, apperrors.ComboSizeRequired},
	{pricing.ErrComboSizeUnavailable, http.StatusUnprocessableEntity, apperrors.ComboSizeUnavailable},
	{pricing.ErrUnknownComboItem, http.StatusBadRequest, apperrors.ComboUnknownItem},
	{pricing.ErrDuplicateComboItem, http.StatusBadRequest, apperrors.ComboDuplicateItem},
}

var couponCodes = map[pricing.CouponReason]string{
	pricing.CouponInvalidCode:       apperrors.CouponInvalidCode,
	pricing.CouponNotYetValid:       apperrors.CouponNotYetValid,
	pricing.CouponExpired:           apperrors.CouponExpired,
	pricing.CouponMinimumNotMet:     apperrors.CouponMinimumNotMet,
	pricing.CouponUsageLimitReached: apperrors.CouponUsageLimitReached,
}

// CouponErrorCode is the API error code for a rejected coupon.
func CouponErrorCode(reason pricing.CouponReason) string {
	if code, ok := couponCodes[reason]; ok {
		return code
	}
	return apperrors.CouponInvalidCode
}

// respondError writes err as an ErrorResponse. Unknown errors are logged and
// reported as 500, except gateway failures which are 502.
func respondError(c *gin.Context, err error, context string) {
	var couponErr *service.CouponError
	if errors.As(err, &couponErr) {
		apperrors.Unprocessable(c, CouponErrorCode(couponErr.Result.Reason), couponErr.Result.Message)
		return
	}

	for _, m := range serviceErrors {
		if errors.Is(err, m.target) {
			apperrors.RespondWithError(c, m.status, m.code, m.target.Error())
			return
		}
	}

	log := middleware.GetLoggerFromContext(c)
	if errors.Is(err, service.ErrPaymentGateway) {
		log.Error("Payment gateway call failed", err, map[string]interface{}{
			"operation": context,
		})
		apperrors.RespondWithError(c, http.StatusBadGateway, apperrors.PaymentGatewayError,
			"The payment provider is unavailable. Please try again shortly")
		return
	}

	log.Error("Request failed", err, map[string]interface{}{
		"operation": context,
	})
	apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, context)
}

// requireUser returns the authenticated user id or writes a 401.
func requireUser(c *gin.Context) (string, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok || userID == "" {
		apperrors.Unauthorized(c, "")
		return "", false
	}
	return userID, true
}

// uintParam parses a positive numeric path parameter or writes a 400.
func uintParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// bindJSON binds the body and writes a field-level 400 on failure.
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		middleware.GetLoggerFromContext(c).Warn("Invalid request body", map[string]interface{}{
			"error": err.Error(),
		})
		if fields := validationFields(err); len(fields) > 0 {
			apperrors.RespondWithValidationError(c, fields)
			return false
		}
		apperrors.BadRequest(c, apperrors.ValidationInvalidFormat, "Request body is not valid JSON")
		return false
	}
	return true
}
