package errors

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrorInfo pairs a code with a message safe to show the shopper.
type ErrorInfo struct {
	Code    string
	Message string
}

// ParseError converts storage and network errors into an ErrorInfo without
// leaking driver detail. context names the operation ("get product",
// "create order") and shapes the fallback message.
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{
			Code:    InternalServerError,
			Message: "Something went wrong",
		}
	}

	errStrLower := strings.ToLower(err.Error())

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{
			Code:    notFoundCode(context),
			Message: getNotFoundMessage(context),
		}
	}

	// Postgres 23505 / sqlite UNIQUE
	if strings.Contains(errStrLower, "duplicate key") || strings.Contains(errStrLower, "unique constraint") {
		return parseDuplicateKeyError(errStrLower)
	}

	// Postgres 23503
	if strings.Contains(errStrLower, "foreign key constraint") {
		if strings.Contains(errStrLower, "still referenced") {
			return ErrorInfo{Code: ResourceConflict, Message: "This record is still in use and cannot be deleted"}
		}
		return ErrorInfo{Code: ResourceNotFound, Message: "A referenced record does not exist"}
	}

	// Postgres 23502
	if strings.Contains(errStrLower, "violates not-null constraint") || strings.Contains(errStrLower, "not null constraint") {
		return ErrorInfo{Code: ValidationRequired, Message: "A required field is missing"}
	}

	// Postgres 23514
	if strings.Contains(errStrLower, "check constraint") {
		return ErrorInfo{Code: ValidationInvalidInput, Message: "One of the values is not allowed"}
	}

	if strings.Contains(errStrLower, "connection refused") ||
		strings.Contains(errStrLower, "no such host") ||
		strings.Contains(errStrLower, "timeout") {
		return ErrorInfo{
			Code:    InternalExternalAPI,
			Message: "A downstream service is unavailable. Please try again shortly",
		}
	}

	return ErrorInfo{
		Code:    InternalServerError,
		Message: getDefaultErrorMessage(context),
	}
}

func parseDuplicateKeyError(errLower string) ErrorInfo {
	switch {
	case strings.Contains(errLower, "slug"):
		return ErrorInfo{Code: ResourceAlreadyExists, Message: "A product with this slug already exists"}
	case strings.Contains(errLower, "code"):
		return ErrorInfo{Code: ResourceAlreadyExists, Message: "A coupon with this code already exists"}
	case strings.Contains(errLower, "order_number"):
		return ErrorInfo{Code: ResourceAlreadyExists, Message: "Order number collision, please retry"}
	case strings.Contains(errLower, "gateway_order_id"):
		return ErrorInfo{Code: ResourceAlreadyExists, Message: "This payment has already been recorded"}
	}
	return ErrorInfo{Code: ResourceAlreadyExists, Message: "This record already exists"}
}

func notFoundCode(context string) string {
	c := strings.ToLower(context)
	switch {
	case strings.Contains(c, "combo"):
		return ComboNotFound
	case strings.Contains(c, "product"):
		return ProductNotFound
	case strings.Contains(c, "order"):
		return OrderNotFound
	case strings.Contains(c, "address"):
		return AddressNotFound
	case strings.Contains(c, "coupon"):
		return CouponInvalidCode
	}
	return ResourceNotFound
}

func getNotFoundMessage(context string) string {
	c := strings.ToLower(context)
	switch {
	case strings.Contains(c, "combo"):
		return "Combo not found"
	case strings.Contains(c, "product"):
		return "Product not found"
	case strings.Contains(c, "order"):
		return "Order not found"
	case strings.Contains(c, "address"):
		return "Address not found"
	case strings.Contains(c, "coupon"):
		return "This coupon code is not valid"
	}
	return "The requested resource was not found"
}

func getDefaultErrorMessage(context string) string {
	c := strings.ToLower(context)
	switch {
	case strings.Contains(c, "create"):
		return "Could not save your request. Please try again shortly"
	case strings.Contains(c, "update"):
		return "Could not update. Please try again shortly"
	case strings.Contains(c, "delete"):
		return "Could not delete. Please try again shortly"
	}
	return "Something went wrong. Please try again shortly"
}

// ParseAndRespond parses err and writes it as an ErrorResponse.
func ParseAndRespond(c interface{ JSON(int, interface{}) }, statusCode int, err error, context string) {
	errorInfo := ParseError(err, context)
	c.JSON(statusCode, ErrorResponse{
		Error:   errorInfo.Code,
		Message: errorInfo.Message,
	})
}
