package errors

// Error codes returned in ErrorResponse.Error.
// Format: CATEGORY_SPECIFIC_DETAIL. Clients map these to copy.

const (
	// ==================== AUTH_ ====================
	AuthUnauthorized = "AUTH_UNAUTHORIZED"
	AuthTokenExpired = "AUTH_TOKEN_EXPIRED"
	AuthTokenInvalid = "AUTH_TOKEN_INVALID"

	// ==================== AUTHZ_ ====================
	AuthzForbidden    = "AUTHZ_FORBIDDEN"
	AuthzAdminOnly    = "AUTHZ_ADMIN_ONLY"
	AuthzRoleNotFound = "AUTHZ_ROLE_NOT_FOUND"

	// ==================== VALIDATION_ ====================
	ValidationInvalidInput  = "VALIDATION_INVALID_INPUT"
	ValidationInvalidID     = "VALIDATION_INVALID_ID"
	ValidationInvalidFormat = "VALIDATION_INVALID_FORMAT"
	ValidationInvalidRange  = "VALIDATION_INVALID_RANGE"
	ValidationRequired      = "VALIDATION_REQUIRED"

	// ==================== RESOURCE_ ====================
	ResourceNotFound      = "RESOURCE_NOT_FOUND"
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS"
	ResourceConflict      = "RESOURCE_CONFLICT"

	// ==================== PRODUCT_ ====================
	ProductNotFound        = "PRODUCT_NOT_FOUND"
	ProductVariantNotFound = "PRODUCT_VARIANT_NOT_FOUND"
	ProductOutOfStock      = "PRODUCT_OUT_OF_STOCK"
	ProductInvalidSale     = "PRODUCT_INVALID_SALE_PRICE"

	// ==================== COUPON_ ====================
	CouponInvalidCode       = "COUPON_INVALID_CODE"
	CouponNotYetValid       = "COUPON_NOT_YET_VALID"
	CouponExpired           = "COUPON_EXPIRED"
	CouponMinimumNotMet     = "COUPON_MINIMUM_NOT_MET"
	CouponUsageLimitReached = "COUPON_USAGE_LIMIT_REACHED"

	// ==================== COMBO_ ====================
	ComboNotFound        = "COMBO_NOT_FOUND"
	ComboIncomplete      = "COMBO_INCOMPLETE"
	ComboOverfilled      = "COMBO_OVERFILLED"
	ComboSizeRequired    = "COMBO_SIZE_REQUIRED"
	ComboSizeUnavailable = "COMBO_SIZE_UNAVAILABLE"
	ComboUnknownItem     = "COMBO_UNKNOWN_ITEM"
	ComboDuplicateItem   = "COMBO_DUPLICATE_ITEM"

	// ==================== CART_ ====================
	CartItemNotFound = "CART_ITEM_NOT_FOUND"
	CartEmpty        = "CART_EMPTY"
	CartConflict     = "CART_VERSION_CONFLICT"
	CartUnavailable  = "CART_HAS_UNAVAILABLE_ITEMS"

	// ==================== PAYMENT_ ====================
	PaymentNotFound           = "PAYMENT_NOT_FOUND"
	PaymentVerificationFailed = "PAYMENT_VERIFICATION_FAILED"
	PaymentGatewayError       = "PAYMENT_GATEWAY_ERROR"
	PaymentNotRequired        = "PAYMENT_NOT_REQUIRED"
	PaymentClosed             = "PAYMENT_CLOSED"
	PaymentAmountMismatch     = "PAYMENT_AMOUNT_MISMATCH"

	// ==================== ORDER_ ====================
	OrderNotFound          = "ORDER_NOT_FOUND"
	OrderInvalidTransition = "ORDER_INVALID_STATUS_TRANSITION"

	// ==================== ADDRESS_ ====================
	AddressNotFound = "ADDRESS_NOT_FOUND"

	// ==================== INTERNAL_ ====================
	InternalServerError   = "INTERNAL_SERVER_ERROR"
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR"
	InternalExternalAPI   = "INTERNAL_EXTERNAL_API"
)
