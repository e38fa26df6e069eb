package razorpay

import "errors"

var (
	// ErrInvalidRequest is returned when the request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrGatewayFailure is returned for any other non-2xx gateway response
	ErrGatewayFailure = errors.New("payment gateway failure")

	// ErrNetworkError is returned when there's a network communication error
	ErrNetworkError = errors.New("network error")

	// ErrUnauthorized is returned when the API key pair is rejected
	ErrUnauthorized = errors.New("unauthorized: invalid API key")

	// ErrOrderNotFound is returned when the gateway has no such order
	ErrOrderNotFound = errors.New("gateway order not found")

	// ErrInvalidSignature is returned when a checkout signature does not match
	ErrInvalidSignature = errors.New("invalid payment signature")
)
