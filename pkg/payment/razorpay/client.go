package razorpay

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/threadline/storefront-backend/pkg/logger"
)

// Client represents a Razorpay Orders API client
type Client struct {
	config     Config
	httpClient *http.Client
}

// NewClient creates a new Razorpay client with the given configuration
func NewClient(config Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// KeyID is handed to the browser checkout widget.
func (c *Client) KeyID() string {
	return c.config.KeyID
}

// CreateOrder registers an order of amount minor units with the gateway.
func (c *Client) CreateOrder(ctx context.Context, amount int64, currency, receipt string) (*Order, error) {
	if amount <= 0 || currency == "" || receipt == "" {
		return nil, ErrInvalidRequest
	}

	body, err := c.doRequest(ctx, http.MethodPost, "orders", CreateOrderRequest{
		Amount:   amount,
		Currency: currency,
		Receipt:  receipt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	var order Order
	if err := json.Unmarshal(body, &order); err != nil {
		return nil, fmt.Errorf("failed to unmarshal order response: %w", err)
	}
	return &order, nil
}

// FetchOrder returns the gateway's view of an order.
func (c *Client) FetchOrder(ctx context.Context, orderID string) (*Order, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "orders/"+orderID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch order: %w", err)
	}

	var order Order
	if err := json.Unmarshal(body, &order); err != nil {
		return nil, fmt.Errorf("failed to unmarshal order response: %w", err)
	}
	return &order, nil
}

// VerifySignature checks the checkout signature, which is the hex
// HMAC-SHA256 of "orderID|paymentID" keyed with the API secret.
func (c *Client) VerifySignature(orderID, paymentID, signature string) error {
	return VerifySignature(c.config.KeySecret, orderID, paymentID, signature)
}

func VerifySignature(secret, orderID, paymentID, signature string) error {
	expected := Sign(secret, orderID, paymentID)
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(signature))) {
		return ErrInvalidSignature
	}
	return nil
}

// Sign computes the checkout signature for an order/payment pair.
func Sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func (c *Client) doRequest(ctx context.Context, method, endpoint string, payload interface{}) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		reqBody, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(reqBody)
	}

	url := fmt.Sprintf("%s/%s", c.config.BaseURL, endpoint)
	logger.Debug("Razorpay request", map[string]interface{}{
		"method": method,
		"url":    url,
	})

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(c.config.KeyID, c.config.KeySecret)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return body, nil
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Err.Code == "" {
		return nil, fmt.Errorf("%w: unexpected status code %d", ErrGatewayFailure, resp.StatusCode)
	}

	logger.Warn("Razorpay API error", map[string]interface{}{
		"status":      resp.StatusCode,
		"code":        errResp.Err.Code,
		"description": errResp.Err.Description,
	})

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return nil, fmt.Errorf("%w: %s", ErrUnauthorized, errResp.Error())
	case http.StatusBadRequest:
		return nil, fmt.Errorf("%w: %s", ErrInvalidRequest, errResp.Error())
	case http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, errResp.Error())
	default:
		return nil, fmt.Errorf("%w: %s", ErrGatewayFailure, errResp.Error())
	}
}
