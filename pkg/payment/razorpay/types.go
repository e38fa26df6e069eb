package razorpay

import (
	"encoding/json"
	"fmt"
	"time"
)

// Order statuses reported by the gateway
const (
	OrderStatusCreated   = "created"
	OrderStatusAttempted = "attempted"
	OrderStatusPaid      = "paid"
)

// CreateOrderRequest represents the request body for POST /orders
type CreateOrderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

// Order represents a gateway order
type Order struct {
	ID         string            `json:"id"`
	Entity     string            `json:"entity"`
	Amount     int64             `json:"amount"`
	AmountPaid int64             `json:"amount_paid"`
	AmountDue  int64             `json:"amount_due"`
	Currency   string            `json:"currency"`
	Receipt    string            `json:"receipt"`
	Status     string            `json:"status"`
	Attempts   int               `json:"attempts"`
	Notes      map[string]string `json:"notes"`
	CreatedAt  time.Time         `json:"created_at"`
}

// UnmarshalJSON converts the unix created_at into a time.Time. Notes may be
// an empty JSON array when the order was created without notes.
func (o *Order) UnmarshalJSON(data []byte) error {
	type Alias Order
	aux := &struct {
		CreatedAt int64           `json:"created_at"`
		Notes     json.RawMessage `json:"notes"`
		*Alias
	}{
		Alias: (*Alias)(o),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	if aux.CreatedAt > 0 {
		o.CreatedAt = time.Unix(aux.CreatedAt, 0).UTC()
	}
	if len(aux.Notes) > 0 && aux.Notes[0] == '{' {
		if err := json.Unmarshal(aux.Notes, &o.Notes); err != nil {
			return fmt.Errorf("failed to parse notes: %w", err)
		}
	}

	return nil
}

// ErrorResponse represents an error response from the Razorpay API
type ErrorResponse struct {
	Err struct {
		Code        string `json:"code"`
		Description string `json:"description"`
		Field       string `json:"field,omitempty"`
	} `json:"error"`
}

func (e *ErrorResponse) Error() string {
	return fmt.Sprintf("razorpay error: code=%s, description=%s", e.Err.Code, e.Err.Description)
}
