package catalog

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventOrderItemAdded = "OrderItemAdded"
)

type Envelope struct {
	EventID       string          `json:"event_id"`      // uuid
	EventType     string          `json:"event_type"`    // salah satu const di atas
	EventVersion  int             `json:"event_version"` // 1
	OccurredAt    time.Time       `json:"occurred_at"`   // RFC3339
	Producer      string          `json:"producer"`      // e.g., "catalog-api"
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // biasanya order_id
	Payload       json.RawMessage `json:"payload"`
}

type OrderItemAddedPayload struct {
	OrderID        int64           `json:"order_id"`
	ProductID      int64           `json:"product_id"`
	Quantity       int             `json:"quantity"`
	NewQty         int             `json:"new_qty"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	RemainingStock int             `json:"remaining_stock"`
}
