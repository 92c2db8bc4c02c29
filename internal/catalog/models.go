package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID        int64
	Name      string
	ParentID  *int64 // nil for root categories
	CreatedAt time.Time
}

type Product struct {
	ID         int64
	Name       string
	CategoryID int64
	StockQty   int
	Price      decimal.Decimal
	CreatedAt  time.Time
}

type Customer struct {
	ID        int64
	Name      string
	Address   string
	CreatedAt time.Time
}

type OrderStatus string

const (
	StatusDraft     OrderStatus = "draft"
	StatusPlaced    OrderStatus = "placed"
	StatusFulfilled OrderStatus = "fulfilled"
)

type Order struct {
	ID         int64
	CustomerID int64
	Status     OrderStatus
	CreatedAt  time.Time
}

// OrderItem is keyed by (OrderID, ProductID); at most one row per pair.
// UnitPrice is captured from the product at first insert and never refreshed
// by later merges.
type OrderItem struct {
	OrderID   int64
	ProductID int64
	Qty       int
	UnitPrice decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}
