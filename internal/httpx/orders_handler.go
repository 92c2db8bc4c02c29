package httpx

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/ariefcatur/go-catalog-orders/internal/catalog"
	kafkax "github.com/ariefcatur/go-catalog-orders/internal/kafka"
)

// OrderStore is the slice of the catalog repo the orders endpoints need.
type OrderStore interface {
	AddItem(ctx context.Context, orderID, productID int64, quantity int) (catalog.AddItemResult, error)
	ClientStatistics(ctx context.Context) ([]catalog.ClientStatistic, error)
}

type OrdersHandler struct {
	Repo     OrderStore
	Producer *kafkax.Producer
	Service  string
}

type AddItemReq struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type AddItemResp struct {
	OrderID        int64 `json:"order_id"`
	ProductID      int64 `json:"product_id"`
	NewQty         int   `json:"new_qty"`
	RemainingStock int   `json:"remaining_stock"`
}

func (h *OrdersHandler) Register(r chi.Router) {
	r.Post("/orders/{order_id}/items", h.addItem)
	r.Get("/orders/clients/statistics", h.clientStatistics)
}

func (h *OrdersHandler) addItem(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(chi.URLParam(r, "order_id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	var req AddItemReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	// validasi di boundary, sebelum buka transaksi
	if req.ProductID <= 0 || req.Quantity <= 0 {
		writeError(w, http.StatusBadRequest, "product_id and quantity must be positive")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := h.Repo.AddItem(ctx, orderID, req.ProductID, req.Quantity)
	switch {
	case errors.Is(err, catalog.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, "order not found")
		return
	case errors.Is(err, catalog.ErrProductNotFound):
		writeError(w, http.StatusNotFound, "product not found")
		return
	case errors.Is(err, catalog.ErrInsufficientStock):
		writeError(w, http.StatusConflict, "not enough stock")
		return
	case err != nil:
		// jangan bocorkan detail storage ke client
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.publishItemAdded(r, res, req.Quantity)

	writeJSON(w, http.StatusCreated, AddItemResp{
		OrderID:        res.OrderID,
		ProductID:      res.ProductID,
		NewQty:         res.NewQty,
		RemainingStock: res.RemainingStock,
	})
}

// publishItemAdded emits the post-commit notification event. Fire-and-forget;
// the database row is already the source of truth.
func (h *OrdersHandler) publishItemAdded(r *http.Request, res catalog.AddItemResult, qty int) {
	if h.Producer == nil {
		return
	}
	ev := catalog.Envelope{
		EventID:       uuid.NewString(),
		EventType:     catalog.EventOrderItemAdded,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		TraceID:       r.Header.Get("X-Request-Id"),
		CorrelationID: strconv.FormatInt(res.OrderID, 10),
	}
	ev.Payload = kafkax.MustMarshal(catalog.OrderItemAddedPayload{
		OrderID:        res.OrderID,
		ProductID:      res.ProductID,
		Quantity:       qty,
		NewQty:         res.NewQty,
		UnitPrice:      res.UnitPrice,
		RemainingStock: res.RemainingStock,
	})
	h.Producer.Publish(catalog.PartitionKey(res.OrderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(catalog.EventOrderItemAdded)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func (h *OrdersHandler) clientStatistics(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	stats, err := h.Repo.ClientStatistics(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if stats == nil {
		stats = []catalog.ClientStatistic{}
	}
	writeJSON(w, http.StatusOK, stats)
}
