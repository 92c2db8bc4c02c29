package reports

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/ariefcatur/go-catalog-orders/internal/catalog"
	kafkax "github.com/ariefcatur/go-catalog-orders/internal/kafka"
	"github.com/ariefcatur/go-catalog-orders/internal/redisx"
)

// TopProductsSource recomputes the top-products rollup from the database.
type TopProductsSource interface {
	TopProducts(ctx context.Context) ([]catalog.TopProduct, error)
}

// Service keeps the cached top-products report warm: every committed order
// item invalidates the old entry and writes a fresh one.
type Service struct {
	Repo        TopProductsSource
	Redis       *redis.Client
	ServiceName string
}

// HandleOrderItemAdded: dipasang sebagai handler consumer.
func (s *Service) HandleOrderItemAdded(ctx context.Context, m kafkago.Message) error {
	var env catalog.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != catalog.EventOrderItemAdded {
		return nil // ignore
	}

	// dedup via Redis (pakai event_id)
	dkey := fmt.Sprintf(redisx.KeyDedup, "reports", env.EventID)
	exists, err := redisx.Exists(ctx, s.Redis, dkey)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	p, err := kafkax.UnwrapPayload[catalog.OrderItemAddedPayload](env.Payload)
	if err != nil {
		return err
	}

	if err := s.Refresh(ctx, p.OrderID); err != nil {
		// key dedup belum di-set, jadi redelivery akan coba lagi
		return err
	}
	return s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()
}

// Refresh recomputes the report and replaces the cache entry.
func (s *Service) Refresh(ctx context.Context, orderID int64) error {
	rows, err := s.Repo.TopProducts(ctx)
	if err != nil {
		return fmt.Errorf("recompute top products: %w", err)
	}
	if rows == nil {
		rows = []catalog.TopProduct{}
	}
	b, err := json.Marshal(rows)
	if err != nil {
		return err
	}
	if err := s.Redis.Set(ctx, redisx.KeyTopProducts, b, redisx.TTLReportCache).Err(); err != nil {
		return fmt.Errorf("cache top products: %w", err)
	}
	log.Printf("top products cache refreshed (order %d)", orderID)
	return nil
}
