package reports

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-catalog-orders/internal/catalog"
	kafkax "github.com/ariefcatur/go-catalog-orders/internal/kafka"
	"github.com/ariefcatur/go-catalog-orders/internal/redisx"
)

type mockSource struct {
	calls int
	rows  []catalog.TopProduct
	err   error
}

func (m *mockSource) TopProducts(context.Context) ([]catalog.TopProduct, error) {
	m.calls++
	return m.rows, m.err
}

func getTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	t.Cleanup(func() { rdb.Close() })
	return rdb
}

func itemAddedMessage(t *testing.T) kafkago.Message {
	t.Helper()
	ev := catalog.Envelope{
		EventID:      uuid.NewString(),
		EventType:    catalog.EventOrderItemAdded,
		EventVersion: 1,
		OccurredAt:   time.Now().UTC(),
		Producer:     "test",
		Payload: kafkax.MustMarshal(catalog.OrderItemAddedPayload{
			OrderID: 1, ProductID: 7, Quantity: 2, NewQty: 2, RemainingStock: 8,
		}),
	}
	return kafkago.Message{Value: kafkax.MustMarshal(ev)}
}

func TestHandleOrderItemAdded_RefreshesCache(t *testing.T) {
	rdb := getTestRedis(t)
	ctx := context.Background()
	rdb.Del(ctx, redisx.KeyTopProducts)

	src := &mockSource{rows: []catalog.TopProduct{
		{ProductName: "A", CategoryLevel1: "Electronics", TotalSoldQty: 12},
	}}
	svc := &Service{Repo: src, Redis: rdb, ServiceName: "test-reports"}

	require.NoError(t, svc.HandleOrderItemAdded(ctx, itemAddedMessage(t)))

	s, err := rdb.Get(ctx, redisx.KeyTopProducts).Result()
	require.NoError(t, err)
	var rows []catalog.TopProduct
	require.NoError(t, json.Unmarshal([]byte(s), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "A", rows[0].ProductName)
}

func TestHandleOrderItemAdded_Dedup(t *testing.T) {
	rdb := getTestRedis(t)
	ctx := context.Background()

	src := &mockSource{}
	svc := &Service{Repo: src, Redis: rdb, ServiceName: "test-reports"}

	m := itemAddedMessage(t)
	require.NoError(t, svc.HandleOrderItemAdded(ctx, m))
	require.NoError(t, svc.HandleOrderItemAdded(ctx, m))

	assert.Equal(t, 1, src.calls, "same event id must be processed once")
}

func TestHandleOrderItemAdded_FailedRefreshIsRetriable(t *testing.T) {
	rdb := getTestRedis(t)
	ctx := context.Background()

	src := &mockSource{err: errors.New("db down")}
	svc := &Service{Repo: src, Redis: rdb, ServiceName: "test-reports"}

	m := itemAddedMessage(t)
	require.Error(t, svc.HandleOrderItemAdded(ctx, m))

	// refresh gagal tidak boleh ke-dedup; redelivery setelah source pulih
	// harus diproses lagi
	src.err = nil
	require.NoError(t, svc.HandleOrderItemAdded(ctx, m))
	assert.Equal(t, 2, src.calls)

	// dan baru setelah sukses event_id dianggap selesai
	require.NoError(t, svc.HandleOrderItemAdded(ctx, m))
	assert.Equal(t, 2, src.calls)
}

func TestHandleOrderItemAdded_IgnoresOtherEvents(t *testing.T) {
	rdb := getTestRedis(t)

	src := &mockSource{}
	svc := &Service{Repo: src, Redis: rdb, ServiceName: "test-reports"}

	ev := catalog.Envelope{
		EventID:   uuid.NewString(),
		EventType: "SomethingElse",
		Payload:   json.RawMessage(`{}`),
	}
	m := kafkago.Message{Value: kafkax.MustMarshal(ev)}

	require.NoError(t, svc.HandleOrderItemAdded(context.Background(), m))
	assert.Equal(t, 0, src.calls)
}
