package kafka

import (
	"context"
	"testing"
	"time"
)

// Urutan shutdown di cmd/api/main.go: Close() dulu, baru cancel(),
// lalu WaitClosed(). Dua-duanya tidak boleh bikin double close di inbox.
func TestProducerShutdown_CloseThenCancel(t *testing.T) {
	for i := 0; i < 200; i++ {
		p := NewProducer([]string{"localhost:9092"}, "test-topic", 8)
		ctx, cancel := context.WithCancel(context.Background())
		p.Start(ctx)

		p.Close()
		cancel()
		waitClosed(t, p)
	}
}

func TestProducerShutdown_CancelThenClose(t *testing.T) {
	for i := 0; i < 200; i++ {
		p := NewProducer([]string{"localhost:9092"}, "test-topic", 8)
		ctx, cancel := context.WithCancel(context.Background())
		p.Start(ctx)

		cancel()
		p.Close()
		waitClosed(t, p)
	}
}

func TestProducerClose_Idempotent(t *testing.T) {
	p := NewProducer([]string{"localhost:9092"}, "test-topic", 8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx)

	p.Close()
	p.Close() // tidak boleh panic
	waitClosed(t, p)
}

func waitClosed(t *testing.T, p *Producer) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		p.WaitClosed()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("producer goroutine did not exit")
	}
}
