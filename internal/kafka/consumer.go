package kafka

import (
	"context"
	"log"
	"sync"

	"github.com/segmentio/kafka-go"
)

// Handler harus return nil hanya jika proses sukses & boleh commit offset.
type Handler func(ctx context.Context, m kafka.Message) error

type Consumer struct {
	r       *kafka.Reader
	workers int
}

func NewConsumer(brokers []string, group, topic string, workers int) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		GroupID:        group,
		Topic:          topic,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0, // manual commit
	})
	if workers <= 0 {
		workers = 1
	}
	return &Consumer{r: r, workers: workers}
}

func (c *Consumer) Start(ctx context.Context, h Handler) error {
	defer c.r.Close()

	jobs := make(chan kafka.Message, 1024)

	var wg sync.WaitGroup
	for i := 0; i < c.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runWorker(ctx, jobs, h, c.r.CommitMessages)
		}()
	}

	for {
		m, err := c.r.ReadMessage(ctx)
		if err != nil {
			close(jobs)
			wg.Wait()
			select {
			case <-ctx.Done():
				return nil
			default:
				return err
			}
		}
		select {
		case jobs <- m:
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return nil
		}
	}
}

// runWorker memproses jobs sampai channel ditutup. Error di-log langsung di
// sini, tanpa channel terpisah, jadi worker tidak pernah nge-block dispatcher.
// Pesan yang gagal tidak di-commit supaya di-redeliver.
func runWorker(ctx context.Context, jobs <-chan kafka.Message, h Handler, commit func(context.Context, ...kafka.Message) error) {
	for m := range jobs {
		if err := h(ctx, m); err != nil {
			log.Printf("worker error: %v", err)
			continue
		}
		// commit on success
		if err := commit(ctx, m); err != nil {
			log.Printf("commit error: %v", err)
		}
	}
}
