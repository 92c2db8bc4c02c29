package kafka

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Banjir pesan yang semuanya gagal tidak boleh bikin worker macet:
// error di-log, tidak di-commit, dan semua pesan tetap terkonsumsi.
func TestRunWorker_DrainsFailingBurst(t *testing.T) {
	total := 5000 // jauh di atas buffer dispatcher
	jobs := make(chan kafkago.Message, 64)

	var handled atomic.Int32
	var committed atomic.Int32
	h := func(ctx context.Context, m kafkago.Message) error {
		handled.Add(1)
		return errors.New("boom")
	}
	commit := func(ctx context.Context, ms ...kafkago.Message) error {
		committed.Add(int32(len(ms)))
		return nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runWorker(context.Background(), jobs, h, commit)
		}()
	}

	for i := 0; i < total; i++ {
		jobs <- kafkago.Message{Value: []byte("x")}
	}
	close(jobs)
	wg.Wait()

	assert.Equal(t, int32(total), handled.Load())
	assert.Equal(t, int32(0), committed.Load(), "failed messages must not be committed")
}

func TestRunWorker_CommitsOnSuccess(t *testing.T) {
	jobs := make(chan kafkago.Message, 8)

	var committed []kafkago.Message
	h := func(ctx context.Context, m kafkago.Message) error { return nil }
	commit := func(ctx context.Context, ms ...kafkago.Message) error {
		committed = append(committed, ms...)
		return nil
	}

	jobs <- kafkago.Message{Value: []byte("a")}
	jobs <- kafkago.Message{Value: []byte("b")}
	close(jobs)

	runWorker(context.Background(), jobs, h, commit)

	require.Len(t, committed, 2)
	assert.Equal(t, []byte("a"), committed[0].Value)
}
