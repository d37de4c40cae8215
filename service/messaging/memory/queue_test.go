package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type notification struct {
	RunID    string
	PromptID string
	Attempt  int
}

func TestQueue(t *testing.T) {
	config := DefaultConfig()
	config.RetryDelay = 10 * time.Millisecond
	queue := NewQueue[notification](config)

	ctx := context.Background()
	payload := notification{RunID: "run-1", PromptID: "Checkpoint", Attempt: 1}

	err := queue.Publish(ctx, &payload)
	assert.NoError(t, err)
	assert.Equal(t, 1, queue.Size())

	message, err := queue.Consume(ctx)
	assert.NoError(t, err)
	assert.NotNil(t, message)
	assert.Equal(t, 0, queue.Size())
	assert.EqualValues(t, &payload, message.T())

	assert.NoError(t, message.Ack())
	// double ack is rejected
	assert.Error(t, message.Ack())
}

func TestQueueRetries(t *testing.T) {
	config := DefaultConfig()
	config.MaxRetries = 1
	config.RetryDelay = 10 * time.Millisecond
	queue := NewQueue[notification](config)

	ctx := context.Background()
	payload := notification{RunID: "run-1", PromptID: "Retry"}
	assert.NoError(t, queue.Publish(ctx, &payload))

	message, err := queue.Consume(ctx)
	assert.NoError(t, err)
	assert.NoError(t, message.Nack(fmt.Errorf("transient")))

	time.Sleep(30 * time.Millisecond)
	message, err = queue.Consume(ctx)
	assert.NoError(t, err)
	assert.NoError(t, message.Nack(fmt.Errorf("still failing")))

	time.Sleep(30 * time.Millisecond)
	// retry budget exhausted, message lands in the dead letter queue
	assert.Equal(t, 0, queue.Size())
	assert.Equal(t, 1, queue.DLQSize())
}

func TestQueueConcurrency(t *testing.T) {
	queue := NewQueue[notification](DefaultConfig())

	ctx := context.Background()
	producers := 8
	perProducer := 20

	var wg sync.WaitGroup
	wg.Add(producers * 2)

	var consumed int
	var mu sync.Mutex

	for i := 0; i < producers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perProducer; j++ {
				message, err := queue.Consume(ctx)
				if err != nil {
					t.Errorf("consume: %v", err)
					return
				}
				assert.NoError(t, message.Ack())
				mu.Lock()
				consumed++
				mu.Unlock()
			}
		}()
	}
	for i := 0; i < producers; i++ {
		go func(producer int) {
			defer wg.Done()
			for j := 0; j < perProducer; j++ {
				payload := notification{RunID: fmt.Sprintf("run-%d", producer), PromptID: fmt.Sprintf("P%d", j)}
				if err := queue.Publish(ctx, &payload); err != nil {
					t.Errorf("publish: %v", err)
				}
			}
		}(i)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("test timed out")
	}
	assert.Equal(t, producers*perProducer, consumed)
	assert.Equal(t, 0, queue.Size())
}

func TestQueueContextCancellation(t *testing.T) {
	queue := NewQueue[notification](DefaultConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	payload := notification{RunID: "run-1"}
	assert.Error(t, queue.Publish(ctx, &payload))

	ctxWithTimeout, cancelTimeout := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancelTimeout()
	_, err := queue.Consume(ctxWithTimeout)
	assert.Error(t, err)

	// queue remains usable after a cancelled call
	assert.NoError(t, queue.Publish(context.Background(), &payload))
	message, err := queue.Consume(context.Background())
	assert.NoError(t, err)
	assert.NotNil(t, message)
}
