package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
)

type failingHandler struct {
	topic string
	err   error
	calls int
}

func (h *failingHandler) Topic() string { return h.topic }

func (h *failingHandler) Handle(context.Context, []byte) error {
	h.calls++
	return h.err
}

type countingHook struct {
	before  int
	after   int
	onError int
}

func (c *countingHook) BeforeHandle(ctx context.Context, _ string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error) {
	c.before++
	return ctx, km, data, nil
}

func (c *countingHook) AfterHandle(context.Context, string, kafka.Message, []byte, error) {
	c.after++
}

func (c *countingHook) OnError(context.Context, string, kafka.Message, []byte, error) {
	c.onError++
}

// Every failed attempt notifies OnError exactly once: intermediate
// failures inside the retry loop, the final one after it.
func TestHandleOneNotifiesOnErrorOncePerFailedAttempt(t *testing.T) {
	const retryMax = 2
	c, err := NewConsumer(
		WithConsumerBrokers([]string{"localhost:9092"}),
		WithConsumerRetry(retryMax, time.Millisecond, 2*time.Millisecond),
	)
	if err != nil {
		t.Fatalf("consumer: %v", err)
	}

	handler := &failingHandler{topic: "t", err: errors.New("boom")}
	hook := &countingHook{}
	c.WithConsumerHook(hook)

	c.handleOne(handler, &inbound{topic: "t", data: []byte("{}"), km: kafka.Message{Topic: "t"}})

	attempts := retryMax + 1
	if handler.calls != attempts {
		t.Fatalf("handler calls = %d, want %d", handler.calls, attempts)
	}
	if hook.before != attempts || hook.after != attempts {
		t.Errorf("before/after = %d/%d, want %d each", hook.before, hook.after, attempts)
	}
	if hook.onError != attempts {
		t.Errorf("onError = %d, want %d (once per failed attempt)", hook.onError, attempts)
	}
}

func TestHandleOneNoErrorHooksOnSuccess(t *testing.T) {
	c, err := NewConsumer(WithConsumerBrokers([]string{"localhost:9092"}))
	if err != nil {
		t.Fatalf("consumer: %v", err)
	}

	handler := &failingHandler{topic: "t"}
	hook := &countingHook{}
	c.WithConsumerHook(hook)

	c.handleOne(handler, &inbound{topic: "t", data: []byte("{}"), km: kafka.Message{Topic: "t"}})

	if handler.calls != 1 {
		t.Fatalf("handler calls = %d, want 1", handler.calls)
	}
	if hook.onError != 0 {
		t.Errorf("onError = %d, want 0", hook.onError)
	}
	if hook.before != 1 || hook.after != 1 {
		t.Errorf("before/after = %d/%d, want 1 each", hook.before, hook.after)
	}
}
