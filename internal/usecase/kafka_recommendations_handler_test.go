package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

func TestKafkaHandlerStoresRecommendation(t *testing.T) {
	store := &fakeStore{}
	h := NewKafkaRecommendationsHandler("recommendations", store, noopMetrics{})

	b, err := json.Marshal(sampleRec())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := h.Handle(context.Background(), b); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if store.stored != 1 {
		t.Errorf("stored = %d, want 1", store.stored)
	}
}

func TestKafkaHandlerRejectsMalformedPayload(t *testing.T) {
	store := &fakeStore{}
	h := NewKafkaRecommendationsHandler("recommendations", store, noopMetrics{})

	if err := h.Handle(context.Background(), []byte("{not json")); err == nil {
		t.Fatal("expected unmarshal error")
	}
	if store.stored != 0 {
		t.Errorf("stored = %d, want 0", store.stored)
	}
}

func TestKafkaHandlerPropagatesStoreError(t *testing.T) {
	want := errors.New("clickhouse down")
	store := &fakeStore{err: want}
	h := NewKafkaRecommendationsHandler("recommendations", store, noopMetrics{})

	b, _ := json.Marshal(sampleRec())
	if err := h.Handle(context.Background(), b); !errors.Is(err, want) {
		t.Fatalf("err = %v, want %v", err, want)
	}
}

func TestKafkaHandlerTopic(t *testing.T) {
	h := NewKafkaRecommendationsHandler("recommendations", &fakeStore{}, noopMetrics{})
	if h.Topic() != "recommendations" {
		t.Errorf("topic = %q", h.Topic())
	}
}
