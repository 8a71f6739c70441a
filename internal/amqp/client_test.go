package amqp

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},  // capped at 30s
		{10, 30 * time.Second}, // capped at 30s
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			if got := exponentialBackoff(tt.attempt); got != tt.expected {
				t.Errorf("exponentialBackoff(%d) = %v, want %v", tt.attempt, got, tt.expected)
			}
		})
	}
}

type fakeDelivery struct {
	payload []byte
	acked   bool
	nacked  bool
	requeue bool
}

func (f *fakeDelivery) Ack(bool) error { f.acked = true; return nil }
func (f *fakeDelivery) Nack(_ bool, requeue bool) error {
	f.nacked = true
	f.requeue = requeue
	return nil
}
func (f *fakeDelivery) body() []byte { return f.payload }

func TestProcess(t *testing.T) {
	valid, err := NewFixedCostEvent(EventUpdated, 1, 2).ToJSON()
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name        string
		payload     []byte
		handlerErr  error
		wantAck     bool
		wantRequeue bool
	}{
		{name: "handled", payload: valid, wantAck: true},
		{name: "handler failure requeues", payload: valid, handlerErr: errors.New("sheets down"), wantRequeue: true},
		{name: "garbage is dropped", payload: []byte("{not json")},
		{name: "unknown kind is dropped", payload: []byte(`{"kind":"exploded","ids":[1]}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &fakeDelivery{payload: tt.payload}
			var got *FixedCostEvent
			process(context.Background(), d, func(_ context.Context, e *FixedCostEvent) error {
				got = e
				return tt.handlerErr
			})

			if d.acked != tt.wantAck {
				t.Errorf("acked = %v, want %v", d.acked, tt.wantAck)
			}
			if !tt.wantAck && !d.nacked {
				t.Error("expected nack")
			}
			if d.requeue != tt.wantRequeue {
				t.Errorf("requeue = %v, want %v", d.requeue, tt.wantRequeue)
			}
			if tt.wantAck && (got == nil || len(got.IDs) != 2) {
				t.Errorf("handler received %+v", got)
			}
		})
	}
}

func TestConsumeWithoutConnection(t *testing.T) {
	c := &Client{queueName: "q"}
	if err := c.ConsumeFixedCostEvents(context.Background(), nil); err == nil {
		t.Fatal("expected error when not connected")
	}
	if err := c.PublishFixedCostEvent(context.Background(), NewFixedCostEvent(EventDeleted, 3)); err == nil {
		t.Fatal("expected publish error when not connected")
	}
}
