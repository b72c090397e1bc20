package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
)

// mockWriter records messages instead of talking to a broker.
type mockWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (m *mockWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("expected a deadline on publish")
	}
	if m.err != nil {
		return m.err
	}
	m.messages = append(m.messages, msgs...)
	return nil
}

func (m *mockWriter) Close() error {
	m.closed = true
	return nil
}

func TestKafkaPublisherWritesJSON(t *testing.T) {
	w := &mockWriter{}
	p := &KafkaPublisher{writer: w, timeout: time.Second}

	err := p.Publish(context.Background(), Event{
		Type:   GiftCardAdded,
		UserID: 42,
		Data:   map[string]any{"brand": "Starbucks"},
	})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(w.messages) != 1 {
		t.Fatalf("got %d messages", len(w.messages))
	}
	msg := w.messages[0]
	if string(msg.Key) != "42" {
		t.Errorf("key = %q", msg.Key)
	}
	if len(msg.Headers) != 1 || string(msg.Headers[0].Value) != GiftCardAdded {
		t.Errorf("headers = %+v", msg.Headers)
	}

	var decoded Event
	if err := json.Unmarshal(msg.Value, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Type != GiftCardAdded || decoded.At.IsZero() || decoded.Data["brand"] != "Starbucks" {
		t.Errorf("decoded = %+v", decoded)
	}

	if err := p.Close(); err != nil || !w.closed {
		t.Errorf("Close: err=%v closed=%v", err, w.closed)
	}
}

func TestKafkaPublisherWrapsWriteError(t *testing.T) {
	boom := errors.New("broker down")
	p := &KafkaPublisher{writer: &mockWriter{err: boom}, timeout: time.Second}
	if err := p.Publish(context.Background(), Event{Type: DealsSearched}); !errors.Is(err, boom) {
		t.Errorf("err = %v", err)
	}
}

func TestEmitSwallowsErrors(t *testing.T) {
	p := &KafkaPublisher{writer: &mockWriter{err: errors.New("nope")}, timeout: time.Second}
	Emit(context.Background(), p, Event{Type: DealsSearched})
	Emit(context.Background(), Discard{}, Event{Type: DealsSearched})
}
