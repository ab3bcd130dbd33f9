package orders

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/angelmondragon/storefront-cart/internal/cart"
	"github.com/angelmondragon/storefront-cart/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront-cart/pkg/errors"
	"github.com/segmentio/kafka-go"
)

type stubWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (s *stubWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if s.err != nil {
		return s.err
	}
	s.messages = append(s.messages, msgs...)
	return nil
}

func (s *stubWriter) Close() error {
	s.closed = true
	return nil
}

func TestKafkaSubmitterPublishesEnvelope(t *testing.T) {
	t.Parallel()

	writer := &stubWriter{}
	sub := newKafkaSubmitter(writer, "storefront.cart.checkout", nil)
	c := &cart.Cart{ID: "cart-1", CustomerID: "c1", Items: []cart.LineItem{{ID: "l1", ProductID: "P1", Quantity: 2}}}

	if err := sub.SubmitOrder(context.Background(), c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(writer.messages) != 1 {
		t.Fatalf("expected one message, got %d", len(writer.messages))
	}
	msg := writer.messages[0]
	if string(msg.Key) != "cart-1" {
		t.Fatalf("expected key cart-1, got %s", msg.Key)
	}

	var env Envelope
	if err := json.Unmarshal(msg.Value, &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if env.EventType != EventCheckoutRequested || env.Version != 1 || env.EventID == "" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
	var payload cart.Cart
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.ID != "cart-1" || len(payload.Items) != 1 {
		t.Fatalf("unexpected payload: %+v", payload)
	}

	if err := sub.Close(); err != nil || !writer.closed {
		t.Fatalf("expected writer to close, err=%v", err)
	}
}

func TestKafkaSubmitterWrapsWriteFailure(t *testing.T) {
	t.Parallel()

	sub := newKafkaSubmitter(&stubWriter{err: errors.New("leader not available")}, "topic", nil)

	err := sub.SubmitOrder(context.Background(), &cart.Cart{ID: "cart-1"})
	if !pkgerrors.HasCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestKafkaSubmitterRejectsNilCart(t *testing.T) {
	t.Parallel()

	sub := newKafkaSubmitter(&stubWriter{}, "topic", nil)
	if err := sub.SubmitOrder(context.Background(), nil); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestNewKafkaSubmitterRequiresBrokers(t *testing.T) {
	t.Parallel()

	if _, err := NewKafkaSubmitter(config.KafkaConfig{CheckoutTopic: "topic"}, nil); err == nil {
		t.Fatal("expected error without brokers")
	}
	if _, err := NewKafkaSubmitter(config.KafkaConfig{Brokers: []string{"localhost:9092"}}, nil); err == nil {
		t.Fatal("expected error without topic")
	}
}

func TestNoopSubmitter(t *testing.T) {
	t.Parallel()

	sub := NewNoopSubmitter(nil)
	if err := sub.SubmitOrder(context.Background(), &cart.Cart{ID: "cart-1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := sub.SubmitOrder(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil cart")
	}
}
