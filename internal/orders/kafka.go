package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-cart/internal/cart"
	"github.com/angelmondragon/storefront-cart/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront-cart/pkg/errors"
	"github.com/angelmondragon/storefront-cart/pkg/logger"
	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSubmitter publishes checkout requests to a Kafka topic keyed by cart id.
type KafkaSubmitter struct {
	writer messageWriter
	topic  string
	logg   *logger.Logger
	now    func() time.Time
}

// NewKafkaSubmitter builds a submitter writing to the configured checkout topic.
func NewKafkaSubmitter(cfg config.KafkaConfig, logg *logger.Logger) (*KafkaSubmitter, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("kafka brokers required")
	}
	if strings.TrimSpace(cfg.CheckoutTopic) == "" {
		return nil, fmt.Errorf("kafka checkout topic required")
	}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.CheckoutTopic,
		Balancer:               &kafka.LeastBytes{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: false,
	}
	return newKafkaSubmitter(writer, cfg.CheckoutTopic, logg), nil
}

func newKafkaSubmitter(writer messageWriter, topic string, logg *logger.Logger) *KafkaSubmitter {
	if logg == nil {
		logg = logger.Nop()
	}
	return &KafkaSubmitter{
		writer: writer,
		topic:  strings.TrimSpace(topic),
		logg:   logg,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (k *KafkaSubmitter) SubmitOrder(ctx context.Context, c *cart.Cart) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart required")
	}
	value, err := newEnvelope(EventCheckoutRequested, k.now(), c)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode checkout event")
	}

	msg := kafka.Message{
		Key:   []byte(c.ID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(EventCheckoutRequested)},
			{Key: "customer_id", Value: []byte(c.CustomerID)},
		},
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "publish checkout event").
			WithDetails(map[string]any{"topic": k.topic})
	}

	ctx = k.logg.WithCartID(ctx, c.ID)
	k.logg.Info(ctx, "checkout event published")
	return nil
}

// Close flushes pending writes and releases broker connections.
func (k *KafkaSubmitter) Close() error {
	return k.writer.Close()
}
