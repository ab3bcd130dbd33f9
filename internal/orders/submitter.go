package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/angelmondragon/storefront-cart/internal/cart"
	"github.com/angelmondragon/storefront-cart/pkg/logger"
	"github.com/google/uuid"
)

// EventCheckoutRequested is emitted when a cart is handed to order processing.
const EventCheckoutRequested = "cart.checkout_requested"

const envelopeVersion = 1

// Envelope is the stable payload published for checkout events.
type Envelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	EventType  string          `json:"eventType"`
	OccurredAt time.Time       `json:"occurredAt"`
	Data       json.RawMessage `json:"data"`
}

// NoopSubmitter accepts every cart without forwarding it anywhere.
type NoopSubmitter struct {
	logg *logger.Logger
}

// NewNoopSubmitter builds a submitter for deployments without a broker.
func NewNoopSubmitter(logg *logger.Logger) *NoopSubmitter {
	if logg == nil {
		logg = logger.Nop()
	}
	return &NoopSubmitter{logg: logg}
}

func (n *NoopSubmitter) SubmitOrder(ctx context.Context, c *cart.Cart) error {
	if c == nil {
		return fmt.Errorf("cart required")
	}
	ctx = n.logg.WithCartID(ctx, c.ID)
	n.logg.Info(ctx, "checkout accepted without broker")
	return nil
}

func newEnvelope(eventType string, occurredAt time.Time, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode event data: %w", err)
	}
	return json.Marshal(Envelope{
		Version:    envelopeVersion,
		EventID:    uuid.NewString(),
		EventType:  eventType,
		OccurredAt: occurredAt,
		Data:       raw,
	})
}
