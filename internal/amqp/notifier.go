package amqp

import (
	"context"

	"vesta/internal/household"
	"vesta/internal/log"
)

// Publisher is the send side of Client.
type Publisher interface {
	PublishCelebration(ctx context.Context, msg *CelebrationMessage) error
}

// Notifier is a household.Celebrator that forwards events to the broker.
// Publish failures are logged and otherwise ignored.
type Notifier struct {
	publisher Publisher
	logger    *log.Logger
}

var _ household.Celebrator = (*Notifier)(nil)

func NewNotifier(p Publisher, logger *log.Logger) *Notifier {
	if logger == nil {
		logger = log.Nop()
	}
	return &Notifier{publisher: p, logger: logger.WithComponent(log.ComponentNotifier)}
}

func (n *Notifier) Celebrate(ctx context.Context, e household.Event) {
	if n.publisher == nil {
		n.logger.WarnContext(ctx, "AMQP client not available, skipping celebration", "kind", e.Kind)
		return
	}
	if err := n.publisher.PublishCelebration(ctx, NewCelebrationMessage(e)); err != nil {
		n.logger.WarnContext(ctx, "Failed to publish celebration",
			log.FieldError, err,
			"kind", e.Kind,
			log.FieldHouseholdID, e.HouseholdID)
	}
}
