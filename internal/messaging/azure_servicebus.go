package messaging

import (
	"context"
	"encoding/json"
	"time"

	"example.com/fieldwork/services/workorders/config"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Work-order event kinds published per mutation
const (
	EventCreated       = "created"
	EventUpdated       = "updated"
	EventStatusChanged = "status_changed"
	EventNoteAdded     = "note_added"
	EventFileAdded     = "file_added"
)

// WorkOrderEvent is the queue message emitted after a mutation. The
// worker uses the id to refresh the search projection.
type WorkOrderEvent struct {
	Kind            string    `json:"kind"`
	WorkOrderID     uint      `json:"work_order_id"`
	WorkOrderNumber string    `json:"work_order_number"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// EventHandler processes one received work-order event
type EventHandler func(ctx context.Context, event *WorkOrderEvent) error

// ServiceBus wraps the Azure Service Bus queue used for work-order events
type ServiceBus struct {
	client    *azservicebus.Client
	sender    *azservicebus.Sender
	queueName string
}

// NewServiceBus creates a client for the configured queue
func NewServiceBus(cfg config.AzureConfig) (*ServiceBus, error) {
	if cfg.QueueConnStr == "" {
		return nil, errors.New("Azure Service Bus connection string is empty")
	}

	client, err := azservicebus.NewClientFromConnectionString(cfg.QueueConnStr, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Service Bus client")
	}

	sender, err := client.NewSender(cfg.QueueName, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Service Bus sender")
	}

	return &ServiceBus{
		client:    client,
		sender:    sender,
		queueName: cfg.QueueName,
	}, nil
}

// Publish sends a work-order event to the queue
func (s *ServiceBus) Publish(ctx context.Context, event WorkOrderEvent) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "failed to marshal work order event")
	}

	msg := &azservicebus.Message{
		Body: data,
		ApplicationProperties: map[string]interface{}{
			"kind": event.Kind,
			"time": event.OccurredAt.Format(time.RFC3339),
		},
	}

	return s.sender.SendMessage(ctx, msg, nil)
}

// ProcessMessages receives events until the context is cancelled. A
// handler error abandons the message for redelivery.
func (s *ServiceBus) ProcessMessages(ctx context.Context, handler EventHandler) error {
	receiver, err := s.client.NewReceiverForQueue(s.queueName, nil)
	if err != nil {
		return errors.Wrap(err, "failed to create Service Bus receiver")
	}
	defer receiver.Close(context.Background())

	for {
		if ctx.Err() != nil {
			return nil
		}

		messages, err := receiver.ReceiveMessages(ctx, 10, nil)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errors.Wrap(err, "failed to receive messages")
		}

		for _, message := range messages {
			var event WorkOrderEvent
			if err := json.Unmarshal(message.Body, &event); err != nil {
				log.Error().Err(err).Msg("Discarding malformed work order event")
				if err := receiver.DeadLetterMessage(ctx, message, nil); err != nil {
					log.Error().Err(err).Msg("Failed to dead-letter malformed event")
				}
				continue
			}

			if err := handler(ctx, &event); err != nil {
				log.Error().
					Err(err).
					Uint("work_order_id", event.WorkOrderID).
					Str("kind", event.Kind).
					Msg("Failed to process work order event")
				if err := receiver.AbandonMessage(ctx, message, nil); err != nil {
					log.Error().Err(err).Msg("Failed to abandon message")
				}
				continue
			}

			if err := receiver.CompleteMessage(ctx, message, nil); err != nil {
				log.Error().Err(err).Msg("Failed to complete message")
			}
		}
	}
}

// Close closes the Service Bus client
func (s *ServiceBus) Close() error {
	if s.sender != nil {
		if err := s.sender.Close(context.Background()); err != nil {
			return err
		}
	}

	if s.client != nil {
		return s.client.Close(context.Background())
	}

	return nil
}
