package messaging

import (
	"context"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"example.com/backstage/services/orders/config"
)

// MessageHandler processes one received queue message. A nil return
// completes the message; an error abandons it for redelivery.
type MessageHandler func(ctx context.Context, message *azservicebus.ReceivedMessage) error

// ServiceBus receives raw order events from an Azure Service Bus queue
// and feeds them into the ingest pipeline.
type ServiceBus struct {
	client   *azservicebus.Client
	receiver *azservicebus.Receiver
	queue    string
}

// NewServiceBus creates a new Service Bus queue receiver
func NewServiceBus(cfg config.AzureConfig) (*ServiceBus, error) {
	if cfg.QueueConnStr == "" {
		return nil, errors.New("Azure Service Bus connection string is empty")
	}

	client, err := azservicebus.NewClientFromConnectionString(cfg.QueueConnStr, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Service Bus client")
	}

	receiver, err := client.NewReceiverForQueue(cfg.QueueName, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Service Bus receiver")
	}

	return &ServiceBus{
		client:   client,
		receiver: receiver,
		queue:    cfg.QueueName,
	}, nil
}

// ProcessMessages receives messages until the context is cancelled and
// dispatches each one to the handler.
func (s *ServiceBus) ProcessMessages(ctx context.Context, handler MessageHandler) error {
	for {
		messages, err := s.receiver.ReceiveMessages(ctx, 10, nil)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errors.Wrap(err, "failed to receive messages")
		}

		for _, message := range messages {
			if err := handler(ctx, message); err != nil {
				log.Warn().
					Err(err).
					Str("message_id", message.MessageID).
					Msg("Message handling failed, abandoning for redelivery")

				if abandonErr := s.receiver.AbandonMessage(ctx, message, nil); abandonErr != nil {
					log.Error().Err(abandonErr).Msg("Failed to abandon message")
				}
				continue
			}

			if completeErr := s.receiver.CompleteMessage(ctx, message, nil); completeErr != nil {
				log.Error().Err(completeErr).Msg("Failed to complete message")
			}
		}
	}
}

// Close closes the receiver and client
func (s *ServiceBus) Close(ctx context.Context) error {
	if s.receiver != nil {
		if err := s.receiver.Close(ctx); err != nil {
			return err
		}
	}

	if s.client != nil {
		return s.client.Close(ctx)
	}

	return nil
}
