package events

import (
	"context"
	"fmt"

	"github.com/customeros/cardstack/interfaces"
	"github.com/customeros/cardstack/internal/enum"
	"github.com/customeros/cardstack/internal/logger"
	"github.com/customeros/cardstack/internal/utils"
)

type EventsService struct {
	Publisher interfaces.EventPublisher
}

// NewEventsService connects to RabbitMQ, or falls back to a publisher that only logs when no URL is set.
func NewEventsService(rabbitmqURL string, log logger.Logger, publisherConfig *PublisherConfig) (*EventsService, error) {
	if rabbitmqURL == "" {
		log.Warn("RABBITMQ_URL not set, events will not be published")
		return &EventsService{Publisher: NewNoopPublisher(log)}, nil
	}

	publisher, err := NewRabbitMQPublisher(rabbitmqURL, log, publisherConfig)
	if err != nil {
		return nil, err
	}

	return &EventsService{
		Publisher: publisher,
	}, nil
}

func (s *EventsService) Close() error {
	var errs []error

	if s.Publisher != nil {
		if err := s.Publisher.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors closing events service: %v", errs)
	}

	return nil
}

// WithTenant makes sure the tenant travels in the event envelope for calls made outside a request.
func WithTenant(ctx context.Context, tenant string) context.Context {
	if utils.GetTenantFromContext(ctx) != "" {
		return ctx
	}
	return utils.SetTenantInContext(ctx, tenant)
}

type NoopPublisher struct {
	logger logger.Logger
}

func NewNoopPublisher(log logger.Logger) *NoopPublisher {
	return &NoopPublisher{logger: log}
}

func (p *NoopPublisher) PublishFanoutEvent(ctx context.Context, entityId string, entityType enum.EntityType, message interface{}) error {
	if err := utils.ValidateTenant(ctx); err != nil {
		return err
	}
	p.logger.Debugf("event %T for %s %s not published", message, entityType, entityId)
	return nil
}

func (p *NoopPublisher) Close() error {
	return nil
}
