package events

import (
	"context"
	"encoding/json"
	"reflect"
	"sync"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"github.com/rabbitmq/amqp091-go"
	"github.com/sethvargo/go-retry"

	"github.com/customeros/cardstack/dto"
	"github.com/customeros/cardstack/internal/enum"
	"github.com/customeros/cardstack/internal/logger"
	"github.com/customeros/cardstack/internal/tracing"
	"github.com/customeros/cardstack/internal/utils"
)

const (
	ExchangeCardstack  = "cardstack"
	ExchangeDeadLetter = "dead-letter"

	QueueCardstackEvents = "events-cardstack"
	DLQCardstackEvents   = QueueCardstackEvents + "-dlq"

	RoutingKeyDeadLetter = "dead-letter"

	DefaultMessageTTL          = 240 * time.Hour // then the message moves to the DLQ
	DefaultMaxRetries          = 3
	DefaultPublishTimeout      = 5 * time.Second
	DefaultReconnectBackoff    = time.Second
	DefaultMaxReconnectBackoff = 30 * time.Second
)

type PublisherConfig struct {
	MessageTTL time.Duration
	// MaxRetries counts publish attempts, the first one included.
	MaxRetries          int
	PublishTimeout      time.Duration
	ReconnectBackoff    time.Duration
	MaxReconnectBackoff time.Duration
}

func defaultPublisherConfig() *PublisherConfig {
	return &PublisherConfig{
		MessageTTL:          DefaultMessageTTL,
		MaxRetries:          DefaultMaxRetries,
		PublishTimeout:      DefaultPublishTimeout,
		ReconnectBackoff:    DefaultReconnectBackoff,
		MaxReconnectBackoff: DefaultMaxReconnectBackoff,
	}
}

// RabbitMQPublisher fans cardstack events out on a single durable exchange. A dropped
// connection is redialled on the next publish rather than by a background watcher.
type RabbitMQPublisher struct {
	url    string
	log    logger.Logger
	config PublisherConfig

	mu       sync.Mutex
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	confirms chan amqp091.Confirmation
}

func NewRabbitMQPublisher(rabbitmqURL string, log logger.Logger, config *PublisherConfig) (*RabbitMQPublisher, error) {
	if config == nil {
		config = defaultPublisherConfig()
	}
	publisher := &RabbitMQPublisher{url: rabbitmqURL, log: log, config: *config}

	publisher.mu.Lock()
	defer publisher.mu.Unlock()
	if err := publisher.open(); err != nil {
		return nil, err
	}
	return publisher, nil
}

func (r *RabbitMQPublisher) PublishFanoutEvent(ctx context.Context, entityId string, entityType enum.EntityType, message interface{}) error {
	if err := utils.ValidateTenant(ctx); err != nil {
		return err
	}

	span, ctx := opentracing.StartSpanFromContext(ctx, "RabbitMQPublisher.PublishFanoutEvent")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagEntity(span, entityId)

	event := newEvent(ctx, span, entityId, entityType, message)
	body, err := json.Marshal(event)
	if err != nil {
		tracing.TraceErr(span, err)
		return errors.Wrap(err, "marshal event")
	}
	tracing.LogObjectAsJson(span, "event", event.Event)

	backoff := retry.NewExponential(r.config.ReconnectBackoff)
	backoff = retry.WithCappedDuration(r.config.MaxReconnectBackoff, backoff)
	backoff = retry.WithMaxRetries(uint64(max(r.config.MaxRetries-1, 0)), backoff)

	attempt := 0
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if err := r.publish(ctx, body); err != nil {
			r.log.Warnf("publish %s event attempt %d failed: %v", event.Event.EventType, attempt, err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		tracing.TraceErr(span, err)
		return errors.Wrapf(err, "publish %s event after %d attempts", event.Event.EventType, attempt)
	}
	return nil
}

// newEvent wraps a payload in the envelope consumers expect; the event type is the payload's Go type name.
func newEvent(ctx context.Context, span opentracing.Span, entityId string, entityType enum.EntityType, message interface{}) dto.Event {
	eventType := ""
	if messageType := reflect.TypeOf(message); messageType != nil {
		if messageType.Kind() == reflect.Ptr {
			messageType = messageType.Elem()
		}
		eventType = messageType.Name()
	}

	return dto.Event{
		Event: dto.EventDetails{
			Id:         utils.GenerateNanoIDWithPrefix("event", 21),
			Tenant:     utils.GetTenantFromContext(ctx),
			EntityId:   entityId,
			EntityType: entityType,
			EventType:  eventType,
			Data:       message,
		},
		Metadata: dto.EventMetadata{
			UberTraceId: tracing.ExtractTextMapCarrier(span.Context())["uber-trace-id"],
			AppSource:   utils.GetAppSourceFromContext(ctx),
			UserId:      utils.GetUserIdFromContext(ctx),
			UserEmail:   utils.GetUserEmailFromContext(ctx),
			Timestamp:   utils.Now().Format(time.RFC3339),
		},
	}
}

func (r *RabbitMQPublisher) publish(ctx context.Context, body []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conn == nil || r.conn.IsClosed() || r.channel == nil || r.channel.IsClosed() {
		r.release()
		if err := r.open(); err != nil {
			return err
		}
	}

	err := r.channel.PublishWithContext(ctx, ExchangeCardstack, "", true, false, amqp091.Publishing{
		DeliveryMode: amqp091.Persistent,
		ContentType:  "application/json",
		Body:         body,
		Timestamp:    utils.Now(),
	})
	if err != nil {
		return errors.Wrap(err, "publish")
	}

	select {
	case confirm, ok := <-r.confirms:
		if !ok {
			return errors.New("channel closed before confirmation")
		}
		if !confirm.Ack {
			return errors.New("message nacked by broker")
		}
		return nil
	case <-time.After(r.config.PublishTimeout):
		return errors.New("publish confirmation timeout")
	case <-ctx.Done():
		return ctx.Err()
	}
}

// open dials the broker, declares the topology and prepares a confirming channel. Caller holds mu.
func (r *RabbitMQPublisher) open() error {
	conn, err := amqp091.Dial(r.url)
	if err != nil {
		return errors.Wrap(err, "connect to RabbitMQ")
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return errors.Wrap(err, "open channel")
	}
	if err = declareTopology(channel, r.config.MessageTTL); err != nil {
		conn.Close()
		return err
	}
	if err = channel.Confirm(false); err != nil {
		conn.Close()
		return errors.Wrap(err, "enable publisher confirms")
	}

	r.conn = conn
	r.channel = channel
	r.confirms = channel.NotifyPublish(make(chan amqp091.Confirmation, 1))
	return nil
}

// declareTopology sets up the fanout exchange, its queue, and the dead-letter route behind it.
func declareTopology(channel *amqp091.Channel, messageTTL time.Duration) error {
	if err := channel.ExchangeDeclare(ExchangeDeadLetter, amqp091.ExchangeDirect, true, false, false, false, nil); err != nil {
		return errors.Wrap(err, "declare dead letter exchange")
	}
	if err := channel.ExchangeDeclare(ExchangeCardstack, amqp091.ExchangeFanout, true, false, false, false, nil); err != nil {
		return errors.Wrap(err, "declare cardstack exchange")
	}

	if _, err := channel.QueueDeclare(DLQCardstackEvents, true, false, false, false, nil); err != nil {
		return errors.Wrapf(err, "declare queue %s", DLQCardstackEvents)
	}
	if err := channel.QueueBind(DLQCardstackEvents, RoutingKeyDeadLetter, ExchangeDeadLetter, false, nil); err != nil {
		return errors.Wrapf(err, "bind queue %s", DLQCardstackEvents)
	}

	_, err := channel.QueueDeclare(QueueCardstackEvents, true, false, false, false, amqp091.Table{
		"x-dead-letter-exchange":    ExchangeDeadLetter,
		"x-dead-letter-routing-key": RoutingKeyDeadLetter,
		"x-message-ttl":             messageTTL.Milliseconds(),
	})
	if err != nil {
		return errors.Wrapf(err, "declare queue %s", QueueCardstackEvents)
	}
	if err = channel.QueueBind(QueueCardstackEvents, "", ExchangeCardstack, false, nil); err != nil {
		return errors.Wrapf(err, "bind queue %s", QueueCardstackEvents)
	}
	return nil
}

// release drops the current connection, ignoring errors from an already broken one. Caller holds mu.
func (r *RabbitMQPublisher) release() {
	if r.channel != nil {
		_ = r.channel.Close()
		r.channel = nil
	}
	if r.conn != nil {
		_ = r.conn.Close()
		r.conn = nil
	}
}

func (r *RabbitMQPublisher) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var err error
	if r.channel != nil && !r.channel.IsClosed() {
		err = r.channel.Close()
	}
	if r.conn != nil && !r.conn.IsClosed() {
		if closeErr := r.conn.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}
	r.channel, r.conn = nil, nil
	if err != nil {
		r.log.Errorf("closing RabbitMQ publisher: %v", err)
	}
	return err
}
