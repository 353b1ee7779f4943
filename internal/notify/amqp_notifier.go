package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/phrazzld/photogallery/internal/events"
	"github.com/phrazzld/photogallery/internal/redact"
)

// ErrNoPublisher is returned by NewAMQPNotifier when publisher is nil.
var ErrNoPublisher = errors.New("notify: publisher is nil")

// Publisher is the part of *amqp.Channel the notifier needs.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPNotifier publishes notifications as persistent JSON messages.
type AMQPNotifier struct {
	publisher  Publisher
	exchange   string
	routingKey string
	logger     *slog.Logger
}

// NewAMQPNotifier creates a notifier that publishes through publisher.
func NewAMQPNotifier(publisher Publisher, exchange, routingKey string, logger *slog.Logger) (*AMQPNotifier, error) {
	if publisher == nil {
		return nil, ErrNoPublisher
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AMQPNotifier{
		publisher:  publisher,
		exchange:   exchange,
		routingKey: routingKey,
		logger:     logger.With("component", "amqp_notifier"),
	}, nil
}

var _ events.EventHandler = (*AMQPNotifier)(nil)

// HandleEvent implements events.EventHandler.
func (n *AMQPNotifier) HandleEvent(ctx context.Context, event *events.NewResultsEvent) error {
	note, err := FromEvent(event)
	if err != nil {
		return err
	}

	body, err := json.Marshal(note)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	err = n.publisher.PublishWithContext(ctx, n.exchange, n.routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    note.EventID.String(),
		Timestamp:    note.CreatedAt,
		Type:         event.Type,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish notification to %q: %w", n.exchange, err)
	}

	n.logger.DebugContext(ctx, "notification published",
		"event_id", note.EventID,
		"exchange", n.exchange,
		"routing_key", n.routingKey)
	return nil
}

// Connection owns an AMQP connection and the channel notifications go out on.
type Connection struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

// Dial connects to url, opens a channel and declares exchange as a durable topic exchange.
func Dial(url, exchange string) (*Connection, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp %s: %w", redact.URL(url), err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %q: %w", exchange, err)
	}

	return &Connection{conn: conn, channel: ch}, nil
}

// Channel returns the publishing channel.
func (c *Connection) Channel() *amqp.Channel {
	return c.channel
}

// Close closes the channel and the connection.
func (c *Connection) Close() error {
	return errors.Join(c.channel.Close(), c.conn.Close())
}
