// Package amqp publishes and consumes attendance events over RabbitMQ.
package amqp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

type Client struct {
	url          string
	exchangeName string
	queueName    string

	mu      sync.Mutex
	conn    *amqp091.Connection
	channel *amqp091.Channel

	failureCount int64
	state        int32
	bmu          sync.Mutex // guards lastFailure
	lastFailure  time.Time
}

func NewClient(url, exchangeName, queueName string) (*Client, error) {
	c := &Client{url: url, exchangeName: exchangeName, queueName: queueName}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.connectLocked(); err != nil {
		return nil, err
	}
	return c, nil
}

// DialWithRetry keeps trying NewClient with exponential backoff until it
// succeeds, maxAttempts is reached or ctx is done.
func DialWithRetry(ctx context.Context, url, exchangeName, queueName string, maxAttempts int) (*Client, error) {
	var lastErr error
	for attempt := 0; maxAttempts <= 0 || attempt < maxAttempts; attempt++ {
		c, err := NewClient(url, exchangeName, queueName)
		if err == nil {
			return c, nil
		}
		lastErr = err
		wait := exponentialBackoff(attempt)
		slog.WarnContext(ctx, "AMQP connection failed, retrying", "attempt", attempt+1, "wait", wait, "error", err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
	return nil, fmt.Errorf("connect AMQP after %d attempts: %w", maxAttempts, lastErr)
}

func (c *Client) connectLocked() error {
	if c.conn != nil && !c.conn.IsClosed() {
		c.conn.Close()
	}
	conn, err := amqp091.Dial(c.url)
	if err != nil {
		return fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}

	if err := setup(channel, c.exchangeName, c.queueName); err != nil {
		channel.Close()
		conn.Close()
		return fmt.Errorf("setup exchange and queue: %w", err)
	}

	c.conn, c.channel = conn, channel
	return nil
}

// setup declares a durable direct exchange and a queue bound with the
// queue name as routing key.
func setup(ch *amqp091.Channel, exchange, queue string) error {
	if err := ch.ExchangeDeclare(exchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	if err := ch.QueueBind(queue, queue, exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	// one unacked audit write at a time per consumer
	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}
	return nil
}

// PublishStatusChanged publishes msg. It fails fast while the circuit is
// open and reconnects lazily after a connection error.
func (c *Client) PublishStatusChanged(ctx context.Context, msg *StatusChangedMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.isCircuitOpen() {
		return fmt.Errorf("publish status changed: %w", ErrCircuitOpen)
	}

	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	c.mu.Lock()
	if c.channel == nil || c.channel.IsClosed() {
		if err := c.connectLocked(); err != nil {
			c.mu.Unlock()
			c.recordFailure()
			return err
		}
	}
	err = c.channel.PublishWithContext(ctx, c.exchangeName, c.queueName, false, false,
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			MessageId:    msg.EventID,
			Timestamp:    time.Now(),
			Type:         "attendance.status_changed",
			Body:         body,
		})
	if err != nil && isConnectionError(err) {
		c.channel = nil
	}
	c.mu.Unlock()

	if err != nil {
		c.recordFailure()
		return fmt.Errorf("publish message: %w", err)
	}
	c.recordSuccess()

	slog.InfoContext(ctx, "Published status changed message",
		"event_id", msg.EventID,
		"user_id", msg.UserID,
		"date", msg.Date,
		"exchange", c.exchangeName)
	return nil
}

// ConsumeStatusChanged delivers messages to handler until ctx is done.
// Malformed messages are dropped; handler failures are requeued.
func (c *Client) ConsumeStatusChanged(ctx context.Context, handler func(context.Context, *StatusChangedMessage) error) error {
	c.mu.Lock()
	ch := c.channel
	c.mu.Unlock()
	if ch == nil {
		return fmt.Errorf("start consuming: channel not open")
	}

	msgs, err := ch.Consume(c.queueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	slog.InfoContext(ctx, "Started consuming status changed messages", "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}
			settle(ctx, d.Body, d, handler)
		}
	}
}

// acknowledger is the settling half of amqp091.Delivery.
type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func settle(ctx context.Context, body []byte, ack acknowledger, handler func(context.Context, *StatusChangedMessage) error) {
	msg, err := StatusChangedMessageFromJSON(body)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to unmarshal message", "error", err)
		ack.Nack(false, false)
		return
	}

	if err := handler(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to handle message", "error", err, "event_id", msg.EventID)
		ack.Nack(false, true)
		return
	}

	ack.Ack(false)
	slog.DebugContext(ctx, "Processed status changed message", "event_id", msg.EventID)
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}
