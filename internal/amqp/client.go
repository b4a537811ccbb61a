package amqp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
	"github.com/sony/gobreaker"
)

const (
	publishTimeout = 5 * time.Second
	maxBackoff     = 30 * time.Second
	// Consecutive publish failures before the breaker opens.
	maxFailures = 5
	// How long an open breaker rejects publishes before probing again.
	openTimeout = 30 * time.Second
)

// ErrDrop tells the consumer to discard a delivery instead of requeueing it.
var ErrDrop = errors.New("drop message")

type Client struct {
	url          string
	exchangeName string
	queueName    string

	mu      sync.Mutex
	conn    *amqp091.Connection
	channel *amqp091.Channel

	breaker *gobreaker.CircuitBreaker
	// send is swapped out in tests.
	send func(ctx context.Context, msg amqp091.Publishing) error
}

func newClient(url, exchangeName, queueName string) *Client {
	c := &Client{
		url:          url,
		exchangeName: exchangeName,
		queueName:    queueName,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "amqp-publish",
			MaxRequests: 1,
			Timeout:     openTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= maxFailures
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				slog.Warn("AMQP circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
			},
		}),
	}
	c.send = c.publishOnChannel
	return c
}

// NewClient dials the broker and declares the exchange, queue and binding.
func NewClient(url, exchangeName, queueName string) (*Client, error) {
	c := newClient(url, exchangeName, queueName)
	if err := c.connect(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()

	conn, err := amqp091.Dial(c.url)
	if err != nil {
		return fmt.Errorf("dial AMQP: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}
	c.conn, c.channel = conn, channel

	if err := c.setupLocked(); err != nil {
		c.closeLocked()
		return fmt.Errorf("setup exchange and queue: %w", err)
	}
	return nil
}

func (c *Client) setupLocked() error {
	err := c.channel.ExchangeDeclare(
		c.exchangeName, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	_, err = c.channel.QueueDeclare(
		c.queueName, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	// Direct exchange: the routing key is the queue name.
	if err := c.channel.QueueBind(c.queueName, c.queueName, c.exchangeName, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

// PublishTransactionRecorded publishes a TransactionRecorded event. Calls
// fail fast while the circuit breaker is open.
func (c *Client) PublishTransactionRecorded(ctx context.Context, bookID, id uuid.UUID, version int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := NewTransactionRecordedMessage(bookID, id, version).ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	_, err = c.breaker.Execute(func() (any, error) {
		ctx, cancel := context.WithTimeout(ctx, publishTimeout)
		defer cancel()
		return nil, c.send(ctx, amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			MessageId:    fmt.Sprintf("%s:%d", id, version),
			Body:         body,
		})
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("circuit breaker is open: %w", err)
	}
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	slog.DebugContext(ctx, "Published transaction recorded message",
		"transaction_id", id,
		"book_id", bookID,
		"version", version,
		"exchange", c.exchangeName)
	return nil
}

func (c *Client) publishOnChannel(ctx context.Context, msg amqp091.Publishing) error {
	c.mu.Lock()
	channel := c.channel
	c.mu.Unlock()

	if channel == nil || channel.IsClosed() {
		if err := c.connect(); err != nil {
			return err
		}
		c.mu.Lock()
		channel = c.channel
		c.mu.Unlock()
	}
	return channel.PublishWithContext(ctx, c.exchangeName, c.queueName, false, false, msg)
}

// ConsumeTransactionRecorded delivers messages to handler until ctx is
// done, reconnecting with exponential backoff when the broker goes away.
// A handler error requeues the delivery unless it wraps ErrDrop.
func (c *Client) ConsumeTransactionRecorded(ctx context.Context, handler func(context.Context, *TransactionRecordedMessage) error) error {
	attempt := 0
	for {
		err := c.consumeOnce(ctx, handler, func() { attempt = 0 })
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !isConnectionError(err) {
			return err
		}

		wait := exponentialBackoff(attempt)
		attempt++
		slog.WarnContext(ctx, "AMQP connection lost, reconnecting", "error", err, "attempt", attempt, "backoff", wait)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		if err := c.connect(); err != nil {
			slog.WarnContext(ctx, "AMQP reconnect failed", "error", err)
		}
	}
}

func (c *Client) consumeOnce(ctx context.Context, handler func(context.Context, *TransactionRecordedMessage) error, connected func()) error {
	c.mu.Lock()
	channel := c.channel
	c.mu.Unlock()
	if channel == nil || channel.IsClosed() {
		return amqp091.ErrClosed
	}

	msgs, err := channel.Consume(
		c.queueName, // queue
		"",          // consumer
		false,       // auto-ack
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}
	connected()
	slog.InfoContext(ctx, "Started consuming transaction messages", "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return amqp091.ErrClosed
			}
			c.handleDelivery(ctx, delivery, handler)
		}
	}
}

func (c *Client) handleDelivery(ctx context.Context, delivery amqp091.Delivery, handler func(context.Context, *TransactionRecordedMessage) error) {
	msg, err := TransactionRecordedMessageFromJSON(delivery.Body)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to unmarshal message", "error", err)
		_ = delivery.Nack(false, false)
		return
	}

	if err := handler(ctx, msg); err != nil {
		requeue := !errors.Is(err, ErrDrop)
		slog.ErrorContext(ctx, "Failed to handle message",
			"error", err,
			"transaction_id", msg.ID,
			"version", msg.Version,
			"requeue", requeue)
		_ = delivery.Nack(false, requeue)
		return
	}
	_ = delivery.Ack(false)
}

// exponentialBackoff doubles from one second and caps at maxBackoff.
func exponentialBackoff(attempt int) time.Duration {
	if attempt >= 5 {
		return maxBackoff
	}
	d := time.Second << attempt
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, amqp091.ErrClosed) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"connection", "eof", "broken pipe", "closed network"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeLocked()
}

func (c *Client) closeLocked() error {
	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		if err != nil && !errors.Is(err, amqp091.ErrClosed) {
			return err
		}
	}
	return nil
}
