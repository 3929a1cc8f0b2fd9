package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPPublisher publishes visit events as persistent JSON messages to a
// durable queue on the default exchange. The connection is opened lazily and
// re-dialled after it drops. A failed dial is not retried until the backoff
// has passed, so a broker outage costs callers one bounded wait.
type AMQPPublisher struct {
	url   string
	queue string

	dialTimeout time.Duration
	backoff     time.Duration

	mu        sync.Mutex
	conn      *amqp.Connection
	ch        *amqp.Channel
	nextDial  time.Time
	lastError error
}

const (
	defaultDialTimeout = 2 * time.Second
	defaultDialBackoff = 10 * time.Second
)

func NewAMQPPublisher(url, queue string) *AMQPPublisher {
	return &AMQPPublisher{
		url:         url,
		queue:       queue,
		dialTimeout: defaultDialTimeout,
		backoff:     defaultDialBackoff,
	}
}

// dial connects within the dial timeout or the context deadline, whichever
// comes first. The timeout covers the AMQP handshake as well as TCP.
func (p *AMQPPublisher) dial(ctx context.Context) (*amqp.Connection, error) {
	timeout := p.dialTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		return nil, context.DeadlineExceeded
	}
	return amqp.DialConfig(p.url, amqp.Config{
		Dial:      amqp.DefaultDial(timeout),
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
	})
}

func (p *AMQPPublisher) channel(ctx context.Context) (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	if p.conn == nil || p.conn.IsClosed() {
		if time.Now().Before(p.nextDial) {
			return nil, fmt.Errorf("rabbitmq unavailable, retrying after %s: %w",
				p.nextDial.Format(time.RFC3339), p.lastError)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		conn, err := p.dial(ctx)
		if err == nil {
			err = ctx.Err()
			if err != nil {
				conn.Close()
			}
		}
		if err != nil {
			p.nextDial = time.Now().Add(p.backoff)
			p.lastError = err
			log.Printf("[Events] rabbitmq dial failed, next attempt in %s: %v", p.backoff, err)
			return nil, fmt.Errorf("rabbitmq dial: %w", err)
		}
		p.conn = conn
		p.nextDial = time.Time{}
		p.lastError = nil
	}

	ch, err := p.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("rabbitmq channel open: %w", err)
	}

	// Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		ch.Close()
		return nil, fmt.Errorf("rabbitmq queue declare: %w", err)
	}
	p.ch = ch
	return ch, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, event VisitEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel(ctx)
	if err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         event.Type,
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", p.queue, false, false, pub); err != nil {
		if errors.Is(err, amqp.ErrClosed) {
			p.ch = nil
		}
		return fmt.Errorf("rabbitmq publish: %w", err)
	}
	return nil
}

// Close releases the channel and connection.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch != nil {
		p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		err := p.conn.Close()
		p.conn = nil
		if err != nil && !errors.Is(err, amqp.ErrClosed) {
			log.Printf("[Events] rabbitmq close: %v", err)
			return err
		}
	}
	return nil
}
