package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "sync"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/rs/zerolog"

    "github.com/iliyamo/show-tracker/internal/metrics"
)

// ErrQueueFull is returned by AMQPPublisher.Publish when the outgoing
// buffer is full.  The event is dropped.
var ErrQueueFull = errors.New("event buffer full")

// ErrPublisherClosed is returned by AMQPPublisher.Publish after Close.
var ErrPublisherClosed = errors.New("publisher closed")

// Publisher hands show events to the broker.  Implementations must not
// block the caller on network I/O; a failed publish is logged and never
// fails the HTTP request that produced it.
type Publisher interface {
    Publish(ctx context.Context, ev ShowEvent) error
    Close() error
}

// NoopPublisher discards events.  It is used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, ShowEvent) error { return nil }
func (NoopPublisher) Close() error                             { return nil }

// AMQPPublisher buffers events and publishes them from a single background
// goroutine over one long-lived connection, redialing when the broker drops
// it.  Messages are persistent and routed through the default exchange to
// the durable queue.
type AMQPPublisher struct {
    url    string
    queue  string
    logger zerolog.Logger

    mu     sync.RWMutex // guards closed and the send on events
    closed bool
    events chan ShowEvent
    done   chan struct{}

    conn *amqp.Connection // owned by the run goroutine
    ch   *amqp.Channel
}

// NewAMQPPublisher starts the background publisher.  buffer bounds the
// number of events waiting to be sent.
func NewAMQPPublisher(url, queue string, buffer int, logger zerolog.Logger) *AMQPPublisher {
    if queue == "" {
        queue = DefaultQueue
    }
    if buffer < 1 {
        buffer = 256
    }
    p := &AMQPPublisher{
        url:    url,
        queue:  queue,
        logger: logger.With().Str("component", "show-publisher").Logger(),
        events: make(chan ShowEvent, buffer),
        done:   make(chan struct{}),
    }
    go p.run()
    return p
}

// Publish enqueues ev without waiting for the broker.
func (p *AMQPPublisher) Publish(ctx context.Context, ev ShowEvent) error {
    p.mu.RLock()
    defer p.mu.RUnlock()
    if p.closed {
        return ErrPublisherClosed
    }
    select {
    case <-ctx.Done():
        return ctx.Err()
    case p.events <- ev:
        return nil
    default:
        metrics.ShowEventsPublishedTotal.WithLabelValues("dropped").Inc()
        p.logger.Warn().Str("type", ev.Type).Int64("show_id", ev.ShowID).Msg("rabbitmq: event buffer full, dropping event")
        return ErrQueueFull
    }
}

// Close stops accepting events, flushes what is buffered and closes the
// connection.  Later calls to Publish return ErrPublisherClosed.
func (p *AMQPPublisher) Close() error {
    p.mu.Lock()
    if !p.closed {
        p.closed = true
        close(p.events)
    }
    p.mu.Unlock()
    <-p.done
    return nil
}

func (p *AMQPPublisher) run() {
    defer close(p.done)
    defer p.reset()
    for ev := range p.events {
        if err := p.send(ev); err != nil {
            metrics.ShowEventsPublishedTotal.WithLabelValues("error").Inc()
            p.logger.Error().Err(err).Str("type", ev.Type).Int64("show_id", ev.ShowID).Msg("rabbitmq: publish failed")
            p.reset()
            continue
        }
        metrics.ShowEventsPublishedTotal.WithLabelValues("ok").Inc()
    }
}

func (p *AMQPPublisher) send(ev ShowEvent) error {
    ch, err := p.channel()
    if err != nil {
        return err
    }
    body, err := json.Marshal(ev)
    if err != nil {
        return fmt.Errorf("marshal event: %w", err)
    }

    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent, // store on disk
        Timestamp:    time.Now().UTC(),
        Type:         ev.Type,
        Body:         body,
    }

    ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
    defer cancel()
    return ch.PublishWithContext(ctx,
        "",      // default exchange
        p.queue, // routing key = queue name
        false,   // mandatory
        false,   // immediate
        pub,
    )
}

// channel returns an open channel, dialing and declaring the queue first
// when needed.
func (p *AMQPPublisher) channel() (*amqp.Channel, error) {
    if p.ch != nil && !p.ch.IsClosed() {
        return p.ch, nil
    }
    if p.conn == nil || p.conn.IsClosed() {
        conn, err := amqp.DialConfig(p.url, amqp.Config{Dial: amqp.DefaultDial(2 * time.Second)})
        if err != nil {
            return nil, fmt.Errorf("dial: %w", err)
        }
        p.conn = conn
    }
    ch, err := p.conn.Channel()
    if err != nil {
        return nil, fmt.Errorf("channel open: %w", err)
    }
    // Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
    if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
        _ = ch.Close()
        return nil, fmt.Errorf("queue declare: %w", err)
    }
    p.ch = ch
    return ch, nil
}

func (p *AMQPPublisher) reset() {
    if p.ch != nil {
        _ = p.ch.Close()
        p.ch = nil
    }
    if p.conn != nil {
        _ = p.conn.Close()
        p.conn = nil
    }
}
