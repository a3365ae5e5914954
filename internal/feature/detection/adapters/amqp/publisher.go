// Package amqp publishes detection verdicts to a RabbitMQ topic exchange.
package amqp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"phish_backend/internal/feature/detection/domain/entity"
	"phish_backend/internal/feature/detection/usecase"
)

// RoutingKeyPrefix is followed by the lowercased verdict, e.g. verdict.phishing.
const RoutingKeyPrefix = "verdict."

// VerdictEvent is the message body published for every archived verdict.
type VerdictEvent struct {
	ID        string         `json:"id"`
	Identity  string         `json:"identity"`
	URL       string         `json:"url"`
	URLHash   string         `json:"url_hash"`
	Verdict   entity.Verdict `json:"verdict"`
	Methods   []string       `json:"methods"`
	CreatedAt time.Time      `json:"created_at"`
}

// channel is the part of *amqp.Channel the publisher uses.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher implements usecase.Archive by publishing VerdictEvents.
type Publisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       channel
	exchange string
	logger   *slog.Logger
}

var _ usecase.Archive = (*Publisher)(nil)

// Dial connects to url and declares exchange as a durable topic exchange.
func Dial(url, exchange string, logger *slog.Logger) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %q: %w", exchange, err)
	}

	p := newPublisher(ch, exchange, logger)
	p.conn = conn
	go p.watch(conn.NotifyClose(make(chan *amqp.Error, 1)))
	return p, nil
}

func newPublisher(ch channel, exchange string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{ch: ch, exchange: exchange, logger: logger}
}

func (p *Publisher) watch(closed <-chan *amqp.Error) {
	if err, ok := <-closed; ok && err != nil {
		p.logger.Error("AMQP connection closed", "error", err)
	}
}

// Append publishes rec as a persistent JSON message.
func (p *Publisher) Append(ctx context.Context, rec entity.AuditRecord) error {
	methods := make([]string, 0, len(rec.Results))
	for _, r := range rec.Results {
		methods = append(methods, r.Method)
	}
	body, err := json.Marshal(VerdictEvent{
		ID:        rec.ID,
		Identity:  rec.Identity,
		URL:       rec.URL,
		URLHash:   rec.URLHash,
		Verdict:   rec.Verdict,
		Methods:   methods,
		CreatedAt: rec.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal verdict event: %w", err)
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
	}

	key := RoutingKeyPrefix + strings.ToLower(string(rec.Verdict))
	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.ch.PublishWithContext(ctx, p.exchange, key, false, false, amqp.Publishing{
		ContentType:  "application/json",
		MessageId:    rec.ID,
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    rec.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to publish to exchange %q with routing key %q: %w", p.exchange, key, err)
	}
	p.logger.Debug("verdict published", "exchange", p.exchange, "routing_key", key, "record", rec.ID)
	return nil
}

// Close closes the channel and the connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	if err := p.ch.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	return errors.Join(errs...)
}
