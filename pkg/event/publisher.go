package event

import (
	"context"
	"fmt"
	"sync"

	"github.com/goccy/go-json"
	amqp "github.com/rabbitmq/amqp091-go"

	"account-api/pkg/config"
)

const (
	ContentTypeJson = "application/json"
	exchangeKind    = "topic"
)

type Publisher interface {
	Publish(ctx context.Context, event *Event) error
	Close() error
}

type rabbitMqPublisher struct {
	mu         sync.Mutex
	url        string
	exchange   string
	connection *amqp.Connection
	channel    *amqp.Channel
}

// NewPublisher dials the broker and declares a durable topic exchange. When no
// url is configured it returns a publisher that drops every event.
func NewPublisher(rabbitMqConfig config.RabbitMqConfig) (Publisher, error) {
	if !rabbitMqConfig.Enabled() {
		return NewNoopPublisher(), nil
	}

	publisher := &rabbitMqPublisher{
		url:      rabbitMqConfig.Url,
		exchange: rabbitMqConfig.Exchange,
	}

	publisher.mu.Lock()
	defer publisher.mu.Unlock()

	err := publisher.ensureChannel()
	if err != nil {
		return nil, err
	}

	return publisher, nil
}

// ensureChannel redials the connection and reopens the channel when the broker
// has closed either of them. Callers must hold mu.
func (p *rabbitMqPublisher) ensureChannel() error {
	if p.connection == nil || p.connection.IsClosed() {
		p.channel = nil

		connection, err := amqp.Dial(p.url)
		if err != nil {
			return fmt.Errorf("rabbitmq dial failed: %w", err)
		}
		p.connection = connection
	}

	if p.channel != nil && !p.channel.IsClosed() {
		return nil
	}

	channel, err := p.connection.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq channel open failed: %w", err)
	}

	err = channel.ExchangeDeclare(
		p.exchange,
		exchangeKind,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = channel.Close()
		return fmt.Errorf("rabbitmq exchange declare failed: %w", err)
	}

	p.channel = channel
	return nil
}

func (p *rabbitMqPublisher) Publish(ctx context.Context, event *Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event failed: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.ensureChannel()
	if err != nil {
		return err
	}

	return p.channel.PublishWithContext(ctx,
		p.exchange,
		event.Type,
		false,
		false,
		amqp.Publishing{
			ContentType:  ContentTypeJson,
			DeliveryMode: amqp.Persistent,
			MessageId:    event.Id,
			Timestamp:    event.OccurredAt,
			Body:         body,
		},
	)
}

func (p *rabbitMqPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var channelErr error
	if p.channel != nil && !p.channel.IsClosed() {
		channelErr = p.channel.Close()
	}
	p.channel = nil

	if p.connection == nil || p.connection.IsClosed() {
		p.connection = nil
		return channelErr
	}

	err := p.connection.Close()
	p.connection = nil
	if channelErr != nil {
		return channelErr
	}
	return err
}

type noopPublisher struct{}

func NewNoopPublisher() Publisher {
	return noopPublisher{}
}

func (noopPublisher) Publish(context.Context, *Event) error {
	return nil
}

func (noopPublisher) Close() error {
	return nil
}
