package events

import (
	"context"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/rl1809/garage-ledger/internal/core/domain"
)

const exchangeType = "topic"

// RabbitMQPublisher sends stock alerts to a durable topic exchange.
type RabbitMQPublisher struct {
	conn        *amqp.Connection
	exchange    string
	serviceName string

	mu      sync.Mutex
	channel *amqp.Channel
}

func NewRabbitMQPublisher(url, exchange, serviceName string, log *zap.Logger) (*RabbitMQPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(
		exchange,
		exchangeType,
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,   // arguments
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	log.Info("publisher connected to RabbitMQ", zap.String("exchange", exchange))

	return &RabbitMQPublisher{
		conn:        conn,
		channel:     ch,
		exchange:    exchange,
		serviceName: serviceName,
	}, nil
}

func (p *RabbitMQPublisher) PublishStockAlert(ctx context.Context, alert domain.StockAlert) error {
	event := NewStockCriticalEvent(alert)
	body, err := encode(event)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel == nil {
		return fmt.Errorf("publisher channel is nil")
	}

	err = p.channel.PublishWithContext(ctx,
		p.exchange,
		RoutingKeyStockCritical,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			AppId:        p.serviceName,
			MessageId:    event.EventID,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

func (p *RabbitMQPublisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel != nil {
		p.channel.Close()
		p.channel = nil
	}
	if p.conn != nil {
		p.conn.Close()
	}
}
