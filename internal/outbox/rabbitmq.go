package outbox

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"adminBackend/internal/logger"
)

// RabbitMQPublisher sends events to a durable queue as persistent messages.
type RabbitMQPublisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
	log     logger.Logger
}

// dialAttempts and dialBackoff cover a broker that starts after the service.
const (
	dialAttempts = 10
	dialBackoff  = 2 * time.Second
)

func NewRabbitMQPublisher(ctx context.Context, url string, queueName string, log logger.Logger) (*RabbitMQPublisher, error) {
	if log == nil {
		log = logger.Nop()
	}
	var conn *amqp.Connection
	var err error
	for i := 0; i < dialAttempts; i++ {
		conn, err = amqp.Dial(url)
		if err == nil {
			break
		}
		log.Warn(fmt.Sprintf("[RabbitMQ] failed to connect, retrying in %s (%d/%d)", dialBackoff, i+1, dialAttempts))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(dialBackoff):
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}
	_, err = ch.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare a queue: %w", err)
	}
	return &RabbitMQPublisher{conn: conn, channel: ch, queue: queueName, log: log}, nil
}

func (p *RabbitMQPublisher) Publish(ctx context.Context, id string, topic string, payload []byte) error {
	err := p.channel.PublishWithContext(ctx,
		"",      // exchange
		p.queue, // routing key
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			MessageId:    id,
			Type:         topic,
			ContentType:  "application/json",
			Body:         payload,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		})
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	p.log.Debug(fmt.Sprintf("[RabbitMQ] published %s to queue %s", id, p.queue))
	return nil
}

func (p *RabbitMQPublisher) Close() {
	_ = p.channel.Close()
	_ = p.conn.Close()
}
