package queue

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"hrms/internal/platform/config"
)

// EmailMessage is the payload published for the mail worker.
type EmailMessage struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Publisher pushes notification emails onto a durable rabbitmq queue.
// A nil publisher is a no-op so the API keeps serving without a broker.
type Publisher struct {
	channel        *amqp.Channel
	queue          string
	publishTimeout time.Duration
}

func NewPublisher(conn *amqp.Connection, cfg *config.Config) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}
	if _, err := DeclareQueue(ch, cfg.RabbitMQ.MailQueue); err != nil {
		_ = ch.Close()
		return nil, err
	}
	return &Publisher{
		channel:        ch,
		queue:          cfg.RabbitMQ.MailQueue,
		publishTimeout: time.Duration(cfg.RabbitMQ.PublishTimeout) * time.Second,
	}, nil
}

func DeclareQueue(ch *amqp.Channel, name string) (amqp.Queue, error) {
	return ch.QueueDeclare(
		name,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
}

func (p *Publisher) Close() error {
	if p == nil || p.channel == nil {
		return nil
	}
	return p.channel.Close()
}

func (p *Publisher) PublishEmail(ctx context.Context, msg EmailMessage) error {
	if p == nil || p.channel == nil {
		return nil
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	publishCtx, cancel := context.WithTimeout(ctx, p.publishTimeout)
	defer cancel()

	err = p.channel.PublishWithContext(publishCtx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		slog.Warn("email publish failed", "to", msg.To, "err", err)
	}
	return err
}
