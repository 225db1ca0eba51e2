// Command mailworker drains the notification email queue and delivers
// mail over SMTP. It runs beside the API server so slow SMTP peers
// never block request handling.
package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/wneessen/go-mail"

	"hrms/internal/platform/config"
	"hrms/internal/platform/email"
	"hrms/internal/platform/queue"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("mailworker exited", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
	if err != nil {
		return err
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	if _, err := queue.DeclareQueue(ch, cfg.RabbitMQ.MailQueue); err != nil {
		return err
	}
	if err := ch.Qos(1, 0, false); err != nil {
		return err
	}

	deliveries, err := ch.Consume(cfg.RabbitMQ.MailQueue, "", false, false, false, false, nil)
	if err != nil {
		return err
	}

	client, err := email.NewClient(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("mailworker consuming", "queue", cfg.RabbitMQ.MailQueue)
	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return nil
			}
			handle(ctx, logger, client, cfg, d)
		}
	}
}

func handle(ctx context.Context, logger *slog.Logger, client *mail.Client, cfg *config.Config, d amqp.Delivery) {
	var msg queue.EmailMessage
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		logger.Warn("dropping malformed message", "error", err)
		_ = d.Nack(false, false)
		return
	}

	m, err := email.BuildMessage(cfg.Email.From, msg.To, msg.Subject, msg.Body)
	if err != nil {
		logger.Warn("dropping unaddressable message", "to", msg.To, "error", err)
		_ = d.Nack(false, false)
		return
	}

	if !cfg.Email.Enabled {
		logger.Info("email disabled, discarding", "to", msg.To, "subject", msg.Subject)
		_ = d.Ack(false)
		return
	}

	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		logger.Warn("send failed, requeueing", "to", msg.To, "error", err)
		_ = d.Nack(false, true)
		return
	}
	_ = d.Ack(false)
}
