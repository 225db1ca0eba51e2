package notifications

import (
	"context"
	"fmt"
	"log/slog"

	"hrms/internal/platform/queue"
)

// Fanout is the store surface the service needs; the concrete Store
// implements it.
type Fanout interface {
	CreateWithFanout(ctx context.Context, n Notification, recipientIDs []string) (*Notification, []Recipient, error)
}

// EmailPublisher enqueues outbound mail; the rabbitmq publisher
// implements it.
type EmailPublisher interface {
	PublishEmail(ctx context.Context, msg queue.EmailMessage) error
}

type Service struct {
	store     Fanout
	publisher EmailPublisher
	logger    *slog.Logger
}

func NewService(store Fanout, publisher EmailPublisher, logger *slog.Logger) *Service {
	return &Service{store: store, publisher: publisher, logger: logger}
}

// Create fans the notification out to deliveries and enqueues one
// email per recipient with a known address. A failed enqueue is
// logged, never rolled back: the in-app delivery already exists.
func (s *Service) Create(ctx context.Context, n Notification, recipientIDs []string) (*Notification, error) {
	created, recipients, err := s.store.CreateWithFanout(ctx, n, recipientIDs)
	if err != nil {
		return nil, err
	}

	subject := fmt.Sprintf("[%s] %s", created.Level, created.Title)
	for _, r := range recipients {
		if r.Email == "" {
			continue
		}
		msg := queue.EmailMessage{To: r.Email, Subject: subject, Body: created.Body}
		if err := s.publisher.PublishEmail(ctx, msg); err != nil {
			s.logger.Error("email enqueue failed", "notification_id", created.ID, "to", r.Email, "error", err)
		}
	}

	s.logger.Info("notification created",
		"notification_id", created.ID,
		"recipient_type", created.RecipientType,
		"deliveries", len(recipients))
	return created, nil
}
