package notifications

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"hrms/internal/platform/queue"
)

type fakeStore struct {
	recipients []Recipient
	err        error
	got        Notification
}

func (f *fakeStore) CreateWithFanout(_ context.Context, n Notification, _ []string) (*Notification, []Recipient, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	f.got = n
	n.ID = "n-1"
	return &n, f.recipients, nil
}

type fakePublisher struct {
	sent []queue.EmailMessage
	err  error
}

func (f *fakePublisher) PublishEmail(_ context.Context, msg queue.EmailMessage) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCreateEnqueuesEmailPerRecipient(t *testing.T) {
	store := &fakeStore{recipients: []Recipient{
		{UserID: "u1", Email: "a@example.com"},
		{UserID: "u2", Email: ""},
		{UserID: "u3", Email: "c@example.com"},
	}}
	publisher := &fakePublisher{}
	svc := NewService(store, publisher, discardLogger())

	created, err := svc.Create(context.Background(), Notification{
		Title:         "Schedule published",
		Body:          "The week of March 2 is live.",
		Level:         LevelInfo,
		RecipientType: RecipientAll,
	}, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID != "n-1" {
		t.Fatalf("unexpected id %q", created.ID)
	}
	if len(publisher.sent) != 2 {
		t.Fatalf("expected 2 emails (blank address skipped), got %d", len(publisher.sent))
	}
	if publisher.sent[0].Subject != "[info] Schedule published" {
		t.Fatalf("unexpected subject %q", publisher.sent[0].Subject)
	}
}

func TestCreateSurvivesEnqueueFailure(t *testing.T) {
	store := &fakeStore{recipients: []Recipient{{UserID: "u1", Email: "a@example.com"}}}
	publisher := &fakePublisher{err: errors.New("broker down")}
	svc := NewService(store, publisher, discardLogger())

	created, err := svc.Create(context.Background(), Notification{
		Title:         "Heads up",
		Level:         LevelWarning,
		RecipientType: RecipientAll,
	}, nil)
	if err != nil {
		t.Fatalf("enqueue failure must not fail the create: %v", err)
	}
	if created == nil {
		t.Fatalf("expected the created notification back")
	}
}

func TestCreatePropagatesStoreError(t *testing.T) {
	store := &fakeStore{err: ErrNoRecipients}
	svc := NewService(store, &fakePublisher{}, discardLogger())

	if _, err := svc.Create(context.Background(), Notification{
		Title:         "Orphan",
		Level:         LevelInfo,
		RecipientType: RecipientGroup,
	}, []string{"missing-role"}); !errors.Is(err, ErrNoRecipients) {
		t.Fatalf("expected ErrNoRecipients, got %v", err)
	}
}
