package notifications

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNoRecipients  = errors.New("notification resolved to no recipients")
	ErrBadRecipients = errors.New("recipient_type requires recipient ids")
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) ListNotifications(ctx context.Context, level string, limit, offset int) ([]Notification, int, error) {
	where := []string{"TRUE"}
	args := []any{}
	if level != "" {
		args = append(args, level)
		where = append(where, fmt.Sprintf("n.level = $%d", len(args)))
	}
	whereClause := strings.Join(where, " AND ")

	var total int
	if err := s.DB.QueryRow(ctx,
		"SELECT COUNT(1) FROM notifications n WHERE "+whereClause, args...,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
    SELECT n.id, n.title, n.body, n.level, n.recipient_type,
           COALESCE(n.created_by::text, ''), n.created_at
    FROM notifications n WHERE ` + whereClause + ` ORDER BY n.created_at DESC`
	if limit > 0 {
		args = append(args, limit, offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	notifications := make([]Notification, 0)
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.Title, &n.Body, &n.Level, &n.RecipientType, &n.CreatedBy, &n.CreatedAt); err != nil {
			return nil, 0, err
		}
		notifications = append(notifications, n)
	}
	return notifications, total, rows.Err()
}

func (s *Store) GetNotification(ctx context.Context, id string) (*Notification, error) {
	var n Notification
	err := s.DB.QueryRow(ctx, `
    SELECT n.id, n.title, n.body, n.level, n.recipient_type,
           COALESCE(n.created_by::text, ''), n.created_at
    FROM notifications n WHERE n.id = $1
  `, id).Scan(&n.ID, &n.Title, &n.Body, &n.Level, &n.RecipientType, &n.CreatedBy, &n.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// resolveRecipients maps the recipient type to concrete active users.
// Individual ids are user ids, group ids are role ids.
func (s *Store) resolveRecipients(ctx context.Context, recipientType string, recipientIDs []string) ([]Recipient, error) {
	var query string
	var args []any
	switch recipientType {
	case RecipientAll:
		query = `
      SELECT u.id::text, u.email
      FROM users u WHERE u.status = 'active'`
	case RecipientIndividual:
		if len(recipientIDs) == 0 {
			return nil, ErrBadRecipients
		}
		query = `
      SELECT u.id::text, u.email
      FROM users u WHERE u.status = 'active' AND u.id = ANY($1::uuid[])`
		args = append(args, recipientIDs)
	case RecipientGroup:
		if len(recipientIDs) == 0 {
			return nil, ErrBadRecipients
		}
		query = `
      SELECT u.id::text, u.email
      FROM users u WHERE u.status = 'active' AND u.role_id = ANY($1::uuid[])`
		args = append(args, recipientIDs)
	default:
		return nil, fmt.Errorf("unknown recipient_type %q", recipientType)
	}

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recipients := make([]Recipient, 0)
	for rows.Next() {
		var r Recipient
		if err := rows.Scan(&r.UserID, &r.Email); err != nil {
			return nil, err
		}
		recipients = append(recipients, r)
	}
	return recipients, rows.Err()
}

// CreateWithFanout inserts the notification and one delivery per
// resolved recipient in a single transaction.
func (s *Store) CreateWithFanout(ctx context.Context, n Notification, recipientIDs []string) (*Notification, []Recipient, error) {
	recipients, err := s.resolveRecipients(ctx, n.RecipientType, recipientIDs)
	if err != nil {
		return nil, nil, err
	}
	if len(recipients) == 0 {
		return nil, nil, ErrNoRecipients
	}

	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback(ctx)

	var id string
	err = tx.QueryRow(ctx, `
    INSERT INTO notifications (title, body, level, recipient_type, created_by)
    VALUES ($1, $2, $3, $4, NULLIF($5, '')::uuid)
    RETURNING id
  `, n.Title, n.Body, n.Level, n.RecipientType, n.CreatedBy).Scan(&id)
	if err != nil {
		return nil, nil, err
	}

	batch := &pgx.Batch{}
	for _, r := range recipients {
		batch.Queue(`
      INSERT INTO notification_deliveries (notification_id, user_id)
      VALUES ($1, $2) ON CONFLICT DO NOTHING
    `, id, r.UserID)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, err
	}
	created, err := s.GetNotification(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return created, recipients, nil
}

func (s *Store) DeleteNotification(ctx context.Context, id string) error {
	_, err := s.DB.Exec(ctx, `DELETE FROM notifications WHERE id = $1`, id)
	return err
}

// Feed lists the user's deliveries, newest first, with the
// notification embedded.
func (s *Store) Feed(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]Delivery, int, error) {
	where := []string{"d.user_id = $1"}
	args := []any{userID}
	if unreadOnly {
		where = append(where, "d.read_at IS NULL")
	}
	whereClause := strings.Join(where, " AND ")

	var total int
	if err := s.DB.QueryRow(ctx,
		"SELECT COUNT(1) FROM notification_deliveries d WHERE "+whereClause, args...,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
    SELECT d.id, d.notification_id, d.user_id::text, d.read_at, d.created_at,
           n.id, n.title, n.body, n.level, n.recipient_type,
           COALESCE(n.created_by::text, ''), n.created_at
    FROM notification_deliveries d
    JOIN notifications n ON n.id = d.notification_id
    WHERE ` + whereClause + ` ORDER BY d.created_at DESC`
	if limit > 0 {
		args = append(args, limit, offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	deliveries := make([]Delivery, 0)
	for rows.Next() {
		var d Delivery
		var n Notification
		err := rows.Scan(
			&d.ID, &d.NotificationID, &d.UserID, &d.ReadAt, &d.CreatedAt,
			&n.ID, &n.Title, &n.Body, &n.Level, &n.RecipientType, &n.CreatedBy, &n.CreatedAt,
		)
		if err != nil {
			return nil, 0, err
		}
		d.Notification = &n
		deliveries = append(deliveries, d)
	}
	return deliveries, total, rows.Err()
}

// MarkRead flips the delivery's read_at once; rereads keep the first
// timestamp. Only the owning user can mark their delivery.
func (s *Store) MarkRead(ctx context.Context, deliveryID, userID string) (*Delivery, error) {
	var d Delivery
	err := s.DB.QueryRow(ctx, `
    UPDATE notification_deliveries
    SET read_at = COALESCE(read_at, now())
    WHERE id = $1 AND user_id = $2
    RETURNING id, notification_id, user_id::text, read_at, created_at
  `, deliveryID, userID).Scan(&d.ID, &d.NotificationID, &d.UserID, &d.ReadAt, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
