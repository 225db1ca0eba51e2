package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Event is one recorded state change: who did what to which entity,
// with optional before/after snapshots.
type Event struct {
	ID         string          `json:"id"`
	ActorID    string          `json:"actor_id,omitempty"`
	Action     string          `json:"action"`
	EntityType string          `json:"entity_type"`
	EntityID   string          `json:"entity_id"`
	RequestID  string          `json:"request_id,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	Before     json.RawMessage `json:"before,omitempty"`
	After      json.RawMessage `json:"after,omitempty"`
}

type Filter struct {
	Action     string
	EntityType string
	EntityID   string
	ActorID    string
}

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

// Record appends an event. Snapshots are marshalled here so callers
// pass domain structs directly.
func (s *Store) Record(ctx context.Context, actorID, action, entityType, entityID, requestID string, before, after any) error {
	var beforeJSON, afterJSON []byte
	if before != nil {
		payload, err := json.Marshal(before)
		if err != nil {
			return err
		}
		beforeJSON = payload
	}
	if after != nil {
		payload, err := json.Marshal(after)
		if err != nil {
			return err
		}
		afterJSON = payload
	}

	_, err := s.DB.Exec(ctx, `
    INSERT INTO audit_events (actor_id, action, entity_type, entity_id, request_id, before_json, after_json)
    VALUES (NULLIF($1, '')::uuid, $2, $3, $4, $5, $6, $7)
  `, actorID, action, entityType, entityID, requestID, beforeJSON, afterJSON)
	return err
}

func (s *Store) List(ctx context.Context, filter Filter, limit, offset int) ([]Event, int, error) {
	where, args := buildWhere(filter)

	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM audit_events"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
    SELECT id, COALESCE(actor_id::text, ''), action, entity_type, entity_id,
           request_id, created_at, before_json, after_json
    FROM audit_events` + where + " ORDER BY created_at DESC"
	if limit > 0 {
		args = append(args, limit, offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	events := make([]Event, 0)
	for rows.Next() {
		var evt Event
		err := rows.Scan(&evt.ID, &evt.ActorID, &evt.Action, &evt.EntityType,
			&evt.EntityID, &evt.RequestID, &evt.CreatedAt, &evt.Before, &evt.After)
		if err != nil {
			return nil, 0, err
		}
		events = append(events, evt)
	}
	return events, total, rows.Err()
}

func buildWhere(filter Filter) (string, []any) {
	where := " WHERE TRUE"
	args := []any{}
	if filter.Action != "" {
		args = append(args, filter.Action)
		where += fmt.Sprintf(" AND action = $%d", len(args))
	}
	if filter.EntityType != "" {
		args = append(args, filter.EntityType)
		where += fmt.Sprintf(" AND entity_type = $%d", len(args))
	}
	if filter.EntityID != "" {
		args = append(args, filter.EntityID)
		where += fmt.Sprintf(" AND entity_id = $%d", len(args))
	}
	if filter.ActorID != "" {
		args = append(args, filter.ActorID)
		where += fmt.Sprintf(" AND actor_id::text = $%d", len(args))
	}
	return where, args
}
