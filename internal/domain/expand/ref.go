// Package expand models foreign keys that may arrive either as a raw
// id string or as a populated record, and normalizes access to both.
package expand

import (
	"encoding/json"
	"fmt"
)

// Ref is a tagged union: either a bare reference (id only) or an
// expanded record that carries its id in an "id" field.
type Ref[T any] struct {
	id     string
	record *T
}

func Reference[T any](id string) Ref[T] {
	return Ref[T]{id: id}
}

func Expanded[T any](id string, record *T) Ref[T] {
	return Ref[T]{id: id, record: record}
}

// ID normalizes the union to an identifier.
func (r Ref[T]) ID() string {
	return r.id
}

// Record returns the populated record when available.
func (r Ref[T]) Record() (*T, bool) {
	return r.record, r.record != nil
}

func (r Ref[T]) IsZero() bool {
	return r.id == "" && r.record == nil
}

func (r Ref[T]) MarshalJSON() ([]byte, error) {
	if r.record != nil {
		return json.Marshal(r.record)
	}
	if r.id == "" {
		return []byte("null"), nil
	}
	return json.Marshal(r.id)
}

func (r *Ref[T]) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = Ref[T]{}
		return nil
	}

	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		*r = Ref[T]{id: id}
		return nil
	}

	var record T
	if err := json.Unmarshal(data, &record); err != nil {
		return fmt.Errorf("ref is neither id nor record: %w", err)
	}
	var probe struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(data, &probe)
	*r = Ref[T]{id: probe.ID, record: &record}
	return nil
}
