package access

import "time"

type Role struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	PolicyIDs   []string  `json:"policy_ids,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type Policy struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	PermissionIDs []string  `json:"permission_ids,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Permission mirrors a row-level-security rule: which action on which
// collection, optionally narrowed to fields and row conditions.
type Permission struct {
	ID         string            `json:"id"`
	Collection string            `json:"collection"`
	Action     string            `json:"action"`
	Fields     []string          `json:"fields"`
	Conditions map[string]string `json:"conditions"`
}
