package access

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

// HasPermission resolves role -> policies -> permissions, honouring the
// "*" wildcard on both collection and action.
func (s *Store) HasPermission(ctx context.Context, roleID, collection, action string) (bool, error) {
	var count int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM role_policies rp
    JOIN policy_permissions pp ON pp.policy_id = rp.policy_id
    JOIN permissions p ON p.id = pp.permission_id
    WHERE rp.role_id = $1
      AND (p.collection = $2 OR p.collection = '*')
      AND (p.action = $3 OR p.action = '*')
  `, roleID, collection, action).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) ListRoles(ctx context.Context) ([]Role, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT r.id, r.name, r.description, r.created_at,
           COALESCE(array_agg(rp.policy_id::text) FILTER (WHERE rp.policy_id IS NOT NULL), '{}')
    FROM roles r
    LEFT JOIN role_policies rp ON rp.role_id = r.id
    GROUP BY r.id
    ORDER BY r.name
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.PolicyIDs); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

func (s *Store) GetRole(ctx context.Context, id string) (*Role, error) {
	var role Role
	err := s.DB.QueryRow(ctx, `
    SELECT r.id, r.name, r.description, r.created_at,
           COALESCE(array_agg(rp.policy_id::text) FILTER (WHERE rp.policy_id IS NOT NULL), '{}')
    FROM roles r
    LEFT JOIN role_policies rp ON rp.role_id = r.id
    WHERE r.id = $1
    GROUP BY r.id
  `, id).Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.PolicyIDs)
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func (s *Store) CreateRole(ctx context.Context, name, description string, policyIDs []string) (string, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var id string
	if err := tx.QueryRow(ctx, `
    INSERT INTO roles (name, description) VALUES ($1, $2) RETURNING id
  `, name, description).Scan(&id); err != nil {
		return "", err
	}
	for _, policyID := range policyIDs {
		if _, err := tx.Exec(ctx, `
      INSERT INTO role_policies (role_id, policy_id) VALUES ($1, $2) ON CONFLICT DO NOTHING
    `, id, policyID); err != nil {
			return "", err
		}
	}
	return id, tx.Commit(ctx)
}

func (s *Store) UpdateRole(ctx context.Context, id, name, description string, policyIDs []string) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
    UPDATE roles SET name = $2, description = $3 WHERE id = $1
  `, id, name, description); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, "DELETE FROM role_policies WHERE role_id = $1", id); err != nil {
		return err
	}
	for _, policyID := range policyIDs {
		if _, err := tx.Exec(ctx, `
      INSERT INTO role_policies (role_id, policy_id) VALUES ($1, $2) ON CONFLICT DO NOTHING
    `, id, policyID); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *Store) DeleteRole(ctx context.Context, id string) error {
	_, err := s.DB.Exec(ctx, "DELETE FROM roles WHERE id = $1", id)
	return err
}

func (s *Store) ListPolicies(ctx context.Context) ([]Policy, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT p.id, p.name, p.description, p.created_at,
           COALESCE(array_agg(pp.permission_id::text) FILTER (WHERE pp.permission_id IS NOT NULL), '{}')
    FROM policies p
    LEFT JOIN policy_permissions pp ON pp.policy_id = p.id
    GROUP BY p.id
    ORDER BY p.name
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var policies []Policy
	for rows.Next() {
		var policy Policy
		if err := rows.Scan(&policy.ID, &policy.Name, &policy.Description, &policy.CreatedAt, &policy.PermissionIDs); err != nil {
			return nil, err
		}
		policies = append(policies, policy)
	}
	return policies, rows.Err()
}

func (s *Store) GetPolicy(ctx context.Context, id string) (*Policy, error) {
	var policy Policy
	err := s.DB.QueryRow(ctx, `
    SELECT p.id, p.name, p.description, p.created_at,
           COALESCE(array_agg(pp.permission_id::text) FILTER (WHERE pp.permission_id IS NOT NULL), '{}')
    FROM policies p
    LEFT JOIN policy_permissions pp ON pp.policy_id = p.id
    WHERE p.id = $1
    GROUP BY p.id
  `, id).Scan(&policy.ID, &policy.Name, &policy.Description, &policy.CreatedAt, &policy.PermissionIDs)
	if err != nil {
		return nil, err
	}
	return &policy, nil
}

func (s *Store) CreatePolicy(ctx context.Context, name, description string, permissionIDs []string) (string, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var id string
	if err := tx.QueryRow(ctx, `
    INSERT INTO policies (name, description) VALUES ($1, $2) RETURNING id
  `, name, description).Scan(&id); err != nil {
		return "", err
	}
	for _, permissionID := range permissionIDs {
		if _, err := tx.Exec(ctx, `
      INSERT INTO policy_permissions (policy_id, permission_id) VALUES ($1, $2) ON CONFLICT DO NOTHING
    `, id, permissionID); err != nil {
			return "", err
		}
	}
	return id, tx.Commit(ctx)
}

func (s *Store) UpdatePolicy(ctx context.Context, id, name, description string, permissionIDs []string) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
    UPDATE policies SET name = $2, description = $3 WHERE id = $1
  `, id, name, description); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, "DELETE FROM policy_permissions WHERE policy_id = $1", id); err != nil {
		return err
	}
	for _, permissionID := range permissionIDs {
		if _, err := tx.Exec(ctx, `
      INSERT INTO policy_permissions (policy_id, permission_id) VALUES ($1, $2) ON CONFLICT DO NOTHING
    `, id, permissionID); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *Store) DeletePolicy(ctx context.Context, id string) error {
	_, err := s.DB.Exec(ctx, "DELETE FROM policies WHERE id = $1", id)
	return err
}

func (s *Store) ListPermissions(ctx context.Context) ([]Permission, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, collection, action, fields, conditions
    FROM permissions
    ORDER BY collection, action
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var permissions []Permission
	for rows.Next() {
		perm, err := scanPermission(rows.Scan)
		if err != nil {
			return nil, err
		}
		permissions = append(permissions, perm)
	}
	return permissions, rows.Err()
}

func (s *Store) GetPermission(ctx context.Context, id string) (*Permission, error) {
	row := s.DB.QueryRow(ctx, `
    SELECT id, collection, action, fields, conditions
    FROM permissions
    WHERE id = $1
  `, id)
	perm, err := scanPermission(row.Scan)
	if err != nil {
		return nil, err
	}
	return &perm, nil
}

func (s *Store) CreatePermission(ctx context.Context, perm Permission) (string, error) {
	conditions, err := marshalConditions(perm.Conditions)
	if err != nil {
		return "", err
	}
	var id string
	err = s.DB.QueryRow(ctx, `
    INSERT INTO permissions (collection, action, fields, conditions)
    VALUES ($1, $2, $3, $4)
    RETURNING id
  `, perm.Collection, perm.Action, fieldsOrEmpty(perm.Fields), conditions).Scan(&id)
	return id, err
}

func (s *Store) UpdatePermission(ctx context.Context, id string, perm Permission) error {
	conditions, err := marshalConditions(perm.Conditions)
	if err != nil {
		return err
	}
	_, err = s.DB.Exec(ctx, `
    UPDATE permissions
    SET collection = $2, action = $3, fields = $4, conditions = $5
    WHERE id = $1
  `, id, perm.Collection, perm.Action, fieldsOrEmpty(perm.Fields), conditions)
	return err
}

func (s *Store) DeletePermission(ctx context.Context, id string) error {
	_, err := s.DB.Exec(ctx, "DELETE FROM permissions WHERE id = $1", id)
	return err
}

func scanPermission(scan func(...any) error) (Permission, error) {
	var perm Permission
	var conditions []byte
	if err := scan(&perm.ID, &perm.Collection, &perm.Action, &perm.Fields, &conditions); err != nil {
		return Permission{}, err
	}
	if len(conditions) > 0 {
		if err := json.Unmarshal(conditions, &perm.Conditions); err != nil {
			return Permission{}, err
		}
	}
	return perm, nil
}

func marshalConditions(conditions map[string]string) ([]byte, error) {
	if conditions == nil {
		conditions = map[string]string{}
	}
	return json.Marshal(conditions)
}

func fieldsOrEmpty(fields []string) []string {
	if fields == nil {
		return []string{}
	}
	return fields
}
