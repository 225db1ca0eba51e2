package db

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"hrms/internal/domain/access"
	"hrms/internal/platform/config"
)

// Seed provisions the RBAC matrix and the initial admin account. It is
// idempotent so it can run on every boot.
func Seed(ctx context.Context, pool *pgxpool.Pool, cfg *config.Config) error {
	if err := ensurePermissions(ctx, pool); err != nil {
		return err
	}

	policyIDs, err := ensurePolicies(ctx, pool)
	if err != nil {
		return err
	}

	roleIDs, err := ensureRoles(ctx, pool, policyIDs)
	if err != nil {
		return err
	}

	return ensureAdminUser(ctx, pool, roleIDs[access.RoleAdmin], cfg)
}

func ensurePermissions(ctx context.Context, pool *pgxpool.Pool) error {
	for _, perm := range access.DefaultPermissions {
		_, err := pool.Exec(ctx, `
      INSERT INTO permissions (collection, action)
      VALUES ($1, $2)
      ON CONFLICT (collection, action) DO NOTHING
    `, perm.Collection, perm.Action)
		if err != nil {
			return err
		}
	}
	return nil
}

func ensurePolicies(ctx context.Context, pool *pgxpool.Pool) (map[string]string, error) {
	policyIDs := make(map[string]string)
	for name, grants := range access.DefaultPolicies {
		var id string
		err := pool.QueryRow(ctx, "SELECT id FROM policies WHERE name = $1", name).Scan(&id)
		if errors.Is(err, pgx.ErrNoRows) {
			err = pool.QueryRow(ctx, "INSERT INTO policies (name) VALUES ($1) RETURNING id", name).Scan(&id)
		}
		if err != nil {
			return nil, err
		}
		policyIDs[name] = id

		for _, grant := range grants {
			_, err := pool.Exec(ctx, `
        INSERT INTO policy_permissions (policy_id, permission_id)
        SELECT $1, id FROM permissions WHERE collection = $2 AND action = $3
        ON CONFLICT DO NOTHING
      `, id, grant.Collection, grant.Action)
			if err != nil {
				return nil, err
			}
		}
	}
	return policyIDs, nil
}

func ensureRoles(ctx context.Context, pool *pgxpool.Pool, policyIDs map[string]string) (map[string]string, error) {
	roleIDs := make(map[string]string)
	for role, policies := range access.DefaultRolePolicies {
		var id string
		err := pool.QueryRow(ctx, "SELECT id FROM roles WHERE name = $1", role).Scan(&id)
		if errors.Is(err, pgx.ErrNoRows) {
			err = pool.QueryRow(ctx, "INSERT INTO roles (name) VALUES ($1) RETURNING id", role).Scan(&id)
		}
		if err != nil {
			return nil, err
		}
		roleIDs[role] = id

		for _, policy := range policies {
			policyID, ok := policyIDs[policy]
			if !ok {
				continue
			}
			_, err := pool.Exec(ctx, `
        INSERT INTO role_policies (role_id, policy_id)
        VALUES ($1, $2)
        ON CONFLICT DO NOTHING
      `, id, policyID)
			if err != nil {
				return nil, err
			}
		}
	}
	return roleIDs, nil
}

func ensureAdminUser(ctx context.Context, pool *pgxpool.Pool, roleID string, cfg *config.Config) error {
	username := strings.TrimSpace(cfg.Seed.AdminUsername)
	if username == "" || cfg.Seed.AdminPassword == "" {
		return nil
	}

	var count int
	if err := pool.QueryRow(ctx, "SELECT COUNT(1) FROM users WHERE username = $1", username).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Seed.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	_, err = pool.Exec(ctx, `
    INSERT INTO users (username, email, password_hash, role_id)
    VALUES ($1, $2, $3, $4)
  `, username, cfg.Seed.AdminEmail, string(hash), roleID)
	return err
}
