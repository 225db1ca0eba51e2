package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func TokenHash(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// FindActiveUser looks a user up by username or email.
func (s *Store) FindActiveUser(ctx context.Context, login string) (*User, error) {
	var user User
	err := s.DB.QueryRow(ctx, `
    SELECT u.id, u.username, u.email, u.password_hash, u.role_id, r.name,
           COALESCE(u.employee_id::text, ''), u.status, u.last_login_at, u.created_at
    FROM users u
    JOIN roles r ON r.id = u.role_id
    WHERE (u.username = $1 OR u.email = $1) AND u.status = 'active'
  `, login).Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.RoleID, &user.RoleName,
		&user.EmployeeID, &user.Status, &user.LastLoginAt, &user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Store) GetUser(ctx context.Context, userID string) (*User, error) {
	var user User
	err := s.DB.QueryRow(ctx, `
    SELECT u.id, u.username, u.email, u.password_hash, u.role_id, r.name,
           COALESCE(u.employee_id::text, ''), u.status, u.last_login_at, u.created_at
    FROM users u
    JOIN roles r ON r.id = u.role_id
    WHERE u.id = $1
  `, userID).Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.RoleID, &user.RoleName,
		&user.EmployeeID, &user.Status, &user.LastLoginAt, &user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Store) CreateSession(ctx context.Context, userID, tokenHash string, expires time.Time) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO sessions (user_id, token_hash, expires_at)
    VALUES ($1, $2, $3)
  `, userID, tokenHash, expires)
	return err
}

func (s *Store) RevokeSession(ctx context.Context, userID, tokenHash string) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE sessions SET revoked = TRUE
    WHERE user_id = $1 AND token_hash = $2
  `, userID, tokenHash)
	return err
}

func (s *Store) SessionValid(ctx context.Context, userID, tokenHash string) (bool, error) {
	var count int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1) FROM sessions
    WHERE user_id = $1 AND token_hash = $2 AND NOT revoked AND expires_at > now()
  `, userID, tokenHash).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) UpdateLastLogin(ctx context.Context, userID string) error {
	_, err := s.DB.Exec(ctx, "UPDATE users SET last_login_at = now() WHERE id = $1", userID)
	return err
}
