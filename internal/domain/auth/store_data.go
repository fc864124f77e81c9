package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"perfboard/internal/domain/domainerr"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) FindActiveUserByEmail(ctx context.Context, email string) (User, error) {
	var out User
	err := s.DB.QueryRow(ctx, `
    SELECT id, organization_id, email, role, status, password_hash, last_login
    FROM users
    WHERE lower(email) = lower($1) AND status = $2
  `, strings.TrimSpace(email), UserStatusActive).Scan(&out.ID, &out.OrganizationID, &out.Email, &out.Role, &out.Status, &out.PasswordHash, &out.LastLogin)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, domainerr.ErrNotFound
	}
	return out, err
}

func (s *Store) UpdateLastLogin(ctx context.Context, userID string) error {
	_, err := s.DB.Exec(ctx, "UPDATE users SET last_login = now() WHERE id = $1", userID)
	return err
}

func (s *Store) CreateUser(ctx context.Context, user User) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO users (organization_id, email, password_hash, role, status)
    VALUES ($1,$2,$3,$4,$5)
    ON CONFLICT (organization_id, email) DO NOTHING
    RETURNING id
  `, user.OrganizationID, strings.ToLower(strings.TrimSpace(user.Email)), user.PasswordHash, user.Role, user.Status).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", domainerr.ErrConflict
	}
	return id, err
}

func (s *Store) OrganizationName(ctx context.Context, orgID string) (string, error) {
	var name string
	err := s.DB.QueryRow(ctx, "SELECT name FROM organizations WHERE id = $1", orgID).Scan(&name)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", domainerr.ErrNotFound
	}
	return name, err
}
