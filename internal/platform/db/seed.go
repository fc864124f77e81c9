package db

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"perfboard/internal/domain/auth"
	"perfboard/internal/domain/ranking"
)

type SeedOptions struct {
	OrganizationName string
	AdminEmail       string
	AdminPassword    string
}

// Seed makes sure a default organization, its settings rows and an admin
// account exist. It is safe to run on every start.
func Seed(ctx context.Context, pool *pgxpool.Pool, opts SeedOptions) (string, error) {
	orgID, err := ensureOrganization(ctx, pool, opts.OrganizationName)
	if err != nil {
		return "", err
	}
	if err := ensureSettings(ctx, pool, orgID); err != nil {
		return "", err
	}
	if err := ensureAdminUser(ctx, pool, orgID, opts.AdminEmail, opts.AdminPassword); err != nil {
		return "", err
	}
	return orgID, nil
}

func ensureOrganization(ctx context.Context, pool *pgxpool.Pool, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("seed organization name is required")
	}
	var id string
	err := pool.QueryRow(ctx, "SELECT id FROM organizations WHERE name = $1", name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", err
	}
	err = pool.QueryRow(ctx, "INSERT INTO organizations (name) VALUES ($1) RETURNING id", name).Scan(&id)
	return id, err
}

func ensureSettings(ctx context.Context, pool *pgxpool.Pool, orgID string) error {
	defaults := ranking.DefaultSettings()
	if _, err := pool.Exec(ctx, `
    INSERT INTO ranking_settings (organization_id, tie_breaker, include_probation, public_view_enabled, notification_level, include_challenge_points)
    VALUES ($1,$2,$3,$4,$5,$6)
    ON CONFLICT (organization_id) DO NOTHING
  `, orgID, defaults.TieBreaker, defaults.IncludeProbation, defaults.PublicViewEnabled, defaults.NotificationLevel, defaults.IncludeChallengePoints); err != nil {
		return err
	}
	_, err := pool.Exec(ctx, `
    INSERT INTO organization_settings (organization_id)
    VALUES ($1)
    ON CONFLICT (organization_id) DO NOTHING
  `, orgID)
	return err
}

func ensureAdminUser(ctx context.Context, pool *pgxpool.Pool, orgID, email, password string) error {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(password) == "" {
		return nil
	}

	var id string
	err := pool.QueryRow(ctx, "SELECT id FROM users WHERE organization_id = $1 AND email = $2", orgID, strings.ToLower(email)).Scan(&id)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	_, err = pool.Exec(ctx, "INSERT INTO users (organization_id, email, password_hash, role, status) VALUES ($1, $2, $3, $4, $5)",
		orgID, strings.ToLower(email), hash, auth.RoleSuperAdmin, auth.UserStatusActive)
	return err
}
