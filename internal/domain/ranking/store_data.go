package ranking

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

// GetSettings falls back to DefaultSettings until an admin saves a configuration.
func (s *Store) GetSettings(ctx context.Context, orgID string) (Settings, error) {
	var out Settings
	err := s.DB.QueryRow(ctx, `
    SELECT tie_breaker, include_probation, public_view_enabled, notification_level,
           include_challenge_points, manual_order
    FROM ranking_settings
    WHERE organization_id = $1
  `, orgID).Scan(&out.TieBreaker, &out.IncludeProbation, &out.PublicViewEnabled, &out.NotificationLevel,
		&out.IncludeChallengePoints, &out.ManualOrder)
	if errors.Is(err, pgx.ErrNoRows) {
		return DefaultSettings(), nil
	}
	if err != nil {
		return Settings{}, err
	}
	return out, nil
}

func (s *Store) UpdateSettings(ctx context.Context, orgID string, settings Settings) error {
	manual := settings.ManualOrder
	if manual == nil {
		manual = []string{}
	}
	_, err := s.DB.Exec(ctx, `
    INSERT INTO ranking_settings (organization_id, tie_breaker, include_probation, public_view_enabled,
                                  notification_level, include_challenge_points, manual_order)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
    ON CONFLICT (organization_id) DO UPDATE
      SET tie_breaker = EXCLUDED.tie_breaker,
          include_probation = EXCLUDED.include_probation,
          public_view_enabled = EXCLUDED.public_view_enabled,
          notification_level = EXCLUDED.notification_level,
          include_challenge_points = EXCLUDED.include_challenge_points,
          manual_order = EXCLUDED.manual_order,
          updated_at = now()
  `, orgID, settings.TieBreaker, settings.IncludeProbation, settings.PublicViewEnabled,
		settings.NotificationLevel, settings.IncludeChallengePoints, manual)
	return err
}
