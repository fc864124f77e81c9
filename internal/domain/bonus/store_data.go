package bonus

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

// GetConfig returns the zero value policy when the organization never saved one.
func (s *Store) GetConfig(ctx context.Context, orgID string) (Config, error) {
	var cfg Config
	err := s.DB.QueryRow(ctx, `
    SELECT bonus_base_value, bonus_zero_limit
    FROM organization_settings
    WHERE organization_id = $1
  `, orgID).Scan(&cfg.BaseValue, &cfg.ZeroLimit)
	if errors.Is(err, pgx.ErrNoRows) {
		return Config{}, nil
	}
	return cfg, err
}

func (s *Store) UpdateConfig(ctx context.Context, orgID string, cfg Config) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO organization_settings (organization_id, bonus_base_value, bonus_zero_limit)
    VALUES ($1,$2,$3)
    ON CONFLICT (organization_id) DO UPDATE
      SET bonus_base_value = EXCLUDED.bonus_base_value,
          bonus_zero_limit = EXCLUDED.bonus_zero_limit,
          updated_at = now()
  `, orgID, cfg.BaseValue, cfg.ZeroLimit)
	return err
}
