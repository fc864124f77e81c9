package awards

import (
	"context"
	"encoding/json"
	"errors"

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

const awardColumns = `
    id, organization_id, title, COALESCE(description, ''), monetary_value, COALESCE(non_monetary_value, ''),
    period, winner_count, eligible_departments, status, is_recurring, COALESCE(specific_month, ''),
    values_per_position, created_at`

func scanAward(row pgx.Row) (Award, error) {
	var a Award
	var positions []byte
	err := row.Scan(&a.ID, &a.OrganizationID, &a.Title, &a.Description, &a.MonetaryValue, &a.NonMonetaryValue,
		&a.Period, &a.WinnerCount, &a.EligibleDepartments, &a.Status, &a.IsRecurring, &a.SpecificMonth,
		&positions, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Award{}, domainerr.ErrNotFound
	}
	if err != nil {
		return Award{}, err
	}
	if len(positions) > 0 {
		if err := json.Unmarshal(positions, &a.ValuesPerPosition); err != nil {
			return Award{}, err
		}
	}
	return a, nil
}

func (s *Store) ListAwards(ctx context.Context, orgID string) ([]Award, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT`+awardColumns+`
    FROM awards
    WHERE organization_id = $1
    ORDER BY created_at
  `, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Award
	for rows.Next() {
		a, err := scanAward(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) GetAward(ctx context.Context, orgID, awardID string) (Award, error) {
	return scanAward(s.DB.QueryRow(ctx, `
    SELECT`+awardColumns+`
    FROM awards
    WHERE organization_id = $1 AND id = $2
  `, orgID, awardID))
}

func (s *Store) CreateAward(ctx context.Context, a Award) (string, error) {
	positions, err := json.Marshal(a.ValuesPerPosition)
	if err != nil {
		return "", err
	}
	depts := a.EligibleDepartments
	if depts == nil {
		depts = []string{AllDepartments}
	}
	var id string
	err = s.DB.QueryRow(ctx, `
    INSERT INTO awards (organization_id, title, description, monetary_value, non_monetary_value, period,
                        winner_count, eligible_departments, status, is_recurring, specific_month, values_per_position)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
    RETURNING id
  `, a.OrganizationID, a.Title, nullIfEmpty(a.Description), a.MonetaryValue, nullIfEmpty(a.NonMonetaryValue), a.Period,
		a.WinnerCount, depts, a.Status, a.IsRecurring, nullIfEmpty(a.SpecificMonth), positions).Scan(&id)
	return id, err
}

func (s *Store) UpdateAward(ctx context.Context, a Award) error {
	positions, err := json.Marshal(a.ValuesPerPosition)
	if err != nil {
		return err
	}
	tag, err := s.DB.Exec(ctx, `
    UPDATE awards
    SET title = $1, description = $2, monetary_value = $3, non_monetary_value = $4, period = $5,
        winner_count = $6, eligible_departments = $7, status = $8, is_recurring = $9,
        specific_month = $10, values_per_position = $11, updated_at = now()
    WHERE organization_id = $12 AND id = $13
  `, a.Title, nullIfEmpty(a.Description), a.MonetaryValue, nullIfEmpty(a.NonMonetaryValue), a.Period,
		a.WinnerCount, a.EligibleDepartments, a.Status, a.IsRecurring, nullIfEmpty(a.SpecificMonth), positions,
		a.OrganizationID, a.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainerr.ErrNotFound
	}
	return nil
}

const historyColumns = `
    id, organization_id, award_id, period, award_title, winners, COALESCE(notes, ''),
    COALESCE(delivery_photo_url, ''), COALESCE(certificate_url, ''), created_at`

func scanHistory(row pgx.Row) (HistoryEntry, error) {
	var h HistoryEntry
	var winners []byte
	err := row.Scan(&h.ID, &h.OrganizationID, &h.AwardID, &h.Period, &h.AwardTitle, &winners, &h.Notes,
		&h.DeliveryPhotoURL, &h.CertificateURL, &h.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return HistoryEntry{}, domainerr.ErrNotFound
	}
	if err != nil {
		return HistoryEntry{}, err
	}
	if err := json.Unmarshal(winners, &h.Winners); err != nil {
		return HistoryEntry{}, err
	}
	return h, nil
}

func (s *Store) UpsertHistory(ctx context.Context, entry HistoryEntry) (HistoryEntry, error) {
	winners, err := json.Marshal(entry.Winners)
	if err != nil {
		return HistoryEntry{}, err
	}
	return scanHistory(s.DB.QueryRow(ctx, `
    INSERT INTO award_history AS h (organization_id, award_id, period, award_title, winners, notes)
    VALUES ($1,$2,$3,$4,$5,$6)
    ON CONFLICT (organization_id, award_id, period) DO UPDATE
      SET award_title = EXCLUDED.award_title,
          winners = EXCLUDED.winners,
          notes = COALESCE(EXCLUDED.notes, h.notes),
          certificate_url = NULL,
          updated_at = now()
    RETURNING`+historyColumns,
		entry.OrganizationID, entry.AwardID, entry.Period, entry.AwardTitle, winners, nullIfEmpty(entry.Notes)))
}

func (s *Store) ListHistory(ctx context.Context, orgID, period string) ([]HistoryEntry, error) {
	query := `SELECT` + historyColumns + ` FROM award_history WHERE organization_id = $1`
	args := []any{orgID}
	if period != "" {
		query += " AND period = $2"
		args = append(args, period)
	}
	query += " ORDER BY period DESC, award_title"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []HistoryEntry
	for rows.Next() {
		h, err := scanHistory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (s *Store) GetHistory(ctx context.Context, orgID, historyID string) (HistoryEntry, error) {
	return scanHistory(s.DB.QueryRow(ctx, `
    SELECT`+historyColumns+`
    FROM award_history
    WHERE organization_id = $1 AND id = $2
  `, orgID, historyID))
}

func (s *Store) SetCertificateURL(ctx context.Context, orgID, historyID, url string) error {
	return s.setHistoryLink(ctx, "certificate_url", orgID, historyID, url)
}

func (s *Store) SetDeliveryPhotoURL(ctx context.Context, orgID, historyID, url string) error {
	return s.setHistoryLink(ctx, "delivery_photo_url", orgID, historyID, url)
}

// setHistoryLink updates one link column; column is always a constant.
func (s *Store) setHistoryLink(ctx context.Context, column, orgID, historyID, url string) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE award_history SET `+column+` = $1, updated_at = now()
    WHERE organization_id = $2 AND id = $3
  `, url, orgID, historyID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainerr.ErrNotFound
	}
	return nil
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
