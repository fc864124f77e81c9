package challenge

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"perfboard/internal/domain/domainerr"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const challengeColumns = `
    id, organization_id, title, COALESCE(description, ''), category, period_start, period_end,
    points, difficulty, participation_type, eligibility_type, eligibility_ids, evaluation_metrics,
    status, created_at`

func scanChallenge(row pgx.Row) (Challenge, error) {
	var c Challenge
	err := row.Scan(&c.ID, &c.OrganizationID, &c.Title, &c.Description, &c.Category, &c.PeriodStart, &c.PeriodEnd,
		&c.Points, &c.Difficulty, &c.ParticipationType, &c.Eligibility.Type, &c.Eligibility.EntityIDs,
		&c.EvaluationMetrics, &c.Status, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Challenge{}, domainerr.ErrNotFound
	}
	return c, err
}

func (s *Store) ListChallenges(ctx context.Context, orgID string, statuses ...string) ([]Challenge, error) {
	query := `SELECT` + challengeColumns + ` FROM challenges WHERE organization_id = $1`
	args := []any{orgID}
	if len(statuses) > 0 {
		query += " AND status = ANY($2)"
		args = append(args, statuses)
	}
	query += " ORDER BY period_start DESC, title"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Challenge
	for rows.Next() {
		c, err := scanChallenge(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) GetChallenge(ctx context.Context, orgID, challengeID string) (Challenge, error) {
	return scanChallenge(s.DB.QueryRow(ctx, `
    SELECT`+challengeColumns+`
    FROM challenges
    WHERE organization_id = $1 AND id = $2
  `, orgID, challengeID))
}

func (s *Store) CreateChallenge(ctx context.Context, c Challenge) (string, error) {
	ids := c.Eligibility.EntityIDs
	if ids == nil {
		ids = []string{}
	}
	metrics := c.EvaluationMetrics
	if metrics == nil {
		metrics = []string{}
	}
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO challenges (organization_id, title, description, category, period_start, period_end, points,
                            difficulty, participation_type, eligibility_type, eligibility_ids, evaluation_metrics, status)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
    RETURNING id
  `, c.OrganizationID, c.Title, nullIfEmpty(c.Description), c.Category, c.PeriodStart, c.PeriodEnd, c.Points,
		c.Difficulty, c.ParticipationType, c.Eligibility.Type, ids, metrics, c.Status).Scan(&id)
	return id, err
}

func (s *Store) UpdateChallengeStatus(ctx context.Context, orgID, challengeID, from, to string) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE challenges SET status = $1, updated_at = now()
    WHERE organization_id = $2 AND id = $3 AND status = $4
  `, to, orgID, challengeID, from)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainerr.ErrConflict
	}
	return nil
}

const participationColumns = `
    id, organization_id, challenge_id, employee_id, status, COALESCE(submission, ''), score,
    COALESCE(feedback, ''), COALESCE(reviewer_id::text, ''), accepted_at, submitted_at, reviewed_at`

func scanParticipation(row pgx.Row) (Participation, error) {
	var p Participation
	err := row.Scan(&p.ID, &p.OrganizationID, &p.ChallengeID, &p.EmployeeID, &p.Status, &p.Submission, &p.Score,
		&p.Feedback, &p.ReviewerID, &p.AcceptedAt, &p.SubmittedAt, &p.ReviewedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Participation{}, domainerr.ErrNotFound
	}
	return p, err
}

func (s *Store) GetParticipation(ctx context.Context, orgID, challengeID, employeeID string) (Participation, error) {
	return scanParticipation(s.DB.QueryRow(ctx, `
    SELECT`+participationColumns+`
    FROM challenge_participations
    WHERE organization_id = $1 AND challenge_id = $2 AND employee_id = $3
  `, orgID, challengeID, employeeID))
}

func (s *Store) ListParticipations(ctx context.Context, orgID, challengeID string) ([]Participation, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT`+participationColumns+`
    FROM challenge_participations
    WHERE organization_id = $1 AND challenge_id = $2
    ORDER BY created_at
  `, orgID, challengeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Participation
	for rows.Next() {
		p, err := scanParticipation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) CreateParticipation(ctx context.Context, p Participation) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO challenge_participations (organization_id, challenge_id, employee_id, status)
    VALUES ($1,$2,$3,$4)
    RETURNING id
  `, p.OrganizationID, p.ChallengeID, p.EmployeeID, p.Status).Scan(&id)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return "", domainerr.ErrConflict
	}
	return id, err
}

func (s *Store) UpdateParticipation(ctx context.Context, p Participation, from string) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE challenge_participations
    SET status = $1, submission = $2, score = $3, feedback = $4, reviewer_id = $5,
        accepted_at = $6, submitted_at = $7, reviewed_at = $8, updated_at = now()
    WHERE organization_id = $9 AND id = $10 AND status = $11
  `, p.Status, nullIfEmpty(p.Submission), p.Score, nullIfEmpty(p.Feedback), nullIfEmpty(p.ReviewerID),
		p.AcceptedAt, p.SubmittedAt, p.ReviewedAt, p.OrganizationID, p.ID, from)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainerr.ErrConflict
	}
	return nil
}

func (s *Store) ApprovedPoints(ctx context.Context, orgID string, endFrom, endTo time.Time) (map[string]int, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT p.employee_id, COALESCE(SUM(p.score), 0)
    FROM challenge_participations p
    JOIN challenges c ON c.id = p.challenge_id
    WHERE p.organization_id = $1 AND p.status = $2
      AND c.period_end BETWEEN $3 AND $4
    GROUP BY p.employee_id
  `, orgID, ParticipationApproved, endFrom, endTo)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var employeeID string
		var points int
		if err := rows.Scan(&employeeID, &points); err != nil {
			return nil, err
		}
		out[employeeID] = points
	}
	return out, rows.Err()
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
