package evaluation

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"perfboard/internal/domain/domainerr"
	"perfboard/internal/domain/period"
)

const pgUniqueViolation = "23505"

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const evaluationColumns = `
    id, organization_id, employee_id, task_id, eval_date, score,
    COALESCE(justification, ''), COALESCE(evidence_url, ''), evaluator_id,
    is_draft, last_edited, created_at`

func scanEvaluation(row pgx.Row) (Evaluation, error) {
	var ev Evaluation
	err := row.Scan(&ev.ID, &ev.OrganizationID, &ev.EmployeeID, &ev.TaskID, &ev.Date, &ev.Score,
		&ev.Justification, &ev.EvidenceURL, &ev.EvaluatorID, &ev.IsDraft, &ev.LastEdited, &ev.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Evaluation{}, domainerr.ErrNotFound
	}
	return ev, err
}

func (s *Store) listEvaluations(ctx context.Context, query string, args ...any) ([]Evaluation, error) {
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Evaluation
	for rows.Next() {
		ev, err := scanEvaluation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (s *Store) ListEvaluations(ctx context.Context, orgID, employeeID string, rng period.DateRange) ([]Evaluation, error) {
	return s.listEvaluations(ctx, `
    SELECT`+evaluationColumns+`
    FROM evaluations
    WHERE organization_id = $1 AND employee_id = $2 AND eval_date BETWEEN $3 AND $4
    ORDER BY eval_date, task_id
  `, orgID, employeeID, rng.Start, rng.End)
}

func (s *Store) ListOrganizationEvaluations(ctx context.Context, orgID string, rng period.DateRange) ([]Evaluation, error) {
	return s.listEvaluations(ctx, `
    SELECT`+evaluationColumns+`
    FROM evaluations
    WHERE organization_id = $1 AND eval_date BETWEEN $2 AND $3
    ORDER BY employee_id, eval_date, task_id
  `, orgID, rng.Start, rng.End)
}

func (s *Store) GetEvaluation(ctx context.Context, orgID, evaluationID string) (Evaluation, error) {
	return scanEvaluation(s.DB.QueryRow(ctx, `
    SELECT`+evaluationColumns+`
    FROM evaluations
    WHERE organization_id = $1 AND id = $2
  `, orgID, evaluationID))
}

func (s *Store) CreateEvaluation(ctx context.Context, ev Evaluation) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO evaluations (organization_id, employee_id, task_id, eval_date, score, justification, evidence_url, evaluator_id, is_draft)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
    RETURNING id
  `, ev.OrganizationID, ev.EmployeeID, ev.TaskID, period.Day(ev.Date), ev.Score, nullIfEmpty(ev.Justification),
		nullIfEmpty(ev.EvidenceURL), ev.EvaluatorID, ev.IsDraft).Scan(&id)
	if isUniqueViolation(err) {
		return "", domainerr.ErrConflict
	}
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) UpdateEvaluation(ctx context.Context, ev Evaluation) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE evaluations
    SET score = $1, justification = $2, evidence_url = $3, is_draft = $4, last_edited = $5
    WHERE organization_id = $6 AND id = $7
  `, ev.Score, nullIfEmpty(ev.Justification), nullIfEmpty(ev.EvidenceURL), ev.IsDraft, ev.LastEdited, ev.OrganizationID, ev.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainerr.ErrNotFound
	}
	return nil
}

func (s *Store) ListTasks(ctx context.Context, orgID string) ([]Task, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, organization_id, title, COALESCE(description, ''), COALESCE(criteria, ''),
           target_type, target_ids, weekdays, active
    FROM evaluation_tasks
    WHERE organization_id = $1
    ORDER BY title
  `, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Task
	for rows.Next() {
		var task Task
		var weekdays []int32
		if err := rows.Scan(&task.ID, &task.OrganizationID, &task.Title, &task.Description, &task.Criteria,
			&task.Target.Type, &task.Target.EntityIDs, &weekdays, &task.Active); err != nil {
			return nil, err
		}
		for _, wd := range weekdays {
			task.Weekdays = append(task.Weekdays, time.Weekday(wd))
		}
		out = append(out, task)
	}
	return out, rows.Err()
}

func (s *Store) CreateTask(ctx context.Context, task Task) (string, error) {
	weekdays := make([]int32, 0, len(task.Weekdays))
	for _, wd := range task.Weekdays {
		weekdays = append(weekdays, int32(wd))
	}
	if task.Target.EntityIDs == nil {
		task.Target.EntityIDs = []string{}
	}
	var id string
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO evaluation_tasks (organization_id, title, description, criteria, target_type, target_ids, weekdays, active)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
    RETURNING id
  `, task.OrganizationID, task.Title, nullIfEmpty(task.Description), nullIfEmpty(task.Criteria),
		task.Target.Type, task.Target.EntityIDs, weekdays, task.Active).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
