package employees

import (
	"context"
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

const employeeColumns = `
    id, organization_id, COALESCE(user_id::text, ''), name, email,
    COALESCE(department_id, ''), COALESCE(role, ''), admission_date,
    probation_ends_at, status, created_at`

func scanEmployee(row pgx.Row) (Employee, error) {
	var emp Employee
	err := row.Scan(&emp.ID, &emp.OrganizationID, &emp.UserID, &emp.Name, &emp.Email,
		&emp.DepartmentID, &emp.Role, &emp.AdmissionDate, &emp.ProbationEndsAt, &emp.Status, &emp.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Employee{}, domainerr.ErrNotFound
	}
	return emp, err
}

func (s *Store) ListEmployees(ctx context.Context, orgID string) ([]Employee, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT`+employeeColumns+`
    FROM employees
    WHERE organization_id = $1
    ORDER BY name
  `, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, emp)
	}
	return out, rows.Err()
}

func (s *Store) GetEmployee(ctx context.Context, orgID, employeeID string) (Employee, error) {
	return scanEmployee(s.DB.QueryRow(ctx, `
    SELECT`+employeeColumns+`
    FROM employees
    WHERE organization_id = $1 AND id = $2
  `, orgID, employeeID))
}

func (s *Store) EmployeeByUserID(ctx context.Context, orgID, userID string) (Employee, error) {
	return scanEmployee(s.DB.QueryRow(ctx, `
    SELECT`+employeeColumns+`
    FROM employees
    WHERE organization_id = $1 AND user_id = $2
  `, orgID, userID))
}

func (s *Store) CreateEmployee(ctx context.Context, emp Employee) (string, error) {
	var id string
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO employees (organization_id, user_id, name, email, department_id, role, admission_date, probation_ends_at, status)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
    RETURNING id
  `, emp.OrganizationID, nullIfEmpty(emp.UserID), emp.Name, emp.Email, nullIfEmpty(emp.DepartmentID), nullIfEmpty(emp.Role),
		emp.AdmissionDate, emp.ProbationEndsAt, emp.Status).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
