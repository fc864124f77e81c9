package evaluation

import (
	"context"

	"perfboard/internal/domain/period"
)

// StoreAPI is the evaluation store adapter. Implementations exist for
// Postgres (Store) and MongoDB (MongoStore).
type StoreAPI interface {
	ListEvaluations(ctx context.Context, orgID, employeeID string, rng period.DateRange) ([]Evaluation, error)
	ListOrganizationEvaluations(ctx context.Context, orgID string, rng period.DateRange) ([]Evaluation, error)
	GetEvaluation(ctx context.Context, orgID, evaluationID string) (Evaluation, error)
	CreateEvaluation(ctx context.Context, ev Evaluation) (string, error)
	UpdateEvaluation(ctx context.Context, ev Evaluation) error
	ListTasks(ctx context.Context, orgID string) ([]Task, error)
	CreateTask(ctx context.Context, task Task) (string, error)
}
