package evaluation

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"perfboard/internal/domain/domainerr"
	"perfboard/internal/domain/period"
)

const (
	CollectionEvaluations = "evaluations"
	CollectionTasks       = "evaluation_tasks"
)

// MongoStore keeps evaluations and tasks as documents, one document per
// (employee, task, day).
type MongoStore struct {
	evaluations *mongo.Collection
	tasks       *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		evaluations: db.Collection(CollectionEvaluations),
		tasks:       db.Collection(CollectionTasks),
	}
}

type evaluationDoc struct {
	ID             string     `bson:"_id"`
	OrganizationID string     `bson:"organization_id"`
	EmployeeID     string     `bson:"employee_id"`
	TaskID         string     `bson:"task_id"`
	Date           time.Time  `bson:"date"`
	Score          int        `bson:"score"`
	Justification  string     `bson:"justification,omitempty"`
	EvidenceURL    string     `bson:"evidence_url,omitempty"`
	EvaluatorID    string     `bson:"evaluator_id"`
	IsDraft        bool       `bson:"is_draft"`
	LastEdited     *time.Time `bson:"last_edited,omitempty"`
	CreatedAt      time.Time  `bson:"created_at"`
}

func (d evaluationDoc) model() Evaluation {
	return Evaluation{
		ID:             d.ID,
		OrganizationID: d.OrganizationID,
		EmployeeID:     d.EmployeeID,
		TaskID:         d.TaskID,
		Date:           d.Date.UTC(),
		Score:          d.Score,
		Justification:  d.Justification,
		EvidenceURL:    d.EvidenceURL,
		EvaluatorID:    d.EvaluatorID,
		IsDraft:        d.IsDraft,
		LastEdited:     d.LastEdited,
		CreatedAt:      d.CreatedAt,
	}
}

type taskDoc struct {
	ID             string   `bson:"_id"`
	OrganizationID string   `bson:"organization_id"`
	Title          string   `bson:"title"`
	Description    string   `bson:"description,omitempty"`
	Criteria       string   `bson:"criteria,omitempty"`
	TargetType     string   `bson:"target_type"`
	TargetIDs      []string `bson:"target_ids,omitempty"`
	Weekdays       []int    `bson:"weekdays,omitempty"`
	Active         bool     `bson:"active"`
}

func (d taskDoc) model() Task {
	task := Task{
		ID:             d.ID,
		OrganizationID: d.OrganizationID,
		Title:          d.Title,
		Description:    d.Description,
		Criteria:       d.Criteria,
		Target:         Target{Type: d.TargetType, EntityIDs: d.TargetIDs},
		Active:         d.Active,
	}
	for _, wd := range d.Weekdays {
		task.Weekdays = append(task.Weekdays, time.Weekday(wd))
	}
	return task
}

// dateFilter matches the closed day range [start, end].
func dateFilter(rng period.DateRange) bson.M {
	return bson.M{"$gte": period.Day(rng.Start), "$lt": period.Day(rng.End).AddDate(0, 0, 1)}
}

func (s *MongoStore) findEvaluations(ctx context.Context, filter bson.M) ([]Evaluation, error) {
	opts := options.Find().SetSort(bson.D{{Key: "employee_id", Value: 1}, {Key: "date", Value: 1}, {Key: "task_id", Value: 1}})
	cursor, err := s.evaluations.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []evaluationDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]Evaluation, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.model())
	}
	return out, nil
}

func (s *MongoStore) ListEvaluations(ctx context.Context, orgID, employeeID string, rng period.DateRange) ([]Evaluation, error) {
	return s.findEvaluations(ctx, bson.M{
		"organization_id": orgID,
		"employee_id":     employeeID,
		"date":            dateFilter(rng),
	})
}

func (s *MongoStore) ListOrganizationEvaluations(ctx context.Context, orgID string, rng period.DateRange) ([]Evaluation, error) {
	return s.findEvaluations(ctx, bson.M{
		"organization_id": orgID,
		"date":            dateFilter(rng),
	})
}

func (s *MongoStore) GetEvaluation(ctx context.Context, orgID, evaluationID string) (Evaluation, error) {
	var doc evaluationDoc
	err := s.evaluations.FindOne(ctx, bson.M{"_id": evaluationID, "organization_id": orgID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Evaluation{}, domainerr.ErrNotFound
	}
	if err != nil {
		return Evaluation{}, err
	}
	return doc.model(), nil
}

func (s *MongoStore) CreateEvaluation(ctx context.Context, ev Evaluation) (string, error) {
	doc := evaluationDoc{
		ID:             uuid.NewString(),
		OrganizationID: ev.OrganizationID,
		EmployeeID:     ev.EmployeeID,
		TaskID:         ev.TaskID,
		Date:           period.Day(ev.Date),
		Score:          ev.Score,
		Justification:  ev.Justification,
		EvidenceURL:    ev.EvidenceURL,
		EvaluatorID:    ev.EvaluatorID,
		IsDraft:        ev.IsDraft,
		CreatedAt:      time.Now().UTC(),
	}
	if _, err := s.evaluations.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", domainerr.ErrConflict
		}
		return "", err
	}
	return doc.ID, nil
}

func (s *MongoStore) UpdateEvaluation(ctx context.Context, ev Evaluation) error {
	res, err := s.evaluations.UpdateOne(ctx,
		bson.M{"_id": ev.ID, "organization_id": ev.OrganizationID},
		bson.M{"$set": bson.M{
			"score":         ev.Score,
			"justification": ev.Justification,
			"evidence_url":  ev.EvidenceURL,
			"is_draft":      ev.IsDraft,
			"last_edited":   ev.LastEdited,
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domainerr.ErrNotFound
	}
	return nil
}

func (s *MongoStore) ListTasks(ctx context.Context, orgID string) ([]Task, error) {
	cursor, err := s.tasks.Find(ctx, bson.M{"organization_id": orgID}, options.Find().SetSort(bson.D{{Key: "title", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []taskDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]Task, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.model())
	}
	return out, nil
}

func (s *MongoStore) CreateTask(ctx context.Context, task Task) (string, error) {
	doc := taskDoc{
		ID:             uuid.NewString(),
		OrganizationID: task.OrganizationID,
		Title:          task.Title,
		Description:    task.Description,
		Criteria:       task.Criteria,
		TargetType:     task.Target.Type,
		TargetIDs:      task.Target.EntityIDs,
		Active:         task.Active,
	}
	for _, wd := range task.Weekdays {
		doc.Weekdays = append(doc.Weekdays, int(wd))
	}
	if _, err := s.tasks.InsertOne(ctx, doc); err != nil {
		return "", err
	}
	return doc.ID, nil
}
