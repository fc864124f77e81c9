// Package docstore connects to MongoDB for the document-backed evaluation store.
package docstore

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"perfboard/internal/domain/evaluation"
)

func Connect(ctx context.Context, uri, database string) (*mongo.Client, *mongo.Database, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("connect mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, client.Database(database), nil
}

// Indexes lists the indexes the evaluation collections rely on. The unique
// index enforces one evaluation per employee, task and day.
func Indexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		evaluation.CollectionEvaluations: {
			{
				Keys: bson.D{
					{Key: "organization_id", Value: 1},
					{Key: "employee_id", Value: 1},
					{Key: "task_id", Value: 1},
					{Key: "date", Value: 1},
				},
				Options: options.Index().SetName("uniq_org_employee_task_date").SetUnique(true),
			},
			{
				Keys: bson.D{
					{Key: "organization_id", Value: 1},
					{Key: "date", Value: 1},
				},
				Options: options.Index().SetName("idx_org_date"),
			},
		},
		evaluation.CollectionTasks: {
			{
				Keys:    bson.D{{Key: "organization_id", Value: 1}, {Key: "title", Value: 1}},
				Options: options.Index().SetName("idx_org_title"),
			},
		},
	}
}

func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	for collection, models := range Indexes() {
		if _, err := db.Collection(collection).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create %s indexes: %w", collection, err)
		}
	}
	return nil
}
