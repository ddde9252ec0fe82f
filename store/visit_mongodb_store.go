package store

import (
	"context"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel/trace"

	"github.com/yijiasang/glamap/domain"
)

const STATS_COLLECTION = "stats"

const pageVisitKey = "pageVisits"

// VisitMongoDBStore keeps the visit counter in a single document and bumps it
// with $inc, so concurrent visits never read-modify-write in application code.
type VisitMongoDBStore struct {
	stats  *mongo.Collection
	tracer trace.Tracer
	logger *logrus.Logger
}

func NewVisitMongoDBStore(client *mongo.Client, tracer trace.Tracer, logger *logrus.Logger) domain.VisitStore {
	stats := client.Database(DATABASE).Collection(STATS_COLLECTION)
	return &VisitMongoDBStore{
		stats:  stats,
		tracer: tracer,
		logger: logger,
	}
}

func (store *VisitMongoDBStore) Increment(ctx context.Context) error {
	ctx, span := store.tracer.Start(ctx, "VisitStore.Increment")
	defer span.End()

	opts := options.Update().SetUpsert(true)
	_, err := store.stats.UpdateOne(ctx,
		bson.M{"_id": pageVisitKey},
		bson.M{"$inc": bson.M{"count": 1}},
		opts,
	)
	return err
}

func (store *VisitMongoDBStore) Count(ctx context.Context) (int64, error) {
	ctx, span := store.tracer.Start(ctx, "VisitStore.Count")
	defer span.End()

	result := store.stats.FindOne(ctx, bson.M{"_id": pageVisitKey})

	var doc struct {
		Count int64 `bson:"count"`
	}
	if err := result.Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return 0, nil
		}
		return 0, err
	}
	return doc.Count, nil
}
