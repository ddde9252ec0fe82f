package store

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel/trace"

	"github.com/yijiasang/glamap/domain"
	errs "github.com/yijiasang/glamap/errors"
)

const REVIEW_COLLECTION = "reviews"

type ReviewMongoDBStore struct {
	reviews *mongo.Collection
	tracer  trace.Tracer
	logger  *logrus.Logger
}

func NewReviewMongoDBStore(client *mongo.Client, tracer trace.Tracer, logger *logrus.Logger) domain.ReviewStore {
	reviews := client.Database(DATABASE).Collection(REVIEW_COLLECTION)
	return &ReviewMongoDBStore{
		reviews: reviews,
		tracer:  tracer,
		logger:  logger,
	}
}

// EnsureReviewIndexes creates the unique (clientId, providerId) index that
// backs the one-review-per-pair invariant.
func EnsureReviewIndexes(ctx context.Context, client *mongo.Client) error {
	reviews := client.Database(DATABASE).Collection(REVIEW_COLLECTION)
	_, err := reviews.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "clientId", Value: 1}, {Key: "providerId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (store *ReviewMongoDBStore) Get(ctx context.Context, id primitive.ObjectID) (*domain.Review, error) {
	ctx, span := store.tracer.Start(ctx, "ReviewStore.Get")
	defer span.End()

	return store.filterOne(ctx, bson.M{"_id": id})
}

func (store *ReviewMongoDBStore) GetByProvider(ctx context.Context, providerID primitive.ObjectID) ([]*domain.Review, error) {
	ctx, span := store.tracer.Start(ctx, "ReviewStore.GetByProvider")
	defer span.End()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	return store.filter(ctx, bson.M{"providerId": providerID}, opts)
}

func (store *ReviewMongoDBStore) GetByClient(ctx context.Context, clientID primitive.ObjectID) ([]*domain.Review, error) {
	ctx, span := store.tracer.Start(ctx, "ReviewStore.GetByClient")
	defer span.End()

	return store.filter(ctx, bson.M{"clientId": clientID}, nil)
}

func (store *ReviewMongoDBStore) GetByClientAndProvider(ctx context.Context, clientID, providerID primitive.ObjectID) (*domain.Review, error) {
	ctx, span := store.tracer.Start(ctx, "ReviewStore.GetByClientAndProvider")
	defer span.End()

	return store.filterOne(ctx, bson.M{"clientId": clientID, "providerId": providerID})
}

func (store *ReviewMongoDBStore) Create(ctx context.Context, review *domain.Review) (*domain.Review, error) {
	ctx, span := store.tracer.Start(ctx, "ReviewStore.Create")
	defer span.End()

	review.ID = primitive.NewObjectID()
	review.CreatedAt = time.Now()
	result, err := store.reviews.InsertOne(ctx, review)
	if err != nil {
		store.logger.Errorf("insert review: %s", err)
		return nil, translateWriteError(err, errs.ReviewExists)
	}
	review.ID = result.InsertedID.(primitive.ObjectID)
	return review, nil
}

func (store *ReviewMongoDBStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	ctx, span := store.tracer.Start(ctx, "ReviewStore.Delete")
	defer span.End()

	result, err := store.reviews.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (store *ReviewMongoDBStore) DeleteByClient(ctx context.Context, clientID primitive.ObjectID) error {
	ctx, span := store.tracer.Start(ctx, "ReviewStore.DeleteByClient")
	defer span.End()

	_, err := store.reviews.DeleteMany(ctx, bson.M{"clientId": clientID})
	return err
}

func (store *ReviewMongoDBStore) DeleteByProvider(ctx context.Context, providerID primitive.ObjectID) error {
	ctx, span := store.tracer.Start(ctx, "ReviewStore.DeleteByProvider")
	defer span.End()

	_, err := store.reviews.DeleteMany(ctx, bson.M{"providerId": providerID})
	return err
}

func (store *ReviewMongoDBStore) filter(ctx context.Context, filter interface{}, opts *options.FindOptions) ([]*domain.Review, error) {
	var cursor *mongo.Cursor
	var err error
	if opts != nil {
		cursor, err = store.reviews.Find(ctx, filter, opts)
	} else {
		cursor, err = store.reviews.Find(ctx, filter)
	}
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var reviews []*domain.Review
	for cursor.Next(ctx) {
		var review domain.Review
		if err := cursor.Decode(&review); err != nil {
			return nil, err
		}
		reviews = append(reviews, &review)
	}
	return reviews, cursor.Err()
}

func (store *ReviewMongoDBStore) filterOne(ctx context.Context, filter interface{}) (*domain.Review, error) {
	result := store.reviews.FindOne(ctx, filter)

	var review domain.Review
	if err := result.Decode(&review); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &review, nil
}
