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

const NOTIFICATION_COLLECTION = "notifications"

type NotificationMongoDBStore struct {
	notifications *mongo.Collection
	tracer        trace.Tracer
	logger        *logrus.Logger
}

func NewNotificationMongoDBStore(client *mongo.Client, tracer trace.Tracer, logger *logrus.Logger) domain.NotificationStore {
	notifications := client.Database(DATABASE).Collection(NOTIFICATION_COLLECTION)
	return &NotificationMongoDBStore{
		notifications: notifications,
		tracer:        tracer,
		logger:        logger,
	}
}

func (store *NotificationMongoDBStore) Get(ctx context.Context, id primitive.ObjectID) (*domain.Notification, error) {
	ctx, span := store.tracer.Start(ctx, "NotificationStore.Get")
	defer span.End()

	result := store.notifications.FindOne(ctx, bson.M{"_id": id})

	var notification domain.Notification
	if err := result.Decode(&notification); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &notification, nil
}

func (store *NotificationMongoDBStore) GetByProfile(ctx context.Context, profileID primitive.ObjectID) ([]*domain.Notification, error) {
	ctx, span := store.tracer.Start(ctx, "NotificationStore.GetByProfile")
	defer span.End()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := store.notifications.Find(ctx, bson.M{"profileId": profileID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var notifications []*domain.Notification
	for cursor.Next(ctx) {
		var notification domain.Notification
		if err := cursor.Decode(&notification); err != nil {
			return nil, err
		}
		notifications = append(notifications, &notification)
	}
	return notifications, cursor.Err()
}

func (store *NotificationMongoDBStore) Create(ctx context.Context, notification *domain.Notification) (*domain.Notification, error) {
	ctx, span := store.tracer.Start(ctx, "NotificationStore.Create")
	defer span.End()

	notification.ID = primitive.NewObjectID()
	notification.CreatedAt = time.Now()
	result, err := store.notifications.InsertOne(ctx, notification)
	if err != nil {
		store.logger.Errorf("insert notification: %s", err)
		return nil, err
	}
	notification.ID = result.InsertedID.(primitive.ObjectID)
	return notification, nil
}

func (store *NotificationMongoDBStore) MarkRead(ctx context.Context, id primitive.ObjectID) error {
	ctx, span := store.tracer.Start(ctx, "NotificationStore.MarkRead")
	defer span.End()

	// Idempotent: marking an already-read notification matches the document
	// and modifies nothing.
	result, err := store.notifications.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (store *NotificationMongoDBStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	ctx, span := store.tracer.Start(ctx, "NotificationStore.Delete")
	defer span.End()

	result, err := store.notifications.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (store *NotificationMongoDBStore) DeleteByProfile(ctx context.Context, profileID primitive.ObjectID) error {
	ctx, span := store.tracer.Start(ctx, "NotificationStore.DeleteByProfile")
	defer span.End()

	_, err := store.notifications.DeleteMany(ctx, bson.M{"profileId": profileID})
	return err
}
