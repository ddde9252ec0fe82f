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

const MESSAGE_COLLECTION = "messages"

type MessageMongoDBStore struct {
	messages *mongo.Collection
	tracer   trace.Tracer
	logger   *logrus.Logger
}

func NewMessageMongoDBStore(client *mongo.Client, tracer trace.Tracer, logger *logrus.Logger) domain.MessageStore {
	messages := client.Database(DATABASE).Collection(MESSAGE_COLLECTION)
	return &MessageMongoDBStore{
		messages: messages,
		tracer:   tracer,
		logger:   logger,
	}
}

// betweenFilter matches both directions of the unordered participant pair.
func betweenFilter(first, second primitive.ObjectID) bson.M {
	return bson.M{"$or": bson.A{
		bson.M{"senderId": first, "receiverId": second},
		bson.M{"senderId": second, "receiverId": first},
	}}
}

func participantFilter(profileID primitive.ObjectID) bson.M {
	return bson.M{"$or": bson.A{
		bson.M{"senderId": profileID},
		bson.M{"receiverId": profileID},
	}}
}

func (store *MessageMongoDBStore) Get(ctx context.Context, id primitive.ObjectID) (*domain.Message, error) {
	ctx, span := store.tracer.Start(ctx, "MessageStore.Get")
	defer span.End()

	result := store.messages.FindOne(ctx, bson.M{"_id": id})

	var message domain.Message
	if err := result.Decode(&message); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &message, nil
}

func (store *MessageMongoDBStore) GetBetween(ctx context.Context, first, second primitive.ObjectID) ([]*domain.Message, error) {
	ctx, span := store.tracer.Start(ctx, "MessageStore.GetBetween")
	defer span.End()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	return store.filter(ctx, betweenFilter(first, second), opts)
}

func (store *MessageMongoDBStore) GetByParticipant(ctx context.Context, profileID primitive.ObjectID) ([]*domain.Message, error) {
	ctx, span := store.tracer.Start(ctx, "MessageStore.GetByParticipant")
	defer span.End()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	return store.filter(ctx, participantFilter(profileID), opts)
}

func (store *MessageMongoDBStore) Create(ctx context.Context, message *domain.Message) (*domain.Message, error) {
	ctx, span := store.tracer.Start(ctx, "MessageStore.Create")
	defer span.End()

	message.ID = primitive.NewObjectID()
	message.CreatedAt = time.Now()
	result, err := store.messages.InsertOne(ctx, message)
	if err != nil {
		store.logger.Errorf("insert message: %s", err)
		return nil, err
	}
	message.ID = result.InsertedID.(primitive.ObjectID)
	return message, nil
}

func (store *MessageMongoDBStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	ctx, span := store.tracer.Start(ctx, "MessageStore.Delete")
	defer span.End()

	result, err := store.messages.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (store *MessageMongoDBStore) DeleteBetween(ctx context.Context, first, second primitive.ObjectID) error {
	ctx, span := store.tracer.Start(ctx, "MessageStore.DeleteBetween")
	defer span.End()

	_, err := store.messages.DeleteMany(ctx, betweenFilter(first, second))
	return err
}

func (store *MessageMongoDBStore) DeleteByParticipant(ctx context.Context, profileID primitive.ObjectID) error {
	ctx, span := store.tracer.Start(ctx, "MessageStore.DeleteByParticipant")
	defer span.End()

	_, err := store.messages.DeleteMany(ctx, participantFilter(profileID))
	return err
}

func (store *MessageMongoDBStore) Count(ctx context.Context) (int64, error) {
	ctx, span := store.tracer.Start(ctx, "MessageStore.Count")
	defer span.End()

	return store.messages.CountDocuments(ctx, bson.D{})
}

func (store *MessageMongoDBStore) filter(ctx context.Context, filter interface{}, opts *options.FindOptions) ([]*domain.Message, error) {
	cursor, err := store.messages.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var messages []*domain.Message
	for cursor.Next(ctx) {
		var message domain.Message
		if err := cursor.Decode(&message); err != nil {
			return nil, err
		}
		messages = append(messages, &message)
	}
	return messages, cursor.Err()
}
