package store

import (
	"context"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel/trace"

	"github.com/yijiasang/glamap/domain"
	errs "github.com/yijiasang/glamap/errors"
)

const SERVICE_COLLECTION = "services"

type ServiceMongoDBStore struct {
	services *mongo.Collection
	tracer   trace.Tracer
	logger   *logrus.Logger
}

func NewServiceMongoDBStore(client *mongo.Client, tracer trace.Tracer, logger *logrus.Logger) domain.ServiceStore {
	services := client.Database(DATABASE).Collection(SERVICE_COLLECTION)
	return &ServiceMongoDBStore{
		services: services,
		tracer:   tracer,
		logger:   logger,
	}
}

// EnsureServiceIndexes creates the unique (providerId, name) index that backs
// the service name uniqueness guard.
func EnsureServiceIndexes(ctx context.Context, client *mongo.Client) error {
	services := client.Database(DATABASE).Collection(SERVICE_COLLECTION)
	_, err := services.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "providerId", Value: 1}, {Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true).SetCollation(caseInsensitive),
	})
	return err
}

func (store *ServiceMongoDBStore) Get(ctx context.Context, id primitive.ObjectID) (*domain.Service, error) {
	ctx, span := store.tracer.Start(ctx, "ServiceStore.Get")
	defer span.End()

	filter := bson.M{"_id": id}
	return store.filterOne(ctx, filter, nil)
}

func (store *ServiceMongoDBStore) GetAll(ctx context.Context) ([]*domain.Service, error) {
	ctx, span := store.tracer.Start(ctx, "ServiceStore.GetAll")
	defer span.End()

	return store.filter(ctx, bson.D{}, nil)
}

func (store *ServiceMongoDBStore) GetByProvider(ctx context.Context, providerID primitive.ObjectID) ([]*domain.Service, error) {
	ctx, span := store.tracer.Start(ctx, "ServiceStore.GetByProvider")
	defer span.End()

	filter := bson.M{"providerId": providerID}
	return store.filter(ctx, filter, nil)
}

func (store *ServiceMongoDBStore) GetByNameAndProvider(ctx context.Context, name string, providerID primitive.ObjectID) (*domain.Service, error) {
	ctx, span := store.tracer.Start(ctx, "ServiceStore.GetByNameAndProvider")
	defer span.End()

	filter := bson.M{"providerId": providerID, "name": name}
	opts := options.FindOne().SetCollation(caseInsensitive)
	return store.filterOne(ctx, filter, opts)
}

func (store *ServiceMongoDBStore) Create(ctx context.Context, service *domain.Service) (*domain.Service, error) {
	ctx, span := store.tracer.Start(ctx, "ServiceStore.Create")
	defer span.End()

	service.ID = primitive.NewObjectID()
	result, err := store.services.InsertOne(ctx, service)
	if err != nil {
		store.logger.Errorf("insert service: %s", err)
		return nil, translateWriteError(err, errs.ServiceNameExists)
	}
	service.ID = result.InsertedID.(primitive.ObjectID)
	return service, nil
}

func (store *ServiceMongoDBStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	ctx, span := store.tracer.Start(ctx, "ServiceStore.Delete")
	defer span.End()

	result, err := store.services.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (store *ServiceMongoDBStore) DeleteByProvider(ctx context.Context, providerID primitive.ObjectID) error {
	ctx, span := store.tracer.Start(ctx, "ServiceStore.DeleteByProvider")
	defer span.End()

	_, err := store.services.DeleteMany(ctx, bson.M{"providerId": providerID})
	return err
}

func (store *ServiceMongoDBStore) filter(ctx context.Context, filter interface{}, opts *options.FindOptions) ([]*domain.Service, error) {
	cursor, err := store.services.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var services []*domain.Service
	for cursor.Next(ctx) {
		var service domain.Service
		if err := cursor.Decode(&service); err != nil {
			return nil, err
		}
		services = append(services, &service)
	}
	return services, cursor.Err()
}

func (store *ServiceMongoDBStore) filterOne(ctx context.Context, filter interface{}, opts *options.FindOneOptions) (*domain.Service, error) {
	var result *mongo.SingleResult
	if opts != nil {
		result = store.services.FindOne(ctx, filter, opts)
	} else {
		result = store.services.FindOne(ctx, filter)
	}

	var service domain.Service
	if err := result.Decode(&service); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &service, nil
}
