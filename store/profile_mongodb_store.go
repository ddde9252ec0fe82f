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

const (
	DATABASE           = "glamap"
	PROFILE_COLLECTION = "profiles"
)

// caseInsensitive makes the username unique index and username lookups treat
// "Anna" and "anna" as the same value.
var caseInsensitive = &options.Collation{Locale: "en", Strength: 2}

type ProfileMongoDBStore struct {
	profiles *mongo.Collection
	tracer   trace.Tracer
	logger   *logrus.Logger
}

func NewProfileMongoDBStore(client *mongo.Client, tracer trace.Tracer, logger *logrus.Logger) domain.ProfileStore {
	profiles := client.Database(DATABASE).Collection(PROFILE_COLLECTION)
	return &ProfileMongoDBStore{
		profiles: profiles,
		tracer:   tracer,
		logger:   logger,
	}
}

// EnsureProfileIndexes creates the unique indexes that are the authoritative
// enforcement of the username and one-profile-per-account invariants.
func EnsureProfileIndexes(ctx context.Context, client *mongo.Client) error {
	profiles := client.Database(DATABASE).Collection(PROFILE_COLLECTION)
	_, err := profiles.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true).SetCollation(caseInsensitive),
		},
		{
			Keys:    bson.D{{Key: "externalId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
	return err
}

func (store *ProfileMongoDBStore) Get(ctx context.Context, id primitive.ObjectID) (*domain.Profile, error) {
	ctx, span := store.tracer.Start(ctx, "ProfileStore.Get")
	defer span.End()

	filter := bson.M{"_id": id}
	return store.filterOne(ctx, filter, nil)
}

func (store *ProfileMongoDBStore) GetByExternalID(ctx context.Context, externalID string) (*domain.Profile, error) {
	ctx, span := store.tracer.Start(ctx, "ProfileStore.GetByExternalID")
	defer span.End()

	filter := bson.M{"externalId": externalID}
	return store.filterOne(ctx, filter, nil)
}

func (store *ProfileMongoDBStore) GetByUsername(ctx context.Context, username string) (*domain.Profile, error) {
	ctx, span := store.tracer.Start(ctx, "ProfileStore.GetByUsername")
	defer span.End()

	filter := bson.M{"username": username}
	opts := options.FindOne().SetCollation(caseInsensitive)
	return store.filterOne(ctx, filter, opts)
}

func (store *ProfileMongoDBStore) GetAll(ctx context.Context) ([]*domain.Profile, error) {
	ctx, span := store.tracer.Start(ctx, "ProfileStore.GetAll")
	defer span.End()

	// _id ascending is creation order, which is the default sort the
	// directory search engine builds on.
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	return store.filter(ctx, bson.D{}, opts)
}

func (store *ProfileMongoDBStore) Create(ctx context.Context, profile *domain.Profile) (*domain.Profile, error) {
	ctx, span := store.tracer.Start(ctx, "ProfileStore.Create")
	defer span.End()

	profile.ID = primitive.NewObjectID()
	profile.CreatedAt = time.Now()
	result, err := store.profiles.InsertOne(ctx, profile)
	if err != nil {
		store.logger.Errorf("insert profile: %s", err)
		return nil, translateWriteError(err, errs.UsernameExists)
	}
	profile.ID = result.InsertedID.(primitive.ObjectID)
	return profile, nil
}

func (store *ProfileMongoDBStore) Update(ctx context.Context, profile *domain.Profile) error {
	ctx, span := store.tracer.Start(ctx, "ProfileStore.Update")
	defer span.End()

	updateData := bson.M{
		"email":        profile.Email,
		"bio":          profile.Bio,
		"location":     profile.Location,
		"locationType": profile.LocationType,
		"latitude":     profile.Latitude,
		"longitude":    profile.Longitude,
		"avatarUrl":    profile.AvatarURL,
	}

	filter := bson.M{"_id": profile.ID}
	update := bson.M{"$set": updateData}

	result, err := store.profiles.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (store *ProfileMongoDBStore) UpdateUsername(ctx context.Context, id primitive.ObjectID, username string) error {
	ctx, span := store.tracer.Start(ctx, "ProfileStore.UpdateUsername")
	defer span.End()

	filter := bson.M{"_id": id}
	update := bson.M{"$set": bson.M{
		"username":          username,
		"usernameChangedAt": time.Now(),
	}}

	result, err := store.profiles.UpdateOne(ctx, filter, update)
	if err != nil {
		return translateWriteError(err, errs.UsernameExists)
	}
	if result.MatchedCount == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (store *ProfileMongoDBStore) UpdateRating(ctx context.Context, id primitive.ObjectID, rating *float64, reviewCount int) error {
	ctx, span := store.tracer.Start(ctx, "ProfileStore.UpdateRating")
	defer span.End()

	filter := bson.M{"_id": id}
	update := bson.M{"$set": bson.M{
		"rating":      rating,
		"reviewCount": reviewCount,
	}}

	_, err := store.profiles.UpdateOne(ctx, filter, update)
	return err
}

func (store *ProfileMongoDBStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	ctx, span := store.tracer.Start(ctx, "ProfileStore.Delete")
	defer span.End()

	filter := bson.M{"_id": id}
	result, err := store.profiles.DeleteOne(ctx, filter)
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (store *ProfileMongoDBStore) Count(ctx context.Context) (int64, error) {
	ctx, span := store.tracer.Start(ctx, "ProfileStore.Count")
	defer span.End()

	return store.profiles.CountDocuments(ctx, bson.D{})
}

func (store *ProfileMongoDBStore) CountByRole(ctx context.Context, role domain.Role) (int64, error) {
	ctx, span := store.tracer.Start(ctx, "ProfileStore.CountByRole")
	defer span.End()

	return store.profiles.CountDocuments(ctx, bson.M{"role": role})
}

func (store *ProfileMongoDBStore) CountProvidersByLocationType(ctx context.Context) (map[string]int64, error) {
	ctx, span := store.tracer.Start(ctx, "ProfileStore.CountProvidersByLocationType")
	defer span.End()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"role": domain.Provider}}},
		{{Key: "$group", Value: bson.M{"_id": "$locationType", "count": bson.M{"$sum": 1}}}},
	}

	cursor, err := store.profiles.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	counts := map[string]int64{}
	for cursor.Next(ctx) {
		var row struct {
			LocationType string `bson:"_id"`
			Count        int64  `bson:"count"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, err
		}
		counts[row.LocationType] = row.Count
	}
	return counts, cursor.Err()
}

func (store *ProfileMongoDBStore) filter(ctx context.Context, filter interface{}, opts *options.FindOptions) ([]*domain.Profile, error) {
	cursor, err := store.profiles.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	return decodeProfiles(ctx, cursor)
}

func (store *ProfileMongoDBStore) filterOne(ctx context.Context, filter interface{}, opts *options.FindOneOptions) (*domain.Profile, error) {
	var result *mongo.SingleResult
	if opts != nil {
		result = store.profiles.FindOne(ctx, filter, opts)
	} else {
		result = store.profiles.FindOne(ctx, filter)
	}

	var profile domain.Profile
	if err := result.Decode(&profile); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

func decodeProfiles(ctx context.Context, cursor *mongo.Cursor) (profiles []*domain.Profile, err error) {
	for cursor.Next(ctx) {
		var profile domain.Profile
		err = cursor.Decode(&profile)
		if err != nil {
			return
		}
		profiles = append(profiles, &profile)
	}
	err = cursor.Err()
	return
}
