package domain

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProfileStore is the profile slice of the persistence gateway. Lookups
// return (nil, nil) when no document matches; Create surfaces
// errors.ErrConflict when a store-level unique index rejects the write.
type ProfileStore interface {
	Get(ctx context.Context, id primitive.ObjectID) (*Profile, error)
	GetByExternalID(ctx context.Context, externalID string) (*Profile, error)
	GetByUsername(ctx context.Context, username string) (*Profile, error)
	GetAll(ctx context.Context) ([]*Profile, error)
	Create(ctx context.Context, profile *Profile) (*Profile, error)
	Update(ctx context.Context, profile *Profile) error
	UpdateUsername(ctx context.Context, id primitive.ObjectID, username string) error
	UpdateRating(ctx context.Context, id primitive.ObjectID, rating *float64, reviewCount int) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	Count(ctx context.Context) (int64, error)
	CountByRole(ctx context.Context, role Role) (int64, error)
	CountProvidersByLocationType(ctx context.Context) (map[string]int64, error)
}
