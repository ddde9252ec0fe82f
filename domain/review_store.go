package domain

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ReviewStore interface {
	Get(ctx context.Context, id primitive.ObjectID) (*Review, error)
	GetByProvider(ctx context.Context, providerID primitive.ObjectID) ([]*Review, error)
	GetByClient(ctx context.Context, clientID primitive.ObjectID) ([]*Review, error)
	GetByClientAndProvider(ctx context.Context, clientID, providerID primitive.ObjectID) (*Review, error)
	Create(ctx context.Context, review *Review) (*Review, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteByClient(ctx context.Context, clientID primitive.ObjectID) error
	DeleteByProvider(ctx context.Context, providerID primitive.ObjectID) error
}
