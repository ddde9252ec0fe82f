package domain

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ServiceStore interface {
	Get(ctx context.Context, id primitive.ObjectID) (*Service, error)
	GetAll(ctx context.Context) ([]*Service, error)
	GetByProvider(ctx context.Context, providerID primitive.ObjectID) ([]*Service, error)
	GetByNameAndProvider(ctx context.Context, name string, providerID primitive.ObjectID) (*Service, error)
	Create(ctx context.Context, service *Service) (*Service, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteByProvider(ctx context.Context, providerID primitive.ObjectID) error
}
