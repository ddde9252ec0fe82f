package domain

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NotificationStore interface {
	Get(ctx context.Context, id primitive.ObjectID) (*Notification, error)
	GetByProfile(ctx context.Context, profileID primitive.ObjectID) ([]*Notification, error)
	Create(ctx context.Context, notification *Notification) (*Notification, error)
	MarkRead(ctx context.Context, id primitive.ObjectID) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteByProfile(ctx context.Context, profileID primitive.ObjectID) error
}
