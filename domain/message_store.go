package domain

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MessageStore interface {
	Get(ctx context.Context, id primitive.ObjectID) (*Message, error)
	// GetBetween returns the full history between two profiles, oldest first.
	GetBetween(ctx context.Context, first, second primitive.ObjectID) ([]*Message, error)
	// GetByParticipant returns every message sent or received by the profile,
	// newest first.
	GetByParticipant(ctx context.Context, profileID primitive.ObjectID) ([]*Message, error)
	Create(ctx context.Context, message *Message) (*Message, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteBetween(ctx context.Context, first, second primitive.ObjectID) error
	DeleteByParticipant(ctx context.Context, profileID primitive.ObjectID) error
	Count(ctx context.Context) (int64, error)
}
