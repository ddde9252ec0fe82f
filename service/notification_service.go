package application

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel/trace"

	"github.com/yijiasang/glamap/domain"
	errs "github.com/yijiasang/glamap/errors"
)

// NotificationService exposes the recipient-facing notification lifecycle.
// Notifications are only ever created as side effects of other mutations.
type NotificationService struct {
	notifications domain.NotificationStore
	tracer        trace.Tracer
	logger        *logrus.Logger
}

func NewNotificationService(notifications domain.NotificationStore, tracer trace.Tracer, logger *logrus.Logger) *NotificationService {
	return &NotificationService{
		notifications: notifications,
		tracer:        tracer,
		logger:        logger,
	}
}

func (service *NotificationService) List(ctx context.Context, profileID primitive.ObjectID) ([]*domain.Notification, error) {
	ctx, span := service.tracer.Start(ctx, "NotificationService.List")
	defer span.End()

	return service.notifications.GetByProfile(ctx, profileID)
}

// MarkRead flags a notification as read. Marking an already-read
// notification again succeeds.
func (service *NotificationService) MarkRead(ctx context.Context, requesterID, notificationID primitive.ObjectID) error {
	ctx, span := service.tracer.Start(ctx, "NotificationService.MarkRead")
	defer span.End()

	if err := service.requireOwner(ctx, requesterID, notificationID); err != nil {
		return err
	}
	return service.notifications.MarkRead(ctx, notificationID)
}

func (service *NotificationService) Delete(ctx context.Context, requesterID, notificationID primitive.ObjectID) error {
	ctx, span := service.tracer.Start(ctx, "NotificationService.Delete")
	defer span.End()

	if err := service.requireOwner(ctx, requesterID, notificationID); err != nil {
		return err
	}
	return service.notifications.Delete(ctx, notificationID)
}

func (service *NotificationService) ClearAll(ctx context.Context, profileID primitive.ObjectID) error {
	ctx, span := service.tracer.Start(ctx, "NotificationService.ClearAll")
	defer span.End()

	return service.notifications.DeleteByProfile(ctx, profileID)
}

func (service *NotificationService) requireOwner(ctx context.Context, requesterID, notificationID primitive.ObjectID) error {
	notification, err := service.notifications.Get(ctx, notificationID)
	if err != nil {
		return err
	}
	if notification == nil {
		return fmt.Errorf("%w: notification not found", errs.ErrNotFound)
	}
	if notification.ProfileID != requesterID {
		return fmt.Errorf("%w: not your notification", errs.ErrForbidden)
	}
	return nil
}
