package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yijiasang/glamap/domain"
	errs "github.com/yijiasang/glamap/errors"
)

func notificationFixture() (*fakeNotificationStore, *NotificationService) {
	store := &fakeNotificationStore{notifications: []*domain.Notification{
		{ID: oid(40), ProfileID: oid(1), Type: domain.MessageNotification, Title: "New message from happyclient"},
		{ID: oid(41), ProfileID: oid(1), Type: domain.SystemNotification, Title: "Welcome"},
		{ID: oid(42), ProfileID: oid(2), Type: domain.MessageNotification, Title: "New message from nailsbyana"},
	}}
	return store, NewNotificationService(store, testTracer, testLogger())
}

func TestListNotifications(t *testing.T) {
	_, svc := notificationFixture()

	notifications, err := svc.List(context.Background(), oid(1))
	require.NoError(t, err)
	assert.Len(t, notifications, 2)
}

func TestMarkReadOwnerOnly(t *testing.T) {
	store, svc := notificationFixture()

	err := svc.MarkRead(context.Background(), oid(2), oid(40))
	assert.ErrorIs(t, err, errs.ErrForbidden)

	err = svc.MarkRead(context.Background(), oid(1), oid(99))
	assert.ErrorIs(t, err, errs.ErrNotFound)

	require.NoError(t, svc.MarkRead(context.Background(), oid(1), oid(40)))
	assert.True(t, store.notifications[0].Read)

	// Marking again is still fine.
	require.NoError(t, svc.MarkRead(context.Background(), oid(1), oid(40)))
	assert.True(t, store.notifications[0].Read)
}

func TestDeleteNotificationOwnerOnly(t *testing.T) {
	store, svc := notificationFixture()

	err := svc.Delete(context.Background(), oid(2), oid(40))
	assert.ErrorIs(t, err, errs.ErrForbidden)
	assert.Len(t, store.notifications, 3)

	require.NoError(t, svc.Delete(context.Background(), oid(1), oid(40)))
	assert.Len(t, store.notifications, 2)
}

func TestClearAllOnlyTouchesOwnNotifications(t *testing.T) {
	store, svc := notificationFixture()

	require.NoError(t, svc.ClearAll(context.Background(), oid(1)))

	require.Len(t, store.notifications, 1)
	assert.Equal(t, oid(42), store.notifications[0].ID)
}
