package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yijiasang/glamap/domain"
	errs "github.com/yijiasang/glamap/errors"
)

func messageFixture() (*fakeMessageStore, *fakeNotificationStore, *fakeProfileStore, *fakeMailer, *MessageService) {
	profiles := &fakeProfileStore{profiles: []*domain.Profile{
		{ID: oid(1), Username: "nailsbyana", Role: domain.Provider, Email: "ana@example.com"},
		{ID: oid(2), Username: "happyclient", Role: domain.Client},
		{ID: oid(3), Username: "otherclient", Role: domain.Client},
	}}
	messages := &fakeMessageStore{}
	notifications := &fakeNotificationStore{}
	mailer := &fakeMailer{}
	svc := NewMessageService(messages, notifications, profiles, mailer, testTracer, testLogger())
	return messages, notifications, profiles, mailer, svc
}

func TestSendCreatesMessageAndNotification(t *testing.T) {
	messages, notifications, profiles, mailer, svc := messageFixture()

	sender, err := profiles.Get(context.Background(), oid(2))
	require.NoError(t, err)

	saved, err := svc.Send(context.Background(), sender, oid(1), "are you free on friday?")
	require.NoError(t, err)
	assert.Equal(t, oid(2), saved.SenderID)
	assert.Equal(t, oid(1), saved.ReceiverID)
	require.Len(t, messages.messages, 1)

	require.Len(t, notifications.notifications, 1)
	notification := notifications.notifications[0]
	assert.Equal(t, oid(1), notification.ProfileID)
	assert.Equal(t, domain.MessageNotification, notification.Type)
	assert.Equal(t, "New message from happyclient", notification.Title)
	assert.Equal(t, "/messages?otherUserId="+oid(2).Hex(), notification.Link)

	assert.Equal(t, []string{"ana@example.com"}, mailer.sent)
}

func TestSendSkipsMailWithoutAddress(t *testing.T) {
	_, _, profiles, mailer, svc := messageFixture()

	sender, err := profiles.Get(context.Background(), oid(1))
	require.NoError(t, err)

	// Receiver has no email on file.
	_, err = svc.Send(context.Background(), sender, oid(2), "your slot is confirmed")
	require.NoError(t, err)
	assert.Empty(t, mailer.sent)
}

func TestSendSurvivesNotificationFailure(t *testing.T) {
	messages, notifications, profiles, _, svc := messageFixture()
	notifications.createErr = errors.New("store down")

	sender, err := profiles.Get(context.Background(), oid(2))
	require.NoError(t, err)

	_, err = svc.Send(context.Background(), sender, oid(1), "hello")
	require.NoError(t, err)
	assert.Len(t, messages.messages, 1)
}

func TestSendSurvivesMailerFailure(t *testing.T) {
	messages, _, profiles, mailer, svc := messageFixture()
	mailer.sendErr = errors.New("smtp down")

	sender, err := profiles.Get(context.Background(), oid(2))
	require.NoError(t, err)

	_, err = svc.Send(context.Background(), sender, oid(1), "hello")
	require.NoError(t, err)
	assert.Len(t, messages.messages, 1)
}

func TestSendToUnknownReceiver(t *testing.T) {
	_, _, profiles, _, svc := messageFixture()

	sender, err := profiles.Get(context.Background(), oid(2))
	require.NoError(t, err)

	_, err = svc.Send(context.Background(), sender, oid(99), "hello?")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestListConversations(t *testing.T) {
	messages, _, _, _, svc := messageFixture()
	messages.messages = []*domain.Message{
		{ID: oid(30), SenderID: oid(2), ReceiverID: oid(1), Content: "first"},
		{ID: oid(31), SenderID: oid(3), ReceiverID: oid(1), Content: "hi there"},
		{ID: oid(32), SenderID: oid(1), ReceiverID: oid(2), Content: "latest with client"},
	}

	conversations, err := svc.ListConversations(context.Background(), oid(1))
	require.NoError(t, err)
	require.Len(t, conversations, 2)

	// Newest conversation first, each carrying its latest message.
	assert.Equal(t, "happyclient", conversations[0].Counterpart.Username)
	assert.Equal(t, "latest with client", conversations[0].LastMessage.Content)
	assert.Equal(t, "otherclient", conversations[1].Counterpart.Username)
	assert.Equal(t, "hi there", conversations[1].LastMessage.Content)
}

func TestListConversationsSkipsDeletedCounterpart(t *testing.T) {
	messages, _, _, _, svc := messageFixture()
	messages.messages = []*domain.Message{
		{ID: oid(30), SenderID: oid(99), ReceiverID: oid(1), Content: "from a ghost"},
		{ID: oid(31), SenderID: oid(2), ReceiverID: oid(1), Content: "from a client"},
	}

	conversations, err := svc.ListConversations(context.Background(), oid(1))
	require.NoError(t, err)
	require.Len(t, conversations, 1)
	assert.Equal(t, "happyclient", conversations[0].Counterpart.Username)
}

func TestDeleteMessageParticipantsOnly(t *testing.T) {
	messages, _, _, _, svc := messageFixture()
	messages.messages = []*domain.Message{
		{ID: oid(30), SenderID: oid(2), ReceiverID: oid(1), Content: "hi"},
	}

	err := svc.DeleteMessage(context.Background(), oid(3), oid(30))
	assert.ErrorIs(t, err, errs.ErrForbidden)

	err = svc.DeleteMessage(context.Background(), oid(2), oid(99))
	assert.ErrorIs(t, err, errs.ErrNotFound)

	require.NoError(t, svc.DeleteMessage(context.Background(), oid(1), oid(30)))
	assert.Empty(t, messages.messages)
}

func TestDeleteConversationRemovesBothDirectionsOnly(t *testing.T) {
	messages, _, _, _, svc := messageFixture()
	messages.messages = []*domain.Message{
		{ID: oid(30), SenderID: oid(2), ReceiverID: oid(1), Content: "a"},
		{ID: oid(31), SenderID: oid(1), ReceiverID: oid(2), Content: "b"},
		{ID: oid(32), SenderID: oid(3), ReceiverID: oid(1), Content: "other thread"},
	}

	require.NoError(t, svc.DeleteConversation(context.Background(), oid(1), oid(2)))

	require.Len(t, messages.messages, 1)
	assert.Equal(t, oid(32), messages.messages[0].ID)
}

func TestListMessagesOldestFirst(t *testing.T) {
	messages, _, _, _, svc := messageFixture()
	messages.messages = []*domain.Message{
		{ID: oid(30), SenderID: oid(2), ReceiverID: oid(1), Content: "first"},
		{ID: oid(31), SenderID: oid(1), ReceiverID: oid(2), Content: "second"},
	}

	history, err := svc.ListMessages(context.Background(), oid(1), oid(2))
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "first", history[0].Content)
	assert.Equal(t, "second", history[1].Content)
}
