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

// Notifier is the slice of the mailer the coordinator needs; nil disables
// email pings.
type Notifier interface {
	Send(to, subject, body string) error
}

// MessageService is the conversation and notification coordinator. A
// conversation has no entity of its own; it is the set of messages between
// two profiles.
type MessageService struct {
	messages      domain.MessageStore
	notifications domain.NotificationStore
	profiles      domain.ProfileStore
	mailer        Notifier
	tracer        trace.Tracer
	logger        *logrus.Logger
}

func NewMessageService(
	messages domain.MessageStore,
	notifications domain.NotificationStore,
	profiles domain.ProfileStore,
	mailer Notifier,
	tracer trace.Tracer,
	logger *logrus.Logger,
) *MessageService {
	return &MessageService{
		messages:      messages,
		notifications: notifications,
		profiles:      profiles,
		mailer:        mailer,
		tracer:        tracer,
		logger:        logger,
	}
}

// ListConversations returns, per counterpart the profile has exchanged
// messages with, the counterpart and the latest message, newest conversation
// first.
func (service *MessageService) ListConversations(ctx context.Context, profileID primitive.ObjectID) ([]*domain.Conversation, error) {
	ctx, span := service.tracer.Start(ctx, "MessageService.ListConversations")
	defer span.End()

	messages, err := service.messages.GetByParticipant(ctx, profileID)
	if err != nil {
		return nil, err
	}

	conversations := []*domain.Conversation{}
	seen := map[primitive.ObjectID]bool{}
	for _, message := range messages {
		counterpartID := message.SenderID
		if counterpartID == profileID {
			counterpartID = message.ReceiverID
		}
		if seen[counterpartID] {
			continue
		}
		seen[counterpartID] = true

		counterpart, err := service.profiles.Get(ctx, counterpartID)
		if err != nil {
			return nil, err
		}
		if counterpart == nil {
			// Counterpart deleted between message write and read; skip.
			continue
		}

		conversations = append(conversations, &domain.Conversation{
			Counterpart: counterpart,
			LastMessage: message,
		})
	}
	return conversations, nil
}

// ListMessages returns the full history between the two profiles, oldest
// first.
func (service *MessageService) ListMessages(ctx context.Context, profileID, otherID primitive.ObjectID) ([]*domain.Message, error) {
	ctx, span := service.tracer.Start(ctx, "MessageService.ListMessages")
	defer span.End()

	return service.messages.GetBetween(ctx, profileID, otherID)
}

// Send persists the message, then creates the receiver's notification as a
// best-effort secondary step. The message is the primary effect; a failed
// notification or email is logged and swallowed, never rolled back into the
// send.
func (service *MessageService) Send(ctx context.Context, sender *domain.Profile, receiverID primitive.ObjectID, content string) (*domain.Message, error) {
	ctx, span := service.tracer.Start(ctx, "MessageService.Send")
	defer span.End()

	receiver, err := service.profiles.Get(ctx, receiverID)
	if err != nil {
		return nil, err
	}
	if receiver == nil {
		return nil, fmt.Errorf("%w: %s", errs.ErrNotFound, errs.ProfileNotFound)
	}

	message := &domain.Message{
		SenderID:   sender.ID,
		ReceiverID: receiverID,
		Content:    content,
	}
	saved, err := service.messages.Create(ctx, message)
	if err != nil {
		return nil, err
	}

	service.fanOut(ctx, sender, receiver, saved)

	return saved, nil
}

func (service *MessageService) fanOut(ctx context.Context, sender, receiver *domain.Profile, message *domain.Message) {
	notification := &domain.Notification{
		ProfileID: receiver.ID,
		Type:      domain.MessageNotification,
		Title:     fmt.Sprintf("New message from %s", sender.Username),
		Content:   message.Content,
		Link:      fmt.Sprintf("/messages?otherUserId=%s", sender.ID.Hex()),
	}
	if _, err := service.notifications.Create(ctx, notification); err != nil {
		service.logger.Warnf("notification fan-out for message %s: %s", message.ID.Hex(), err)
	}

	if service.mailer != nil && receiver.Email != "" {
		if err := service.mailer.Send(receiver.Email, notification.Title, message.Content); err != nil {
			service.logger.Warnf("mail fan-out for message %s: %s", message.ID.Hex(), err)
		}
	}
}

// DeleteMessage removes one message; only a participant may do so.
func (service *MessageService) DeleteMessage(ctx context.Context, requesterID, messageID primitive.ObjectID) error {
	ctx, span := service.tracer.Start(ctx, "MessageService.DeleteMessage")
	defer span.End()

	message, err := service.messages.Get(ctx, messageID)
	if err != nil {
		return err
	}
	if message == nil {
		return fmt.Errorf("%w: message not found", errs.ErrNotFound)
	}
	if message.SenderID != requesterID && message.ReceiverID != requesterID {
		return fmt.Errorf("%w: not a participant of this conversation", errs.ErrForbidden)
	}

	return service.messages.Delete(ctx, messageID)
}

// DeleteConversation removes every message between the requester and the
// other profile, in both directions. Irreversible and unilateral.
func (service *MessageService) DeleteConversation(ctx context.Context, requesterID, otherID primitive.ObjectID) error {
	ctx, span := service.tracer.Start(ctx, "MessageService.DeleteConversation")
	defer span.End()

	return service.messages.DeleteBetween(ctx, requesterID, otherID)
}
