package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/kendall-kelly/freelance-market-api/models"
)

// MaxMessageLength bounds the content of a single message
const MaxMessageLength = 5000

// MessageInput is a message to send. Exactly one of ReceiverID and GroupID
// is set.
type MessageInput struct {
	SenderID   string
	ReceiverID *string
	GroupID    *string
	Content    string
}

// MessageEvent is what realtime subscribers receive
type MessageEvent struct {
	Type    string          `json:"type"`
	Message *models.Message `json:"message"`
}

// MessageService handles direct and group messaging. A group is the
// conversation attached to an order; its members are the order's parties.
type MessageService struct {
	messages MessageStore
	users    UserStore
	orders   OrderStore
	hub      *Hub
}

// NewMessageService creates a message service. hub may be nil to disable
// realtime delivery.
func NewMessageService(messages MessageStore, users UserStore, orders OrderStore, hub *Hub) *MessageService {
	return &MessageService{messages: messages, users: users, orders: orders, hub: hub}
}

// SendMessage stores a message and pushes it to subscribers
func (s *MessageService) SendMessage(ctx context.Context, in MessageInput) (*models.Message, error) {
	direct := in.ReceiverID != nil && *in.ReceiverID != ""
	group := in.GroupID != nil && *in.GroupID != ""
	if direct == group {
		return nil, fmt.Errorf("%w: exactly one of receiverId or groupId is required", ErrValidation)
	}

	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, fmt.Errorf("%w: content is required", ErrValidation)
	}
	if len(content) > MaxMessageLength {
		return nil, fmt.Errorf("%w: content exceeds %d characters", ErrValidation, MaxMessageLength)
	}

	message := &models.Message{SenderID: in.SenderID, Content: content}
	if direct {
		if *in.ReceiverID == in.SenderID {
			return nil, fmt.Errorf("%w: cannot message yourself", ErrValidation)
		}
		if _, err := s.users.FindByID(ctx, *in.ReceiverID); err != nil {
			return nil, fmt.Errorf("failed to get receiver: %w", err)
		}
		message.ReceiverID = in.ReceiverID
	} else {
		if err := s.requireGroupMember(ctx, *in.GroupID, in.SenderID); err != nil {
			return nil, err
		}
		message.GroupID = in.GroupID
	}

	if err := s.messages.Create(ctx, message); err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}

	s.publish(message)
	return message, nil
}

// ListConversation returns the direct thread between two users, oldest
// first
func (s *MessageService) ListConversation(ctx context.Context, userID, otherID string, limit int) ([]models.Message, error) {
	messages, err := s.messages.Conversation(ctx, userID, otherID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversation: %w", err)
	}
	return messages, nil
}

// ListGroupMessages returns a group's messages for one of its members
func (s *MessageService) ListGroupMessages(ctx context.Context, groupID, userID string, limit int) ([]models.Message, error) {
	if err := s.requireGroupMember(ctx, groupID, userID); err != nil {
		return nil, err
	}
	messages, err := s.messages.Group(ctx, groupID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list group messages: %w", err)
	}
	return messages, nil
}

// MarkRead flags a direct message as read by its receiver
func (s *MessageService) MarkRead(ctx context.Context, id, userID string) (*models.Message, error) {
	message, err := s.messages.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get message %s: %w", id, err)
	}
	if !message.IsDirect() || *message.ReceiverID != userID {
		return nil, fmt.Errorf("%w: only the receiver can mark a message read", ErrForbidden)
	}
	if message.IsRead {
		return message, nil
	}

	message, err = s.messages.MarkRead(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to mark message %s read: %w", id, err)
	}
	return message, nil
}

// CanJoinGroup reports whether userID may subscribe to groupID
func (s *MessageService) CanJoinGroup(ctx context.Context, groupID, userID string) error {
	return s.requireGroupMember(ctx, groupID, userID)
}

func (s *MessageService) requireGroupMember(ctx context.Context, groupID, userID string) error {
	order, err := s.orders.FindByID(ctx, groupID)
	if err != nil {
		return fmt.Errorf("failed to get group %s: %w", groupID, err)
	}
	if !order.IsParty(userID) {
		return fmt.Errorf("%w: not a member of this group", ErrForbidden)
	}
	return nil
}

func (s *MessageService) publish(message *models.Message) {
	if s.hub == nil {
		return
	}
	event := MessageEvent{Type: "message.created", Message: message}
	if message.IsDirect() {
		s.hub.Publish(UserTopic(*message.ReceiverID), event)
		s.hub.Publish(UserTopic(message.SenderID), event)
		return
	}
	s.hub.Publish(GroupTopic(*message.GroupID), event)
}
