package repositories

import (
	"context"

	"github.com/kendall-kelly/freelance-market-api/models"
	"gorm.io/gorm"
)

// MessageRepository handles database operations for messages
type MessageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a new message repository instance
func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create inserts a new message
func (r *MessageRepository) Create(ctx context.Context, message *models.Message) error {
	return r.db.WithContext(ctx).Create(message).Error
}

// FindByID retrieves a message by ID
func (r *MessageRepository) FindByID(ctx context.Context, id string) (*models.Message, error) {
	var message models.Message
	if err := r.db.WithContext(ctx).First(&message, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &message, nil
}

// Conversation returns the direct messages exchanged between two users,
// oldest first
func (r *MessageRepository) Conversation(ctx context.Context, userA, userB string, limit int) ([]models.Message, error) {
	q := r.db.WithContext(ctx).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)", userA, userB, userB, userA).
		Order("created_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var messages []models.Message
	err := q.Find(&messages).Error
	return messages, err
}

// Group returns the messages posted to a group, oldest first
func (r *MessageRepository) Group(ctx context.Context, groupID string, limit int) ([]models.Message, error) {
	q := r.db.WithContext(ctx).Where("group_id = ?", groupID).Order("created_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var messages []models.Message
	err := q.Find(&messages).Error
	return messages, err
}

// MarkRead flags a message as read
func (r *MessageRepository) MarkRead(ctx context.Context, id string) (*models.Message, error) {
	err := r.db.WithContext(ctx).Model(&models.Message{}).Where("id = ?", id).Update("is_read", true).Error
	if err != nil {
		return nil, err
	}
	return r.FindByID(ctx, id)
}
