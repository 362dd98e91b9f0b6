package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jasperedu/jasper-backend/internal/logger"
	"github.com/jasperedu/jasper-backend/internal/types"
)

type ChatMessageRepo interface {
	Create(ctx context.Context, tx *gorm.DB, messages []*types.ChatMessage) ([]*types.ChatMessage, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ChatMessage, error)
	// ListRecent returns up to limit messages for the conversation in ascending
	// seq order, optionally only those strictly before beforeSeq.
	ListRecent(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID, limit int, beforeSeq *int64) ([]*types.ChatMessage, error)
	// GetBySeq looks up a single message by its conversation-local sequence number.
	GetBySeq(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID, seq int64) (*types.ChatMessage, error)
	// GetByIdempotencyKey finds an existing user message for dedupe on retried sends.
	GetByIdempotencyKey(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID, key string) (*types.ChatMessage, error)
	Save(ctx context.Context, tx *gorm.DB, message *types.ChatMessage) error
	SoftDeleteByConversationID(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID) error
}

type chatMessageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChatMessageRepo(db *gorm.DB, baseLog *logger.Logger) ChatMessageRepo {
	return &chatMessageRepo{db: db, log: baseLog.With("repo", "ChatMessageRepo")}
}

func (r *chatMessageRepo) Create(ctx context.Context, tx *gorm.DB, messages []*types.ChatMessage) ([]*types.ChatMessage, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(messages) == 0 {
		return []*types.ChatMessage{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&messages).Error; err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *chatMessageRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ChatMessage, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var result types.ChatMessage
	err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&result).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (r *chatMessageRepo) ListRecent(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID, limit int, beforeSeq *int64) ([]*types.ChatMessage, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.ChatMessage
	if conversationID == uuid.Nil {
		return results, nil
	}
	q := transaction.WithContext(ctx).
		Where("conversation_id = ?", conversationID)
	if beforeSeq != nil {
		q = q.Where("seq < ?", *beforeSeq)
	}
	q = q.Order("seq DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	// Reverse to ascending seq for callers that build model history.
	for i, j := 0, len(results)-1; i < j; i, j = i+1, j-1 {
		results[i], results[j] = results[j], results[i]
	}
	return results, nil
}

func (r *chatMessageRepo) GetBySeq(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID, seq int64) (*types.ChatMessage, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if conversationID == uuid.Nil {
		return nil, nil
	}
	var result types.ChatMessage
	err := transaction.WithContext(ctx).
		Where("conversation_id = ? AND seq = ?", conversationID, seq).
		First(&result).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (r *chatMessageRepo) GetByIdempotencyKey(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID, key string) (*types.ChatMessage, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if conversationID == uuid.Nil || key == "" {
		return nil, nil
	}
	var result types.ChatMessage
	err := transaction.WithContext(ctx).
		Where("conversation_id = ? AND role = ? AND idempotency_key = ?", conversationID, "user", key).
		Order("seq DESC").
		First(&result).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (r *chatMessageRepo) Save(ctx context.Context, tx *gorm.DB, message *types.ChatMessage) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if message == nil || message.ID == uuid.Nil {
		return nil
	}
	return transaction.WithContext(ctx).Save(message).Error
}

func (r *chatMessageRepo) SoftDeleteByConversationID(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if conversationID == uuid.Nil {
		return nil
	}
	return transaction.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Delete(&types.ChatMessage{}).Error
}
