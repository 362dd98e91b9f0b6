package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jasperedu/jasper-backend/internal/logger"
	"github.com/jasperedu/jasper-backend/internal/types"
)

type ChatTurnRepo interface {
	Create(ctx context.Context, tx *gorm.DB, turns []*types.ChatTurn) ([]*types.ChatTurn, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ChatTurn, error)
	ListByConversationID(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID, limit int) ([]*types.ChatTurn, error)
}

type chatTurnRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChatTurnRepo(db *gorm.DB, baseLog *logger.Logger) ChatTurnRepo {
	return &chatTurnRepo{db: db, log: baseLog.With("repo", "ChatTurnRepo")}
}

func (r *chatTurnRepo) Create(ctx context.Context, tx *gorm.DB, turns []*types.ChatTurn) ([]*types.ChatTurn, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(turns) == 0 {
		return []*types.ChatTurn{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&turns).Error; err != nil {
		return nil, err
	}
	return turns, nil
}

func (r *chatTurnRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ChatTurn, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var result types.ChatTurn
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

func (r *chatTurnRepo) ListByConversationID(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID, limit int) ([]*types.ChatTurn, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.ChatTurn
	if conversationID == uuid.Nil {
		return results, nil
	}
	q := transaction.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
