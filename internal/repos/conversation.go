package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jasperedu/jasper-backend/internal/logger"
	"github.com/jasperedu/jasper-backend/internal/types"
)

type ConversationRepo interface {
	Create(ctx context.Context, tx *gorm.DB, conversations []*types.Conversation) ([]*types.Conversation, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Conversation, error)
	// GetByIDForUpdate loads the conversation row with a FOR UPDATE lock so the
	// pending-request slot can be read and rewritten atomically within one turn.
	GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Conversation, error)
	ListByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.Conversation, error)
	Save(ctx context.Context, tx *gorm.DB, conversation *types.Conversation) error
	// IncrementNextSeq reserves the next message sequence number for the conversation.
	IncrementNextSeq(ctx context.Context, tx *gorm.DB, id uuid.UUID) (int64, error)
	// TouchLastMessage bumps last_message_at and optionally retitles; targeted
	// column update so an in-memory struct with a stale next_seq never clobbers
	// the counter.
	TouchLastMessage(ctx context.Context, tx *gorm.DB, id uuid.UUID, title string) error
	SoftDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
}

type conversationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewConversationRepo(db *gorm.DB, baseLog *logger.Logger) ConversationRepo {
	return &conversationRepo{db: db, log: baseLog.With("repo", "ConversationRepo")}
}

func (r *conversationRepo) Create(ctx context.Context, tx *gorm.DB, conversations []*types.Conversation) ([]*types.Conversation, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(conversations) == 0 {
		return []*types.Conversation{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&conversations).Error; err != nil {
		return nil, err
	}
	return conversations, nil
}

func (r *conversationRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Conversation, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var result types.Conversation
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

func (r *conversationRepo) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Conversation, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var result types.Conversation
	err := transaction.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
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

func (r *conversationRepo) ListByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.Conversation, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Conversation
	if userID == uuid.Nil {
		return results, nil
	}
	q := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("last_message_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *conversationRepo) Save(ctx context.Context, tx *gorm.DB, conversation *types.Conversation) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if conversation == nil || conversation.ID == uuid.Nil {
		return nil
	}
	return transaction.WithContext(ctx).Save(conversation).Error
}

func (r *conversationRepo) IncrementNextSeq(ctx context.Context, tx *gorm.DB, id uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var next int64
	err := transaction.WithContext(ctx).
		Raw(`UPDATE conversation SET next_seq = next_seq + 1, updated_at = now() WHERE id = ? RETURNING next_seq`, id).
		Scan(&next).Error
	if err != nil {
		return 0, err
	}
	return next, nil
}

func (r *conversationRepo) TouchLastMessage(ctx context.Context, tx *gorm.DB, id uuid.UUID, title string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	updates := map[string]any{"last_message_at": gorm.Expr("now()")}
	if title != "" {
		updates["title"] = title
	}
	return transaction.WithContext(ctx).
		Model(&types.Conversation{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *conversationRepo) SoftDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Where("id IN ?", ids).
		Delete(&types.Conversation{}).Error
}
