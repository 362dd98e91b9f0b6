package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/jasperedu/jasper-backend/internal/logger"
	"github.com/jasperedu/jasper-backend/internal/repos"
	"github.com/jasperedu/jasper-backend/internal/types"
)

const chatHistoryLimit = 20

// SendMessageResult is the full outcome of one send: the persisted message
// pair, the turn trace row, and the pipeline result the handler renders.
type SendMessageResult struct {
	UserMessage      *types.ChatMessage `json:"user_message"`
	AssistantMessage *types.ChatMessage `json:"assistant_message"`
	Turn             *types.ChatTurn    `json:"turn,omitempty"`
	Result           *TurnResult        `json:"result"`
	// Replayed is set when an idempotency key matched an already-processed
	// send and the stored pair was returned instead of running the pipeline.
	Replayed bool `json:"replayed,omitempty"`
}

// assistantMessageMeta is persisted as the assistant message's metadata so a
// replayed send can reconstruct the turn result without another provider call.
type assistantMessageMeta struct {
	Intent     string       `json:"intent"`
	Status     string       `json:"status"`
	Attempts   int          `json:"attempts"`
	Widget     WidgetRecord `json:"widget"`
	Violations []Violation  `json:"violations,omitempty"`
}

type ChatService interface {
	CreateConversation(ctx context.Context, userID uuid.UUID, title string) (*types.Conversation, error)
	ListConversations(ctx context.Context, userID uuid.UUID, limit int) ([]*types.Conversation, error)
	ListMessages(ctx context.Context, userID uuid.UUID, conversationID uuid.UUID, limit int, beforeSeq *int64) ([]*types.ChatMessage, error)
	SendMessage(ctx context.Context, userID uuid.UUID, conversationID uuid.UUID, content string, idempotencyKey string) (*SendMessageResult, error)
	DeleteConversation(ctx context.Context, userID uuid.UUID, conversationID uuid.UUID) error
}

type chatService struct {
	log           *logger.Logger
	db            *gorm.DB
	conversations repos.ConversationRepo
	messages      repos.ChatMessageRepo
	turns         repos.ChatTurnRepo
	stateSvc      ConversationStateService
	assistant     AssistantService
	notifier      ChatNotifier
}

func NewChatService(
	log *logger.Logger,
	db *gorm.DB,
	conversationRepo repos.ConversationRepo,
	messageRepo repos.ChatMessageRepo,
	turnRepo repos.ChatTurnRepo,
	stateSvc ConversationStateService,
	assistant AssistantService,
	notifier ChatNotifier,
) ChatService {
	return &chatService{
		log:           log.With("service", "ChatService"),
		db:            db,
		conversations: conversationRepo,
		messages:      messageRepo,
		turns:         turnRepo,
		stateSvc:      stateSvc,
		assistant:     assistant,
		notifier:      notifier,
	}
}

func (s *chatService) CreateConversation(ctx context.Context, userID uuid.UUID, title string) (*types.Conversation, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("user id required")
	}
	conversation := &types.Conversation{
		UserID: userID,
		Title:  strings.TrimSpace(title),
	}
	if conversation.Title == "" {
		conversation.Title = "New chat"
	}
	created, err := s.conversations.Create(ctx, nil, []*types.Conversation{conversation})
	if err != nil {
		return nil, err
	}
	s.notifier.ConversationCreated(userID, created[0])
	return created[0], nil
}

func (s *chatService) ListConversations(ctx context.Context, userID uuid.UUID, limit int) ([]*types.Conversation, error) {
	return s.conversations.ListByUserID(ctx, nil, userID, limit)
}

func (s *chatService) ListMessages(ctx context.Context, userID uuid.UUID, conversationID uuid.UUID, limit int, beforeSeq *int64) ([]*types.ChatMessage, error) {
	conversation, err := s.conversations.GetByID(ctx, nil, conversationID)
	if err != nil {
		return nil, err
	}
	if conversation == nil || conversation.UserID != userID {
		return nil, fmt.Errorf("conversation not found")
	}
	return s.messages.ListRecent(ctx, nil, conversationID, limit, beforeSeq)
}

// SendMessage runs one full turn inside a single transaction. Ordering
// matters: conversation state is loaded (and the pending slot resolved)
// under the row lock BEFORE the incoming message is persisted, so the
// message being sent can never shadow the pending-request marker. The row
// lock also serializes concurrent sends on the same conversation.
func (s *chatService) SendMessage(ctx context.Context, userID uuid.UUID, conversationID uuid.UUID, content string, idempotencyKey string) (*SendMessageResult, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("message content required")
	}

	var out *SendMessageResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		conversation, state, err := s.stateSvc.LoadForTurn(ctx, tx, conversationID)
		if err != nil {
			return err
		}
		if conversation.UserID != userID {
			return fmt.Errorf("conversation not found")
		}

		if idempotencyKey != "" {
			existing, err := s.messages.GetByIdempotencyKey(ctx, tx, conversationID, idempotencyKey)
			if err != nil {
				return err
			}
			if existing != nil {
				out, err = s.replay(ctx, tx, existing)
				return err
			}
		}

		history, err := s.buildHistory(ctx, tx, conversationID)
		if err != nil {
			return err
		}

		started := time.Now().UTC()
		result, err := s.assistant.HandleTurn(ctx, tx, conversation, state, content, history)
		if err != nil {
			return err
		}
		completed := time.Now().UTC()

		userSeq, err := s.conversations.IncrementNextSeq(ctx, tx, conversationID)
		if err != nil {
			return err
		}
		userMessage := &types.ChatMessage{
			ConversationID: conversationID,
			UserID:         userID,
			Seq:            userSeq,
			Role:           "user",
			Content:        content,
			IdempotencyKey: idempotencyKey,
		}
		if _, err := s.messages.Create(ctx, tx, []*types.ChatMessage{userMessage}); err != nil {
			return err
		}

		meta := assistantMessageMeta{
			Intent:     string(result.Intent),
			Status:     result.Status,
			Attempts:   result.Attempts,
			Widget:     result.Widget,
			Violations: result.Violations,
		}
		metaRaw, err := json.Marshal(meta)
		if err != nil {
			return err
		}

		assistantSeq, err := s.conversations.IncrementNextSeq(ctx, tx, conversationID)
		if err != nil {
			return err
		}
		assistantMessage := &types.ChatMessage{
			ConversationID: conversationID,
			UserID:         userID,
			Seq:            assistantSeq,
			Role:           "assistant",
			Content:        result.ResponseText,
			Model:          result.Model,
			Metadata:       datatypes.JSON(metaRaw),
		}
		if _, err := s.messages.Create(ctx, tx, []*types.ChatMessage{assistantMessage}); err != nil {
			return err
		}

		violationsRaw, err := json.Marshal(result.Violations)
		if err != nil {
			return err
		}
		if result.Violations == nil {
			violationsRaw = []byte("[]")
		}
		turn := &types.ChatTurn{
			UserID:             userID,
			ConversationID:     conversationID,
			UserMessageID:      userMessage.ID,
			AssistantMessageID: assistantMessage.ID,
			Intent:             string(result.Intent),
			Model:              result.Model,
			Status:             result.Status,
			Attempts:           result.Attempts,
			Violations:         datatypes.JSON(violationsRaw),
			StartedAt:          &started,
			CompletedAt:        &completed,
		}
		if _, err := s.turns.Create(ctx, tx, []*types.ChatTurn{turn}); err != nil {
			return err
		}

		title := ""
		if userSeq == 1 && (conversation.Title == "" || conversation.Title == "New chat") {
			title = deriveTitle(content)
		}
		if err := s.conversations.TouchLastMessage(ctx, tx, conversationID, title); err != nil {
			return err
		}

		out = &SendMessageResult{
			UserMessage:      userMessage,
			AssistantMessage: assistantMessage,
			Turn:             turn,
			Result:           result,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !out.Replayed {
		s.notifier.MessageCreated(userID, conversationID, out.UserMessage)
		s.notifier.MessageCreated(userID, conversationID, out.AssistantMessage)
		s.notifier.TurnCompleted(userID, conversationID, out.Turn, out.Result)
	}
	return out, nil
}

func (s *chatService) DeleteConversation(ctx context.Context, userID uuid.UUID, conversationID uuid.UUID) error {
	conversation, err := s.conversations.GetByID(ctx, nil, conversationID)
	if err != nil {
		return err
	}
	if conversation == nil || conversation.UserID != userID {
		return fmt.Errorf("conversation not found")
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.messages.SoftDeleteByConversationID(ctx, tx, conversationID); err != nil {
			return err
		}
		return s.conversations.SoftDeleteByIDs(ctx, tx, []uuid.UUID{conversationID})
	})
	if err != nil {
		return err
	}
	s.notifier.ConversationDeleted(userID, conversationID)
	return nil
}

// buildHistory loads the recent message window, oldest first, as provider
// messages. Called before the new user message is persisted so the window
// never includes the message currently being processed.
func (s *chatService) buildHistory(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID) ([]AIMessage, error) {
	recent, err := s.messages.ListRecent(ctx, tx, conversationID, chatHistoryLimit, nil)
	if err != nil {
		return nil, err
	}
	history := make([]AIMessage, 0, len(recent))
	for _, m := range recent {
		if m.Role != "user" && m.Role != "assistant" {
			continue
		}
		history = append(history, AIMessage{Role: m.Role, Content: m.Content})
	}
	return history, nil
}

// replay reconstructs the result of an already-processed send from the
// stored assistant message; no pipeline work is repeated.
func (s *chatService) replay(ctx context.Context, tx *gorm.DB, userMessage *types.ChatMessage) (*SendMessageResult, error) {
	assistantMessage, err := s.messages.GetBySeq(ctx, tx, userMessage.ConversationID, userMessage.Seq+1)
	if err != nil {
		return nil, err
	}
	if assistantMessage == nil || assistantMessage.Role != "assistant" {
		return nil, fmt.Errorf("no assistant reply recorded for duplicate send")
	}

	var meta assistantMessageMeta
	if len(assistantMessage.Metadata) > 0 {
		if err := json.Unmarshal(assistantMessage.Metadata, &meta); err != nil {
			s.log.Warn("Failed to decode stored assistant metadata", "message_id", assistantMessage.ID, "error", err)
		}
	}
	return &SendMessageResult{
		UserMessage:      userMessage,
		AssistantMessage: assistantMessage,
		Result: &TurnResult{
			Intent:       Intent(meta.Intent),
			Model:        assistantMessage.Model,
			ResponseText: assistantMessage.Content,
			Widget:       meta.Widget,
			Violations:   meta.Violations,
			Attempts:     meta.Attempts,
			Status:       meta.Status,
		},
		Replayed: true,
	}, nil
}

func deriveTitle(content string) string {
	title := strings.TrimSpace(content)
	if len(title) > 60 {
		title = strings.TrimSpace(title[:60])
	}
	return title
}
