package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/jasperedu/jasper-backend/internal/sse"
	"github.com/jasperedu/jasper-backend/internal/types"
)

// ChatNotifier pushes realtime chat events to the user's SSE channel.
// Notifications fire after the turn transaction commits.
type ChatNotifier interface {
	ConversationCreated(userID uuid.UUID, conversation *types.Conversation)
	ConversationDeleted(userID uuid.UUID, conversationID uuid.UUID)
	MessageCreated(userID uuid.UUID, conversationID uuid.UUID, msg *types.ChatMessage)
	TurnCompleted(userID uuid.UUID, conversationID uuid.UUID, turn *types.ChatTurn, result *TurnResult)
}

type chatNotifier struct {
	emit SSEEmitter
}

func NewChatNotifier(emit SSEEmitter) ChatNotifier {
	return &chatNotifier{emit: emit}
}

func (n *chatNotifier) ConversationCreated(userID uuid.UUID, conversation *types.Conversation) {
	if n == nil || n.emit == nil || userID == uuid.Nil {
		return
	}
	n.emit.Emit(context.Background(), sse.SSEMessage{
		Channel: userID.String(),
		Event:   sse.SSEEventConversationCreated,
		Data:    map[string]any{"conversation": conversation},
	})
}

func (n *chatNotifier) ConversationDeleted(userID uuid.UUID, conversationID uuid.UUID) {
	if n == nil || n.emit == nil || userID == uuid.Nil {
		return
	}
	n.emit.Emit(context.Background(), sse.SSEMessage{
		Channel: userID.String(),
		Event:   sse.SSEEventConversationDeleted,
		Data:    map[string]any{"conversation_id": conversationID},
	})
}

func (n *chatNotifier) MessageCreated(userID uuid.UUID, conversationID uuid.UUID, msg *types.ChatMessage) {
	if n == nil || n.emit == nil || userID == uuid.Nil {
		return
	}
	n.emit.Emit(context.Background(), sse.SSEMessage{
		Channel: userID.String(),
		Event:   sse.SSEEventChatMessageCreated,
		Data:    map[string]any{"conversation_id": conversationID, "message": msg},
	})
}

func (n *chatNotifier) TurnCompleted(userID uuid.UUID, conversationID uuid.UUID, turn *types.ChatTurn, result *TurnResult) {
	if n == nil || n.emit == nil || userID == uuid.Nil {
		return
	}
	data := map[string]any{
		"conversation_id": conversationID,
		"turn":            turn,
	}
	if result != nil {
		data["intent"] = string(result.Intent)
		data["status"] = result.Status
		data["widget"] = result.Widget
		data["violations"] = result.Violations
	}
	n.emit.Emit(context.Background(), sse.SSEMessage{
		Channel: userID.String(),
		Event:   sse.SSEEventChatTurnCompleted,
		Data:    data,
	})
}
