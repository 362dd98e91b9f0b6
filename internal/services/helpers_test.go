package services

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jasperedu/jasper-backend/internal/logger"
	"github.com/jasperedu/jasper-backend/internal/types"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init test logger: %v", err)
	}
	return log
}

// scriptedAIClient returns canned responses in order, repeating the last one
// once the script runs out, and counts every call.
type scriptedAIClient struct {
	responses []string
	calls     int
	lastMsgs  []AIMessage
}

func (c *scriptedAIClient) Chat(ctx context.Context, model string, messages []AIMessage) (string, error) {
	c.calls++
	c.lastMsgs = messages
	if len(c.responses) == 0 {
		return "", fmt.Errorf("no scripted response")
	}
	idx := c.calls - 1
	if idx >= len(c.responses) {
		idx = len(c.responses) - 1
	}
	return c.responses[idx], nil
}

// memoryStateService applies state transitions to the in-memory conversation
// without touching a database.
type memoryStateService struct {
	storeCalls   int
	resolveCalls int
}

func (s *memoryStateService) LoadForTurn(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID) (*types.Conversation, ConversationState, error) {
	return nil, ConversationState{}, fmt.Errorf("not used in these tests")
}

func (s *memoryStateService) StorePendingMealPlan(ctx context.Context, tx *gorm.DB, conversation *types.Conversation, request string) error {
	s.storeCalls++
	conversation.PendingMealPlanRequest = &request
	conversation.AskedAllergies = false
	return nil
}

func (s *memoryStateService) ResolveAllergyAnswer(ctx context.Context, tx *gorm.DB, conversation *types.Conversation, answer string) (string, error) {
	s.resolveCalls++
	if conversation.PendingMealPlanRequest == nil {
		return "", fmt.Errorf("no pending meal plan request to resolve")
	}
	pending := *conversation.PendingMealPlanRequest
	allergens := parseAllergens(answer)
	if allergens == nil {
		allergens = []string{}
	}
	raw, err := json.Marshal(allergens)
	if err != nil {
		return "", err
	}
	conversation.PendingMealPlanRequest = nil
	conversation.AskedAllergies = true
	conversation.Allergens = raw
	return pending, nil
}
