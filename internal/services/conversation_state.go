package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/jasperedu/jasper-backend/internal/logger"
	"github.com/jasperedu/jasper-backend/internal/repos"
	"github.com/jasperedu/jasper-backend/internal/types"
)

// ConversationStateService is the single accessor for the typed assistant
// state on a conversation. Every turn loads state through LoadForTurn under
// a row lock BEFORE the incoming user message is persisted; without that
// ordering a new message could mask the pending-request marker for the scan
// that needs it.
type ConversationStateService interface {
	LoadForTurn(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID) (*types.Conversation, ConversationState, error)
	StorePendingMealPlan(ctx context.Context, tx *gorm.DB, conversation *types.Conversation, request string) error
	// ResolveAllergyAnswer consumes the pending request: records the answer's
	// allergens, marks allergies as asked, clears the pending slot, and
	// returns the original request text. At most one resolution per stored
	// request.
	ResolveAllergyAnswer(ctx context.Context, tx *gorm.DB, conversation *types.Conversation, answer string) (string, error)
}

type conversationStateService struct {
	log           *logger.Logger
	conversations repos.ConversationRepo
}

func NewConversationStateService(log *logger.Logger, conversationRepo repos.ConversationRepo) ConversationStateService {
	return &conversationStateService{
		log:           log.With("service", "ConversationStateService"),
		conversations: conversationRepo,
	}
}

func (s *conversationStateService) LoadForTurn(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID) (*types.Conversation, ConversationState, error) {
	conversation, err := s.conversations.GetByIDForUpdate(ctx, tx, conversationID)
	if err != nil {
		return nil, ConversationState{}, err
	}
	if conversation == nil {
		return nil, ConversationState{}, fmt.Errorf("conversation not found")
	}
	return conversation, snapshotState(conversation), nil
}

func (s *conversationStateService) StorePendingMealPlan(ctx context.Context, tx *gorm.DB, conversation *types.Conversation, request string) error {
	request = strings.TrimSpace(request)
	if conversation == nil || request == "" {
		return fmt.Errorf("conversation and request required")
	}
	conversation.PendingMealPlanRequest = &request
	conversation.AskedAllergies = false
	return s.conversations.Save(ctx, tx, conversation)
}

func (s *conversationStateService) ResolveAllergyAnswer(ctx context.Context, tx *gorm.DB, conversation *types.Conversation, answer string) (string, error) {
	if conversation == nil || conversation.PendingMealPlanRequest == nil {
		return "", fmt.Errorf("no pending meal plan request to resolve")
	}
	pending := *conversation.PendingMealPlanRequest

	allergens := snapshotState(conversation).Allergens
	for _, a := range parseAllergens(answer) {
		if !containsFold(allergens, a) {
			allergens = append(allergens, a)
		}
	}
	raw, err := json.Marshal(allergens)
	if err != nil {
		return "", err
	}

	conversation.PendingMealPlanRequest = nil
	conversation.AskedAllergies = true
	conversation.Allergens = datatypes.JSON(raw)
	if err := s.conversations.Save(ctx, tx, conversation); err != nil {
		return "", err
	}
	s.log.Debug("Resolved pending meal plan request", "conversation_id", conversation.ID, "allergens", len(allergens))
	return pending, nil
}

func snapshotState(conversation *types.Conversation) ConversationState {
	state := ConversationState{
		AskedAllergies: conversation.AskedAllergies,
	}
	if conversation.PendingMealPlanRequest != nil {
		state.PendingMealPlanRequest = strings.TrimSpace(*conversation.PendingMealPlanRequest)
	}
	if len(conversation.Allergens) > 0 {
		var allergens []string
		if err := json.Unmarshal(conversation.Allergens, &allergens); err == nil {
			state.Allergens = allergens
		}
	}
	return state
}

var noAllergyAnswers = []string{"none", "no", "nope", "nah", "nothing", "no allergies", "i have no allergies", "no allergies or restrictions"}

var allergenMarkers = []string{"allergic to", "allergies to", "allergy to", "intolerant to", "can't eat", "cannot eat", "avoid"}

// parseAllergens pulls allergen phrases out of a free-text allergy answer.
// "I'm allergic to tree nuts and shellfish" -> ["tree nuts", "shellfish"];
// a bare "none" records nothing.
func parseAllergens(answer string) []string {
	lower := strings.ToLower(strings.TrimSpace(answer))
	lower = strings.Trim(lower, ".!")
	if lower == "" {
		return nil
	}
	for _, negative := range noAllergyAnswers {
		if lower == negative {
			return nil
		}
	}

	for _, marker := range allergenMarkers {
		idx := strings.Index(lower, marker)
		if idx < 0 {
			continue
		}
		rest := lower[idx+len(marker):]
		if end := strings.IndexAny(rest, ".;!\n"); end >= 0 {
			rest = rest[:end]
		}
		return splitAllergenList(rest)
	}

	// A short bare answer ("tree nuts") is itself the allergen list.
	if wordCount(lower) <= 4 {
		return splitAllergenList(lower)
	}
	return nil
}

func splitAllergenList(s string) []string {
	s = strings.ReplaceAll(s, " and ", ",")
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}

func containsFold(list []string, s string) bool {
	for _, item := range list {
		if strings.EqualFold(item, s) {
			return true
		}
	}
	return false
}
