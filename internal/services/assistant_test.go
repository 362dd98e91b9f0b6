package services

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/jasperedu/jasper-backend/internal/types"
)

func newTestAssistant(t *testing.T, ai AIClient, stateSvc ConversationStateService) AssistantService {
	t.Helper()
	t.Setenv("JASPER_MAX_CORRECTIONS", "2")
	log := testLogger(t)
	return NewAssistantService(
		log,
		NewPromptModuleService(log, ""),
		NewModelRouter(log, ai),
		NewValidator(log),
		NewWidgetExtractor(log),
		stateSvc,
		nil,
	)
}

func testConversation() *types.Conversation {
	return &types.Conversation{ID: uuid.New(), UserID: uuid.New()}
}

func validPlan(days int) string {
	var b strings.Builder
	for d := 1; d <= days; d++ {
		fmt.Fprintf(&b, "Day %d:\n- Grilled chicken with rice (1 plate: 650 calories)\n- Greek yogurt (150 calories)\nMacros: 140g protein, 220g carbs, 70g fat\nMicronutrients: iron, calcium\n", d)
	}
	return b.String()
}

func TestHandleTurnMealPlanFastPath(t *testing.T) {
	ai := &scriptedAIClient{responses: []string{"should never be called"}}
	state := &memoryStateService{}
	svc := newTestAssistant(t, ai, state)

	conversation := testConversation()
	result, err := svc.HandleTurn(context.Background(), nil, conversation, ConversationState{}, "Can you make me a meal plan for the week?", nil)
	if err != nil {
		t.Fatalf("HandleTurn: %v", err)
	}

	if ai.calls != 0 {
		t.Fatalf("fast path made %d provider calls, want 0", ai.calls)
	}
	if result.Status != TurnStatusFastPath {
		t.Fatalf("status = %q, want %q", result.Status, TurnStatusFastPath)
	}
	if !strings.Contains(strings.ToLower(result.ResponseText), "allerg") || !strings.Contains(result.ResponseText, "?") {
		t.Fatalf("fast path response is not the allergy question: %q", result.ResponseText)
	}
	if state.storeCalls != 1 {
		t.Fatalf("pending request stored %d times, want 1", state.storeCalls)
	}
	if conversation.PendingMealPlanRequest == nil || !strings.Contains(*conversation.PendingMealPlanRequest, "meal plan for the week") {
		t.Fatalf("pending request not stored on conversation: %v", conversation.PendingMealPlanRequest)
	}
	if result.Widget.Kind != WidgetKindGeneric {
		t.Fatalf("fast path widget kind = %q", result.Widget.Kind)
	}
}

func TestHandleTurnPendingMergeProducesFullPlan(t *testing.T) {
	ai := &scriptedAIClient{responses: []string{validPlan(7)}}
	state := &memoryStateService{}
	svc := newTestAssistant(t, ai, state)

	pending := "Make me a 7-day meal plan for a wrestler"
	conversation := testConversation()
	conversation.PendingMealPlanRequest = &pending

	result, err := svc.HandleTurn(context.Background(), nil, conversation,
		ConversationState{PendingMealPlanRequest: pending},
		"I'm allergic to tree nuts", nil)
	if err != nil {
		t.Fatalf("HandleTurn: %v", err)
	}

	if state.resolveCalls != 1 {
		t.Fatalf("pending resolved %d times, want 1", state.resolveCalls)
	}
	if ai.calls != 1 {
		t.Fatalf("provider calls = %d, want 1", ai.calls)
	}
	if result.Intent != IntentMealPlan {
		t.Fatalf("effective intent = %q, want meal_plan", result.Intent)
	}
	if result.Status != TurnStatusAccepted {
		t.Fatalf("status = %q, violations = %v", result.Status, result.Violations)
	}
	if result.Widget.MealPlan == nil || len(result.Widget.MealPlan.Days) != 7 {
		t.Fatalf("widget should carry 7 days, got %+v", result.Widget.MealPlan)
	}
	if strings.Contains(strings.ToLower(result.ResponseText), "nut") {
		t.Fatalf("response contains the listed allergen")
	}

	// The provider saw the combined request, not just the allergy answer.
	last := ai.lastMsgs[len(ai.lastMsgs)-1]
	if last.Role != "user" || !strings.Contains(last.Content, "wrestler") || !strings.Contains(last.Content, "tree nuts") {
		t.Fatalf("merged user message not sent to provider: %+v", last)
	}
	if conversation.PendingMealPlanRequest != nil {
		t.Fatalf("pending slot should be cleared after resolution")
	}
}

func TestHandleTurnMandatoryCorrectionExhaustion(t *testing.T) {
	// Every response is missing the "Day 1" opener, so the controller burns
	// through every allowed correction and still returns the response.
	ai := &scriptedAIClient{responses: []string{"Here is a meal plan you will love.\n- Eggs (200 calories)"}}
	svc := newTestAssistant(t, ai, &memoryStateService{})

	result, err := svc.HandleTurn(context.Background(), nil, testConversation(),
		ConversationState{AskedAllergies: true}, "meal plan for today please", nil)
	if err != nil {
		t.Fatalf("HandleTurn: %v", err)
	}

	if ai.calls != 3 {
		t.Fatalf("provider calls = %d, want 3 (initial + 2 corrections)", ai.calls)
	}
	if result.Attempts != 3 {
		t.Fatalf("attempts = %d, want 3", result.Attempts)
	}
	if result.Status != TurnStatusExhausted {
		t.Fatalf("status = %q, want %q", result.Status, TurnStatusExhausted)
	}
	if !hasViolation(result.Violations, ViolationMissingDayOne) {
		t.Fatalf("violations should still be attached after exhaustion, got %v", result.Violations)
	}
	if result.ResponseText == "" {
		t.Fatalf("last response must be returned even when invalid")
	}

	// The corrective instruction named the concrete violation.
	foundCorrective := false
	for _, m := range ai.lastMsgs {
		if m.Role == "system" && strings.Contains(m.Content, string(ViolationMissingDayOne)) {
			foundCorrective = true
		}
	}
	if !foundCorrective {
		t.Fatalf("corrective system message missing from retry request")
	}
}

func TestHandleTurnBestEffortSingleRetry(t *testing.T) {
	ai := &scriptedAIClient{responses: []string{"Some vague teaching ideas with no structure."}}
	svc := newTestAssistant(t, ai, &memoryStateService{})

	result, err := svc.HandleTurn(context.Background(), nil, testConversation(),
		ConversationState{}, "lesson plan on photosynthesis", nil)
	if err != nil {
		t.Fatalf("HandleTurn: %v", err)
	}

	if ai.calls != 2 {
		t.Fatalf("provider calls = %d, want 2 (initial + 1 best-effort retry)", ai.calls)
	}
	if result.Status != TurnStatusWarned {
		t.Fatalf("status = %q, want %q", result.Status, TurnStatusWarned)
	}
	if len(result.Violations) == 0 {
		t.Fatalf("warnings should carry the remaining violations")
	}
}

func TestHandleTurnGeneralIntentNoCorrection(t *testing.T) {
	ai := &scriptedAIClient{responses: []string{"The faculty meeting starts at 3pm."}}
	svc := newTestAssistant(t, ai, &memoryStateService{})

	result, err := svc.HandleTurn(context.Background(), nil, testConversation(),
		ConversationState{}, "when does the faculty meeting start", nil)
	if err != nil {
		t.Fatalf("HandleTurn: %v", err)
	}

	if ai.calls != 1 {
		t.Fatalf("provider calls = %d, want 1", ai.calls)
	}
	if result.Intent != IntentGeneral || result.Status != TurnStatusAccepted {
		t.Fatalf("result = %+v", result)
	}
	if result.Widget.Kind != WidgetKindGeneric || result.Widget.Generic == nil {
		t.Fatalf("general turn should produce a generic widget, got %+v", result.Widget)
	}
	if len(result.Violations) != 0 {
		t.Fatalf("general turn should have no violations, got %v", result.Violations)
	}
}
