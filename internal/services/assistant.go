package services

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/jasperedu/jasper-backend/internal/logger"
	"github.com/jasperedu/jasper-backend/internal/repos"
	"github.com/jasperedu/jasper-backend/internal/types"
	"github.com/jasperedu/jasper-backend/internal/utils"
)

// CorrectionPolicy decides what the controller does with a response that
// fails validation.
type CorrectionPolicy int

const (
	// CorrectionNone accepts the response as-is.
	CorrectionNone CorrectionPolicy = iota
	// CorrectionBestEffort runs one corrective retry, then accepts the last
	// response with the remaining violations attached as warnings.
	CorrectionBestEffort
	// CorrectionMandatory retries up to the configured cap; an invalid
	// response is still returned after exhaustion, never silently replaced.
	CorrectionMandatory
)

func policyFor(intent Intent) CorrectionPolicy {
	switch intent {
	case IntentMealPlan:
		return CorrectionMandatory
	case IntentLessonPlan, IntentWorkout:
		return CorrectionBestEffort
	default:
		return CorrectionNone
	}
}

const (
	TurnStatusAccepted  = "accepted"
	TurnStatusWarned    = "warned"
	TurnStatusExhausted = "exhausted"
	TurnStatusFastPath  = "fast_path"
)

// allergyQuestionText is the canned zero-latency reply to a first meal-plan
// request; no provider call happens on that path.
const allergyQuestionText = "Before I put a meal plan together, do you have any food allergies or dietary restrictions I should know about?"

// TurnResult is what one processed user message produces: the response text,
// the extracted widget, and any violations still attached after correction.
type TurnResult struct {
	Intent       Intent       `json:"intent"`
	Model        string       `json:"model"`
	ResponseText string       `json:"response_text"`
	Widget       WidgetRecord `json:"widget"`
	Violations   []Violation  `json:"violations"`
	Attempts     int          `json:"attempts"`
	Status       string       `json:"status"`
}

// AssistantService runs the full pipeline for one turn: classify, assemble
// the prompt bundle, route to a model, validate, correct within the policy's
// bounds, and extract the widget. State mutations (pending request storage
// and resolution) happen through ConversationStateService against the turn's
// transaction, before the caller persists the user message.
type AssistantService interface {
	HandleTurn(ctx context.Context, tx *gorm.DB, conversation *types.Conversation, state ConversationState, userMessage string, history []AIMessage) (*TurnResult, error)
}

type assistantService struct {
	log        *logger.Logger
	prompts    PromptModuleService
	router     ModelRouter
	validator  Validator
	extractor  WidgetExtractor
	stateSvc   ConversationStateService
	aiCallLogs repos.AICallLogRepo

	maxCorrections int
}

func NewAssistantService(
	log *logger.Logger,
	prompts PromptModuleService,
	router ModelRouter,
	validator Validator,
	extractor WidgetExtractor,
	stateSvc ConversationStateService,
	aiCallLogRepo repos.AICallLogRepo,
) AssistantService {
	serviceLog := log.With("service", "AssistantService")
	maxCorrections := utils.GetEnvAsInt("JASPER_MAX_CORRECTIONS", 2, log)
	if maxCorrections < 0 {
		maxCorrections = 0
	}
	return &assistantService{
		log:            serviceLog,
		prompts:        prompts,
		router:         router,
		validator:      validator,
		extractor:      extractor,
		stateSvc:       stateSvc,
		aiCallLogs:     aiCallLogRepo,
		maxCorrections: maxCorrections,
	}
}

func (s *assistantService) HandleTurn(ctx context.Context, tx *gorm.DB, conversation *types.Conversation, state ConversationState, userMessage string, history []AIMessage) (*TurnResult, error) {
	intent := ClassifyIntent(userMessage, state)
	effectiveIntent := intent
	effectiveMessage := strings.TrimSpace(userMessage)

	switch {
	case intent == IntentMealPlan && !state.AskedAllergies:
		// Zero-latency fast path: no allergy info yet, so the turn is the
		// canned allergy question and the request parks in the pending slot.
		if err := s.stateSvc.StorePendingMealPlan(ctx, tx, conversation, effectiveMessage); err != nil {
			return nil, err
		}
		s.log.Debug("Meal plan request parked pending allergy info", "conversation_id", conversation.ID)
		return &TurnResult{
			Intent:       intent,
			ResponseText: allergyQuestionText,
			Widget:       WidgetRecord{Kind: WidgetKindGeneric, Generic: &GenericWidget{Text: allergyQuestionText}},
			Status:       TurnStatusFastPath,
		}, nil

	case intent == IntentAllergyAnswer && state.PendingMealPlanRequest != "":
		// Combine the stored request with the answer and force meal_plan for
		// routing. The pending slot is cleared before generation, so this
		// branch runs at most once per stored request.
		pending, err := s.stateSvc.ResolveAllergyAnswer(ctx, tx, conversation, effectiveMessage)
		if err != nil {
			return nil, err
		}
		effectiveIntent = IntentMealPlan
		effectiveMessage = pending + "\n\nAllergies and dietary restrictions: " + strings.TrimSpace(userMessage)
		state = snapshotState(conversation)
	}

	bundle := s.prompts.LoadBundle(effectiveIntent)
	model := s.router.ModelFor(effectiveIntent)
	policy := policyFor(effectiveIntent)

	messages := make([]AIMessage, 0, len(history)+1)
	messages = append(messages, history...)
	messages = append(messages, AIMessage{Role: "user", Content: effectiveMessage})

	responseText, err := s.router.Route(ctx, effectiveIntent, bundle, messages)
	attempts := 1
	s.logAICall(ctx, tx, conversation, model, effectiveMessage, responseText, err)
	if err != nil {
		return nil, err
	}

	violations := s.validator.Validate(effectiveIntent, responseText, effectiveMessage, state)

	corrections := 0
	limit := 0
	switch policy {
	case CorrectionMandatory:
		limit = s.maxCorrections
	case CorrectionBestEffort:
		limit = 1
	}

	for len(violations) > 0 && corrections < limit {
		corrective := buildCorrectiveBlock(violations)
		retryMessages := make([]AIMessage, 0, len(messages)+2)
		retryMessages = append(retryMessages, messages...)
		retryMessages = append(retryMessages,
			AIMessage{Role: "assistant", Content: responseText},
			AIMessage{Role: "system", Content: corrective},
		)

		s.log.Warn("Response failed validation, regenerating",
			"intent", string(effectiveIntent),
			"violations", len(violations),
			"correction", corrections+1,
			"limit", limit,
		)

		retryText, retryErr := s.router.Route(ctx, effectiveIntent, bundle, retryMessages)
		attempts++
		corrections++
		s.logAICall(ctx, tx, conversation, model, corrective, retryText, retryErr)
		if retryErr != nil {
			return nil, retryErr
		}
		responseText = retryText
		violations = s.validator.Validate(effectiveIntent, responseText, effectiveMessage, state)
	}

	status := TurnStatusAccepted
	if len(violations) > 0 {
		if policy == CorrectionMandatory {
			status = TurnStatusExhausted
			s.log.Error("Corrections exhausted, returning response with violations",
				"intent", string(effectiveIntent), "violations", len(violations))
		} else {
			status = TurnStatusWarned
		}
	}

	widget := s.extractor.Extract(effectiveIntent, responseText, effectiveMessage)

	return &TurnResult{
		Intent:       effectiveIntent,
		Model:        model,
		ResponseText: responseText,
		Widget:       widget,
		Violations:   violations,
		Attempts:     attempts,
		Status:       status,
	}, nil
}

// buildCorrectiveBlock turns the concrete violations into the instruction
// injected before regeneration.
func buildCorrectiveBlock(violations []Violation) string {
	var b strings.Builder
	b.WriteString("Your previous response violated the following rules. Regenerate the full response and fix every item:\n")
	for _, v := range violations {
		b.WriteString("- ")
		b.WriteString(v.String())
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}

func (s *assistantService) logAICall(ctx context.Context, tx *gorm.DB, conversation *types.Conversation, model string, prompt string, response string, callErr error) {
	if s.aiCallLogs == nil {
		return
	}
	entry := &types.AICallLog{
		UserID:         &conversation.UserID,
		ConversationID: &conversation.ID,
		CallType:       "chat_turn",
		Model:          model,
		Prompt:         prompt,
		Response:       response,
		Success:        callErr == nil,
	}
	if callErr != nil {
		entry.Error = callErr.Error()
	}
	if _, err := s.aiCallLogs.Create(ctx, tx, []*types.AICallLog{entry}); err != nil {
		s.log.Warn("Failed to write AI call log", "error", err)
	}
}
