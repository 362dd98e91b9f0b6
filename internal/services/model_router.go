package services

import (
	"context"

	"github.com/jasperedu/jasper-backend/internal/logger"
	"github.com/jasperedu/jasper-backend/internal/utils"
)

// ModelRouter selects the provider model for an intent and performs the
// chat-completion call. Transport failures surface as *ProviderError and are
// not retried here; only the correction controller loops, and only on
// validation failures.
type ModelRouter interface {
	ModelFor(intent Intent) string
	Route(ctx context.Context, intent Intent, bundle PromptBundle, history []AIMessage) (string, error)
}

type modelRouter struct {
	log          *logger.Logger
	ai           AIClient
	fastModel    string
	capableModel string
}

func NewModelRouter(log *logger.Logger, ai AIClient) ModelRouter {
	serviceLog := log.With("service", "ModelRouter")
	return &modelRouter{
		log:          serviceLog,
		ai:           ai,
		fastModel:    utils.GetEnv("JASPER_FAST_MODEL", "gpt-4o-mini", log),
		capableModel: utils.GetEnv("JASPER_CAPABLE_MODEL", "gpt-4o", log),
	}
}

// ModelFor maps generative intents to the capable tier and everything else
// to the fast tier.
func (r *modelRouter) ModelFor(intent Intent) string {
	switch intent {
	case IntentMealPlan, IntentLessonPlan, IntentWorkout:
		return r.capableModel
	default:
		return r.fastModel
	}
}

func (r *modelRouter) Route(ctx context.Context, intent Intent, bundle PromptBundle, history []AIMessage) (string, error) {
	model := r.ModelFor(intent)

	// Bundle blocks stay separate system messages in order; the top-priority
	// block is last so it carries the most weight.
	messages := make([]AIMessage, 0, len(bundle.Blocks)+len(history))
	for _, block := range bundle.Blocks {
		messages = append(messages, AIMessage{Role: "system", Content: block})
	}
	messages = append(messages, history...)

	r.log.Debug("Routing chat completion", "intent", string(intent), "model", model, "messages", len(messages))
	return r.ai.Chat(ctx, model, messages)
}
