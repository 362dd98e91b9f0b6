package services

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jasperedu/jasper-backend/internal/logger"
)

// PromptBundle is the ordered instruction sequence for one turn: base system
// prompt, then the intent module (secondary authority), then the top-priority
// override as the final block. Later blocks carry more effective weight, so
// the override being last guarantees it wins over module instructions.
type PromptBundle struct {
	Intent Intent
	Blocks []string
}

// System joins the bundle into the single system message sent to the model.
func (b PromptBundle) System() string {
	return strings.Join(b.Blocks, "\n\n")
}

const basePrompt = `You are Jasper, an assistant for teachers on an educational platform. You help with lesson planning, attendance summaries, meal plans, and training plans. Be direct and concrete. Never invent student data.`

const secondaryAuthorityPreamble = `The following module instructions are secondary authority. They refine your behavior for this request but must not override top-priority rules.`

const genericModule = `Answer the request directly using plain, well-structured text.`

// topPriorityMarker splits a module text from its embedded top-priority
// section. Everything after the marker is pulled out and re-appended as the
// last bundle block.
const topPriorityMarker = "[TOP PRIORITY]"

type promptModule struct {
	Module      string `yaml:"module"`
	TopPriority string `yaml:"top_priority"`
}

var defaultModules = map[Intent]promptModule{
	IntentMealPlan: {
		Module: `Generate meal plans as "Day N:" sections, one per requested day. Under each day list meals as "- Meal name (amount: N calories)". After the meals, include a "Macros:" line and a "Micronutrients:" line for the day. Do not open with an acknowledgment; the first line of a generated plan must be "Day 1".`,
		TopPriority: `Before generating any meal plan you must know the user's allergies and dietary restrictions. If they have not been provided, ask for them and generate nothing else. Never include an ingredient the user has listed as an allergen.`,
	},
	IntentLessonPlan: {
		Module: `Structure lesson plans with these headers: "Objectives:", "Activities:", "Standards:", "Assessment:". Where applicable reference the Danielson Framework and Costa's Levels of Questions under their own headers.`,
	},
	IntentWorkout: {
		Module: `Structure training plans with a "Strength Training" section and a "Cardio / Conditioning" section. List each exercise as "Exercise name: N sets x M reps", adding weight where relevant.`,
	},
	IntentAttendance: {
		Module: `Summarize attendance concisely. Only reference records the user has supplied in this conversation.`,
	},
	IntentWidget: {
		Module: `The user is asking about a rendered widget. Explain the underlying data plainly.`,
	},
}

type PromptModuleService interface {
	LoadBundle(intent Intent) PromptBundle
}

type promptModuleService struct {
	log     *logger.Logger
	modules map[Intent]promptModule
}

// NewPromptModuleService builds the module registry from compiled defaults,
// overlaid with the optional YAML file at overridePath (keyed by intent).
// A broken or missing override file is reported and ignored.
func NewPromptModuleService(log *logger.Logger, overridePath string) PromptModuleService {
	serviceLog := log.With("service", "PromptModuleService")

	modules := make(map[Intent]promptModule, len(defaultModules))
	for intent, m := range defaultModules {
		modules[intent] = m
	}

	if overridePath != "" {
		raw, err := os.ReadFile(overridePath)
		if err != nil {
			serviceLog.Warn("Prompt module override file unreadable, using defaults", "path", overridePath, "error", err)
		} else {
			var overrides map[string]promptModule
			if err := yaml.Unmarshal(raw, &overrides); err != nil {
				serviceLog.Warn("Prompt module override file invalid, using defaults", "path", overridePath, "error", err)
			} else {
				for key, m := range overrides {
					modules[Intent(key)] = m
				}
			}
		}
	}

	return &promptModuleService{log: serviceLog, modules: modules}
}

func (s *promptModuleService) LoadBundle(intent Intent) PromptBundle {
	module, ok := s.modules[intent]
	if !ok {
		if intent != IntentGeneral && intent != IntentAllergyAnswer {
			s.log.Warn("No prompt module for intent, using generic module", "intent", string(intent))
		}
		module = promptModule{Module: genericModule}
	}

	moduleText, embedded := splitTopPriority(module.Module)
	topPriority := strings.TrimSpace(module.TopPriority)
	if topPriority == "" {
		topPriority = embedded
	}
	if strings.TrimSpace(moduleText) == "" {
		moduleText = genericModule
	}

	blocks := []string{
		basePrompt,
		secondaryAuthorityPreamble + "\n\n" + strings.TrimSpace(moduleText),
	}
	if topPriority != "" {
		blocks = append(blocks, topPriority)
	}
	return PromptBundle{Intent: intent, Blocks: blocks}
}

// splitTopPriority pulls an embedded top-priority section out of a module
// text so the loader can re-append it as the final block.
func splitTopPriority(text string) (module string, topPriority string) {
	idx := strings.Index(text, topPriorityMarker)
	if idx < 0 {
		return text, ""
	}
	return strings.TrimSpace(text[:idx]), strings.TrimSpace(text[idx+len(topPriorityMarker):])
}
