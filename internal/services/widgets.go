package services

import (
	"github.com/jasperedu/jasper-backend/internal/logger"
)

type WidgetKind string

const (
	WidgetKindMealPlan   WidgetKind = "meal_plan"
	WidgetKindLessonPlan WidgetKind = "lesson_plan"
	WidgetKindWorkout    WidgetKind = "workout"
	WidgetKindGeneric    WidgetKind = "generic"
)

// WidgetRecord is the structured projection of a free-text assistant
// response, keyed by kind. Exactly one of the pointer fields is set. A
// record is always produced; unmatched patterns leave fields sparse, they
// never fail the turn.
type WidgetRecord struct {
	Kind       WidgetKind        `json:"kind"`
	MealPlan   *MealPlanWidget   `json:"meal_plan,omitempty"`
	LessonPlan *LessonPlanWidget `json:"lesson_plan,omitempty"`
	Workout    *WorkoutWidget    `json:"workout,omitempty"`
	Generic    *GenericWidget    `json:"generic,omitempty"`
}

type GenericWidget struct {
	Text string `json:"text"`
}

// WidgetExtractor turns a response into a WidgetRecord. Pure text-to-struct
// parsing: deterministic for identical input, no external calls.
type WidgetExtractor interface {
	Extract(intent Intent, responseText string, originalMessage string) WidgetRecord
}

type widgetExtractor struct {
	log *logger.Logger
}

func NewWidgetExtractor(log *logger.Logger) WidgetExtractor {
	return &widgetExtractor{log: log.With("service", "WidgetExtractor")}
}

func (e *widgetExtractor) Extract(intent Intent, responseText string, originalMessage string) WidgetRecord {
	switch intent {
	case IntentMealPlan:
		w := extractMealPlan(responseText)
		if len(w.Days) == 0 {
			e.log.Warn("Meal plan extraction found no day sections", "response_len", len(responseText))
		}
		return WidgetRecord{Kind: WidgetKindMealPlan, MealPlan: w}
	case IntentLessonPlan:
		w := extractLessonPlan(responseText)
		if w.Objectives == "" && w.Activities == "" && w.Standards == "" {
			e.log.Warn("Lesson plan extraction found no named sections", "response_len", len(responseText))
		}
		return WidgetRecord{Kind: WidgetKindLessonPlan, LessonPlan: w}
	case IntentWorkout:
		w := extractWorkout(responseText)
		if len(w.Entries) == 0 {
			e.log.Warn("Workout extraction found no exercise lines", "response_len", len(responseText))
		}
		return WidgetRecord{Kind: WidgetKindWorkout, Workout: w}
	default:
		return WidgetRecord{Kind: WidgetKindGeneric, Generic: &GenericWidget{Text: responseText}}
	}
}
