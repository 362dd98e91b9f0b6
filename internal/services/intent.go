package services

import (
	"strings"
	"unicode"
)

// Intent is the classified purpose of a single chat turn. It drives which
// prompt modules, model tier, and validation rules the turn runs through.
type Intent string

const (
	IntentAttendance    Intent = "attendance"
	IntentLessonPlan    Intent = "lesson_plan"
	IntentMealPlan      Intent = "meal_plan"
	IntentWorkout       Intent = "workout"
	IntentWidget        Intent = "widget"
	IntentAllergyAnswer Intent = "allergy_answer"
	IntentGeneral       Intent = "general"
)

// ConversationState is the per-conversation assistant state snapshot the
// pipeline reads at the start of a turn. It is loaded (and later written)
// through ConversationStateService so the pending-request lookup always
// happens before the turn's user message is persisted.
type ConversationState struct {
	PendingMealPlanRequest string
	AskedAllergies         bool
	Allergens              []string
}

// intentChecks is the classification order. A message matching keywords for
// two intents resolves to the earlier entry; lesson_plan sits above meal_plan
// because "a lesson plan about nutrition" is the likelier reading for a
// teaching product.
var intentChecks = []struct {
	intent   Intent
	keywords []string
}{
	{IntentAttendance, []string{"attendance", "absent today", "who was absent"}},
	{IntentLessonPlan, []string{"lesson plan", "unit plan", "danielson", "learning objectives"}},
	{IntentMealPlan, []string{"meal plan", "meal prep", "diet plan", "diet", "nutrition"}},
	{IntentWorkout, []string{"workout", "training plan", "exercise plan", "lifting plan"}},
	{IntentWidget, []string{"widget"}},
}

var allergyAnswerKeywords = []string{
	"allergic", "allergy", "allergies", "no allergies", "none",
	"gluten", "lactose", "intolerant", "intolerance", "vegetarian", "vegan",
}

// ClassifyIntent maps a raw user message to one Intent. Pure keyword
// matching over the lower-cased text; no model call, no side effects.
//
// Priority rule: while a pending meal-plan request is stored, a message that
// reads as a short allergy/restriction answer classifies as allergy_answer
// regardless of any other keyword hits.
func ClassifyIntent(message string, state ConversationState) Intent {
	lower := strings.ToLower(strings.TrimSpace(message))
	if lower == "" {
		return IntentGeneral
	}

	if state.PendingMealPlanRequest != "" && looksLikeAllergyAnswer(lower) {
		return IntentAllergyAnswer
	}

	for _, check := range intentChecks {
		for _, kw := range check.keywords {
			if strings.Contains(lower, kw) {
				return check.intent
			}
		}
	}
	return IntentGeneral
}

// looksLikeAllergyAnswer accepts either an explicit allergy/restriction
// keyword or a short bare affirmative/negative ("none", "no", "nope").
func looksLikeAllergyAnswer(lower string) bool {
	for _, kw := range allergyAnswerKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	if wordCount(lower) <= 4 {
		for _, w := range []string{"no", "nope", "nah", "yes", "nothing"} {
			if lower == w || strings.HasPrefix(lower, w+" ") || strings.HasPrefix(lower, w+",") || strings.HasPrefix(lower, w+".") {
				return true
			}
		}
	}
	return false
}

func wordCount(s string) int {
	n := 0
	inWord := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			inWord = false
			continue
		}
		if !inWord {
			n++
			inWord = true
		}
	}
	return n
}
