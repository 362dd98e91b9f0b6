package services

import "testing"

func TestClassifyIntent(t *testing.T) {
	cases := []struct {
		name    string
		message string
		state   ConversationState
		want    Intent
	}{
		{name: "attendance", message: "Who was absent today?", want: IntentAttendance},
		{name: "lesson_plan", message: "Build me a lesson plan on fractions", want: IntentLessonPlan},
		{name: "meal_plan", message: "I need a 7-day meal plan", want: IntentMealPlan},
		{name: "diet_keyword", message: "help me fix my diet", want: IntentMealPlan},
		{name: "workout", message: "Put together a workout for wrestling season", want: IntentWorkout},
		{name: "widget", message: "what does this widget mean", want: IntentWidget},
		{name: "no_keywords", message: "What time does the faculty meeting start?", want: IntentGeneral},
		{name: "empty", message: "   ", want: IntentGeneral},
		{
			name:    "lesson_beats_meal_on_tie",
			message: "I want a lesson plan about nutrition",
			want:    IntentLessonPlan,
		},
		{
			name:    "allergy_answer_with_pending",
			message: "I'm allergic to tree nuts",
			state:   ConversationState{PendingMealPlanRequest: "7-day meal plan"},
			want:    IntentAllergyAnswer,
		},
		{
			name:    "bare_none_with_pending",
			message: "none",
			state:   ConversationState{PendingMealPlanRequest: "meal plan please"},
			want:    IntentAllergyAnswer,
		},
		{
			name:    "allergy_keyword_without_pending_is_not_answer",
			message: "I'm allergic to tree nuts",
			want:    IntentGeneral,
		},
		{
			name:    "pending_but_clearly_new_request",
			message: "actually forget that, build me a lesson plan on fractions instead",
			state:   ConversationState{PendingMealPlanRequest: "meal plan please"},
			want:    IntentLessonPlan,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ClassifyIntent(tc.message, tc.state)
			if got != tc.want {
				t.Fatalf("ClassifyIntent(%q) = %q, want %q", tc.message, got, tc.want)
			}
		})
	}
}

func TestClassifyIntentIsDeterministic(t *testing.T) {
	state := ConversationState{PendingMealPlanRequest: "meal plan for the week"}
	first := ClassifyIntent("gluten and lactose", state)
	for i := 0; i < 50; i++ {
		if got := ClassifyIntent("gluten and lactose", state); got != first {
			t.Fatalf("classification changed on repeat call: %q vs %q", got, first)
		}
	}
}
