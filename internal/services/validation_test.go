package services

import (
	"fmt"
	"strings"
	"testing"
)

func hasViolation(violations []Violation, kind ViolationKind) bool {
	for _, v := range violations {
		if v.Kind == kind {
			return true
		}
	}
	return false
}

func TestValidateMealPlanAllergyGate(t *testing.T) {
	v := NewValidator(testLogger(t))

	t.Run("question_response_passes_before_gate", func(t *testing.T) {
		got := v.Validate(IntentMealPlan,
			"Do you have any food allergies or dietary restrictions?",
			"meal plan please", ConversationState{AskedAllergies: false})
		if len(got) != 0 {
			t.Fatalf("allergy question itself should validate clean, got %v", got)
		}
	})

	t.Run("content_before_gate_flagged", func(t *testing.T) {
		got := v.Validate(IntentMealPlan,
			"Day 1:\n- Oatmeal (300 calories)",
			"meal plan please", ConversationState{AskedAllergies: false})
		if !hasViolation(got, ViolationAllergyQuestionMissing) {
			t.Fatalf("meal content before the allergy question must be flagged, got %v", got)
		}
	})

	t.Run("repeated_question_flagged", func(t *testing.T) {
		got := v.Validate(IntentMealPlan,
			"Before we continue, any allergies I should know about?",
			"meal plan please", ConversationState{AskedAllergies: true})
		if !hasViolation(got, ViolationAllergyQuestionRepeated) {
			t.Fatalf("repeated allergy question must be flagged, got %v", got)
		}
	})
}

func TestValidateMealPlanPreambleAndDayOne(t *testing.T) {
	v := NewValidator(testLogger(t))
	state := ConversationState{AskedAllergies: true}

	got := v.Validate(IntentMealPlan,
		"Understood! I will now generate your meal plan.\nDay 1:\n- Oatmeal (300 calories)",
		"meal plan please", state)
	if !hasViolation(got, ViolationAcknowledgmentPreamble) {
		t.Fatalf("acknowledgment opener must be flagged, got %v", got)
	}
	if !hasViolation(got, ViolationMissingDayOne) {
		t.Fatalf("plan not starting at Day 1 must be flagged, got %v", got)
	}

	clean := v.Validate(IntentMealPlan,
		"Day 1:\n- Oatmeal (300 calories)\nMacros: 20g protein",
		"meal plan please", state)
	if len(clean) != 0 {
		t.Fatalf("valid single-day plan should be clean, got %v", clean)
	}
}

func TestValidateMealPlanRequestedDays(t *testing.T) {
	v := NewValidator(testLogger(t))
	state := ConversationState{AskedAllergies: true}

	var b strings.Builder
	for day := 1; day <= 5; day++ {
		fmt.Fprintf(&b, "Day %d:\n- Chicken and rice (600 calories)\n", day)
	}

	got := v.Validate(IntentMealPlan, b.String(), "make me a 7-day meal plan", state)
	if !hasViolation(got, ViolationMissingRequestedDays) {
		t.Fatalf("5 days against a 7-day request must be flagged, got %v", got)
	}

	ok := v.Validate(IntentMealPlan, b.String(), "make me a 5 day meal plan", state)
	if hasViolation(ok, ViolationMissingRequestedDays) {
		t.Fatalf("5 days against a 5-day request should pass, got %v", ok)
	}
}

func TestValidateMealPlanAllergenPresent(t *testing.T) {
	v := NewValidator(testLogger(t))
	state := ConversationState{AskedAllergies: true, Allergens: []string{"tree nuts"}}

	got := v.Validate(IntentMealPlan,
		"Day 1:\n- Walnut and tree nut granola (400 calories)",
		"meal plan", state)
	if !hasViolation(got, ViolationAllergenPresent) {
		t.Fatalf("listed allergen in a meal must be flagged, got %v", got)
	}

	// Singular form of a plural allergen also matches.
	got = v.Validate(IntentMealPlan,
		"Day 1:\n- Mixed nut trail mix (350 calories)",
		"meal plan", state)
	if !hasViolation(got, ViolationAllergenPresent) {
		t.Fatalf("singular allergen form must be flagged, got %v", got)
	}

	clean := v.Validate(IntentMealPlan,
		"Day 1:\n- Grilled chicken with rice (600 calories)",
		"meal plan", state)
	if hasViolation(clean, ViolationAllergenPresent) {
		t.Fatalf("allergen-free plan flagged: %v", clean)
	}
}

func TestValidateNonGenerativeIntentsHaveNoRules(t *testing.T) {
	v := NewValidator(testLogger(t))
	for _, intent := range []Intent{IntentGeneral, IntentAttendance, IntentWidget} {
		if got := v.Validate(intent, "whatever text", "message", ConversationState{}); len(got) != 0 {
			t.Fatalf("intent %q should not produce violations, got %v", intent, got)
		}
	}
}

func TestRequestedDayCount(t *testing.T) {
	cases := []struct {
		request string
		want    int
	}{
		{"make me a 7-day meal plan", 7},
		{"I need a 3 day diet", 3},
		{"meal plan for 14 days", 14},
		{"just a meal plan", 1},
		{"", 1},
	}
	for _, tc := range cases {
		if got := requestedDayCount(tc.request); got != tc.want {
			t.Fatalf("requestedDayCount(%q) = %d, want %d", tc.request, got, tc.want)
		}
	}
}
