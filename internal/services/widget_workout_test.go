package services

import "testing"

const sampleWorkout = `Strength Training:
- Barbell squat: 4 sets x 8 reps at 185 lbs
- Push-ups: 3 x 12
- Deadlift 5x5 at 225 lbs

Cardio / Conditioning:
- Rowing intervals: 4 x 500
- Easy jog for 20 minutes
`

func TestExtractWorkoutSectionsAndEntries(t *testing.T) {
	w := extractWorkout(sampleWorkout)

	if w.StrengthSection == "" {
		t.Fatalf("strength section not captured")
	}
	if w.CardioSection == "" {
		t.Fatalf("cardio section not captured")
	}
	if len(w.Entries) < 4 {
		t.Fatalf("got %d entries, want at least 4", len(w.Entries))
	}

	squat := w.Entries[0]
	if squat.Exercise != "Barbell squat" || squat.Sets != 4 || squat.Reps != 8 {
		t.Fatalf("squat entry = %+v", squat)
	}
	if squat.Weight != "185 lbs" {
		t.Fatalf("squat weight = %q", squat.Weight)
	}
	if squat.Section != "strength" {
		t.Fatalf("squat section = %q", squat.Section)
	}

	pushups := w.Entries[1]
	if pushups.Sets != 3 || pushups.Reps != 12 || pushups.Weight != "" {
		t.Fatalf("push-ups entry = %+v", pushups)
	}
}

func TestExtractWorkoutCompactForm(t *testing.T) {
	w := extractWorkout("Deadlift 5x5 at 225")
	if len(w.Entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(w.Entries))
	}
	e := w.Entries[0]
	if e.Exercise != "Deadlift" || e.Sets != 5 || e.Reps != 5 || e.Weight != "225" {
		t.Fatalf("entry = %+v", e)
	}
}

func TestValidateWorkoutMissingSections(t *testing.T) {
	v := NewValidator(testLogger(t))

	violations := v.Validate(IntentWorkout, "Just run a lot and lift heavy things.", "workout plan", ConversationState{})
	kinds := map[ViolationKind]int{}
	for _, viol := range violations {
		kinds[viol.Kind]++
	}
	if kinds[ViolationMissingSection] != 2 {
		t.Fatalf("want 2 missing-section violations, got %v", violations)
	}
	if kinds[ViolationMissingSetsReps] != 1 {
		t.Fatalf("want missing sets/reps violation, got %v", violations)
	}

	if got := v.Validate(IntentWorkout, sampleWorkout, "workout plan", ConversationState{}); len(got) != 0 {
		t.Fatalf("complete workout should validate clean, got %v", got)
	}
}
