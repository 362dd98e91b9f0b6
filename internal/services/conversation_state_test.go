package services

import (
	"reflect"
	"testing"

	"gorm.io/datatypes"

	"github.com/jasperedu/jasper-backend/internal/types"
)

func TestParseAllergens(t *testing.T) {
	cases := []struct {
		name   string
		answer string
		want   []string
	}{
		{name: "allergic_to_phrase", answer: "I'm allergic to tree nuts and shellfish", want: []string{"tree nuts", "shellfish"}},
		{name: "cannot_eat", answer: "I can't eat gluten, dairy", want: []string{"gluten", "dairy"}},
		{name: "bare_list", answer: "tree nuts", want: []string{"tree nuts"}},
		{name: "none", answer: "none", want: nil},
		{name: "no_allergies_sentence", answer: "no allergies", want: nil},
		{name: "long_prose_without_marker", answer: "I eat pretty much everything and always have, nothing to report", want: nil},
		{name: "marker_stops_at_sentence_end", answer: "I'm allergic to peanuts. Thanks for asking!", want: []string{"peanuts"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := parseAllergens(tc.answer)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("parseAllergens(%q) = %v, want %v", tc.answer, got, tc.want)
			}
		})
	}
}

func TestSnapshotState(t *testing.T) {
	pending := "  7-day meal plan  "
	conversation := &types.Conversation{
		PendingMealPlanRequest: &pending,
		AskedAllergies:         true,
		Allergens:              datatypes.JSON([]byte(`["tree nuts","shellfish"]`)),
	}
	state := snapshotState(conversation)
	if state.PendingMealPlanRequest != "7-day meal plan" {
		t.Fatalf("pending = %q", state.PendingMealPlanRequest)
	}
	if !state.AskedAllergies {
		t.Fatalf("asked allergies flag lost")
	}
	if !reflect.DeepEqual(state.Allergens, []string{"tree nuts", "shellfish"}) {
		t.Fatalf("allergens = %v", state.Allergens)
	}

	empty := snapshotState(&types.Conversation{})
	if empty.PendingMealPlanRequest != "" || empty.AskedAllergies || empty.Allergens != nil {
		t.Fatalf("empty conversation produced non-empty state: %+v", empty)
	}
}
