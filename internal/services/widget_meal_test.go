package services

import "testing"

const sampleTwoDayPlan = `Day 1:
- Oatmeal with berries (1 cup: 320 calories)
- Grilled chicken salad (450 calories)
- Greek yogurt - 150 calories
Macros: 120g protein, 200g carbs, 60g fat
Micronutrients: iron, calcium, vitamin D

Day 2:
- Scrambled eggs (2 eggs: 180 calories)
- Turkey sandwich (520 calories)
Macros: 110g protein, 190g carbs, 55g fat
`

func TestExtractMealPlanMultiDay(t *testing.T) {
	w := extractMealPlan(sampleTwoDayPlan)
	if len(w.Days) != 2 {
		t.Fatalf("got %d days, want 2", len(w.Days))
	}

	day1 := w.Days[0]
	if day1.Label != "Day 1" {
		t.Fatalf("day label = %q", day1.Label)
	}
	if len(day1.Meals) != 3 {
		t.Fatalf("day 1 has %d meals, want 3", len(day1.Meals))
	}

	first := day1.Meals[0]
	if first.Name != "Oatmeal with berries" || first.Amount != "1 cup" {
		t.Fatalf("first meal = %+v", first)
	}
	if first.Calories == nil || *first.Calories != 320 {
		t.Fatalf("first meal calories = %v, want 320", first.Calories)
	}

	second := day1.Meals[1]
	if second.Amount != "" {
		t.Fatalf("amount should be absent when the line has none, got %q", second.Amount)
	}
	if second.Calories == nil || *second.Calories != 450 {
		t.Fatalf("second meal calories = %v, want 450", second.Calories)
	}

	if day1.Macros == "" || day1.Micronutrients == "" {
		t.Fatalf("day 1 macros/micros not captured: %+v", day1)
	}
	if w.Days[1].Micronutrients != "" {
		t.Fatalf("day 2 should have no micronutrients line")
	}
}

func TestExtractMealPlanSingleDayWithoutHeading(t *testing.T) {
	w := extractMealPlan("- Smoothie (300 calories)\n- Rice bowl (600 calories)\nMacros: 80g protein")
	if len(w.Days) != 1 {
		t.Fatalf("got %d days, want 1", len(w.Days))
	}
	if w.Days[0].Label != "Day 1" {
		t.Fatalf("implicit day label = %q", w.Days[0].Label)
	}
	if len(w.Days[0].Meals) != 2 {
		t.Fatalf("got %d meals, want 2", len(w.Days[0].Meals))
	}
}

func TestExtractMealPlanCaloriesNeverInferred(t *testing.T) {
	w := extractMealPlan("Day 1:\n- Mystery casserole\n- Apple (95 calories)")
	meals := w.Days[0].Meals
	if len(meals) != 2 {
		t.Fatalf("got %d meals, want 2", len(meals))
	}
	if meals[0].Calories != nil {
		t.Fatalf("calories should be nil for unannotated line, got %d", *meals[0].Calories)
	}
	if meals[1].Calories == nil || *meals[1].Calories != 95 {
		t.Fatalf("annotated calories lost: %+v", meals[1])
	}
}

func TestExtractMealPlanMarkdownHeadings(t *testing.T) {
	w := extractMealPlan("**Day 1:**\n- Toast (200 calories)\n## Day 2\n- Soup (350 calories)")
	if len(w.Days) != 2 {
		t.Fatalf("markdown day headings not recognized, got %d days", len(w.Days))
	}
}

func TestExtractMealPlanEmptyInput(t *testing.T) {
	w := extractMealPlan("")
	if len(w.Days) != 0 {
		t.Fatalf("empty input should produce no days, got %d", len(w.Days))
	}
}
