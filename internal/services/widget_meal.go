package services

import (
	"regexp"
	"strconv"
	"strings"
)

type MealPlanWidget struct {
	Days []MealPlanDay `json:"days"`
}

type MealPlanDay struct {
	Label          string      `json:"label"`
	Meals          []MealEntry `json:"meals"`
	Macros         string      `json:"macros,omitempty"`
	Micronutrients string      `json:"micronutrients,omitempty"`
}

type MealEntry struct {
	Name   string `json:"name"`
	Amount string `json:"amount,omitempty"`
	// Calories is nil when the line carried no calorie annotation; it is
	// never inferred.
	Calories *int `json:"calories,omitempty"`
}

// Day headings: "Day 3", "Day 3:", "**DAY 3:**", "## Day 3".
var mealDayPattern = regexp.MustCompile(`(?i)^\s*[#*]*\s*day\s+(\d+)\s*:?\s*[*]*\s*$`)

// Meal-line recognizers in priority order; the first match per line wins but
// a miss on one never blocks trying the next.
var mealLinePatterns = []*regexp.Regexp{
	// - Oatmeal with berries (1 cup: 320 calories)
	regexp.MustCompile(`(?i)^\s*[-*•]?\s*(.+?)\s*\(([^:()]+):\s*(\d+)\s*(?:k?cal(?:orie)?s?)\)\s*$`),
	// - Grilled chicken salad (450 calories)
	regexp.MustCompile(`(?i)^\s*[-*•]?\s*(.+?)\s*\((\d+)\s*(?:k?cal(?:orie)?s?)\)\s*$`),
	// - Greek yogurt - 150 calories
	regexp.MustCompile(`(?i)^\s*[-*•]?\s*(.+?)\s*[-–:]\s*(\d+)\s*(?:k?cal(?:orie)?s?)\s*$`),
}

var mealMacrosPattern = regexp.MustCompile(`(?i)^\s*[-*•]?\s*macros?\s*:\s*(.+)$`)
var mealMicrosPattern = regexp.MustCompile(`(?i)^\s*[-*•]?\s*micronutrients?\s*:\s*(.+)$`)

// extractMealPlan scans day sections and per-day meal lines. Tolerates both
// multi-day responses and single-day responses with no day heading at all.
func extractMealPlan(responseText string) *MealPlanWidget {
	widget := &MealPlanWidget{}
	var current *MealPlanDay

	ensureDay := func(label string) *MealPlanDay {
		widget.Days = append(widget.Days, MealPlanDay{Label: label})
		return &widget.Days[len(widget.Days)-1]
	}

	for _, rawLine := range strings.Split(responseText, "\n") {
		line := strings.TrimSpace(rawLine)
		if line == "" {
			continue
		}

		if m := mealDayPattern.FindStringSubmatch(line); m != nil {
			current = ensureDay("Day " + m[1])
			continue
		}

		if m := mealMacrosPattern.FindStringSubmatch(line); m != nil {
			if current == nil {
				current = ensureDay("Day 1")
			}
			current.Macros = strings.TrimSpace(m[1])
			continue
		}
		if m := mealMicrosPattern.FindStringSubmatch(line); m != nil {
			if current == nil {
				current = ensureDay("Day 1")
			}
			current.Micronutrients = strings.TrimSpace(m[1])
			continue
		}

		if entry, ok := matchMealLine(line); ok {
			if current == nil {
				// Single-day shape: meal content before any day heading.
				current = ensureDay("Day 1")
			}
			current.Meals = append(current.Meals, entry)
		}
	}

	return widget
}

func matchMealLine(line string) (MealEntry, bool) {
	if m := mealLinePatterns[0].FindStringSubmatch(line); m != nil {
		entry := MealEntry{Name: strings.TrimSpace(m[1]), Amount: strings.TrimSpace(m[2])}
		if cal, err := strconv.Atoi(m[3]); err == nil {
			entry.Calories = &cal
		}
		return entry, true
	}
	if m := mealLinePatterns[1].FindStringSubmatch(line); m != nil {
		entry := MealEntry{Name: strings.TrimSpace(m[1])}
		if cal, err := strconv.Atoi(m[2]); err == nil {
			entry.Calories = &cal
		}
		return entry, true
	}
	if m := mealLinePatterns[2].FindStringSubmatch(line); m != nil {
		entry := MealEntry{Name: strings.TrimSpace(m[1])}
		if cal, err := strconv.Atoi(m[2]); err == nil {
			entry.Calories = &cal
		}
		return entry, true
	}
	// Bulleted line with no calorie annotation: keep the name, calories absent.
	if strings.HasPrefix(line, "-") || strings.HasPrefix(line, "*") || strings.HasPrefix(line, "•") {
		name := strings.TrimSpace(strings.TrimLeft(line, "-*• "))
		if name != "" && !strings.Contains(strings.ToLower(name), "macros") {
			return MealEntry{Name: name}, true
		}
	}
	return MealEntry{}, false
}
