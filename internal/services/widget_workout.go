package services

import (
	"regexp"
	"strconv"
	"strings"
)

type WorkoutWidget struct {
	StrengthSection string         `json:"strength_section,omitempty"`
	CardioSection   string         `json:"cardio_section,omitempty"`
	Entries         []WorkoutEntry `json:"entries"`
}

type WorkoutEntry struct {
	Exercise string `json:"exercise"`
	Sets     int    `json:"sets"`
	Reps     int    `json:"reps"`
	Weight   string `json:"weight,omitempty"`
	Section  string `json:"section,omitempty"`
}

var workoutStrengthHeader = regexp.MustCompile(`(?i)^\s*[#*]*\s*strength(?:\s+training)?\s*:?\s*[*]*\s*$`)
var workoutCardioHeader = regexp.MustCompile(`(?i)^\s*[#*]*\s*cardio(?:\s*/\s*conditioning)?\s*:?\s*[*]*\s*$`)

// Exercise-line recognizers in priority order.
var workoutLinePatterns = []*regexp.Regexp{
	// Barbell squat: 4 sets x 8 reps at 185 lbs
	regexp.MustCompile(`(?i)^\s*[-*•]?\s*(.+?)\s*[:\-]\s*(\d+)\s*sets?\s*(?:x|of)\s*(\d+)\s*reps?(?:\s*(?:at|with|@)\s*(.+?))?\s*$`),
	// Push-ups: 3 x 12
	regexp.MustCompile(`(?i)^\s*[-*•]?\s*(.+?)\s*[:\-]\s*(\d+)\s*x\s*(\d+)(?:\s*(?:at|with|@)\s*(.+?))?\s*$`),
	// Deadlift 5x5 @ 225
	regexp.MustCompile(`(?i)^\s*[-*•]?\s*(.+?)\s+(\d+)\s*x\s*(\d+)(?:\s*(?:at|with|@)\s*(.+?))?\s*$`),
}

// extractWorkout scans for the strength and cardio section headers and the
// per-exercise set/rep lines under them.
func extractWorkout(responseText string) *WorkoutWidget {
	widget := &WorkoutWidget{}
	section := ""
	var strengthLines, cardioLines []string

	for _, rawLine := range strings.Split(responseText, "\n") {
		line := strings.TrimSpace(rawLine)
		if line == "" {
			continue
		}

		if workoutStrengthHeader.MatchString(line) {
			section = "strength"
			continue
		}
		if workoutCardioHeader.MatchString(line) {
			section = "cardio"
			continue
		}

		if entry, ok := matchWorkoutLine(line); ok {
			entry.Section = section
			widget.Entries = append(widget.Entries, entry)
		}

		switch section {
		case "strength":
			strengthLines = append(strengthLines, line)
		case "cardio":
			cardioLines = append(cardioLines, line)
		}
	}

	widget.StrengthSection = strings.Join(strengthLines, "\n")
	widget.CardioSection = strings.Join(cardioLines, "\n")
	return widget
}

func matchWorkoutLine(line string) (WorkoutEntry, bool) {
	for _, p := range workoutLinePatterns {
		m := p.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		sets, sErr := strconv.Atoi(m[2])
		reps, rErr := strconv.Atoi(m[3])
		if sErr != nil || rErr != nil {
			continue
		}
		entry := WorkoutEntry{
			Exercise: strings.TrimSpace(strings.TrimLeft(m[1], "-*• ")),
			Sets:     sets,
			Reps:     reps,
		}
		if len(m) > 4 {
			entry.Weight = strings.TrimSpace(m[4])
		}
		return entry, true
	}
	return WorkoutEntry{}, false
}
