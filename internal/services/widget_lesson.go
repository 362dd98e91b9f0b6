package services

import (
	"regexp"
	"strings"
)

type LessonPlanWidget struct {
	Objectives string `json:"objectives,omitempty"`
	Activities string `json:"activities,omitempty"`
	Standards  string `json:"standards,omitempty"`
	Assessment string `json:"assessment,omitempty"`
	// FrameworkSections holds pedagogy-framework headers (Danielson Framework,
	// Costa's Levels of Questions) keyed by normalized section name.
	FrameworkSections map[string]string `json:"framework_sections,omitempty"`
}

// lessonSectionHeaders maps normalized section keys to the header spellings
// recognized in responses. Matching is case-insensitive on whole lines like
// "Objectives:", "## Activities", "**Standards:**".
var lessonSectionHeaders = []struct {
	key      string
	patterns []string
}{
	{"objectives", []string{"objectives", "objective", "learning objectives"}},
	{"activities", []string{"activities", "activity", "learning activities"}},
	{"standards", []string{"standards", "standard"}},
	{"assessment", []string{"assessment", "assessments"}},
	{"danielson", []string{"danielson framework", "danielson"}},
	{"costa", []string{"costa's levels of questions", "costa's levels", "costa levels"}},
}

var lessonHeaderLine = regexp.MustCompile(`(?i)^\s*[#*]*\s*([a-z' ]+?)\s*:?\s*[*]*\s*$`)

// extractLessonPlan captures the text following each named header until the
// next recognized header.
func extractLessonPlan(responseText string) *LessonPlanWidget {
	widget := &LessonPlanWidget{}
	sections := map[string][]string{}
	currentKey := ""

	for _, rawLine := range strings.Split(responseText, "\n") {
		line := strings.TrimSpace(rawLine)
		if key, ok := matchLessonHeader(line); ok {
			currentKey = key
			continue
		}
		// Inline form: "Objectives: students will ...".
		if key, rest, ok := matchInlineLessonHeader(line); ok {
			currentKey = key
			if rest != "" {
				sections[key] = append(sections[key], rest)
			}
			continue
		}
		if currentKey != "" && line != "" {
			sections[currentKey] = append(sections[currentKey], line)
		}
	}

	join := func(key string) string { return strings.Join(sections[key], "\n") }
	widget.Objectives = join("objectives")
	widget.Activities = join("activities")
	widget.Standards = join("standards")
	widget.Assessment = join("assessment")

	for _, fw := range []string{"danielson", "costa"} {
		if text := join(fw); text != "" {
			if widget.FrameworkSections == nil {
				widget.FrameworkSections = map[string]string{}
			}
			widget.FrameworkSections[fw] = text
		}
	}
	return widget
}

func matchLessonHeader(line string) (string, bool) {
	m := lessonHeaderLine.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	name := strings.ToLower(strings.TrimSpace(m[1]))
	for _, h := range lessonSectionHeaders {
		for _, p := range h.patterns {
			if name == p {
				return h.key, true
			}
		}
	}
	return "", false
}

func matchInlineLessonHeader(line string) (key string, rest string, ok bool) {
	idx := strings.Index(line, ":")
	if idx <= 0 {
		return "", "", false
	}
	name := strings.ToLower(strings.TrimSpace(strings.Trim(line[:idx], "#* ")))
	for _, h := range lessonSectionHeaders {
		for _, p := range h.patterns {
			if name == p {
				return h.key, strings.TrimSpace(strings.Trim(line[idx+1:], "* ")), true
			}
		}
	}
	return "", "", false
}
