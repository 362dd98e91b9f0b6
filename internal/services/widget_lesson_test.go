package services

import (
	"strings"
	"testing"
)

const sampleLessonPlan = `Objectives:
Students will be able to compare fractions with unlike denominators.

Activities:
- Warm-up number talk
- Partner fraction sort

Standards:
CCSS.MATH.4.NF.A.2

Assessment:
Exit ticket with three comparison problems.

Danielson Framework:
Domain 3: Engaging students in learning.
`

func TestExtractLessonPlanSections(t *testing.T) {
	w := extractLessonPlan(sampleLessonPlan)

	if !strings.Contains(w.Objectives, "unlike denominators") {
		t.Fatalf("objectives = %q", w.Objectives)
	}
	if !strings.Contains(w.Activities, "Partner fraction sort") {
		t.Fatalf("activities = %q", w.Activities)
	}
	if w.Standards != "CCSS.MATH.4.NF.A.2" {
		t.Fatalf("standards = %q", w.Standards)
	}
	if !strings.Contains(w.Assessment, "Exit ticket") {
		t.Fatalf("assessment = %q", w.Assessment)
	}
	if w.FrameworkSections["danielson"] == "" {
		t.Fatalf("danielson framework section not captured: %+v", w.FrameworkSections)
	}
}

func TestExtractLessonPlanInlineHeaders(t *testing.T) {
	w := extractLessonPlan("Objectives: identify main idea\nActivities: read aloud, group discussion")
	if w.Objectives != "identify main idea" {
		t.Fatalf("inline objectives = %q", w.Objectives)
	}
	if w.Activities != "read aloud, group discussion" {
		t.Fatalf("inline activities = %q", w.Activities)
	}
}

func TestExtractLessonPlanNoSections(t *testing.T) {
	w := extractLessonPlan("Here are some loose thoughts about teaching fractions.")
	if w.Objectives != "" || w.Activities != "" || w.Standards != "" || w.Assessment != "" {
		t.Fatalf("prose without headers should extract nothing: %+v", w)
	}
}

func TestExtractThenValidateLessonRoundTrip(t *testing.T) {
	// A response that passes extraction for all four sections must validate
	// clean; the validator works off the same extractor.
	v := NewValidator(testLogger(t))
	violations := v.Validate(IntentLessonPlan, sampleLessonPlan, "lesson plan on fractions", ConversationState{})
	if len(violations) != 0 {
		t.Fatalf("complete lesson plan should have no violations, got %v", violations)
	}
}
