package services

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jasperedu/jasper-backend/internal/logger"
)

type ViolationKind string

const (
	ViolationAllergyQuestionMissing  ViolationKind = "allergy_question_missing"
	ViolationAllergyQuestionRepeated ViolationKind = "allergy_question_repeated"
	ViolationMissingDayOne           ViolationKind = "missing_day_one"
	ViolationAcknowledgmentPreamble  ViolationKind = "acknowledgment_preamble"
	ViolationMissingRequestedDays    ViolationKind = "missing_requested_days"
	ViolationAllergenPresent         ViolationKind = "allergen_present"
	ViolationMissingSection          ViolationKind = "missing_section"
	ViolationMissingSetsReps         ViolationKind = "missing_sets_reps"
)

type Violation struct {
	Kind   ViolationKind `json:"kind"`
	Detail string        `json:"detail"`
}

func (v Violation) String() string {
	if v.Detail == "" {
		return string(v.Kind)
	}
	return string(v.Kind) + ": " + v.Detail
}

// bannedAcknowledgments are preamble openers a generated meal plan must not
// start with; content begins at "Day 1", not at a pleasantry.
var bannedAcknowledgments = []string{
	"understood",
	"i will now",
	"i'll now",
	"sure,",
	"sure!",
	"certainly",
	"of course",
	"absolutely",
	"great choice",
	"sounds good",
}

var requestedDaysPattern = regexp.MustCompile(`(?i)(\d+)[\s-]*day`)

// Validator checks a response against the domain rules for its intent and
// returns the violations found; an empty list is the success case.
type Validator interface {
	Validate(intent Intent, responseText string, originalRequest string, state ConversationState) []Violation
}

type validator struct {
	log *logger.Logger
}

func NewValidator(log *logger.Logger) Validator {
	return &validator{log: log.With("service", "Validator")}
}

func (v *validator) Validate(intent Intent, responseText string, originalRequest string, state ConversationState) []Violation {
	switch intent {
	case IntentMealPlan:
		return validateMealPlan(responseText, originalRequest, state)
	case IntentLessonPlan:
		return validateLessonPlan(responseText)
	case IntentWorkout:
		return validateWorkout(responseText)
	default:
		return nil
	}
}

// validateMealPlan enforces the safety-critical rules: the allergy question
// gate, no acknowledgment preamble, full day coverage, and no recorded
// allergen anywhere in meal text.
func validateMealPlan(responseText string, originalRequest string, state ConversationState) []Violation {
	var violations []Violation
	trimmed := strings.TrimSpace(responseText)
	lower := strings.ToLower(trimmed)

	asksAllergies := asksAllergyQuestion(trimmed)

	if !state.AskedAllergies {
		// Either the response is itself the allergy question, or it skipped a
		// mandatory gate.
		if asksAllergies {
			return nil
		}
		violations = append(violations, Violation{
			Kind:   ViolationAllergyQuestionMissing,
			Detail: "meal content generated before asking about allergies",
		})
	} else if asksAllergies {
		violations = append(violations, Violation{
			Kind:   ViolationAllergyQuestionRepeated,
			Detail: "allergy question repeated after it was already answered",
		})
	}

	for _, phrase := range bannedAcknowledgments {
		if strings.HasPrefix(lower, phrase) {
			violations = append(violations, Violation{
				Kind:   ViolationAcknowledgmentPreamble,
				Detail: fmt.Sprintf("response opens with %q instead of content", phrase),
			})
			break
		}
	}

	if !strings.HasPrefix(lower, "day 1") && !asksAllergies {
		violations = append(violations, Violation{
			Kind:   ViolationMissingDayOne,
			Detail: "generated plan must begin with \"Day 1\"",
		})
	}

	requested := requestedDayCount(originalRequest)
	plan := extractMealPlan(responseText)
	if requested > 0 && len(plan.Days) < requested {
		violations = append(violations, Violation{
			Kind:   ViolationMissingRequestedDays,
			Detail: fmt.Sprintf("requested %d days, found %d day sections", requested, len(plan.Days)),
		})
	}

	for _, allergen := range state.Allergens {
		terms := allergenTerms(allergen)
		for _, day := range plan.Days {
			for _, meal := range day.Meals {
				mealText := strings.ToLower(meal.Name + " " + meal.Amount)
				for _, term := range terms {
					if strings.Contains(mealText, term) {
						violations = append(violations, Violation{
							Kind:   ViolationAllergenPresent,
							Detail: fmt.Sprintf("meal %q contains listed allergen %q", meal.Name, allergen),
						})
					}
				}
			}
		}
	}

	return violations
}

// validateLessonPlan reports missing required sections. Best-effort policy:
// these violations warn by default, they do not force a correction.
func validateLessonPlan(responseText string) []Violation {
	var violations []Violation
	plan := extractLessonPlan(responseText)
	for name, present := range map[string]bool{
		"objectives": plan.Objectives != "",
		"activities": plan.Activities != "",
		"standards":  plan.Standards != "",
		"assessment": plan.Assessment != "",
	} {
		if !present {
			violations = append(violations, Violation{
				Kind:   ViolationMissingSection,
				Detail: "missing required section: " + name,
			})
		}
	}
	return violations
}

func validateWorkout(responseText string) []Violation {
	var violations []Violation
	w := extractWorkout(responseText)
	if w.StrengthSection == "" {
		violations = append(violations, Violation{Kind: ViolationMissingSection, Detail: "missing strength training section"})
	}
	if w.CardioSection == "" {
		violations = append(violations, Violation{Kind: ViolationMissingSection, Detail: "missing cardio / conditioning section"})
	}
	if len(w.Entries) == 0 {
		violations = append(violations, Violation{Kind: ViolationMissingSetsReps, Detail: "no exercise line with explicit sets and reps"})
	}
	return violations
}

func asksAllergyQuestion(text string) bool {
	lower := strings.ToLower(text)
	return strings.Contains(lower, "allerg") && strings.Contains(lower, "?")
}

// requestedDayCount parses "7 day", "7-day", "7 days" from the request.
// Returns 1 when no explicit count is present: only Day 1 coverage is
// checked for an unqualified meal-plan request.
func requestedDayCount(originalRequest string) int {
	m := requestedDaysPattern.FindStringSubmatch(originalRequest)
	if m == nil {
		return 1
	}
	n := 0
	for _, r := range m[1] {
		n = n*10 + int(r-'0')
	}
	if n <= 0 {
		return 1
	}
	return n
}

// allergenTerms expands a recorded allergen into the lowercase substrings
// checked against meal text: the phrase itself, its words, and trailing-"s"
// singulars ("tree nuts" also bans "nut").
func allergenTerms(allergen string) []string {
	lower := strings.ToLower(strings.TrimSpace(allergen))
	if lower == "" {
		return nil
	}
	seen := map[string]bool{lower: true}
	terms := []string{lower}
	for _, word := range strings.Fields(lower) {
		if len(word) < 4 {
			continue
		}
		for _, t := range []string{word, strings.TrimSuffix(word, "s")} {
			if len(t) >= 3 && !seen[t] {
				seen[t] = true
				terms = append(terms, t)
			}
		}
	}
	return terms
}
