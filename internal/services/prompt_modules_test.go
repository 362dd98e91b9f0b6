package services

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestPromptService(t *testing.T, overridePath string) PromptModuleService {
	t.Helper()
	return NewPromptModuleService(testLogger(t), overridePath)
}

func TestLoadBundleTopPriorityIsLastBlock(t *testing.T) {
	svc := newTestPromptService(t, "")
	bundle := svc.LoadBundle(IntentMealPlan)

	if len(bundle.Blocks) != 3 {
		t.Fatalf("meal plan bundle has %d blocks, want 3", len(bundle.Blocks))
	}
	if bundle.Blocks[0] != basePrompt {
		t.Fatalf("first block is not the base prompt")
	}
	last := bundle.Blocks[len(bundle.Blocks)-1]
	if !strings.Contains(last, "allergies") {
		t.Fatalf("last block should be the allergy top-priority rule, got %q", last)
	}
	if !strings.Contains(bundle.Blocks[1], secondaryAuthorityPreamble) {
		t.Fatalf("module block missing secondary-authority preamble")
	}
}

func TestLoadBundleUnknownIntentFallsBack(t *testing.T) {
	svc := newTestPromptService(t, "")
	bundle := svc.LoadBundle(IntentGeneral)
	if len(bundle.Blocks) != 2 {
		t.Fatalf("general bundle has %d blocks, want 2", len(bundle.Blocks))
	}
	if !strings.Contains(bundle.Blocks[1], genericModule) {
		t.Fatalf("general bundle should use the generic module")
	}
}

func TestLoadBundleYAMLOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "modules.yaml")
	content := "workout:\n  module: \"Custom workout module text.\"\n  top_priority: \"Always warm up first.\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write override file: %v", err)
	}

	svc := newTestPromptService(t, path)
	bundle := svc.LoadBundle(IntentWorkout)
	if len(bundle.Blocks) != 3 {
		t.Fatalf("overridden workout bundle has %d blocks, want 3", len(bundle.Blocks))
	}
	if !strings.Contains(bundle.Blocks[1], "Custom workout module text.") {
		t.Fatalf("override module text not applied: %q", bundle.Blocks[1])
	}
	if bundle.Blocks[2] != "Always warm up first." {
		t.Fatalf("override top-priority not last, got %q", bundle.Blocks[2])
	}

	// Intents absent from the override keep their defaults.
	meal := svc.LoadBundle(IntentMealPlan)
	if !strings.Contains(meal.Blocks[len(meal.Blocks)-1], "allergies") {
		t.Fatalf("default meal plan module lost after partial override")
	}
}

func TestLoadBundleBrokenOverrideUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.yaml")
	if err := os.WriteFile(path, []byte(":\n  - not valid yaml ["), 0o644); err != nil {
		t.Fatalf("write broken file: %v", err)
	}

	svc := newTestPromptService(t, path)
	bundle := svc.LoadBundle(IntentMealPlan)
	if len(bundle.Blocks) != 3 {
		t.Fatalf("broken override should leave defaults intact, got %d blocks", len(bundle.Blocks))
	}
}

func TestSplitTopPriority(t *testing.T) {
	module, top := splitTopPriority("Do the thing.\n[TOP PRIORITY]\nNever skip safety.")
	if module != "Do the thing." {
		t.Fatalf("module = %q", module)
	}
	if top != "Never skip safety." {
		t.Fatalf("topPriority = %q", top)
	}

	module, top = splitTopPriority("No marker here.")
	if module != "No marker here." || top != "" {
		t.Fatalf("unexpected split without marker: %q / %q", module, top)
	}
}
