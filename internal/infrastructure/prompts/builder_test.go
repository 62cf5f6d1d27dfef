package prompts

import (
	"strings"
	"testing"
)

func TestEmbeddedPromptsNotEmpty(t *testing.T) {
	if len(ExplorerPrompt) < 100 {
		t.Error("explorer prompt seems too short")
	}
	if len(ReductionPrompt) < 100 {
		t.Error("reduction prompt seems too short")
	}
	if !strings.Contains(ReductionPrompt, "source_action_index") {
		t.Error("reduction prompt must require source_action_index")
	}
}

func TestBuildTaskPrompt(t *testing.T) {
	prompt := BuildTaskPrompt("https://app.example.com", "export data to CSV", "")

	if !strings.Contains(prompt, `complete this task: "export data to CSV"`) {
		t.Errorf("prompt missing task description:\n%s", prompt)
	}
	if !strings.Contains(prompt, "Stay within https://app.example.com") {
		t.Error("prompt missing stay-on-site rule")
	}
	if strings.Contains(prompt, "Application Context") {
		t.Error("no docs context given, section should be absent")
	}
}

func TestBuildTaskPromptWithDocsContext(t *testing.T) {
	prompt := BuildTaskPrompt("https://app.example.com", "invite a teammate", "Admin features live under Settings.")

	if !strings.Contains(prompt, "## Application Context") {
		t.Error("docs context section missing")
	}
	if !strings.Contains(prompt, "Admin features live under Settings.") {
		t.Error("docs context text missing")
	}
}
