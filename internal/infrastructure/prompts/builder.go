package prompts

import (
	"fmt"
	"strings"
)

// BuildTaskPrompt renders the per-task user prompt for the exploration
// agent. docsContext is optional application documentation appended for
// grounding.
func BuildTaskPrompt(url, taskDescription, docsContext string) string {
	parts := []string{
		fmt.Sprintf(`Navigate to %s and complete this task: "%s".`, url, taskDescription),
		"",
		"Walk through the COMPLETE flow step-by-step:",
		"1. Find and click the relevant button/link on the page.",
		"2. If a modal or dialog opens, WAIT for it to fully appear, then interact with",
		"   the form elements RELEVANT TO THE TASK (dropdowns, inputs, checkboxes).",
		"3. Click the confirmation/save button INSIDE the modal to finish.",
		"",
		fmt.Sprintf("Stay within %s at all times. Do not leave this site.", url),
	}
	if docsContext != "" {
		parts = append(parts,
			"",
			"## Application Context",
			docsContext,
		)
	}
	return strings.Join(parts, "\n")
}
