package reconcile

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kaptinlin/jsonrepair"

	"manifest-agent/internal/application/port/output"
	"manifest-agent/internal/domain/entity"
	"manifest-agent/internal/infrastructure/prompts"
)

// LLMReducer asks the model to reduce a full canonical trace to the minimal
// user-facing steps. It is the remote strategy behind the Reducer port; the
// deterministic fallback lives in Reconciler.
type LLMReducer struct {
	llm    output.LLMPort
	logger output.LoggerPort
}

var _ output.Reducer = (*LLMReducer)(nil)

func NewLLMReducer(llm output.LLMPort, logger output.LoggerPort) *LLMReducer {
	return &LLMReducer{llm: llm, logger: logger}
}

// actionSummary is the per-action JSON shape shown to the model, indexed so
// the model can point each reduced step back at its source action.
type actionSummary struct {
	Index      int               `json:"index"`
	Action     string            `json:"action"`
	Tag        string            `json:"tag,omitempty"`
	Text       string            `json:"text,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
	XPath      string            `json:"xpath,omitempty"`
	InputValue string            `json:"input_value,omitempty"`
	URLBefore  string            `json:"url_before,omitempty"`
	URLAfter   string            `json:"url_after,omitempty"`
}

type reducedStep struct {
	Action            string `json:"action"`
	Instruction       string `json:"instruction"`
	SourceActionIndex *int   `json:"source_action_index"`
	InputValue        string `json:"input_value,omitempty"`
	IsFinal           bool   `json:"is_final"`
}

type reducedFlow struct {
	Steps []reducedStep `json:"steps"`
}

func (r *LLMReducer) Reduce(ctx context.Context, task entity.Task, actions []entity.CanonicalAction) ([]entity.ReconciledStep, error) {
	summary := make([]actionSummary, 0, len(actions))
	for i, a := range actions {
		summary = append(summary, actionSummary{
			Index:      i,
			Action:     string(a.Type),
			Tag:        a.Tag,
			Text:       a.Text,
			Attributes: a.Attributes,
			XPath:      a.XPath,
			InputValue: a.InputValue,
			URLBefore:  a.URLBefore,
			URLAfter:   a.URLAfter,
		})
	}

	summaryJSON, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal action summary: %w", err)
	}

	userPrompt := fmt.Sprintf(
		"Task: %q\n\nRecorded actions during exploration (%d total):\n%s\n\n"+
			"Now identify only the essential user-facing steps. "+
			"Return them as a JSON object with a \"steps\" array.",
		task.Description, len(actions), summaryJSON,
	)

	resp, err := r.llm.Chat(ctx, output.ChatRequest{
		Messages: []entity.Message{
			{Role: entity.RoleSystem, Content: prompts.ReductionPrompt},
			{Role: entity.RoleUser, Content: userPrompt},
		},
		JSONResponse: true,
	})
	if err != nil {
		return nil, fmt.Errorf("reduction request failed: %w", err)
	}

	flow, err := parseReducedFlow(resp.Message.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse reduction response: %w", err)
	}

	steps := make([]entity.ReconciledStep, 0, len(flow.Steps))
	for _, s := range flow.Steps {
		t, ok := stepType(s.Action)
		if !ok {
			if r.logger != nil {
				r.logger.Warn("Dropping reduced step with unknown action", "action", s.Action)
			}
			continue
		}
		steps = append(steps, entity.ReconciledStep{
			Action:            t,
			Instruction:       s.Instruction,
			SourceActionIndex: s.SourceActionIndex,
			InputValue:        s.InputValue,
			IsFinal:           s.IsFinal,
		})
	}
	return steps, nil
}

func parseReducedFlow(content string) (*reducedFlow, error) {
	var flow reducedFlow
	if err := json.Unmarshal([]byte(content), &flow); err == nil {
		return &flow, nil
	}

	repaired, err := jsonrepair.JSONRepair(content)
	if err != nil {
		return nil, fmt.Errorf("response is not valid JSON: %w", err)
	}
	if err := json.Unmarshal([]byte(repaired), &flow); err != nil {
		return nil, fmt.Errorf("repaired response is not valid JSON: %w", err)
	}
	return &flow, nil
}

func stepType(action string) (entity.CanonicalType, bool) {
	switch action {
	case "click":
		return entity.CanonClick, true
	case "type", "input":
		return entity.CanonType, true
	case "select":
		return entity.CanonSelect, true
	}
	return "", false
}
