package reconcile

import (
	"context"
	"errors"
	"strings"
	"testing"

	"manifest-agent/internal/application/port/output"
	"manifest-agent/internal/domain/entity"
)

type stubLLM struct {
	response string
	err      error
	lastReq  output.ChatRequest
}

func (s *stubLLM) Chat(ctx context.Context, req output.ChatRequest) (*output.ChatResponse, error) {
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	return &output.ChatResponse{
		Message: entity.Message{Role: entity.RoleAssistant, Content: s.response},
	}, nil
}

func TestLLMReducerParsesSteps(t *testing.T) {
	llm := &stubLLM{response: `{
		"steps": [
			{"action": "click", "instruction": "Click the Export button", "source_action_index": 0, "is_final": false},
			{"action": "select", "instruction": "Select CSV", "source_action_index": 1, "input_value": "CSV", "is_final": true}
		]
	}`}
	r := NewLLMReducer(llm, nil)

	steps, err := r.Reduce(context.Background(), entity.Task{Description: "export data"}, sampleActions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(steps))
	}
	if steps[0].Action != entity.CanonClick || steps[1].Action != entity.CanonSelect {
		t.Errorf("unexpected actions: %q, %q", steps[0].Action, steps[1].Action)
	}
	if steps[1].InputValue != "CSV" {
		t.Errorf("expected input CSV, got %q", steps[1].InputValue)
	}
	if steps[0].SourceActionIndex == nil || *steps[0].SourceActionIndex != 0 {
		t.Error("source index not carried over")
	}

	if !llm.lastReq.JSONResponse {
		t.Error("reducer must request a JSON response")
	}
	if len(llm.lastReq.Messages) != 2 || llm.lastReq.Messages[0].Role != entity.RoleSystem {
		t.Fatal("expected system + user messages")
	}
	user := llm.lastReq.Messages[1].Content
	if !strings.Contains(user, `"export data"`) {
		t.Error("user prompt missing task description")
	}
	if !strings.Contains(user, `"index": 0`) || !strings.Contains(user, "export-btn") {
		t.Error("user prompt missing indexed action summary")
	}
}

func TestLLMReducerRepairsMalformedJSON(t *testing.T) {
	// Trailing comma plus unquoted key, the kind of output models produce.
	llm := &stubLLM{response: `{steps: [{"action": "click", "instruction": "Click it", "source_action_index": 0, "is_final": true},]}`}
	r := NewLLMReducer(llm, nil)

	steps, err := r.Reduce(context.Background(), entity.Task{}, sampleActions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(steps) != 1 {
		t.Fatalf("expected 1 step, got %d", len(steps))
	}
}

func TestLLMReducerDropsUnknownActions(t *testing.T) {
	llm := &stubLLM{response: `{
		"steps": [
			{"action": "scroll", "instruction": "Scroll down", "source_action_index": 0},
			{"action": "click", "instruction": "Click it", "source_action_index": 0, "is_final": true}
		]
	}`}
	r := NewLLMReducer(llm, nil)

	steps, err := r.Reduce(context.Background(), entity.Task{}, sampleActions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(steps) != 1 || steps[0].Action != entity.CanonClick {
		t.Errorf("expected only the click step, got %+v", steps)
	}
}

func TestLLMReducerNullSourceIndex(t *testing.T) {
	llm := &stubLLM{response: `{"steps": [{"action": "click", "instruction": "Click it", "source_action_index": null, "is_final": true}]}`}
	r := NewLLMReducer(llm, nil)

	steps, err := r.Reduce(context.Background(), entity.Task{}, sampleActions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if steps[0].SourceActionIndex != nil {
		t.Error("null index must map to nil")
	}
}

func TestLLMReducerPropagatesTransportError(t *testing.T) {
	r := NewLLMReducer(&stubLLM{err: errors.New("boom")}, nil)

	if _, err := r.Reduce(context.Background(), entity.Task{}, sampleActions()); err == nil {
		t.Fatal("expected error")
	}
}

func TestLLMReducerRejectsGarbageResponse(t *testing.T) {
	llm := &stubLLM{response: `I could not produce JSON, sorry.`}
	r := NewLLMReducer(llm, nil)

	steps, err := r.Reduce(context.Background(), entity.Task{}, sampleActions())
	if err == nil && len(steps) > 0 {
		t.Fatalf("expected error or empty result for prose response, got %+v", steps)
	}
}
