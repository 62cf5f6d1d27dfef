package canonical

import (
	"testing"

	"manifest-agent/internal/domain/entity"
)

func trace(steps ...entity.TraceStep) *entity.Trace {
	return &entity.Trace{Steps: steps}
}

func TestCanonicalize_KnownActionMap(t *testing.T) {
	cases := []struct {
		name string
		want entity.CanonicalType
	}{
		{"click", entity.CanonClick},
		{"click_element", entity.CanonClick},
		{"input", entity.CanonType},
		{"input_text", entity.CanonType},
		{"send_keys", entity.CanonType},
		{"select_dropdown", entity.CanonSelect},
		{"select_dropdown_option", entity.CanonSelect},
	}

	c := New(nil)
	for _, tc := range cases {
		actions := c.Canonicalize(trace(entity.TraceStep{
			Actions: []entity.RawAction{{Name: tc.name}},
		}))
		if len(actions) != 1 {
			t.Fatalf("%s: expected one action, got %d", tc.name, len(actions))
		}
		if actions[0].Type != tc.want {
			t.Errorf("%s: expected %s, got %s", tc.name, tc.want, actions[0].Type)
		}
	}
}

func TestCanonicalize_SkipSetDropped(t *testing.T) {
	c := New(nil)
	for _, name := range []string{"navigate", "scroll", "wait", "done", "screenshot", "find_elements", "switch_tab"} {
		actions := c.Canonicalize(trace(entity.TraceStep{
			Actions: []entity.RawAction{{Name: name}},
		}))
		if len(actions) != 0 {
			t.Errorf("%s: expected action to be dropped", name)
		}
	}
}

func TestCanonicalize_SubstringFallback(t *testing.T) {
	cases := map[string]entity.CanonicalType{
		"double_click_element": entity.CanonClick,
		"input_password":       entity.CanonType,
		"type_slowly":          entity.CanonType,
		"select_radio":         entity.CanonSelect,
	}

	c := New(nil)
	for name, want := range cases {
		actions := c.Canonicalize(trace(entity.TraceStep{
			Actions: []entity.RawAction{{Name: name}},
		}))
		if len(actions) != 1 || actions[0].Type != want {
			t.Errorf("%s: expected %s via substring fallback", name, want)
		}
	}
}

func TestCanonicalize_UnknownDropped(t *testing.T) {
	actions := New(nil).Canonicalize(trace(entity.TraceStep{
		Actions: []entity.RawAction{{Name: "hover_element"}},
	}))
	if len(actions) != 0 {
		t.Errorf("unmappable action must be dropped, got %+v", actions)
	}
}

func TestCanonicalize_ElementAndURLsCarriedOver(t *testing.T) {
	actions := New(nil).Canonicalize(trace(entity.TraceStep{
		Actions: []entity.RawAction{{
			Name: "click",
			Element: &entity.ElementSnapshot{
				Tag:        "BUTTON",
				Text:       "Export",
				Attributes: map[string]string{"data-testid": "export-btn"},
				XPath:      "/div[1]/button[1]",
			},
			URLBefore: "https://app.test/home",
			URLAfter:  "https://app.test/export",
		}},
	}))

	if len(actions) != 1 {
		t.Fatalf("expected one action, got %d", len(actions))
	}
	a := actions[0]
	if a.Tag != "button" {
		t.Errorf("tag must be lowercased, got %q", a.Tag)
	}
	if a.Attributes["data-testid"] != "export-btn" || a.XPath != "/div[1]/button[1]" {
		t.Errorf("element metadata lost: %+v", a)
	}
	if a.URLBefore != "https://app.test/home" || a.URLAfter != "https://app.test/export" {
		t.Errorf("urls lost: %+v", a)
	}
}

func TestCanonicalize_EvaluateOverridesElement(t *testing.T) {
	actions := New(nil).Canonicalize(trace(entity.TraceStep{
		Actions: []entity.RawAction{{
			Name:    "evaluate",
			Element: &entity.ElementSnapshot{Tag: "body"},
			Result:  `{"tag":"BUTTON","text":"Save Changes","attributes":{"data-testid":"settings-save","aria-label":null}}`,
		}},
	}))

	if len(actions) != 1 {
		t.Fatalf("expected one action, got %d", len(actions))
	}
	a := actions[0]
	if a.Type != entity.CanonClick {
		t.Errorf("evaluate with element data becomes a click, got %s", a.Type)
	}
	if a.Tag != "button" || a.Text != "Save Changes" {
		t.Errorf("descriptor not applied: %+v", a)
	}
	if a.Attributes["data-testid"] != "settings-save" {
		t.Errorf("expected data-testid attribute, got %+v", a.Attributes)
	}
	if _, ok := a.Attributes["aria-label"]; ok {
		t.Error("null attribute values must be filtered out")
	}
}

func TestCanonicalize_EvaluateRepairsMalformedJSON(t *testing.T) {
	actions := New(nil).Canonicalize(trace(entity.TraceStep{
		Actions: []entity.RawAction{{
			Name:   "evaluate",
			Result: `{tag: "button", text: "Confirm",}`,
		}},
	}))

	if len(actions) != 1 || actions[0].Tag != "button" {
		t.Fatalf("expected repaired descriptor to be accepted, got %+v", actions)
	}
}

func TestCanonicalize_EvaluateWithoutTagDropped(t *testing.T) {
	c := New(nil)
	for _, result := range []string{"", "not json", `{"error":"not found"}`, `{"text":"no tag here"}`} {
		actions := c.Canonicalize(trace(entity.TraceStep{
			Actions: []entity.RawAction{{Name: "evaluate", Result: result}},
		}))
		if len(actions) != 0 {
			t.Errorf("evaluate without a tag must be dropped, result=%q", result)
		}
	}
}

func TestCanonicalize_InputValuePreference(t *testing.T) {
	actions := New(nil).Canonicalize(trace(entity.TraceStep{
		Actions: []entity.RawAction{
			{Name: "input", Params: map[string]any{"text": "Example"}},
			{Name: "input", Params: map[string]any{"value": "fallback"}},
			{Name: "send_keys", Params: map[string]any{"keys": "Enter"}},
		},
	}))

	if len(actions) != 3 {
		t.Fatalf("expected three actions, got %d", len(actions))
	}
	for i, want := range []string{"Example", "fallback", "Enter"} {
		if actions[i].InputValue != want {
			t.Errorf("action %d: expected %q, got %q", i, want, actions[i].InputValue)
		}
	}
}

func TestCanonicalize_SelectResolvesIndexFromSnapshot(t *testing.T) {
	snap := entity.DOMSnapshot{
		"/select[1]/option[2]": {
			Tag:            "option",
			Text:           "  CSV \n Export ",
			XPath:          "/select[1]/option[2]",
			HighlightIndex: 7,
		},
	}
	actions := New(nil).Canonicalize(trace(entity.TraceStep{
		Snapshot: snap,
		Actions: []entity.RawAction{{
			Name:   "select_dropdown",
			Params: map[string]any{"index": float64(7)},
		}},
	}))

	if len(actions) != 1 {
		t.Fatalf("expected one action, got %d", len(actions))
	}
	if actions[0].InputValue != "CSV Export" {
		t.Errorf("expected option text with collapsed whitespace, got %q", actions[0].InputValue)
	}
}

func TestCanonicalize_SelectKeepsHumanText(t *testing.T) {
	actions := New(nil).Canonicalize(trace(entity.TraceStep{
		Actions: []entity.RawAction{{
			Name:   "select_dropdown",
			Params: map[string]any{"text": "Dark", "index": float64(3)},
		}},
	}))

	if len(actions) != 1 || actions[0].InputValue != "Dark" {
		t.Fatalf("human-readable text must win over index lookup, got %+v", actions)
	}
}

func TestCanonicalize_SelectIndexFallsBackToString(t *testing.T) {
	actions := New(nil).Canonicalize(trace(entity.TraceStep{
		Actions: []entity.RawAction{{
			Name:   "select_dropdown",
			Params: map[string]any{"index": float64(4)},
		}},
	}))

	if len(actions) != 1 || actions[0].InputValue != "4" {
		t.Fatalf("unmatched index must fall back to its string form, got %+v", actions)
	}
}

func TestCanonicalize_StepIndexAssigned(t *testing.T) {
	actions := New(nil).Canonicalize(trace(
		entity.TraceStep{Actions: []entity.RawAction{{Name: "click"}, {Name: "scroll"}}},
		entity.TraceStep{Actions: []entity.RawAction{{Name: "input", Params: map[string]any{"text": "x"}}}},
	))

	if len(actions) != 2 {
		t.Fatalf("expected two actions, got %d", len(actions))
	}
	if actions[0].StepIndex != 0 || actions[1].StepIndex != 1 {
		t.Errorf("step indices wrong: %d, %d", actions[0].StepIndex, actions[1].StepIndex)
	}
}
