package canonical

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"manifest-agent/internal/application/port/output"
	"manifest-agent/internal/domain/entity"
)

// actionTypes maps the collaborator's known action identifiers onto the
// canonical vocabulary.
var actionTypes = map[string]entity.CanonicalType{
	"click":                  entity.CanonClick,
	"click_element":          entity.CanonClick,
	"input":                  entity.CanonType,
	"input_text":             entity.CanonType,
	"type":                   entity.CanonType,
	"send_keys":              entity.CanonType,
	"select":                 entity.CanonSelect,
	"select_dropdown":        entity.CanonSelect,
	"select_dropdown_option": entity.CanonSelect,
}

// skipActions are actions with no place in a manifest: navigation, reads,
// bookkeeping. They are dropped, not canonicalized.
var skipActions = map[string]struct{}{
	"navigate":             {},
	"go_back":              {},
	"scroll":               {},
	"find_elements":        {},
	"search_page":          {},
	"extract":              {},
	"screenshot":           {},
	"read_content":         {},
	"wait":                 {},
	"search":               {},
	"switch_tab":           {},
	"close_tab":            {},
	"done":                 {},
	"get_dropdown_options": {},
	"upload_file":          {},
}

// actionEvaluate is the script-evaluation escape hatch: its element metadata
// comes from the JSON descriptor the script returned, not from the
// collaborator's element tracking.
const actionEvaluate = "evaluate"

type Canonicalizer struct {
	logger output.LoggerPort
}

func New(logger output.LoggerPort) *Canonicalizer {
	return &Canonicalizer{logger: logger}
}

// Canonicalize flattens a trace into canonical actions, tagging each with
// its originating step so the differ can pair it with snapshots later.
// Actions that cannot be parsed are skipped with no effect on the rest of
// the trace.
func (c *Canonicalizer) Canonicalize(trace *entity.Trace) []entity.CanonicalAction {
	if trace == nil {
		return nil
	}

	var actions []entity.CanonicalAction
	for stepIdx, step := range trace.Steps {
		for _, raw := range step.Actions {
			action, ok := c.canonicalizeOne(raw, step.Snapshot)
			if !ok {
				continue
			}
			action.StepIndex = stepIdx
			actions = append(actions, action)
		}
	}
	return actions
}

func (c *Canonicalizer) canonicalizeOne(raw entity.RawAction, snap entity.DOMSnapshot) (entity.CanonicalAction, bool) {
	name := strings.ToLower(strings.TrimSpace(raw.Name))
	if name == "" {
		return entity.CanonicalAction{}, false
	}

	isEvaluate := name == actionEvaluate

	var actionType entity.CanonicalType
	if !isEvaluate {
		var ok bool
		actionType, ok = parseActionType(name)
		if !ok {
			if c.logger != nil {
				c.logger.Debug("Skipping non-interactive action", "action", name)
			}
			return entity.CanonicalAction{}, false
		}
	}

	action := entity.CanonicalAction{
		URLBefore: raw.URLBefore,
		URLAfter:  raw.URLAfter,
	}
	if raw.Element != nil {
		action.Tag = strings.ToLower(raw.Element.Tag)
		action.Text = raw.Element.Text
		action.Attributes = raw.Element.Attributes
		action.XPath = raw.Element.XPath
	}

	action.InputValue = c.extractInputValue(raw, actionType, snap)

	if isEvaluate {
		el, ok := parseEvaluatePayload(raw.Result)
		if !ok {
			if c.logger != nil {
				c.logger.Debug("Skipping evaluate action without element descriptor")
			}
			return entity.CanonicalAction{}, false
		}
		action.Tag = strings.ToLower(el.Tag)
		action.Text = el.Text
		action.Attributes = el.Attributes
		actionType = entity.CanonClick
	}

	action.Type = actionType
	return action, true
}

// parseActionType resolves an action identifier: skip set, explicit map,
// then a substring fallback for identifiers the map has never seen.
func parseActionType(name string) (entity.CanonicalType, bool) {
	if _, ok := skipActions[name]; ok {
		return "", false
	}
	if t, ok := actionTypes[name]; ok {
		return t, true
	}

	switch {
	case strings.Contains(name, "click"):
		return entity.CanonClick, true
	case strings.Contains(name, "input"), strings.Contains(name, "type"):
		return entity.CanonType, true
	case strings.Contains(name, "select"):
		return entity.CanonSelect, true
	}
	return "", false
}

// extractInputValue prefers an explicit text/value/keys parameter. A select
// that only carries a bare numeric index is resolved against the step's DOM
// snapshot; the stringified index is the last resort.
func (c *Canonicalizer) extractInputValue(raw entity.RawAction, actionType entity.CanonicalType, snap entity.DOMSnapshot) string {
	var value string
	for _, key := range []string{"text", "value", "keys"} {
		if v, ok := raw.Params[key]; ok {
			if s := paramString(v); s != "" {
				value = s
				break
			}
		}
	}

	if actionType == entity.CanonSelect {
		if idx, ok := paramInt(raw.Params["index"]); ok && (value == "" || isDigits(value)) {
			return lookupOption(snap, idx)
		}
	}
	return value
}

// lookupOption finds the element the collaborator highlighted under the
// given index. Option elements win when several share an index.
func lookupOption(snap entity.DOMSnapshot, index int) string {
	paths := make([]string, 0, len(snap))
	for path := range snap {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	best := ""
	for _, path := range paths {
		el := snap[path]
		if el.HighlightIndex != index {
			continue
		}
		text := strings.Join(strings.Fields(el.Text), " ")
		if text == "" {
			text = el.Attributes["value"]
		}
		if text == "" {
			continue
		}
		if el.Tag == "option" {
			return text
		}
		if best == "" {
			best = text
		}
	}
	if best != "" {
		return best
	}
	return strconv.Itoa(index)
}

// evaluateDescriptor is the JSON shape the system prompt asks evaluate
// scripts to return.
type evaluateDescriptor struct {
	Tag        string         `json:"tag"`
	Text       string         `json:"text"`
	Attributes map[string]any `json:"attributes"`
}

// parseEvaluatePayload decodes an evaluate result, repairing malformed JSON
// when a strict parse fails. A payload without a tag field yields no
// element.
func parseEvaluatePayload(payload string) (entity.ElementSnapshot, bool) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return entity.ElementSnapshot{}, false
	}

	var desc evaluateDescriptor
	if err := json.Unmarshal([]byte(payload), &desc); err != nil {
		repaired, repairErr := jsonrepair.JSONRepair(payload)
		if repairErr != nil {
			return entity.ElementSnapshot{}, false
		}
		if err := json.Unmarshal([]byte(repaired), &desc); err != nil {
			return entity.ElementSnapshot{}, false
		}
	}
	if desc.Tag == "" {
		return entity.ElementSnapshot{}, false
	}

	attrs := make(map[string]string, len(desc.Attributes))
	for k, v := range desc.Attributes {
		if v == nil {
			continue
		}
		attrs[k] = paramString(v)
	}

	return entity.ElementSnapshot{
		Tag:        desc.Tag,
		Text:       desc.Text,
		Attributes: attrs,
	}, true
}

func paramString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

func paramInt(v any) (int, bool) {
	switch t := v.(type) {
	case float64:
		return int(t), true
	case int:
		return t, true
	case string:
		n, err := strconv.Atoi(t)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
