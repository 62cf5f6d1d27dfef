package entity

// ElementSnapshot is one DOM element captured at a point in time. XPath is
// the identifying path, stable across consecutive snapshots within one
// exploration run. HighlightIndex is the collaborator's interactive-element
// index, used to resolve dropdown options selected by index.
type ElementSnapshot struct {
	Tag            string            `json:"tag"`
	Text           string            `json:"text,omitempty"`
	Attributes     map[string]string `json:"attributes,omitempty"`
	XPath          string            `json:"xpath,omitempty"`
	HighlightIndex int               `json:"highlight_index,omitempty"`
}

// DOMSnapshot maps identifying path to element for every interactive element
// visible at one exploration step. Keys are unique per snapshot.
type DOMSnapshot map[string]ElementSnapshot

// RawAction is one agent-issued action event in the collaborator's native
// shape: an open action vocabulary, an open parameter map, and whatever
// element reference the collaborator managed to resolve.
type RawAction struct {
	Name      string           `json:"name"`
	Params    map[string]any   `json:"params,omitempty"`
	Element   *ElementSnapshot `json:"element,omitempty"`
	Result    string           `json:"result,omitempty"`
	URLBefore string           `json:"url_before,omitempty"`
	URLAfter  string           `json:"url_after,omitempty"`
}

// TraceStep is one exploration step: the actions the model issued plus the
// DOM snapshot captured before them.
type TraceStep struct {
	Actions  []RawAction `json:"actions,omitempty"`
	Snapshot DOMSnapshot `json:"snapshot,omitempty"`
}

// Trace is the ordered record of steps produced by exploring one task.
type Trace struct {
	Steps []TraceStep `json:"steps"`
}

type CanonicalType string

const (
	CanonClick  CanonicalType = "click"
	CanonType   CanonicalType = "type"
	CanonSelect CanonicalType = "select"
)

// CanonicalAction is a RawAction normalized to the fixed vocabulary.
// ResultingState is attached exactly once, by the differ; a canonical action
// never reaches the final manifest, only the raw-trace artifact.
type CanonicalAction struct {
	Type           CanonicalType     `json:"action_type"`
	Tag            string            `json:"element_tag,omitempty"`
	Text           string            `json:"element_text,omitempty"`
	Attributes     map[string]string `json:"element_attributes,omitempty"`
	XPath          string            `json:"xpath,omitempty"`
	InputValue     string            `json:"input_value,omitempty"`
	URLBefore      string            `json:"url_before,omitempty"`
	URLAfter       string            `json:"url_after,omitempty"`
	StepIndex      int               `json:"step_index"`
	ResultingState *DiffResult       `json:"resulting_state,omitempty"`
}

const (
	ChangedClass = "class"
	ChangedStyle = "style"
)

// ModifiedElement is an element present in both snapshots whose class or
// style attribute differs. Changed names which of the two.
type ModifiedElement struct {
	ElementSnapshot
	Changed string `json:"changed"`
}

type DiffResult struct {
	Added    []ElementSnapshot `json:"elements_added,omitempty"`
	Modified []ModifiedElement `json:"elements_modified,omitempty"`
}

// ReconciledStep is one user-facing step after reduction.
// SourceActionIndex points into the canonical action list the step was
// reduced from; nil when the reduction collaborator could not map it.
type ReconciledStep struct {
	Action            CanonicalType    `json:"action"`
	Instruction       string           `json:"instruction"`
	SourceActionIndex *int             `json:"source_action_index"`
	InputValue        string           `json:"input_value,omitempty"`
	IsFinal           bool             `json:"is_final"`
	Element           *ElementSnapshot `json:"element,omitempty"`
}

// RecordedFlow is the per-task unit of the raw-trace artifact: everything
// needed to rebuild the task's manifest target offline.
type RecordedFlow struct {
	Task       Task              `json:"task"`
	Actions    []CanonicalAction `json:"actions,omitempty"`
	Reconciled []ReconciledStep  `json:"reconciled,omitempty"`
	Success    bool              `json:"success"`
	Error      string            `json:"error,omitempty"`
	DurationMS float64           `json:"duration_ms,omitempty"`
}
