package entity

// ManifestSchemaURI identifies the manifest format consumed by the guidance runtime.
const ManifestSchemaURI = "https://clippi.dev/schema/manifest.v1.json"

type StrategyType string

const (
	StrategyTestID StrategyType = "testId"
	StrategyXPath  StrategyType = "xpath"
	StrategyAria   StrategyType = "aria"
	StrategyCSS    StrategyType = "css"
	StrategyText   StrategyType = "text"
)

// SelectorStrategy is one concrete way to relocate an element at guidance time.
// Tag is a filter that only applies to text strategies.
type SelectorStrategy struct {
	Type  StrategyType `json:"type"`
	Value string       `json:"value"`
	Tag   string       `json:"tag,omitempty"`
}

// Selector holds strategies in priority order, highest first. The builder
// guarantees the list is never empty.
type Selector struct {
	Strategies []SelectorStrategy `json:"strategies"`
}

// SuccessCondition is a checkable post-action predicate. At most one field
// is populated per instance.
type SuccessCondition struct {
	URLContains string `json:"url_contains,omitempty"`
	URLMatches  string `json:"url_matches,omitempty"`
	Visible     string `json:"visible,omitempty"`
	Exists      string `json:"exists,omitempty"`
	Click       bool   `json:"click,omitempty"`
}

type StepAction string

const (
	StepClick  StepAction = "click"
	StepType   StepAction = "type"
	StepSelect StepAction = "select"
	StepClear  StepAction = "clear"
)

type PathStep struct {
	Selector         Selector          `json:"selector"`
	Instruction      string            `json:"instruction"`
	Action           StepAction        `json:"action"`
	Input            string            `json:"input,omitempty"`
	SuccessCondition *SuccessCondition `json:"success_condition,omitempty"`
	Final            bool              `json:"final"`
}

type OnBlocked struct {
	Message string `json:"message"`
	Suggest string `json:"suggest,omitempty"`
}

// ManifestTarget documents one replayable task flow. ID is unique within a
// manifest; Selector mirrors the selector of the first path step.
type ManifestTarget struct {
	ID          string     `json:"id"`
	Selector    Selector   `json:"selector"`
	Label       string     `json:"label"`
	Description string     `json:"description"`
	Keywords    []string   `json:"keywords"`
	Category    string     `json:"category,omitempty"`
	Path        []PathStep `json:"path,omitempty"`
	Conditions  string     `json:"conditions,omitempty"`
	OnBlocked   *OnBlocked `json:"on_blocked,omitempty"`
}

type ManifestMeta struct {
	AppName     string `json:"app_name"`
	GeneratedAt string `json:"generated_at"`
	Generator   string `json:"generator"`
	Version     string `json:"version,omitempty"`
}

type ManifestDefaults struct {
	TimeoutMS int `json:"timeout_ms"`
}

type Manifest struct {
	Schema   string           `json:"$schema"`
	Meta     ManifestMeta     `json:"meta"`
	Defaults ManifestDefaults `json:"defaults"`
	Targets  []ManifestTarget `json:"targets"`
}
