package entity

// Task is a single flow for the explorer to document.
type Task struct {
	Description string   `json:"description"`
	ID          string   `json:"id,omitempty"`
	Category    string   `json:"category,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
}

// TaskTiming accumulates per-task phase durations. One instance is created
// per task by the generator and threaded through the pipeline instead of any
// ambient start-time state.
type TaskTiming struct {
	TaskDescription string
	ExplorationMS   float64
	ExtractionMS    float64
	ReductionMS     float64
	TotalMS         float64
}
