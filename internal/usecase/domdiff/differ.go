package domdiff

import (
	"sort"

	"manifest-agent/internal/application/port/output"
	"manifest-agent/internal/domain/entity"
)

// Config bounds diff output so resulting-state blocks cannot blow up the
// raw-trace artifact.
type Config struct {
	// MaxPerSide caps added and modified element lists independently.
	MaxPerSide int
}

func DefaultConfig() Config {
	return Config{MaxPerSide: 5}
}

type Differ struct {
	cfg    Config
	logger output.LoggerPort
}

func New(cfg Config, logger output.LoggerPort) *Differ {
	return &Differ{cfg: cfg, logger: logger}
}

// Diff compares two snapshots. Added elements are paths present only in
// next; modified elements are shared paths whose class or style attribute
// differs, class checked first. Both sides are path-sorted before the cap
// so output is deterministic for identical input. Returns nil when nothing
// changed or either snapshot is missing.
func (d *Differ) Diff(prev, next entity.DOMSnapshot) *entity.DiffResult {
	if prev == nil || next == nil {
		return nil
	}

	var addedPaths []string
	for path := range next {
		if _, ok := prev[path]; !ok {
			addedPaths = append(addedPaths, path)
		}
	}
	sort.Strings(addedPaths)
	if len(addedPaths) > d.cfg.MaxPerSide {
		addedPaths = addedPaths[:d.cfg.MaxPerSide]
	}

	var added []entity.ElementSnapshot
	for _, path := range addedPaths {
		added = append(added, next[path])
	}

	sharedPaths := make([]string, 0, len(prev))
	for path := range prev {
		if _, ok := next[path]; ok {
			sharedPaths = append(sharedPaths, path)
		}
	}
	sort.Strings(sharedPaths)

	var modified []entity.ModifiedElement
	for _, path := range sharedPaths {
		curr, after := prev[path], next[path]
		var changed string
		switch {
		case curr.Attributes["class"] != after.Attributes["class"]:
			changed = entity.ChangedClass
		case curr.Attributes["style"] != after.Attributes["style"]:
			changed = entity.ChangedStyle
		default:
			continue
		}
		modified = append(modified, entity.ModifiedElement{ElementSnapshot: after, Changed: changed})
		if len(modified) == d.cfg.MaxPerSide {
			break
		}
	}

	if len(added) == 0 && len(modified) == 0 {
		return nil
	}
	return &entity.DiffResult{Added: added, Modified: modified}
}

// Attach walks consecutive snapshot pairs and attaches each diff to the
// last canonical action of the earlier step. Steps without a following
// snapshot simply get no resulting state; that is not an error.
func (d *Differ) Attach(actions []entity.CanonicalAction, trace *entity.Trace) {
	if len(actions) == 0 || trace == nil {
		return
	}

	for stepIdx := 0; stepIdx < len(trace.Steps)-1; stepIdx++ {
		diff := d.Diff(trace.Steps[stepIdx].Snapshot, trace.Steps[stepIdx+1].Snapshot)
		if diff == nil {
			continue
		}

		last := -1
		for i := range actions {
			if actions[i].StepIndex == stepIdx {
				last = i
			}
		}
		if last < 0 {
			continue
		}
		actions[last].ResultingState = diff
	}
}
