package reconcile

import (
	"context"

	"manifest-agent/internal/application/port/output"
	"manifest-agent/internal/domain/entity"
	"manifest-agent/internal/usecase/assemble"
)

// Reconciler reduces a canonical trace to user-facing steps. The remote
// reducer is tried first; any failure or empty result degrades to the
// deterministic fallback. Reconcile never fails past its boundary.
type Reconciler struct {
	remote output.Reducer
	logger output.LoggerPort
}

func New(remote output.Reducer, logger output.LoggerPort) *Reconciler {
	return &Reconciler{remote: remote, logger: logger}
}

func (r *Reconciler) Reconcile(ctx context.Context, task entity.Task, actions []entity.CanonicalAction) []entity.ReconciledStep {
	if len(actions) == 0 {
		return nil
	}

	if r.remote != nil {
		steps, err := r.remote.Reduce(ctx, task, actions)
		switch {
		case err != nil:
			if r.logger != nil {
				r.logger.Warn("Reduction failed, falling back to recorded actions", "error", err)
			}
		case len(steps) == 0:
			if r.logger != nil {
				r.logger.Warn("Reduction returned no steps, falling back to recorded actions")
			}
		default:
			finalize(steps)
			r.enrich(steps, actions)
			return steps
		}
	}

	return Fallback(actions)
}

// Fallback converts the canonical actions one-to-one into reconciled steps.
func Fallback(actions []entity.CanonicalAction) []entity.ReconciledStep {
	steps := make([]entity.ReconciledStep, 0, len(actions))
	for i := range actions {
		a := actions[i]
		idx := i
		steps = append(steps, entity.ReconciledStep{
			Action:            a.Type,
			Instruction:       assemble.Instruction(a),
			SourceActionIndex: &idx,
			InputValue:        a.InputValue,
			Element: &entity.ElementSnapshot{
				Tag:        elementTag(a.Tag),
				Text:       a.Text,
				Attributes: a.Attributes,
				XPath:      a.XPath,
			},
		})
	}
	finalize(steps)
	return steps
}

// finalize makes exactly the last step final, regardless of what the model
// claimed.
func finalize(steps []entity.ReconciledStep) {
	for i := range steps {
		steps[i].IsFinal = false
	}
	if len(steps) > 0 {
		steps[len(steps)-1].IsFinal = true
	}
}

// enrich fills in element metadata from the source actions so selectors can
// be rebuilt from the recording.
func (r *Reconciler) enrich(steps []entity.ReconciledStep, actions []entity.CanonicalAction) {
	for i := range steps {
		idx := steps[i].SourceActionIndex
		if idx == nil || *idx < 0 || *idx >= len(actions) {
			if r.logger != nil {
				r.logger.Debug("No recorded action for reduced step", "instruction", steps[i].Instruction)
			}
			continue
		}
		a := actions[*idx]
		steps[i].Element = &entity.ElementSnapshot{
			Tag:        elementTag(a.Tag),
			Text:       a.Text,
			Attributes: a.Attributes,
			XPath:      a.XPath,
		}
		if steps[i].InputValue == "" {
			steps[i].InputValue = a.InputValue
		}
	}
}

func elementTag(tag string) string {
	if tag == "" {
		return "div"
	}
	return tag
}
