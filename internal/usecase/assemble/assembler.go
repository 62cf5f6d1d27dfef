package assemble

import (
	"strconv"

	"manifest-agent/internal/application/port/output"
	"manifest-agent/internal/domain/entity"
	"manifest-agent/internal/usecase/selector"
	"manifest-agent/internal/usecase/success"
)

// Assembler turns recorded flows into manifest targets. It owns the id
// space of the manifest being built: two tasks slugging to the same id get
// numeric suffixes instead of silently overwriting each other.
type Assembler struct {
	selCfg selector.Config
	logger output.LoggerPort
	used   map[string]struct{}
}

func New(selCfg selector.Config, logger output.LoggerPort) *Assembler {
	return &Assembler{
		selCfg: selCfg,
		logger: logger,
		used:   make(map[string]struct{}),
	}
}

// SeedIDs registers ids restored from a checkpoint so a resumed run keeps
// assigning collision suffixes in the same order.
func (a *Assembler) SeedIDs(targets []entity.ManifestTarget) {
	for _, t := range targets {
		a.used[t.ID] = struct{}{}
	}
}

// UniqueID claims an id for the given slug, suffixing -2, -3, ... on
// collision.
func (a *Assembler) UniqueID(slug string) string {
	id := slug
	for n := 2; ; n++ {
		if _, taken := a.used[id]; !taken {
			break
		}
		id = slug + "-" + strconv.Itoa(n)
	}
	a.used[id] = struct{}{}
	return id
}

// Target converts one recorded flow into a manifest target. Reconciled
// steps are preferred; the raw canonical sequence is the fallback. A flow
// that yields no path steps produces no target.
func (a *Assembler) Target(flow *entity.RecordedFlow) *entity.ManifestTarget {
	if flow == nil || !flow.Success {
		return nil
	}

	var path []entity.PathStep
	switch {
	case len(flow.Reconciled) > 0:
		path = a.pathFromReconciled(flow.Reconciled, flow.Actions)
	case len(flow.Actions) > 0:
		path = a.pathFromActions(flow.Actions)
	}
	if len(path) == 0 {
		if a.logger != nil {
			a.logger.Warn("No valid steps for task, dropping target", "task", flow.Task.Description)
		}
		return nil
	}

	desc := flow.Task.Description
	label := Label(desc)

	return &entity.ManifestTarget{
		ID:          a.UniqueID(SlugID(desc)),
		Selector:    path[0].Selector,
		Label:       label,
		Description: desc,
		Keywords:    Keywords(desc, label),
		Category:    flow.Task.Category,
		Path:        path,
	}
}

func (a *Assembler) pathFromReconciled(steps []entity.ReconciledStep, actions []entity.CanonicalAction) []entity.PathStep {
	path := make([]entity.PathStep, 0, len(steps))
	for _, step := range steps {
		var el entity.ElementSnapshot
		if step.Element != nil {
			el = *step.Element
		}

		// A step that maps back to a recorded action inherits that
		// action's inferred post-condition; unmapped steps fall back
		// to the interaction itself as the signal.
		cond := &entity.SuccessCondition{Click: true}
		if idx := step.SourceActionIndex; idx != nil && *idx >= 0 && *idx < len(actions) {
			if inferred := success.Infer(actions[*idx], nil); inferred != nil {
				cond = inferred
			}
		}

		instruction := step.Instruction
		if instruction == "" {
			instruction = Instruction(entity.CanonicalAction{
				Type:       step.Action,
				Tag:        el.Tag,
				Text:       el.Text,
				InputValue: step.InputValue,
			})
		}

		path = append(path, entity.PathStep{
			Selector:         selector.BuildWith(a.selCfg, el),
			Instruction:      instruction,
			Action:           stepAction(step.Action),
			Input:            step.InputValue,
			SuccessCondition: cond,
			Final:            step.IsFinal,
		})
	}
	return path
}

func (a *Assembler) pathFromActions(actions []entity.CanonicalAction) []entity.PathStep {
	path := make([]entity.PathStep, 0, len(actions))
	for i, action := range actions {
		var next *entity.CanonicalAction
		if i+1 < len(actions) {
			next = &actions[i+1]
		}

		path = append(path, entity.PathStep{
			Selector: selector.BuildWith(a.selCfg, entity.ElementSnapshot{
				Tag:        action.Tag,
				Text:       action.Text,
				Attributes: action.Attributes,
				XPath:      action.XPath,
			}),
			Instruction:      Instruction(action),
			Action:           stepAction(action.Type),
			Input:            action.InputValue,
			SuccessCondition: success.Infer(action, next),
			Final:            i == len(actions)-1,
		})
	}
	return path
}

func stepAction(t entity.CanonicalType) entity.StepAction {
	switch t {
	case entity.CanonType:
		return entity.StepType
	case entity.CanonSelect:
		return entity.StepSelect
	default:
		return entity.StepClick
	}
}
