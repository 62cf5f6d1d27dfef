package output

import (
	"context"

	"manifest-agent/internal/domain/entity"
)

// Reducer is the step-reduction collaborator: it turns a full canonical
// trace into the minimal ordered set of user-facing steps. Implementations
// may fail or return zero steps; callers fall back deterministically.
type Reducer interface {
	Reduce(ctx context.Context, task entity.Task, actions []entity.CanonicalAction) ([]entity.ReconciledStep, error)
}
