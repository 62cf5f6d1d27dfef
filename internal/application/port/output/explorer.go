package output

import (
	"context"

	"manifest-agent/internal/domain/entity"
)

// ExplorerPort is the browser-driving collaborator. It owns a browser
// session exclusively for the duration of one Explore call and returns the
// ordered trace of steps it performed.
type ExplorerPort interface {
	Explore(ctx context.Context, task entity.Task) (*entity.Trace, error)
	Close()
}
