package input

import (
	"context"

	"manifest-agent/internal/domain/entity"
)

type ManifestGenerator interface {
	// Generate explores every configured task in order and writes the
	// final manifest, checkpointing after each completed task.
	Generate(ctx context.Context) (*entity.Manifest, error)

	// Rebuild reassembles a manifest from a previously recorded raw-trace
	// artifact without re-exploring.
	Rebuild(ctx context.Context, flowsPath string) (*entity.Manifest, error)
}
