package output

import "manifest-agent/internal/domain/entity"

// ManifestStore persists batch progress. The partial file is rewritten
// wholesale after every completed task so it is always a complete, loadable
// snapshot; the final write removes it.
type ManifestStore interface {
	// LoadPartial returns the targets of a previous interrupted run.
	// A missing file is not an error and yields no targets.
	LoadPartial() ([]entity.ManifestTarget, error)
	WritePartial(m *entity.Manifest) error
	WriteFinal(m *entity.Manifest) error

	// WriteFlows persists the raw-trace artifact alongside the manifest.
	WriteFlows(flows []entity.RecordedFlow) error
	// LoadFlows reads a raw-trace artifact for offline rebuilds.
	LoadFlows(path string) ([]entity.RecordedFlow, error)
}
