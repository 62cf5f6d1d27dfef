package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"manifest-agent/internal/application/port/output"
	"manifest-agent/internal/domain/entity"
)

var _ output.ManifestStore = (*FileStore)(nil)

// FileStore persists the manifest, its checkpoint, and the raw-trace
// artifact next to each other:
//
//	<output>            final manifest
//	<output>.part       checkpoint, rewritten after every completed task
//	<output>.actions.json  recorded flows
type FileStore struct {
	outputPath string
	logger     output.LoggerPort
}

func NewFileStore(outputPath string, logger output.LoggerPort) *FileStore {
	return &FileStore{outputPath: outputPath, logger: logger}
}

func (s *FileStore) partPath() string {
	return s.outputPath + ".part"
}

func (s *FileStore) flowsPath() string {
	return s.outputPath + ".actions.json"
}

func (s *FileStore) LoadPartial() ([]entity.ManifestTarget, error) {
	data, err := os.ReadFile(s.partPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read checkpoint: %w", err)
	}

	var m entity.Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		// A corrupt checkpoint is treated as absent.
		if s.logger != nil {
			s.logger.Warn("Checkpoint is corrupt, ignoring it", "path", s.partPath(), "error", err)
		}
		return nil, nil
	}
	return m.Targets, nil
}

func (s *FileStore) WritePartial(m *entity.Manifest) error {
	return s.writeJSON(s.partPath(), m)
}

func (s *FileStore) WriteFinal(m *entity.Manifest) error {
	if err := s.writeJSON(s.outputPath, m); err != nil {
		return err
	}
	if err := os.Remove(s.partPath()); err != nil && !os.IsNotExist(err) {
		if s.logger != nil {
			s.logger.Warn("Could not remove checkpoint", "path", s.partPath(), "error", err)
		}
	}
	return nil
}

func (s *FileStore) WriteFlows(flows []entity.RecordedFlow) error {
	return s.writeJSON(s.flowsPath(), flows)
}

func (s *FileStore) LoadFlows(path string) ([]entity.RecordedFlow, error) {
	if path == "" {
		path = s.flowsPath()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read recorded flows: %w", err)
	}
	var flows []entity.RecordedFlow
	if err := json.Unmarshal(data, &flows); err != nil {
		return nil, fmt.Errorf("failed to parse recorded flows: %w", err)
	}
	return flows, nil
}

// writeJSON writes to a temp file in the target directory and renames it
// into place, so readers never observe a half-written file.
func (s *FileStore) writeJSON(path string, v any) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output dir: %w", err)
		}
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace %s: %w", filepath.Base(path), err)
	}
	return nil
}
