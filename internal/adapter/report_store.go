package adapter

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	m "github.com/jakechild/sleuth/internal/model"
)

// runManifestName is the file the manifest is stored under inside the
// reports directory.
const runManifestName = "run.yaml"

// ReportStore persists run manifests.
type ReportStore interface {
	SaveRun(dir m.Path, manifest m.RunManifest) error
	LoadRun(dir m.Path) (m.RunManifest, error)
}

// YAMLReportStore stores manifests as YAML files on disk.
type YAMLReportStore struct{}

// NewReportStore constructs a YAMLReportStore.
func NewReportStore() *YAMLReportStore {
	return &YAMLReportStore{}
}

// SaveRun writes the manifest into dir, creating dir if needed.
func (s *YAMLReportStore) SaveRun(dir m.Path, manifest m.RunManifest) error {
	if err := os.MkdirAll(string(dir), 0o750); err != nil {
		return fmt.Errorf("create reports dir %s: %w", dir, err)
	}

	data, err := yaml.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("marshal run manifest: %w", err)
	}

	target := filepath.Join(string(dir), runManifestName)

	if err := os.WriteFile(target, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", target, err)
	}

	return nil
}

// LoadRun reads the manifest stored in dir.
func (s *YAMLReportStore) LoadRun(dir m.Path) (m.RunManifest, error) {
	target := filepath.Join(string(dir), runManifestName)

	data, err := os.ReadFile(target)
	if err != nil {
		return m.RunManifest{}, fmt.Errorf("read %s: %w", target, err)
	}

	var manifest m.RunManifest

	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return m.RunManifest{}, fmt.Errorf("unmarshal %s: %w", target, err)
	}

	return manifest, nil
}
