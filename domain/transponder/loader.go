package transponder

import (
	"fmt"
	"io/fs"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// yamlManifest is the YAML structure for event manifests.
type yamlManifest struct {
	Transponders []yamlTransponder `yaml:"transponders"`
}

type yamlTransponder struct {
	Name   string   `yaml:"name"`
	Events []string `yaml:"events"`
}

// Loader declares namespace/event pairs in a registry from YAML manifests.
type Loader struct {
	registry *Registry
}

// NewLoader creates a loader that populates the given registry.
func NewLoader(registry *Registry) *Loader {
	return &Loader{registry: registry}
}

// LoadFromFS loads event manifests from an embedded or real filesystem.
// It expects YAML files in an "events" subdirectory.
func (l *Loader) LoadFromFS(fsys fs.FS) error {
	entries, err := fs.ReadDir(fsys, "events")
	if err != nil {
		return fmt.Errorf("failed to read events directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}

		if err := l.loadFile(fsys, "events/"+entry.Name()); err != nil {
			return err
		}
	}

	return nil
}

// loadFile loads a single manifest file.
func (l *Loader) loadFile(fsys fs.FS, path string) error {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return fmt.Errorf("failed to read manifest %s: %w", path, err)
	}

	var manifest yamlManifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}

	for _, tp := range manifest.Transponders {
		for _, event := range tp.Events {
			if err := l.registry.SetupEvent(tp.Name, event); err != nil {
				return fmt.Errorf("manifest %s: %w", path, err)
			}
		}
	}

	return nil
}
