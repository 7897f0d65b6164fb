// Package apps replaces the linker-provided _num_app/_app_names pair
// (spec.md section 6) with a YAML manifest plus go:embed'd ELF blobs:
// the kernel builds its name->bytes lookup at boot from these two
// instead of walking linker symbols, following tinyrange-cc's
// manifest-driven image assembly.
package apps

import (
	"embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Entry is one manifest row: a name the kernel exposes through exec and
// the embedded path its ELF bytes live at.
type Entry struct {
	Name string `yaml:"name"`
	Path string `yaml:"path"`
}

// Manifest is the parsed apps/manifest.yaml: an ordered list of entries
// (order matters only for List's display; exec always looks up by
// name).
type Manifest struct {
	Apps []Entry `yaml:"apps"`
}

// LoadManifest reads and parses a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("apps: reading manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("apps: parsing manifest: %w", err)
	}
	return &m, nil
}

//go:embed elf
var blobs embed.FS

// Registry is the boot-time name -> ELF bytes map.
type Registry struct {
	byName map[string][]byte
	order  []string
}

// NewRegistry reads each manifest entry's path out of fs and builds the
// lookup table. Missing files are an error: a manifest naming an app
// whose blob was never embedded is a build misconfiguration, not a
// runtime condition (spec.md section 7 reserves "unknown app name" for
// exec of a name absent from the manifest, not for this).
func NewRegistry(m *Manifest, fs embed.FS) (*Registry, error) {
	r := &Registry{byName: make(map[string][]byte, len(m.Apps))}
	for _, e := range m.Apps {
		data, err := fs.ReadFile(e.Path)
		if err != nil {
			return nil, fmt.Errorf("apps: embedding %q at %q: %w", e.Name, e.Path, err)
		}
		r.byName[e.Name] = data
		r.order = append(r.order, e.Name)
	}
	return r, nil
}

// DefaultRegistry builds the registry from the manifest embedded into
// this binary, for callers that don't need a custom blob set (callers
// with their own embed.FS call NewRegistry directly).
func DefaultRegistry(m *Manifest) (*Registry, error) {
	return NewRegistry(m, blobs)
}

// Lookup returns an app's ELF bytes by name.
func (r *Registry) Lookup(name string) ([]byte, bool) {
	b, ok := r.byName[name]
	return b, ok
}

// List returns app names in manifest order, for --list-apps.
func (r *Registry) List() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
