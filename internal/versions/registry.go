// Package versions maintains the on-disk registry of installable versions:
// one directory per version id holding its descriptor document. Vanilla
// versions land here after manifest resolution, mod-loader-patched versions
// after installer profile processing.
package versions

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lodestonemc/lodestone/internal/meta"
)

// Registry stores version descriptors under root/versions/<id>/<id>.json.
type Registry struct {
	root string
}

// NewRegistry creates a registry rooted at dir.
func NewRegistry(dir string) (*Registry, error) {
	if err := os.MkdirAll(filepath.Join(dir, "versions"), 0750); err != nil {
		return nil, fmt.Errorf("creating versions directory: %w", err)
	}
	return &Registry{root: dir}, nil
}

// Root returns the registry's installation root.
func (r *Registry) Root() string { return r.root }

// DescriptorPath returns where a version id's descriptor lives.
func (r *Registry) DescriptorPath(id string) string {
	return filepath.Join(r.root, "versions", id, id+".json")
}

// Register writes a version descriptor atomically. The raw document is
// stored as received so unknown fields survive a round-trip.
func (r *Registry) Register(id string, descriptor []byte) error {
	if id == "" {
		return fmt.Errorf("version id must not be empty")
	}

	dest := r.DescriptorPath(id)
	if err := os.MkdirAll(filepath.Dir(dest), 0750); err != nil {
		return fmt.Errorf("creating version directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), id+"-*.json.tmp")
	if err != nil {
		return fmt.Errorf("staging descriptor: %w", err)
	}
	if _, err := tmp.Write(descriptor); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("writing descriptor: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("writing descriptor: %w", err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("installing descriptor: %w", err)
	}
	return nil
}

// Resolve loads a registered version document.
func (r *Registry) Resolve(id string) (*meta.Version, error) {
	data, err := os.ReadFile(r.DescriptorPath(id)) // #nosec G304 - path derives from the registry root
	if err != nil {
		return nil, fmt.Errorf("loading version %q: %w", id, err)
	}

	var v meta.Version
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, &meta.ParseError{Document: id + ".json", Reason: "invalid version document", Err: err}
	}
	if v.ID == "" {
		return nil, &meta.ParseError{Document: id + ".json", Reason: "missing id"}
	}
	return &v, nil
}

// List returns the ids of all registered versions.
func (r *Registry) List() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(r.root, "versions"))
	if err != nil {
		return nil, fmt.Errorf("reading versions directory: %w", err)
	}

	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			ids = append(ids, e.Name())
		}
	}
	return ids, nil
}
