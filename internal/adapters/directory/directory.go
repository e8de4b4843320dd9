// Package directory exposes the read-only target (patient/profile) registry
// the capture flow selects from. The capture core never writes to it.
package directory

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// Sentinel kinds for directory errors.
var (
	ErrNotFound = errors.New("target not found")
)

// Target is one selectable assessment subject.
type Target struct {
	ID          string `json:"id" yaml:"id"`
	DisplayName string `json:"display_name" yaml:"display_name"`
	GroupID     string `json:"group_id,omitempty" yaml:"group_id"`
	CategoryID  string `json:"category_id,omitempty" yaml:"category_id"`
}

// Directory lists assessment targets.
type Directory interface {
	// List returns all targets ordered by display name.
	List(ctx context.Context) ([]Target, error)

	// Get returns one target by id. Returns ErrNotFound when unknown.
	Get(ctx context.Context, id string) (Target, error)
}

// Static is an in-memory directory, optionally seeded from a YAML file.
type Static struct {
	mu      sync.RWMutex
	targets map[string]Target
}

// NewStatic creates a directory holding the given targets.
func NewStatic(targets ...Target) *Static {
	d := &Static{targets: make(map[string]Target, len(targets))}
	for _, t := range targets {
		d.targets[t.ID] = t
	}
	return d
}

// seedFile mirrors the YAML seed document layout.
type seedFile struct {
	Targets []Target `yaml:"targets"`
}

// LoadStatic reads a YAML seed file of targets.
func LoadStatic(path string) (*Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read target seed: %w", err)
	}
	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse target seed: %w", err)
	}
	return NewStatic(seed.Targets...), nil
}

// List returns all targets ordered by display name.
func (d *Static) List(_ context.Context) ([]Target, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Target, 0, len(d.targets))
	for _, t := range d.targets {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DisplayName == out[j].DisplayName {
			return out[i].ID < out[j].ID
		}
		return out[i].DisplayName < out[j].DisplayName
	})
	return out, nil
}

// Get returns one target by id.
func (d *Static) Get(_ context.Context, id string) (Target, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	t, ok := d.targets[id]
	if !ok {
		return Target{}, fmt.Errorf("target %q: %w", id, ErrNotFound)
	}
	return t, nil
}
