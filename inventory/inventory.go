// Package inventory treats version-prefixed directories under a root as the
// record of versions that were already downloaded.
package inventory

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/afero"
)

// Inventory lists the version labels already present locally
type Inventory interface {
	List() ([]string, error)
	// Create materializes the directory for label and returns its path.
	// It succeeds if the directory already exists.
	Create(label string) (string, error)
}

// DirInventory is an Inventory backed by directory names on a filesystem
type DirInventory struct {
	fs     afero.Fs
	root   string
	prefix string
}

// NewDirInventory creates an inventory rooted at root on fs
func NewDirInventory(fs afero.Fs, root, prefix string) *DirInventory {
	return &DirInventory{fs: fs, root: root, prefix: prefix}
}

// DirName returns the directory name used for label
func (d *DirInventory) DirName(label string) string {
	return d.prefix + label
}

// List returns the label of every prefixed directory under the root
func (d *DirInventory) List() ([]string, error) {
	entries, err := afero.ReadDir(d.fs, d.root)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", d.root, err)
	}

	var labels []string
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), d.prefix) {
			continue
		}
		labels = append(labels, strings.TrimPrefix(e.Name(), d.prefix))
	}
	return labels, nil
}

// Create makes <root>/<prefix><label>
func (d *DirInventory) Create(label string) (string, error) {
	path := filepath.Join(d.root, d.DirName(label))
	if err := d.fs.MkdirAll(path, 0o755); err != nil {
		return "", fmt.Errorf("create version directory %s: %w", path, err)
	}
	return path, nil
}

// Memory is an in-memory Inventory
type Memory struct {
	mu      sync.Mutex
	labels  []string
	created []string
}

// NewMemory returns a Memory inventory holding labels
func NewMemory(labels ...string) *Memory {
	return &Memory{labels: append([]string(nil), labels...)}
}

// List implements Inventory
func (m *Memory) List() ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.labels...), nil
}

// Create implements Inventory
func (m *Memory) Create(label string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.labels {
		if l == label {
			return label, nil
		}
	}
	m.labels = append(m.labels, label)
	m.created = append(m.created, label)
	return label, nil
}

// Created returns the labels added through Create
func (m *Memory) Created() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.created...)
}
