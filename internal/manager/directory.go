package manager

import (
	"fmt"
	"sync"
)

// Directory serves the manager catalog from memory.
// It is loaded once from the repository and is safe for concurrent use.
type Directory struct {
	mu       sync.RWMutex
	managers []*Manager
	byID     map[int64]*Manager
}

// LoadDirectory reads the full catalog from repo.
func LoadDirectory(repo *Repository) (*Directory, error) {
	managers, err := repo.List()
	if err != nil {
		return nil, fmt.Errorf("loading manager directory: %w", err)
	}
	return NewDirectory(managers), nil
}

// NewDirectory builds a directory over an already loaded catalog.
func NewDirectory(managers []*Manager) *Directory {
	d := &Directory{}
	d.replace(managers)
	return d
}

// Reload replaces the catalog with the current repository contents.
func (d *Directory) Reload(repo *Repository) error {
	managers, err := repo.List()
	if err != nil {
		return fmt.Errorf("reloading manager directory: %w", err)
	}
	d.replace(managers)
	return nil
}

func (d *Directory) replace(managers []*Manager) {
	byID := make(map[int64]*Manager, len(managers))
	for _, m := range managers {
		byID[m.ID] = m
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.managers = managers
	d.byID = byID
}

// All returns the catalog in order.
func (d *Directory) All() []*Manager {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]*Manager(nil), d.managers...)
}

// Get returns a manager by ID.
func (d *Directory) Get(id int64) (*Manager, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	m, ok := d.byID[id]
	if !ok {
		return nil, fmt.Errorf("manager %d: %w", id, ErrNotFound)
	}
	return m, nil
}

// Nearby returns managers serving location. See the package-level Nearby.
func (d *Directory) Nearby(location string, limit int) []*Manager {
	return Nearby(d.All(), location, limit)
}

// Featured returns the best-rated manager serving location, or nil.
func (d *Directory) Featured(location string) *Manager {
	return Featured(d.All(), location)
}
