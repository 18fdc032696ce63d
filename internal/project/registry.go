package project

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrProjectNotFound is returned when a project cannot be found by ID.
var ErrProjectNotFound = errors.New("project not found")

// Registry is an in-memory, insertion-ordered collection of projects.
// It supports create, list and delete only; there is no update operation
// and no durability across process restarts.
type Registry struct {
	mu       sync.RWMutex
	projects []*Project
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Create appends a new project with a generated ID and returns a copy.
func (r *Registry) Create(_ context.Context, name, thumbnail string) (*Project, error) {
	now := time.Now()
	p := &Project{
		ID:        NewID(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
		Thumbnail: thumbnail,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.projects = append(r.projects, p)

	clone := *p
	return &clone, nil
}

// List returns all projects in creation order as copies.
func (r *Registry) List(_ context.Context) ([]*Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Project, 0, len(r.projects))
	for _, p := range r.projects {
		clone := *p
		result = append(result, &clone)
	}
	return result, nil
}

// Delete removes a project by ID.
// Returns ErrProjectNotFound if no project has that ID.
func (r *Registry) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, p := range r.projects {
		if p.ID == id {
			r.projects = append(r.projects[:i], r.projects[i+1:]...)
			return nil
		}
	}
	return ErrProjectNotFound
}
