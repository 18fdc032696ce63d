package project

import "context"

// Store is the persistence extension point for project contents. The
// current implementation is a deliberate stub: the original design never
// specified a durability backend, so Save hands out identifiers without
// persisting and Load returns an empty payload. Swap in a real backend
// behind this interface once one is chosen.
type Store interface {
	// Save persists free-form project data under a new identifier.
	Save(ctx context.Context, name string, data map[string]any) (projectID string, err error)

	// Load retrieves previously saved project data.
	Load(ctx context.Context, projectID string) (map[string]any, error)
}

// Compile-time check that StubStore implements Store.
var _ Store = (*StubStore)(nil)

// StubStore is the placeholder Store implementation.
type StubStore struct{}

// NewStubStore creates a new StubStore.
func NewStubStore() *StubStore {
	return &StubStore{}
}

// Save returns a freshly generated identifier without persisting anything.
func (s *StubStore) Save(_ context.Context, _ string, _ map[string]any) (string, error) {
	return NewID(), nil
}

// Load returns an empty payload regardless of the requested identifier.
func (s *StubStore) Load(_ context.Context, _ string) (map[string]any, error) {
	return map[string]any{}, nil
}
