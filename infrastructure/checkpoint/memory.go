// Package checkpoint provides CheckpointStore implementations for
// persisting workflow state snapshots between stage transitions.
package checkpoint

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/docketlabs/go-docket/internal/domain"
	"github.com/docketlabs/go-docket/internal/ports"
)

var _ ports.CheckpointStore = (*MemoryStore)(nil)

// MemoryStore keeps workflow state snapshots in process memory. Snapshots
// are stored as serialized JSON so a loaded state is always a detached copy
// and never aliases the engine's live state. Suitable for debugging and
// resumable in-process runs; snapshots do not survive a restart.
type MemoryStore struct {
	mu        sync.RWMutex
	snapshots map[string][]byte
}

// NewMemoryStore creates an empty in-memory checkpoint store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snapshots: make(map[string][]byte)}
}

// Save stores a snapshot of the state under the run ID, replacing any
// previous snapshot.
func (s *MemoryStore) Save(_ context.Context, runID string, state *domain.WorkflowState) error {
	if runID == "" {
		return fmt.Errorf("run ID cannot be empty")
	}
	if state == nil {
		return fmt.Errorf("state cannot be nil")
	}

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to serialize state: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[runID] = data
	return nil
}

// Load retrieves the latest snapshot for the run.
// The second return value is false when no snapshot exists.
func (s *MemoryStore) Load(_ context.Context, runID string) (*domain.WorkflowState, bool, error) {
	s.mu.RLock()
	data, ok := s.snapshots[runID]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}

	var state domain.WorkflowState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, false, fmt.Errorf("failed to deserialize snapshot %q: %w", runID, err)
	}
	return &state, true, nil
}

// Delete removes the snapshot for the run. Deleting a missing snapshot is
// not an error.
func (s *MemoryStore) Delete(_ context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snapshots, runID)
	return nil
}
