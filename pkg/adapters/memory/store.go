package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/infrascope/pkg/domain"
	"github.com/aretw0/infrascope/pkg/ports"
)

// Store implements ports.ArtifactStore in memory. Artifacts are kept
// encoded, so nothing is shared with callers at any depth.
// Safe for concurrent use.
type Store struct {
	data map[string][]byte
	mu   sync.RWMutex
}

var _ ports.ArtifactStore = (*Store)(nil)

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string][]byte),
	}
}

// Save keeps a deep copy of the artifact under runID.
func (s *Store) Save(_ context.Context, runID string, artifact domain.Artifact) error {
	data, err := json.Marshal(artifact)
	if err != nil {
		return fmt.Errorf("encoding artifact %s: %w", runID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[runID] = data
	return nil
}

// Load returns a copy so callers cannot mutate the stored artifact.
func (s *Store) Load(_ context.Context, runID string) (domain.Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.data[runID]
	if !ok {
		return nil, domain.ErrArtifactNotFound
	}

	var artifact domain.Artifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("decoding artifact %s: %w", runID, err)
	}
	return artifact, nil
}

// Delete removes the artifact.
func (s *Store) Delete(_ context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, runID)
	return nil
}

// List returns the stored run IDs, sorted.
func (s *Store) List(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]string, 0, len(s.data))
	for id := range s.data {
		runs = append(runs, id)
	}
	sort.Strings(runs)
	return runs, nil
}
