package ports

import (
	"context"

	"github.com/aretw0/infrascope/pkg/domain"
)

// ArtifactStore persists the merged output artifact of successful runs.
// It is the only persistence a run has; state itself is never stored.
type ArtifactStore interface {
	// Save persists the artifact for a given run ID, replacing any previous one.
	Save(ctx context.Context, runID string, artifact domain.Artifact) error

	// Load retrieves the artifact for a given run ID.
	// Returns domain.ErrArtifactNotFound if the run has no artifact.
	Load(ctx context.Context, runID string) (domain.Artifact, error)

	// Delete removes the artifact for a given run ID.
	Delete(ctx context.Context, runID string) error

	// List returns the IDs of stored runs, oldest first.
	List(ctx context.Context) ([]string, error)
}
