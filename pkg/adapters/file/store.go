// Package file persists run artifacts as JSON documents on the local filesystem.
package file

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/infrascope/pkg/domain"
	"github.com/aretw0/infrascope/pkg/ports"
)

// DefaultDir is used when New receives an empty directory.
var DefaultDir = filepath.Join(".infrascope", "runs")

// Store implements ports.ArtifactStore as one file per run, <dir>/<runID>.json.
type Store struct {
	dir    string
	latest string
}

var _ ports.ArtifactStore = (*Store)(nil)

// Option configures the Store.
type Option func(*Store)

// WithLatest also writes every saved artifact to path, replacing the
// previous one. The CLI uses it for output.json.
func WithLatest(path string) Option {
	return func(s *Store) {
		s.latest = path
	}
}

// New creates a Store rooted at dir.
func New(dir string, opts ...Option) *Store {
	if dir == "" {
		dir = DefaultDir
	}
	s := &Store{dir: dir}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dir returns the directory artifacts are written to.
func (s *Store) Dir() string { return s.dir }

func (s *Store) path(runID string) (string, error) {
	if runID == "" {
		return "", errors.New("run ID cannot be empty")
	}
	if strings.ContainsAny(runID, `/\`) || runID == "." || runID == ".." {
		return "", fmt.Errorf("invalid run ID %q", runID)
	}
	return filepath.Join(s.dir, runID+".json"), nil
}

// Save writes the artifact atomically.
func (s *Store) Save(_ context.Context, runID string, artifact domain.Artifact) error {
	path, err := s.path(runID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to ensure artifact directory: %w", err)
	}

	data, err := Encode(artifact)
	if err != nil {
		return err
	}
	if err := atomicWriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write artifact: %w", err)
	}

	if s.latest != "" {
		if err := writeData(s.latest, data); err != nil {
			return fmt.Errorf("failed to write %s: %w", s.latest, err)
		}
	}
	return nil
}

// Load reads the artifact for runID.
func (s *Store) Load(_ context.Context, runID string) (domain.Artifact, error) {
	path, err := s.path(runID)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.ErrArtifactNotFound
		}
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}

	var artifact domain.Artifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("failed to decode artifact %s: %w", runID, err)
	}
	return artifact, nil
}

// Delete removes the artifact file. Deleting a missing run is not an error.
func (s *Store) Delete(_ context.Context, runID string) error {
	path, err := s.path(runID)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete artifact: %w", err)
	}
	return nil
}

// List returns the run IDs found in the directory, sorted.
func (s *Store) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}

	runs := []string{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" {
			continue
		}
		runs = append(runs, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(runs)
	return runs, nil
}

// Encode renders an artifact with a four-space indent and without HTML
// escaping, so non-ASCII text and symbols stay readable.
func Encode(artifact domain.Artifact) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(artifact); err != nil {
		return nil, fmt.Errorf("failed to encode artifact: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteFile atomically writes a single artifact to path.
func WriteFile(path string, artifact domain.Artifact) error {
	data, err := Encode(artifact)
	if err != nil {
		return err
	}
	return writeData(path, data)
}

func writeData(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return atomicWriteFile(path, data, 0o644)
}
