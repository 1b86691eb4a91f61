package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/infrascope/pkg/adapters/file"
	"github.com/aretw0/infrascope/pkg/domain"
	"github.com/aretw0/infrascope/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_Contract(t *testing.T) {
	store := file.New(t.TempDir())
	ports.RunArtifactStoreContract(t, store)
}

func TestFileStore_Layout(t *testing.T) {
	dir := t.TempDir()
	latest := filepath.Join(dir, "output.json")
	store := file.New(filepath.Join(dir, "runs"), file.WithLatest(latest))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "r1", domain.Artifact{"summary": "CPU > 85% & rising"}))

	data, err := os.ReadFile(filepath.Join(dir, "runs", "r1.json"))
	require.NoError(t, err)
	assert.Equal(t, "{\n    \"summary\": \"CPU > 85% & rising\"\n}\n", string(data))

	copied, err := os.ReadFile(latest)
	require.NoError(t, err)
	assert.Equal(t, data, copied)

	require.NoError(t, store.Save(ctx, "r2", domain.Artifact{"summary": "second"}))
	copied, err = os.ReadFile(latest)
	require.NoError(t, err)
	assert.Contains(t, string(copied), "second")
}

func TestFileStore_IgnoresForeignFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.json"), 0o755))

	runs, err := file.New(dir).List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestFileStore_MissingDir(t *testing.T) {
	runs, err := file.New(filepath.Join(t.TempDir(), "absent")).List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestFileStore_RejectsUnsafeRunID(t *testing.T) {
	store := file.New(t.TempDir())
	ctx := context.Background()

	for _, id := range []string{"", "..", "../escape", `a\b`} {
		assert.Error(t, store.Save(ctx, id, domain.Artifact{}), id)
		_, err := store.Load(ctx, id)
		assert.Error(t, err, id)
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "output.json")
	require.NoError(t, file.WriteFile(path, domain.Artifact{"anomalies": []any{}}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"anomalies":[]}`, string(data))
}
