package corpus

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_HoldsDemoDocuments(t *testing.T) {
	docs := Default()

	require.Len(t, docs, 3)
	sources := []any{docs[0].Metadata["source"], docs[1].Metadata["source"], docs[2].Metadata["source"]}
	assert.Equal(t, []any{"architecture_overview", "rag_overview", "performance_notes"}, sources)
	assert.Contains(t, docs[1].Text, "retrieves top-k chunks")
}

func TestParse(t *testing.T) {
	docs, err := Parse([]byte(`
documents:
  - text: first
    metadata:
      source: a
      page: 2
  - text: second
`))

	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "a", docs[0].Metadata["source"])
	assert.Equal(t, 2, docs[0].Metadata["page"])
	assert.NotNil(t, docs[1].Metadata)
}

func TestParse_RejectsBlankText(t *testing.T) {
	_, err := Parse([]byte("documents:\n  - text: \"  \"\n"))
	assert.Error(t, err)
}

func TestParse_RejectsInvalidYAML(t *testing.T) {
	_, err := Parse([]byte("documents: [unclosed"))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	docs, err := Load("")
	require.NoError(t, err)
	assert.Len(t, docs, 3)

	path := filepath.Join(t.TempDir(), "corpus.yaml")
	require.NoError(t, os.WriteFile(path, []byte("documents:\n  - text: custom\n"), 0o600))
	docs, err = Load(path)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "custom", docs[0].Text)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
