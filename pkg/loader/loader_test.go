package loader_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xhad/relay/pkg/loader"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadFile_Text(t *testing.T) {
	l := loader.NewWithConfig(loader.LoaderConfig{ChunkSize: 100, ChunkOverlap: 20}, nil)

	tmpDir := t.TempDir()
	path := writeFile(t, tmpDir, "notes.txt", "Ollama runs models locally. Embeddings come from the same server.")

	chunks, err := l.LoadFile(path)
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	assert.Equal(t, "Ollama runs models locally. Embeddings come from the same server.", chunks[0].Text)
	assert.Equal(t, "notes.txt", chunks[0].Filename)
	assert.Equal(t, ".txt", chunks[0].FileType)
	assert.Equal(t, path, chunks[0].Source)
	assert.Equal(t, 0, chunks[0].ChunkIndex)
	assert.Equal(t, 1, chunks[0].TotalChunks)
}

func TestLoadFile_ChunkIndexing(t *testing.T) {
	l := loader.NewWithConfig(loader.LoaderConfig{ChunkSize: 80, ChunkOverlap: 10}, nil)

	tmpDir := t.TempDir()
	content := "First paragraph about housing prices in the metro area.\n\n" +
		"Second paragraph about loan pre-approval requirements.\n\n" +
		"Third paragraph about neighborhood school ratings."
	path := writeFile(t, tmpDir, "guide.md", content)

	chunks, err := l.LoadFile(path)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.ChunkIndex)
		assert.Equal(t, len(chunks), chunk.TotalChunks)
		assert.Equal(t, "guide.md", chunk.Filename)
	}
}

func TestLoadFile_CSV(t *testing.T) {
	l := loader.NewWithConfig(loader.LoaderConfig{}, nil)

	tmpDir := t.TempDir()
	path := writeFile(t, tmpDir, "listings.csv", "address,price\n12 Oak St,450000\n9 Elm Ave,380000\n")

	chunks, err := l.LoadFile(path)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	assert.Contains(t, chunks[0].Text, "address, price")
	assert.Contains(t, chunks[0].Text, "12 Oak St, 450000")
}

func TestLoadFile_UnsupportedFormat(t *testing.T) {
	l := loader.NewWithConfig(loader.LoaderConfig{}, nil)

	tmpDir := t.TempDir()
	path := writeFile(t, tmpDir, "image.png", "not really an image")

	_, err := l.LoadFile(path)
	assert.ErrorIs(t, err, loader.ErrUnsupportedFormat)
}

func TestLoadFile_Missing(t *testing.T) {
	l := loader.NewWithConfig(loader.LoaderConfig{}, nil)

	_, err := l.LoadFile(filepath.Join(t.TempDir(), "nope.txt"))
	assert.ErrorIs(t, err, loader.ErrSourceNotFound)
}

func TestLoadDirectory_SkipsFailures(t *testing.T) {
	l := loader.NewWithConfig(loader.LoaderConfig{ChunkSize: 200, ChunkOverlap: 20}, nil)

	tmpDir := t.TempDir()
	writeFile(t, tmpDir, "good.txt", "Plain text survives.")
	writeFile(t, tmpDir, "bad.xyz", "unknown extension")
	writeFile(t, tmpDir, "broken.pdf", "not a real pdf")
	require.NoError(t, os.Mkdir(filepath.Join(tmpDir, "subdir"), 0755))

	chunks, err := l.LoadDirectory(tmpDir)
	require.NoError(t, err)

	require.Len(t, chunks, 1)
	assert.Equal(t, "good.txt", chunks[0].Filename)
}

func TestLoadDirectory_Missing(t *testing.T) {
	l := loader.NewWithConfig(loader.LoaderConfig{}, nil)

	_, err := l.LoadDirectory(filepath.Join(t.TempDir(), "absent"))
	assert.ErrorIs(t, err, loader.ErrSourceNotFound)
}

func TestSupportedFormats(t *testing.T) {
	l := loader.NewWithConfig(loader.LoaderConfig{}, nil)

	formats := l.SupportedFormats()
	assert.Contains(t, formats, ".txt")
	assert.Contains(t, formats, ".md")
	assert.Contains(t, formats, ".pdf")
	assert.Contains(t, formats, ".csv")
	assert.Contains(t, formats, ".docx")
}
