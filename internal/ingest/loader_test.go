package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDirMarkdown(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b_deck.md"), []byte("# Pitch\n\nSome   spaced    text\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a_deck.md"), []byte("first deck"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	docs, err := LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	// Sorted by name, non-document files skipped.
	assert.Equal(t, "a_deck.md", docs[0].Name)
	assert.Equal(t, "b_deck.md", docs[1].Name)

	// Whitespace is normalized.
	assert.Equal(t, "# Pitch\nSome spaced text", docs[1].Text)
	assert.Equal(t, filepath.Join(dir, "a_deck.md"), docs[0].ID)
	assert.False(t, docs[0].ModifiedAt.IsZero())
}

func TestLoadDirMissing(t *testing.T) {
	_, err := LoadDir(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}

func TestLoadFileUnsupportedType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deck.docx")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	_, err := LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported document type")
}

func TestLoadFileCorruptPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deck.pdf")
	require.NoError(t, os.WriteFile(path, []byte("not a pdf"), 0o644))

	_, err := LoadFile(path)
	require.Error(t, err)
}

func TestNormalizeWhitespace(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"a\n\n\nb", "a\nb"},
		{"  padded   line  ", "padded line"},
		{"tabs\tand   spaces", "tabs and spaces"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeWhitespace(tt.in))
	}
}
