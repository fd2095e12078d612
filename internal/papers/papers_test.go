package papers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
}

func TestSnapshotMissingDirectory(t *testing.T) {
	t.Parallel()

	store := NewStore(filepath.Join(t.TempDir(), "absent"))
	_, err := store.Snapshot()
	assert.ErrorIs(t, err, ErrNoDirectory)
}

func TestSnapshotListsOnlyPDFsSorted(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	touch(t, dir, "b.pdf")
	touch(t, dir, "a.pdf")
	touch(t, dir, "notes.txt")
	touch(t, dir, "upper.PDF")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.pdf"), 0o755)) // dir, ignored

	set, err := NewStore(dir).Snapshot()
	require.NoError(t, err)
	assert.Equal(t, DocumentSet{"a.pdf", "b.pdf", "upper.PDF"}, set)
}

func TestSnapshotEmptyDirectory(t *testing.T) {
	t.Parallel()

	set, err := NewStore(t.TempDir()).Snapshot()
	require.NoError(t, err)
	assert.Empty(t, set)
}

func TestDocumentSetEqual(t *testing.T) {
	t.Parallel()

	assert.True(t, DocumentSet{"a.pdf", "b.pdf"}.Equal(DocumentSet{"a.pdf", "b.pdf"}))
	assert.True(t, DocumentSet(nil).Equal(nil))
	assert.False(t, DocumentSet{"a.pdf"}.Equal(DocumentSet{"b.pdf"}), "same count, different files")
	assert.False(t, DocumentSet{"a.pdf"}.Equal(DocumentSet{"a.pdf", "b.pdf"}))
}

func TestDocumentSetHash(t *testing.T) {
	t.Parallel()

	a := DocumentSet{"a.pdf", "b.pdf"}
	b := DocumentSet{"a.pdf", "b.pdf"}
	c := DocumentSet{"a.pdf", "c.pdf"}

	assert.Equal(t, a.Hash(), b.Hash())
	assert.NotEqual(t, a.Hash(), c.Hash())
}

func TestPath(t *testing.T) {
	t.Parallel()

	store := NewStore("my_papers")
	assert.Equal(t, filepath.Join("my_papers", "x.pdf"), store.Path("x.pdf"))
}
