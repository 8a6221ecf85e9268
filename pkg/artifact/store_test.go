package artifact

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *FileStore {
	t.Helper()
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestWriteStatOpenRemove(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	ref, size, err := s.Write(ctx, "proposals/proposal_1.pdf", func(w io.Writer) error {
		_, err := w.Write([]byte("%PDF-1.3 body"))
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, "proposals/proposal_1.pdf", ref)
	assert.Equal(t, int64(13), size)

	got, err := s.Stat(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, size, got)

	rc, n, err := s.Open(ctx, ref)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.3 body", string(data))
	assert.Equal(t, size, n)

	require.NoError(t, s.Remove(ctx, ref))
	_, err = s.Stat(ctx, ref)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, s.Remove(ctx, ref), "removing twice is fine")
}

func TestWrite_ZeroBytesLeavesNothing(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	ref, size, err := s.Write(ctx, "empty.pdf", func(io.Writer) error { return nil })

	require.NoError(t, err)
	assert.Equal(t, int64(0), size)
	_, err = s.Stat(ctx, ref)
	assert.ErrorIs(t, err, ErrNotFound)

	entries, err := os.ReadDir(s.Root())
	require.NoError(t, err)
	assert.Empty(t, entries, "temp files must be cleaned up")
}

func TestWrite_FillErrorKeepsPreviousFile(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	_, _, err := s.Write(ctx, "doc.pdf", func(w io.Writer) error {
		_, err := w.Write([]byte("v1"))
		return err
	})
	require.NoError(t, err)

	boom := errors.New("boom")
	_, _, err = s.Write(ctx, "doc.pdf", func(w io.Writer) error {
		_, _ = w.Write([]byte("partial"))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	rc, _, err := s.Open(ctx, "doc.pdf")
	require.NoError(t, err)
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	assert.Equal(t, "v1", string(data))
}

func TestResolve_RejectsEscapes(t *testing.T) {
	s := newStore(t)

	for _, ref := range []string{"", "  ", "..", "../x.pdf", "a/../../x.pdf", "/etc/passwd"} {
		_, err := s.Stat(context.Background(), ref)
		assert.ErrorIs(t, err, ErrInvalidRef, ref)
	}
}

func TestResolve_AcceptsAbsolutePathUnderRoot(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	_, _, err := s.Write(ctx, "a.pdf", func(w io.Writer) error {
		_, err := w.Write([]byte("x"))
		return err
	})
	require.NoError(t, err)

	size, err := s.Stat(ctx, filepath.Join(s.Root(), "a.pdf"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), size)
}
