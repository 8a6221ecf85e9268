package main

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteDocument_WritesOnSuccess(t *testing.T) {
	out := filepath.Join(t.TempDir(), "proposal.pdf")

	err := writeDocument(out, func(w io.Writer) error {
		_, err := w.Write([]byte("%PDF-1.3 body"))
		return err
	})

	require.NoError(t, err)
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.3 body", string(data))
}

func TestWriteDocument_RenderFailureLeavesNoFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "proposal.pdf")
	boom := errors.New("layout crashed")

	err := writeDocument(out, func(w io.Writer) error {
		_, _ = w.Write([]byte("%PDF"))
		return boom
	})

	assert.ErrorIs(t, err, boom)
	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

func TestWriteDocument_EmptyOutputLeavesNoFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "proposal.pdf")

	err := writeDocument(out, func(io.Writer) error { return nil })

	assert.Error(t, err)
	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}
