package fsys_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nmoore/fs5600/block"
	"github.com/nmoore/fs5600/fsys"
)

func TestCheckPassesOnFreshlyFormattedImage(t *testing.T) {
	fs := newTestFS(t)
	assert.NoError(t, fsys.Check(fs))
}

func TestCheckPassesAfterVariousMutations(t *testing.T) {
	fs := newTestFS(t)

	_, err := fs.Mkdir(testCaller, "/sub", 0755)
	require.Nil(t, err)
	_, err = fs.Create(testCaller, "/sub/file", 0644)
	require.Nil(t, err)
	_, writeErr := fs.Write("/sub/file", 0, make([]byte, block.BlockSize*2))
	require.Nil(t, writeErr)
	require.Nil(t, fs.Unlink("/sub/file"))

	assert.NoError(t, fsys.Check(fs))
}
