package git

import (
	"fmt"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimitedFsFileLimit(t *testing.T) {
	t.Parallel()

	fs := NewLimitedFs(memfs.New(), 2, 1024)

	for i := 0; i < 2; i++ {
		f, err := fs.Create(fmt.Sprintf("file-%d", i))
		require.NoError(t, err)
		require.NoError(t, f.Close())
	}

	_, err := fs.Create("file-2")
	assert.ErrorContains(t, err, "file limit")
}

func TestLimitedFsSizeLimit(t *testing.T) {
	t.Parallel()

	fs := NewLimitedFs(memfs.New(), 10, 8)

	f, err := fs.Create("data")
	require.NoError(t, err)
	defer f.Close()

	_, err = f.Write([]byte("12345"))
	require.NoError(t, err)

	// Size is counted across all writes, not per write.
	_, err = f.Write([]byte("6789"))
	assert.ErrorContains(t, err, "size limit")
}

func TestLimitedFsOpenFileCountsCreations(t *testing.T) {
	t.Parallel()

	fs := NewLimitedFs(memfs.New(), 1, 1024)

	f, err := fs.Create("existing")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	// Reopening without O_CREATE does not count.
	f, err = fs.OpenFile("existing", 0, 0644)
	require.NoError(t, err)
	require.NoError(t, f.Close())
}
