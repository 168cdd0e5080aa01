package feed

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheWrite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	c := NewCache(dir)

	require.NoError(t, c.Write([]byte("a\n"), []byte("b\n")))
	require.NoError(t, c.Write([]byte("c\n"), []byte("d\n")))

	fix, err := os.ReadFile(c.FixPath())
	require.NoError(t, err)
	assert.Equal(t, "c\n", string(fix))
	interp, err := os.ReadFile(c.InterpPath())
	require.NoError(t, err)
	assert.Equal(t, "d\n", string(interp))

	// No temp or backup files are left behind.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{FixFile, InterpFile}, names)
}

func TestCacheWrite_FailedSecondRenameRestoresFirst(t *testing.T) {
	dir := t.TempDir()
	c := NewCache(dir)
	require.NoError(t, c.Write([]byte("old fix\n"), []byte("old interp\n")))

	// A directory in place of the interp file makes its rename fail.
	require.NoError(t, os.Remove(c.InterpPath()))
	require.NoError(t, os.Mkdir(c.InterpPath(), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(c.InterpPath(), "x"), nil, 0o644))

	err := c.Write([]byte("new fix\n"), []byte("new interp\n"))
	require.Error(t, err)

	fix, err := os.ReadFile(c.FixPath())
	require.NoError(t, err)
	assert.Equal(t, "old fix\n", string(fix))
}
