package aux_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mna/luaj/lang/aux"
	"github.com/mna/luaj/lang/machine"
)

func TestLoadFileMissing(t *testing.T) {
	st := machine.NewState(nil)
	status := aux.LoadFile(st, filepath.Join(t.TempDir(), "does-not-exist.luaj"))
	require.Equal(t, aux.StatusErrFile, status)
	require.Equal(t, 1, st.Top())
}

func TestLoadFileOK(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chunk.luaj")
	require.NoError(t, os.WriteFile(path, []byte("return 1 + 1"), 0o600))

	st := machine.NewState(nil)
	status := aux.LoadFile(st, path)
	require.Equal(t, machine.StatusOK, status)
	require.Equal(t, 1, st.Top())
}

func TestLoadFileSyntaxError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.luaj")
	require.NoError(t, os.WriteFile(path, []byte("local = "), 0o600))

	st := machine.NewState(nil)
	status := aux.LoadFile(st, path)
	require.Equal(t, machine.StatusSyntaxErr, status)
}
