// Package aux implements the auxiliary loader: the convenience layer a host
// program uses to compile a named file onto a State's stack, the way the
// embedding API's own luaL_loadfile wraps load around an OS-level file read.
package aux

import (
	"os"

	"github.com/mna/luaj/lang/machine"
	"github.com/mna/luaj/lang/reader"
)

// StatusErrFile reports that the named file could not be opened or read, a
// failure that happens before a single byte reaches the compiler and so has
// no natural place in the embedding API's own Status enum (machine.Status
// never needed a "could not even start" code until a host handed it a path
// instead of a byte stream).
const StatusErrFile machine.Status = 6

// LoadFile reads path and compiles it onto st's stack, exactly as
// State.Load would for an in-memory chunk. An OS-level failure to open or
// read the file is reported as StatusErrFile with the underlying error's
// message pushed as the error object, never reaching the compiler at all.
func LoadFile(st *machine.State, path string) machine.Status {
	f, err := os.Open(path)
	if err != nil {
		st.Push(st.Heap.NewString([]byte(err.Error())))
		return StatusErrFile
	}
	defer f.Close()

	return st.Load(reader.NewChunked(f), path)
}
