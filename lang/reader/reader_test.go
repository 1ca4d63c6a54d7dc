package reader

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBytes(t *testing.T) {
	r := NewBytes([]byte("hello"))
	b, err := r.Next()
	require.NoError(t, err)
	require.Equal(t, "hello", string(b))

	_, err = r.Next()
	require.ErrorIs(t, err, io.EOF)
}

func TestChunked(t *testing.T) {
	src := strings.Repeat("x", chunkSize+10)
	r := NewChunked(strings.NewReader(src))

	var got bytes.Buffer
	for {
		b, err := r.Next()
		got.Write(b)
		if err != nil {
			require.ErrorIs(t, err, io.EOF)
			break
		}
	}
	require.Equal(t, src, got.String())
}

func TestChunkedEmpty(t *testing.T) {
	r := NewChunked(strings.NewReader(""))
	_, err := r.Next()
	require.ErrorIs(t, err, io.EOF)
}
