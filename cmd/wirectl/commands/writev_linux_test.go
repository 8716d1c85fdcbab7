//go:build linux

package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rawbytedev/wirechain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteGather(t *testing.T) {
	c := wirechain.NewWithCapacity(5, wirechain.Options{Policy: wirechain.Policy{SegmentSize: 16, Headroom: 9}})
	data := make([]byte, 20000)
	for i := range data {
		data[i] = byte(i)
	}
	_, err := c.Write(data)
	require.NoError(t, err)
	view, _ := c.BuildGatherView()
	require.Greater(t, len(view), maxIovecs)

	path := filepath.Join(t.TempDir(), "out.bin")
	f, err := os.Create(path)
	require.NoError(t, err)
	n, err := writeGather(f, view)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.EqualValues(t, len(data), n)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, data, got)
	// the view itself is not consumed
	assert.Equal(t, len(data), view.Len())
}

func TestConsume(t *testing.T) {
	iovs := [][]byte{[]byte("ab"), []byte("cde"), []byte("f")}
	iovs = consume(iovs, 3)
	require.Len(t, iovs, 2)
	assert.Equal(t, "de", string(iovs[0]))
	assert.Empty(t, consume(iovs, 3))
}
