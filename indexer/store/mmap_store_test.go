package store

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMmapBlockStore_BlockView(t *testing.T) {
	buf := make([]byte, 64)
	for i := 0; i < 16; i++ {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(float32(i)))
	}
	path := filepath.Join(t.TempDir(), "blocks.bin")
	require.NoError(t, os.WriteFile(path, buf, 0o644))

	s, err := OpenMmap(path)
	require.NoError(t, err)
	assert.Len(t, s.Bytes(), 64)

	v := s.BlockView(16, 4)
	require.Len(t, v, 4)
	assert.Equal(t, []float32{4, 5, 6, 7}, v)

	assert.Nil(t, s.BlockView(2, 1), "unaligned offset")
	assert.Nil(t, s.BlockView(48, 5), "past the end")
	assert.Nil(t, s.BlockView(-4, 1))
	assert.Nil(t, s.BlockView(0, 0))

	require.NoError(t, s.Close())
	assert.Nil(t, s.BlockView(0, 1))
	require.NoError(t, s.Close())
}

func TestOpenMmap_Missing(t *testing.T) {
	_, err := OpenMmap(filepath.Join(t.TempDir(), "nope.bin"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
