package shm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateExclusiveThenAttach(t *testing.T) {
	baseDir = t.TempDir()

	res, err := CreateExclusive("/topics-demo", 4096)
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Len(t, res.Mapping.Bytes, 4096)
	require.NoError(t, res.Mapping.Close())

	m, err := Attach("/topics-demo")
	require.NoError(t, err)
	assert.Len(t, m.Bytes, 4096)
	require.NoError(t, m.Close())
}

func TestCreateExclusiveRace(t *testing.T) {
	baseDir = t.TempDir()

	first, err := CreateExclusive("/race", 8192)
	require.NoError(t, err)
	assert.True(t, first.Created)

	second, err := CreateExclusive("/race", 4096)
	require.NoError(t, err)
	assert.False(t, second.Created)
	// second must see the actual on-disk size, not its own hint.
	assert.Len(t, second.Mapping.Bytes, 8192)

	require.NoError(t, first.Mapping.Close())
	require.NoError(t, second.Mapping.Close())
}

func TestAttachMissing(t *testing.T) {
	baseDir = t.TempDir()

	_, err := Attach("/nope")
	require.Error(t, err)
}

func TestSizeAndRemove(t *testing.T) {
	baseDir = t.TempDir()

	res, err := CreateExclusive("/sized", 2048)
	require.NoError(t, err)
	require.NoError(t, res.Mapping.Close())

	size, err := Size("/sized")
	require.NoError(t, err)
	assert.EqualValues(t, 2048, size)

	require.NoError(t, Remove("/sized"))
	_, err = Size("/sized")
	assert.Error(t, err)
}
