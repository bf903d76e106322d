package tilecache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskCacheRoundTrip(t *testing.T) {
	c, err := NewDisk(t.TempDir(), 10)
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Set("3:5:4", []byte("tile-bytes")))
	got, ok := c.Get("3:5:4")
	require.True(t, ok)
	assert.Equal(t, []byte("tile-bytes"), got)

	_, ok = c.Get("9:9:9")
	assert.False(t, ok)
}

func TestDiskCacheRejectsNonPositiveLimit(t *testing.T) {
	_, err := NewDisk(t.TempDir(), 0)
	assert.Error(t, err)
}

func TestDiskCacheSurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	c, err := NewDisk(dir, 10)
	require.NoError(t, err)
	require.NoError(t, c.Set("1:2:3", []byte("persisted")))
	c.Close()

	c2, err := NewDisk(dir, 10)
	require.NoError(t, err)
	defer c2.Close()

	got, ok := c2.Get("1:2:3")
	require.True(t, ok, "tiles written by a previous run are found again")
	assert.Equal(t, []byte("persisted"), got)

	entries, size, _ := c2.Stats()
	assert.Equal(t, 1, entries)
	assert.Equal(t, int64(len("persisted")), size)
}

func TestDiskCacheOverwriteReplacesSize(t *testing.T) {
	c, err := NewDisk(t.TempDir(), 10)
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Set("k", []byte("aaaaaaaaaa")))
	require.NoError(t, c.Set("k", []byte("bb")))

	entries, size, _ := c.Stats()
	assert.Equal(t, 1, entries)
	assert.Equal(t, int64(2), size)
}

func TestDiskCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c, err := NewDisk(t.TempDir(), 10)
	require.NoError(t, err)
	defer c.Close()
	// shrink the limit so a handful of entries overflows it
	c.maxSize = 3000

	payload := make([]byte, 1000)
	require.NoError(t, c.Set("old", payload))
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, c.Set("mid", payload))
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, c.Set("new", payload))
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, c.Set("newest", payload))

	// over the limit now; the worker evicts down to the 90% target
	deadline := time.Now().Add(2 * time.Second)
	for {
		_, size, _ := c.Stats()
		if size <= 2700 || time.Now().After(deadline) {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	_, ok := c.Get("old")
	assert.False(t, ok, "the oldest entry goes first")
	_, ok = c.Get("newest")
	assert.True(t, ok)
}

func TestDiskCacheClear(t *testing.T) {
	c, err := NewDisk(t.TempDir(), 10)
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Set("a", []byte("x")))
	require.NoError(t, c.Set("b", []byte("y")))
	require.NoError(t, c.Clear())

	entries, size, _ := c.Stats()
	assert.Zero(t, entries)
	assert.Zero(t, size)
	_, ok := c.Get("a")
	assert.False(t, ok)
}
