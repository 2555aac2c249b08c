package cache

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/l3aro/pycritic/pkg/diagnostic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func report(path string) *diagnostic.Report {
	return &diagnostic.Report{Path: path}
}

func TestKeyCoversContentAndConfig(t *testing.T) {
	base := Key([]byte("x = 1\n"), "depth=3")

	assert.Equal(t, base, Key([]byte("x = 1\n"), "depth=3"), "the key is deterministic")
	assert.NotEqual(t, base, Key([]byte("x = 2\n"), "depth=3"), "content changes the key")
	assert.NotEqual(t, base, Key([]byte("x = 1\n"), "depth=4"), "config changes the key")
	assert.Len(t, base, 64)
}

func TestPutAndGet(t *testing.T) {
	c := New(10)

	_, found := c.Get("missing")
	assert.False(t, found)

	c.Put("a", report("a.py"))
	got, found := c.Get("a")
	require.True(t, found)
	assert.Equal(t, "a.py", got.Path)
	assert.Equal(t, 1, c.Len())
}

func TestPutOverwritesExistingKey(t *testing.T) {
	c := New(10)
	c.Put("a", report("old.py"))
	c.Put("a", report("new.py"))

	got, found := c.Get("a")
	require.True(t, found)
	assert.Equal(t, "new.py", got.Path)
	assert.Equal(t, 1, c.Len())
}

func TestLRUEviction(t *testing.T) {
	c := New(2)
	c.Put("a", report("a.py"))
	c.Put("b", report("b.py"))

	// Touch a so b becomes the least recently used.
	_, found := c.Get("a")
	require.True(t, found)

	c.Put("c", report("c.py"))
	assert.Equal(t, 2, c.Len())

	_, found = c.Get("b")
	assert.False(t, found, "b was least recently used")
	_, found = c.Get("a")
	assert.True(t, found)
	_, found = c.Get("c")
	assert.True(t, found)
}

func TestUnlimitedCacheNeverEvicts(t *testing.T) {
	c := New(0)
	for i := 0; i < 100; i++ {
		c.Put(Key([]byte{byte(i)}, ""), report("f.py"))
	}
	assert.Equal(t, 100, c.Len())
}

func TestStats(t *testing.T) {
	c := New(10)
	c.Put("a", report("a.py"))

	c.Get("a")
	c.Get("a")
	c.Get("nope")

	s := c.Stats()
	assert.Equal(t, 1, s.Length)
	assert.Equal(t, int64(2), s.Hits)
	assert.Equal(t, int64(1), s.Misses)
}

func TestClear(t *testing.T) {
	c := New(10)
	c.Put("a", report("a.py"))
	c.Clear()
	assert.Equal(t, 0, c.Len())
	_, found := c.Get("a")
	assert.False(t, found)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	c := New(10)
	c.Put("a", &diagnostic.Report{
		Path: "a.py",
		Diagnostics: []diagnostic.Diagnostic{{
			Rule:     "bare-except",
			Severity: diagnostic.SeverityWarning,
			Message:  "m",
		}},
	})
	c.Put("b", report("b.py"))

	var buf bytes.Buffer
	require.NoError(t, c.Save(&buf))

	restored := New(10)
	require.NoError(t, restored.Load(&buf))
	assert.Equal(t, 2, restored.Len())

	got, found := restored.Get("a")
	require.True(t, found)
	assert.Equal(t, "a.py", got.Path)
	require.Len(t, got.Diagnostics, 1)
	assert.Equal(t, "bare-except", got.Diagnostics[0].Rule)
}

func TestLoadRestoresRecencyOrder(t *testing.T) {
	c := New(3)
	c.Put("a", report("a.py"))
	c.Put("b", report("b.py"))
	c.Put("c", report("c.py"))
	c.Get("a") // a is now most recent

	var buf bytes.Buffer
	require.NoError(t, c.Save(&buf))

	restored := New(3)
	require.NoError(t, restored.Load(&buf))

	// Adding one more should evict b, the oldest surviving entry.
	restored.Put("d", report("d.py"))
	_, found := restored.Get("b")
	assert.False(t, found)
	_, found = restored.Get("a")
	assert.True(t, found)
}

func TestPersistAndLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports.msgpack")

	c := New(10)
	c.Put("a", report("a.py"))
	require.NoError(t, PersistToFile(c, path))

	restored := New(10)
	require.NoError(t, LoadFromFile(restored, path))
	assert.Equal(t, 1, restored.Len())
}

func TestLoadFromMissingFileIsNotAnError(t *testing.T) {
	c := New(10)
	require.NoError(t, LoadFromFile(c, filepath.Join(t.TempDir(), "absent.msgpack")))
	assert.Equal(t, 0, c.Len())
}
