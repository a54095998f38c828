package file

import (
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore_Success(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewConfigStore(tmpDir)

	require.NoError(t, err)
	require.NotNil(t, store)
	assert.Equal(t, filepath.Join(tmpDir, "config.toml"), store.Path())
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("author", "ada"))
	require.NoError(t, store.Set("viewer.render_width", 900))
	require.NoError(t, store.Set("remote.requests_per_second", 2.5))
	require.NoError(t, store.Set("debug", true))

	assert.Equal(t, "ada", store.GetString("author"))
	assert.Equal(t, 900, store.GetInt("viewer.render_width"))
	assert.InDelta(t, 2.5, store.GetFloat("remote.requests_per_second"), 1e-9)
	assert.True(t, store.GetBool("debug"))

	// Wrong type
	assert.Equal(t, "", store.GetString("viewer.render_width"))
	assert.Equal(t, 0, store.GetInt("author"))

	// Missing
	_, ok := store.Get("nonexistent")
	assert.False(t, ok)
}

func TestConfigStore_Persistence(t *testing.T) {
	tmpDir := t.TempDir()

	store1, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	require.NoError(t, store1.Set("remote.base_url", "http://localhost:7340"))
	require.NoError(t, store1.Set("remote.burst", 5))
	require.NoError(t, store1.Set("remote.requests_per_second", 3))
	require.NoError(t, store1.Set("author", "ada"))

	store2, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:7340", store2.GetString("remote.base_url"))
	assert.Equal(t, 5, store2.GetInt("remote.burst"))
	assert.InDelta(t, 3.0, store2.GetFloat("remote.requests_per_second"), 1e-9)
	assert.Equal(t, "ada", store2.GetString("author"))
}

func TestConfigStore_WritesNestedTables(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	require.NoError(t, store.Set("viewer.default_color", "#fde047"))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "[viewer]")
	assert.Contains(t, string(data), "default_color = ")
	assert.Contains(t, string(data), "#fde047")
}

func TestConfigStore_LoadsHandWrittenFile(t *testing.T) {
	tmpDir := t.TempDir()
	content := `
author = "grace"

[server]
addr = ":9999"

[remote]
timeout = "3s"
`
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(content), 0600))

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, "grace", store.GetString("author"))
	assert.Equal(t, ":9999", store.GetString("server.addr"))
	assert.Equal(t, "3s", store.GetString("remote.timeout"))
}

func TestConfigStore_FilePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not enforced on windows")
	}
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("remote.token", "secret"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestConfigStore_EmptyFile(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), nil, 0600))

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	_, ok := store.Get("anything")
	assert.False(t, ok)
}

func TestNewConfigStore_InvalidTOML(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("not [valid toml"), 0600))

	_, err := NewConfigStore(tmpDir)
	assert.Error(t, err)
}

func TestConfigStore_Concurrency(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = store.Set("viewer.render_width", n)
			_ = store.GetInt("viewer.render_width")
		}(i)
	}
	wg.Wait()
}

func TestNestMap(t *testing.T) {
	nested := nestMap(map[string]any{
		"author":       "ada",
		"remote.burst": 5,
		"remote.token": "t",
		"a.b.c":        1,
	})

	assert.Equal(t, "ada", nested["author"])
	remote, ok := nested["remote"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 5, remote["burst"])
	assert.Equal(t, map[string]any{"a.b.c": 1}, flattenMap(map[string]any{"a": map[string]any{"b": map[string]any{"c": 1}}}, ""))
}
