package assets

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spaghettifunk/glitch/engine/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeShader(t *testing.T, dir, name, vertex, fragment string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".vert"), []byte(vertex), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".frag"), []byte(fragment), 0o644))
}

func TestLoadShader(t *testing.T) {
	root := t.TempDir()
	writeShader(t, filepath.Join(root, "shaders"), "quad", "void main() { gl_Position = vec4(0); }", "out vec4 c; void main() { c = vec4(1); }")
	require.NoError(t, os.WriteFile(filepath.Join(root, "readme.txt"), []byte("ignored"), 0o644))

	am, err := NewAssetManager(&AssetManagerConfig{AssetsDir: root})
	require.NoError(t, err)
	defer am.Shutdown()

	infos := am.Assets(AssetTypeShader)
	require.Len(t, infos, 2)
	assert.Equal(t, filepath.Join("shaders", "quad.frag"), infos[0].Path)
	assert.Equal(t, "quad", infos[1].Name)

	source, err := am.LoadShader("quad")
	require.NoError(t, err)
	assert.Contains(t, source.Vertex, "gl_Position")
	assert.Contains(t, source.Fragment, "vec4(1)")

	_, err = am.LoadShader("missing")
	assert.ErrorIs(t, err, core.ErrAssetNotFound)
}

func TestLoadShaderMissingStage(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "lonely.vert"), []byte("void main() {}"), 0o644))

	am, err := NewAssetManager(&AssetManagerConfig{AssetsDir: root})
	require.NoError(t, err)

	_, err = am.LoadShader("lonely")
	assert.ErrorIs(t, err, core.ErrAssetNotFound)
}

func TestMissingAssetsDir(t *testing.T) {
	_, err := NewAssetManager(&AssetManagerConfig{AssetsDir: filepath.Join(t.TempDir(), "nope")})
	assert.ErrorIs(t, err, core.ErrAssetNotFound)
}

func TestChangedIsDrained(t *testing.T) {
	root := t.TempDir()
	am, err := NewAssetManager(&AssetManagerConfig{AssetsDir: root})
	require.NoError(t, err)

	am.handleFileEvent(filepath.Join(root, "b.frag"), true)
	am.handleFileEvent(filepath.Join(root, "a.vert"), true)
	am.handleFileEvent(filepath.Join(root, "a.frag"), true)
	am.handleFileEvent(filepath.Join(root, "notes.md"), true)

	assert.Equal(t, []string{"a", "b"}, am.Changed(AssetTypeShader))
	assert.Empty(t, am.Changed(AssetTypeShader))
}

func TestHotReloadRecordsWrites(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "shaders")
	writeShader(t, dir, "tint", "void main() {}", "void main() {}")

	am, err := NewAssetManager(&AssetManagerConfig{AssetsDir: root, HotReload: true})
	require.NoError(t, err)
	defer am.Shutdown()
	assert.Empty(t, am.Changed(AssetTypeShader))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "tint.frag"), []byte("void main() { }"), 0o644))

	var changed []string
	require.Eventually(t, func() bool {
		changed = append(changed, am.Changed(AssetTypeShader)...)
		return len(changed) > 0
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, "tint", changed[0])

	require.NoError(t, am.Shutdown())
	require.NoError(t, am.Shutdown())
}
