package vfs

import (
	"io/fs"
	"testing"

	"github.com/hack-pad/hackpadfs"
	"github.com/hack-pad/hackpadfs/mem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memWith(t *testing.T, files map[string]string) *mem.FS {
	t.Helper()
	fsys, err := mem.NewFS()
	require.NoError(t, err)
	for name, content := range files {
		dir := ""
		for i := len(name) - 1; i >= 0; i-- {
			if name[i] == '/' {
				dir = name[:i]
				break
			}
		}
		if dir != "" {
			require.NoError(t, hackpadfs.MkdirAll(fsys, dir, 0o755))
		}
		require.NoError(t, hackpadfs.WriteFullFile(fsys, name, []byte(content), 0o644))
	}
	return fsys
}

func TestReadFileFromMount(t *testing.T) {
	v := New()
	v.MountFS(memWith(t, map[string]string{"textures/wood.png": "pixels"}), "", "base")

	data, err := v.ReadFile("textures/wood.png")
	require.NoError(t, err)
	assert.Equal(t, "pixels", string(data))

	text, err := v.ReadText("/textures/wood.png")
	require.NoError(t, err)
	assert.Equal(t, "pixels", text)
}

func TestMissingFile(t *testing.T) {
	v := New()
	v.MountFS(memWith(t, nil), "", "base")

	_, err := v.ReadFile("nope.bin")
	assert.Error(t, err)
	assert.False(t, v.Exists("nope.bin"))
}

func TestNewerMountShadowsOlder(t *testing.T) {
	v := New()
	v.MountFS(memWith(t, map[string]string{"cfg.txt": "base"}), "", "base")
	v.MountFS(memWith(t, map[string]string{"cfg.txt": "patch"}), "", "patch")

	text, err := v.ReadText("cfg.txt")
	require.NoError(t, err)
	assert.Equal(t, "patch", text)

	// Removing the patch exposes the base file again.
	require.True(t, v.Unmount("patch"))
	text, err = v.ReadText("cfg.txt")
	require.NoError(t, err)
	assert.Equal(t, "base", text)
}

func TestUnmountUnknownSource(t *testing.T) {
	v := New()
	assert.False(t, v.Unmount("ghost"))
}

func TestMountPrefix(t *testing.T) {
	v := New()
	v.MountFS(memWith(t, map[string]string{"model.glb": "bytes"}), "assets/models", "models")

	assert.True(t, v.Exists("assets/models/model.glb"))
	assert.False(t, v.Exists("model.glb"))

	data, err := v.ReadFile("assets/models/model.glb")
	require.NoError(t, err)
	assert.Equal(t, "bytes", string(data))
}

func TestReadDirMergesMounts(t *testing.T) {
	v := New()
	v.MountFS(memWith(t, map[string]string{"maps/a.txt": "1", "maps/b.txt": "2"}), "", "base")
	v.MountFS(memWith(t, map[string]string{"maps/b.txt": "3", "maps/c.txt": "4"}), "", "patch")

	entries, err := v.ReadDir("maps")
	require.NoError(t, err)
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
	}
	assert.Equal(t, []string{"a.txt", "b.txt", "c.txt"}, names)
}

func TestStat(t *testing.T) {
	v := New()
	v.MountFS(memWith(t, map[string]string{"a.bin": "12345"}), "", "base")

	info, err := v.Stat("a.bin")
	require.NoError(t, err)
	assert.Equal(t, int64(5), info.Size())
	assert.False(t, info.IsDir())
}

func TestWriteFile(t *testing.T) {
	v := New()
	out := memWith(t, nil)
	v.SetWriteFS(out)

	require.NoError(t, v.WriteFile("saves/slot1.dat", []byte("state")))

	data, err := fs.ReadFile(out, "saves/slot1.dat")
	require.NoError(t, err)
	assert.Equal(t, "state", string(data))
}

func TestWriteFileWithoutWriteDir(t *testing.T) {
	v := New()
	assert.Error(t, v.WriteFile("x.txt", []byte("y")))
}
