// Package vfs layers mounted search paths behind a single read API. Later
// mounts shadow earlier ones, so patch archives can override base assets.
package vfs

import (
	"archive/zip"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/hack-pad/hackpadfs"
	hackos "github.com/hack-pad/hackpadfs/os"

	"nexium/core"
)

type mountPoint struct {
	prefix string // virtual directory the mount appears under, "" for root
	fsys   fs.FS
	source string // identifier used by Unmount, usually the origin path
	closer func() error
}

// FS resolves virtual paths against an ordered set of mounts plus one
// optional write directory. All methods are safe for concurrent use.
type FS struct {
	mu     sync.RWMutex
	mounts []mountPoint
	write  hackpadfs.FS
}

// New returns an empty filesystem with no mounts.
func New() *FS {
	return &FS{}
}

// normPath cleans a virtual path into the rooted-at-"" form fs.FS expects.
func normPath(p string) string {
	p = path.Clean(strings.ReplaceAll(p, "\\", "/"))
	p = strings.TrimPrefix(p, "/")
	if p == "" || p == "." {
		return "."
	}
	return p
}

// MountDir mounts an OS directory under the virtual prefix. The newest
// mount wins when paths collide.
func (v *FS) MountDir(dir, prefix string) error {
	sub, err := hackos.NewFS().Sub(strings.TrimPrefix(path.Clean(dir), "/"))
	if err != nil {
		return &core.ResourceError{Path: dir, Err: err}
	}
	v.MountFS(sub, prefix, dir)
	return nil
}

// MountArchive mounts a zip archive under the virtual prefix.
func (v *FS) MountArchive(archivePath, prefix string) error {
	rc, err := zip.OpenReader(archivePath)
	if err != nil {
		return &core.ResourceError{Path: archivePath, Err: err}
	}
	v.mu.Lock()
	v.mounts = append(v.mounts, mountPoint{
		prefix: normPath(prefix),
		fsys:   rc,
		source: archivePath,
		closer: rc.Close,
	})
	v.mu.Unlock()
	return nil
}

// MountFS mounts an arbitrary fs.FS. source identifies the mount for
// Unmount.
func (v *FS) MountFS(fsys fs.FS, prefix, source string) {
	v.mu.Lock()
	v.mounts = append(v.mounts, mountPoint{
		prefix: normPath(prefix),
		fsys:   fsys,
		source: source,
	})
	v.mu.Unlock()
}

// Unmount removes the mount registered with the given source. Returns
// false when no such mount exists.
func (v *FS) Unmount(source string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i := len(v.mounts) - 1; i >= 0; i-- {
		m := v.mounts[i]
		if m.source != source {
			continue
		}
		v.mounts = append(v.mounts[:i], v.mounts[i+1:]...)
		if m.closer != nil {
			if err := m.closer(); err != nil {
				core.Logger().Warn("vfs: closing mount", "source", source, "error", err)
			}
		}
		return true
	}
	return false
}

// Close unmounts everything and releases archive handles.
func (v *FS) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, m := range v.mounts {
		if m.closer != nil {
			m.closer()
		}
	}
	v.mounts = nil
	v.write = nil
}

// SetWriteDir designates the OS directory that receives WriteFile output.
// The directory is created when missing.
func (v *FS) SetWriteDir(dir string) error {
	root := hackos.NewFS()
	rel := strings.TrimPrefix(path.Clean(dir), "/")
	if err := hackpadfs.MkdirAll(root, rel, 0o755); err != nil {
		return &core.ResourceError{Path: dir, Err: err}
	}
	sub, err := root.Sub(rel)
	if err != nil {
		return &core.ResourceError{Path: dir, Err: err}
	}
	v.mu.Lock()
	v.write = sub
	v.mu.Unlock()
	return nil
}

// SetWriteFS designates an arbitrary writable filesystem for WriteFile.
func (v *FS) SetWriteFS(fsys hackpadfs.FS) {
	v.mu.Lock()
	v.write = fsys
	v.mu.Unlock()
}

// resolve maps a virtual path into (mount fs, path inside mount), newest
// mount first.
func (v *FS) resolve(name string, fn func(fsys fs.FS, rel string) bool) {
	name = normPath(name)
	v.mu.RLock()
	mounts := make([]mountPoint, len(v.mounts))
	copy(mounts, v.mounts)
	v.mu.RUnlock()

	for i := len(mounts) - 1; i >= 0; i-- {
		m := mounts[i]
		rel := name
		if m.prefix != "." {
			if name == m.prefix {
				rel = "."
			} else if strings.HasPrefix(name, m.prefix+"/") {
				rel = name[len(m.prefix)+1:]
			} else {
				continue
			}
		}
		if fn(m.fsys, rel) {
			return
		}
	}
}

// ReadFile returns the contents of the first mount that has the file.
func (v *FS) ReadFile(name string) ([]byte, error) {
	var data []byte
	var found bool
	v.resolve(name, func(fsys fs.FS, rel string) bool {
		b, err := fs.ReadFile(fsys, rel)
		if err != nil {
			return false
		}
		data, found = b, true
		return true
	})
	if !found {
		return nil, &core.ResourceError{Path: name, Err: fs.ErrNotExist}
	}
	return data, nil
}

// ReadText returns the file contents as a string.
func (v *FS) ReadText(name string) (string, error) {
	b, err := v.ReadFile(name)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Exists reports whether any mount can stat the path.
func (v *FS) Exists(name string) bool {
	_, err := v.Stat(name)
	return err == nil
}

// Stat returns file info from the first mount that has the path.
func (v *FS) Stat(name string) (fs.FileInfo, error) {
	var info fs.FileInfo
	var found bool
	v.resolve(name, func(fsys fs.FS, rel string) bool {
		fi, err := fs.Stat(fsys, rel)
		if err != nil {
			return false
		}
		info, found = fi, true
		return true
	})
	if !found {
		return nil, &core.ResourceError{Path: name, Err: fs.ErrNotExist}
	}
	return info, nil
}

// Open returns a read handle from the first mount that has the file, so FS
// satisfies fs.FS for decoders that stream.
func (v *FS) Open(name string) (fs.File, error) {
	var f fs.File
	var found bool
	v.resolve(name, func(fsys fs.FS, rel string) bool {
		h, err := fsys.Open(rel)
		if err != nil {
			return false
		}
		f, found = h, true
		return true
	})
	if !found {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	return f, nil
}

// ReadDir lists a virtual directory merged across every mount that
// contains it. Entries are deduplicated by name, newest mount winning,
// and returned sorted.
func (v *FS) ReadDir(name string) ([]fs.DirEntry, error) {
	seen := make(map[string]fs.DirEntry)
	var any bool
	v.resolve(name, func(fsys fs.FS, rel string) bool {
		entries, err := fs.ReadDir(fsys, rel)
		if err != nil {
			return false
		}
		any = true
		for _, e := range entries {
			if _, ok := seen[e.Name()]; !ok {
				seen[e.Name()] = e
			}
		}
		return false // keep merging older mounts
	})
	if !any {
		return nil, &core.ResourceError{Path: name, Err: fs.ErrNotExist}
	}
	out := make([]fs.DirEntry, 0, len(seen))
	for _, e := range seen {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out, nil
}

// WriteFile stores data under the write directory, creating parent
// directories as needed.
func (v *FS) WriteFile(name string, data []byte) error {
	v.mu.RLock()
	w := v.write
	v.mu.RUnlock()
	if w == nil {
		return &core.MisuseError{Call: "WriteFile", Msg: "no write dir set"}
	}
	name = normPath(name)
	if dir := path.Dir(name); dir != "." {
		if err := hackpadfs.MkdirAll(w, dir, 0o755); err != nil {
			return &core.ResourceError{Path: name, Err: err}
		}
	}
	if err := hackpadfs.WriteFullFile(w, name, data, 0o644); err != nil {
		return &core.ResourceError{Path: name, Err: err}
	}
	return nil
}
