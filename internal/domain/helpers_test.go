package domain

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"gooze.dev/pkg/rescan/internal/adapter"
	m "gooze.dev/pkg/rescan/internal/model"
)

// memTree writes files into a fresh in-memory filesystem.
func memTree(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()

	afs := afero.NewMemMapFs()
	for name, content := range files {
		writeMem(t, afs, name, content)
	}

	return afs
}

func writeMem(t *testing.T, afs afero.Fs, name, content string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(afs, name, []byte(content), 0o644))
}

func touchMem(t *testing.T, afs afero.Fs, name string, at time.Time) {
	t.Helper()
	require.NoError(t, afs.Chtimes(name, at, at))
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// faultyFs refuses to open denied paths and reports vanished ones as missing
// after they were listed.
type faultyFs struct {
	afero.Fs
	denied   map[string]error
	vanished map[string]bool
}

func newFaultyFs(base afero.Fs) *faultyFs {
	return &faultyFs{Fs: base, denied: map[string]error{}, vanished: map[string]bool{}}
}

func (f *faultyFs) deny(name string, err error) {
	f.denied[filepath.Clean(name)] = err
}

// vanish keeps name in directory listings but fails every later lookup, as if
// it was deleted between the listing and the stat.
func (f *faultyFs) vanish(name string) {
	f.vanished[filepath.Clean(name)] = true
}

func (f *faultyFs) Open(name string) (afero.File, error) {
	if err, ok := f.denied[filepath.Clean(name)]; ok {
		return nil, &os.PathError{Op: "open", Path: name, Err: err}
	}

	if f.vanished[filepath.Clean(name)] {
		return nil, &os.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}

	file, err := f.Fs.Open(name)
	if err != nil || len(f.vanished) == 0 {
		return file, err
	}

	return typeOnlyDir{File: file}, nil
}

func (f *faultyFs) Stat(name string) (fs.FileInfo, error) {
	if f.vanished[filepath.Clean(name)] {
		return nil, &os.PathError{Op: "stat", Path: name, Err: fs.ErrNotExist}
	}

	return f.Fs.Stat(name)
}

// typeOnlyDir lists names and type bits only, like a directory on disk.
type typeOnlyDir struct {
	afero.File
}

func (d typeOnlyDir) ReadDir(n int) ([]fs.DirEntry, error) {
	infos, err := d.Readdir(n)
	if err != nil {
		return nil, err
	}

	entries := make([]fs.DirEntry, 0, len(infos))
	for _, info := range infos {
		entries = append(entries, fs.FileInfoToDirEntry(info))
	}

	return entries, nil
}

func collectPaths(t *testing.T, w *Walker, roots ...m.Path) ([]string, []error) {
	t.Helper()

	var (
		paths []string
		errs  []error
	)

	for entry, err := range w.Walk(t.Context(), roots...) {
		if err != nil {
			errs = append(errs, err)
			continue
		}

		paths = append(paths, string(entry.Path))
	}

	return paths, errs
}

func memAdapter(afs afero.Fs) adapter.SourceFSAdapter {
	return adapter.NewSourceFSAdapter(afs)
}
