// Package adapter contains filesystem and persistence adapters for the scan engine.
package adapter

import (
	"crypto/sha256"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"github.com/zeebo/xxh3"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"

	m "gooze.dev/pkg/rescan/internal/model"
)

// SourceFSAdapter abstracts filesystem-specific operations that the domain layer
// relies on when scanning trees. Every method fails with *model.IOError.
//
//nolint:interfacebloat // A richer interface keeps the walker decoupled from os/fs.
type SourceFSAdapter interface {
	// ListDirectory returns the entries of a directory sorted by name.
	ListDirectory(path m.Path) ([]m.DirEntry, error)

	// ReadMetadata returns metadata for path without following a final symlink.
	ReadMetadata(path m.Path) (m.Metadata, error)

	// Stat returns metadata for path, following symlinks.
	Stat(path m.Path) (m.Metadata, error)

	// RealPath resolves every symlink in path and returns a canonical form
	// suitable for identity comparisons.
	RealPath(path m.Path) (m.Path, error)

	// Open returns a reader over the file contents.
	Open(path m.Path) (io.ReadCloser, error)

	// ReadBytes loads a file from disk and returns its contents.
	ReadBytes(path m.Path) ([]byte, error)

	// ReadText loads a file and decodes it from the named encoding into UTF-8.
	ReadText(path m.Path, encoding string) (string, error)

	// HashFile streams the file through the digest named by alg.
	HashFile(path m.Path, alg m.HashAlgorithm) ([]byte, error)
}

// LocalSourceFSAdapter is the concrete implementation of SourceFSAdapter backed
// by an afero filesystem.
type LocalSourceFSAdapter struct {
	fs afero.Fs
}

// NewLocalSourceFSAdapter constructs an adapter over the operating system
// filesystem.
func NewLocalSourceFSAdapter() *LocalSourceFSAdapter {
	return NewSourceFSAdapter(afero.NewOsFs())
}

// NewSourceFSAdapter wraps any afero filesystem. In-memory filesystems are
// used by tests.
func NewSourceFSAdapter(afs afero.Fs) *LocalSourceFSAdapter {
	return &LocalSourceFSAdapter{fs: afs}
}

// Fs exposes the underlying afero filesystem.
func (a *LocalSourceFSAdapter) Fs() afero.Fs {
	return a.fs
}

type dirEntryReader interface {
	ReadDir(n int) ([]fs.DirEntry, error)
}

// ListDirectory reads the names and kinds of the entries of path. When the
// underlying file supports ReadDir only type bits are read; otherwise the full
// metadata returned by Readdir is attached to each entry.
func (a *LocalSourceFSAdapter) ListDirectory(path m.Path) ([]m.DirEntry, error) {
	dir, err := a.fs.Open(string(path))
	if err != nil {
		return nil, m.NewIOError("list", path, err)
	}

	defer func() {
		_ = dir.Close()
	}()

	var entries []m.DirEntry

	if reader, ok := dir.(dirEntryReader); ok {
		dirEntries, err := reader.ReadDir(-1)
		if err != nil {
			return nil, m.NewIOError("list", path, err)
		}

		entries = make([]m.DirEntry, 0, len(dirEntries))
		for _, de := range dirEntries {
			entries = append(entries, m.DirEntry{Name: de.Name(), Kind: m.KindOf(de.Type())})
		}
	} else {
		infos, err := dir.Readdir(-1)
		if err != nil {
			return nil, m.NewIOError("list", path, err)
		}

		entries = make([]m.DirEntry, 0, len(infos))
		for _, info := range infos {
			md := m.MetadataFromInfo(info)
			entries = append(entries, m.DirEntry{Name: md.Name, Kind: md.Kind, Info: &md})
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})

	return entries, nil
}

// ReadMetadata returns lstat metadata when the filesystem supports it.
func (a *LocalSourceFSAdapter) ReadMetadata(path m.Path) (m.Metadata, error) {
	if lstater, ok := a.fs.(afero.Lstater); ok {
		info, _, err := lstater.LstatIfPossible(string(path))
		if err != nil {
			return m.Metadata{}, m.NewIOError("lstat", path, err)
		}

		return m.MetadataFromInfo(info), nil
	}

	return a.Stat(path)
}

// Stat returns metadata following symlinks.
func (a *LocalSourceFSAdapter) Stat(path m.Path) (m.Metadata, error) {
	info, err := a.fs.Stat(string(path))
	if err != nil {
		return m.Metadata{}, m.NewIOError("stat", path, err)
	}

	return m.MetadataFromInfo(info), nil
}

// RealPath resolves symlinks on the OS filesystem. Filesystems without symlink
// support return the cleaned absolute path.
func (a *LocalSourceFSAdapter) RealPath(path m.Path) (m.Path, error) {
	p := filepath.Clean(string(path))

	if _, ok := a.fs.(*afero.OsFs); ok {
		resolved, err := filepath.EvalSymlinks(p)
		if err != nil {
			return "", m.NewIOError("resolve", path, err)
		}

		p = resolved
	}

	abs, err := filepath.Abs(p)
	if err != nil {
		return "", m.NewIOError("resolve", path, err)
	}

	return m.Path(abs), nil
}

// Open returns the file for streaming reads.
func (a *LocalSourceFSAdapter) Open(path m.Path) (io.ReadCloser, error) {
	f, err := a.fs.Open(string(path))
	if err != nil {
		return nil, m.NewIOError("open", path, err)
	}

	return f, nil
}

// ReadBytes loads file contents.
func (a *LocalSourceFSAdapter) ReadBytes(path m.Path) ([]byte, error) {
	data, err := afero.ReadFile(a.fs, string(path))
	if err != nil {
		return nil, m.NewIOError("read", path, err)
	}

	return data, nil
}

// ReadText decodes file contents from encoding. An empty encoding means UTF-8.
// Encoding names are WHATWG labels such as "utf-8", "latin1" or "utf-16le".
func (a *LocalSourceFSAdapter) ReadText(path m.Path, encoding string) (string, error) {
	label := strings.TrimSpace(encoding)
	if label == "" {
		label = "utf-8"
	}

	enc, err := htmlindex.Get(label)
	if err != nil {
		return "", m.NewIOError("decode", path, fmt.Errorf("unsupported encoding %q: %w", encoding, err))
	}

	f, err := a.Open(path)
	if err != nil {
		return "", err
	}

	defer func() {
		_ = f.Close()
	}()

	data, err := io.ReadAll(transform.NewReader(f, enc.NewDecoder()))
	if err != nil {
		return "", m.NewIOError("read", path, err)
	}

	return string(data), nil
}

// HashFile returns the digest of the file at path.
func (a *LocalSourceFSAdapter) HashFile(path m.Path, alg m.HashAlgorithm) ([]byte, error) {
	f, err := a.Open(path)
	if err != nil {
		return nil, err
	}

	defer func() {
		_ = f.Close()
	}()

	switch alg {
	case m.HashXXH3:
		h := xxh3.New()
		if _, err := io.Copy(h, f); err != nil {
			return nil, m.NewIOError("hash", path, err)
		}

		sum := h.Sum128().Bytes()

		return sum[:], nil
	case m.HashSHA256:
		h := sha256.New()
		if _, err := io.Copy(h, f); err != nil {
			return nil, m.NewIOError("hash", path, err)
		}

		return h.Sum(nil), nil
	case m.HashNone:
		return nil, nil
	}

	return nil, m.NewIOError("hash", path, fmt.Errorf("unknown hash algorithm %q", alg))
}
