// Package model defines the data structures shared by the scan engine.
package model

import (
	"io/fs"
	"path/filepath"
	"time"
)

// Path represents a file system path.
type Path string

// String returns the path as a plain string.
func (p Path) String() string {
	return string(p)
}

// Base returns the last element of the path.
func (p Path) Base() string {
	return filepath.Base(string(p))
}

// Join appends elements to the path.
func (p Path) Join(elem ...string) Path {
	return Path(filepath.Join(append([]string{string(p)}, elem...)...))
}

// EntryKind classifies a directory entry.
type EntryKind int

const (
	// KindFile is a regular file.
	KindFile EntryKind = iota
	// KindDir is a directory.
	KindDir
	// KindSymlink is a symbolic link that has not been resolved yet.
	KindSymlink
	// KindOther covers devices, sockets, pipes and the like.
	KindOther
)

func (k EntryKind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDir:
		return "dir"
	case KindSymlink:
		return "symlink"
	case KindOther:
		return "other"
	default:
		return "unknown"
	}
}

// KindOf maps a file mode onto an EntryKind.
func KindOf(mode fs.FileMode) EntryKind {
	switch {
	case mode&fs.ModeSymlink != 0:
		return KindSymlink
	case mode.IsDir():
		return KindDir
	case mode.IsRegular():
		return KindFile
	default:
		return KindOther
	}
}

// Metadata is the raw filesystem state of a single entry.
type Metadata struct {
	Name    string
	Size    int64
	ModTime time.Time
	Mode    fs.FileMode
	Kind    EntryKind
}

// MetadataFromInfo converts an fs.FileInfo.
func MetadataFromInfo(info fs.FileInfo) Metadata {
	return Metadata{
		Name:    info.Name(),
		Size:    info.Size(),
		ModTime: info.ModTime(),
		Mode:    info.Mode(),
		Kind:    KindOf(info.Mode()),
	}
}

// DirEntry is one name returned by a directory listing. Info is set when the
// listing already had to read metadata for the entry.
type DirEntry struct {
	Name string
	Kind EntryKind
	Info *Metadata
}
