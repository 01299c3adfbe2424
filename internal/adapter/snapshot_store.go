package adapter

import (
	"bytes"
	"encoding/gob"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	m "gooze.dev/pkg/rescan/internal/model"
)

// snapshotDocumentVersion is bumped whenever the persisted layout changes.
const snapshotDocumentVersion = 1

// SnapshotFormat is an on-disk encoding for snapshots.
type SnapshotFormat string

// Supported snapshot formats.
const (
	FormatYAML SnapshotFormat = "yaml"
	FormatTOML SnapshotFormat = "toml"
	FormatJSON SnapshotFormat = "json"
	FormatGob  SnapshotFormat = "gob"
)

// SnapshotFormats lists every supported encoding.
func SnapshotFormats() []SnapshotFormat {
	return []SnapshotFormat{FormatYAML, FormatTOML, FormatJSON, FormatGob}
}

// FormatForPath picks the format from the file extension.
func FormatForPath(path m.Path) (SnapshotFormat, error) {
	switch strings.ToLower(filepath.Ext(string(path))) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	case ".json":
		return FormatJSON, nil
	case ".gob":
		return FormatGob, nil
	}

	return "", fmt.Errorf("unsupported snapshot file extension %q", filepath.Ext(string(path)))
}

// SnapshotStore persists snapshots between process runs.
type SnapshotStore interface {
	SaveSnapshot(path m.Path, snapshot *m.Snapshot) error
	// LoadSnapshot returns (nil, nil) when no snapshot was saved at path.
	LoadSnapshot(path m.Path) (*m.Snapshot, error)
}

type snapshotDocument struct {
	Version    int          `yaml:"version" json:"version" toml:"version"`
	ID         string       `yaml:"id" json:"id" toml:"id"`
	CapturedAt time.Time    `yaml:"captured_at" json:"captured_at" toml:"captured_at"`
	Roots      []string     `yaml:"roots" json:"roots" toml:"roots"`
	Files      []fileRecord `yaml:"files" json:"files" toml:"files"`
}

type fileRecord struct {
	Path      string    `yaml:"path" json:"path" toml:"path"`
	Size      uint64    `yaml:"size" json:"size" toml:"size"`
	ModTime   time.Time `yaml:"mod_time" json:"mod_time" toml:"mod_time"`
	Algorithm string    `yaml:"algorithm,omitempty" json:"algorithm,omitempty" toml:"algorithm,omitempty"`
	Hash      string    `yaml:"hash,omitempty" json:"hash,omitempty" toml:"hash,omitempty"`
}

type snapshotStore struct {
	fs afero.Fs
}

// NewSnapshotStore returns a store writing through the OS filesystem.
func NewSnapshotStore() SnapshotStore {
	return NewSnapshotStoreFs(afero.NewOsFs())
}

// NewSnapshotStoreFs returns a store writing through afs.
func NewSnapshotStoreFs(afs afero.Fs) SnapshotStore {
	return &snapshotStore{fs: afs}
}

// SaveSnapshot encodes snapshot and replaces the file at path atomically.
func (s *snapshotStore) SaveSnapshot(path m.Path, snapshot *m.Snapshot) error {
	if snapshot == nil {
		return errors.New("save snapshot: nil snapshot")
	}

	format, err := FormatForPath(path)
	if err != nil {
		return err
	}

	data, err := encodeSnapshot(format, toDocument(snapshot))
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	dir := filepath.Dir(string(path))
	if err := s.fs.MkdirAll(dir, 0o750); err != nil {
		return m.NewIOError("mkdir", m.Path(dir), err)
	}

	tmp, err := afero.TempFile(s.fs, dir, ".snapshot-*")
	if err != nil {
		return m.NewIOError("create", path, err)
	}

	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = s.fs.Remove(tmpName)

		return m.NewIOError("write", path, err)
	}

	if err := tmp.Close(); err != nil {
		_ = s.fs.Remove(tmpName)
		return m.NewIOError("write", path, err)
	}

	if err := s.fs.Rename(tmpName, string(path)); err != nil {
		_ = s.fs.Remove(tmpName)
		return m.NewIOError("rename", path, err)
	}

	slog.Debug("saved snapshot", "path", path, "id", snapshot.ID(), "files", snapshot.Len(), "format", format)

	return nil
}

// LoadSnapshot decodes the snapshot stored at path.
func (s *snapshotStore) LoadSnapshot(path m.Path) (*m.Snapshot, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}

	data, err := afero.ReadFile(s.fs, string(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}

		return nil, m.NewIOError("read", path, err)
	}

	doc, err := decodeSnapshot(format, data)
	if err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", path, err)
	}

	if doc.Version != snapshotDocumentVersion {
		return nil, fmt.Errorf("decode snapshot %s: unsupported version %d", path, doc.Version)
	}

	snapshot, err := fromDocument(doc)
	if err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", path, err)
	}

	slog.Debug("loaded snapshot", "path", path, "id", snapshot.ID(), "files", snapshot.Len())

	return snapshot, nil
}

func toDocument(snapshot *m.Snapshot) snapshotDocument {
	header := snapshot.Header()

	doc := snapshotDocument{
		Version:    snapshotDocumentVersion,
		ID:         header.ID,
		CapturedAt: header.CapturedAt,
		Roots:      make([]string, 0, len(header.Roots)),
		Files:      make([]fileRecord, 0, snapshot.Len()),
	}

	for _, root := range header.Roots {
		doc.Roots = append(doc.Roots, string(root))
	}

	for path, fp := range snapshot.All() {
		doc.Files = append(doc.Files, fileRecord{
			Path:      string(path),
			Size:      fp.Size,
			ModTime:   fp.ModTime,
			Algorithm: string(fp.Algorithm),
			Hash:      fp.HashString(),
		})
	}

	return doc
}

func fromDocument(doc snapshotDocument) (*m.Snapshot, error) {
	roots := make([]m.Path, 0, len(doc.Roots))
	for _, root := range doc.Roots {
		roots = append(roots, m.Path(root))
	}

	files := make(map[m.Path]m.Fingerprint, len(doc.Files))

	for _, rec := range doc.Files {
		if _, dup := files[m.Path(rec.Path)]; dup {
			return nil, fmt.Errorf("duplicate path %q", rec.Path)
		}

		alg, err := m.ParseHashAlgorithm(rec.Algorithm)
		if err != nil {
			return nil, err
		}

		var digest []byte
		if rec.Hash != "" {
			digest, err = hex.DecodeString(rec.Hash)
			if err != nil {
				return nil, fmt.Errorf("hash of %q: %w", rec.Path, err)
			}
		}

		files[m.Path(rec.Path)] = m.Fingerprint{
			Size:      rec.Size,
			ModTime:   rec.ModTime,
			Hash:      digest,
			Algorithm: alg,
		}
	}

	return m.NewSnapshot(m.SnapshotHeader{ID: doc.ID, CapturedAt: doc.CapturedAt, Roots: roots}, files), nil
}

func encodeSnapshot(format SnapshotFormat, doc snapshotDocument) ([]byte, error) {
	switch format {
	case FormatYAML:
		return yaml.Marshal(doc)
	case FormatTOML:
		return toml.Marshal(doc)
	case FormatJSON:
		return json.MarshalIndent(doc, "", "  ")
	case FormatGob:
		var buf bytes.Buffer
		if err := gob.NewEncoder(&buf).Encode(doc); err != nil {
			return nil, err
		}

		return buf.Bytes(), nil
	}

	return nil, fmt.Errorf("unsupported snapshot format %q", format)
}

func decodeSnapshot(format SnapshotFormat, data []byte) (snapshotDocument, error) {
	var doc snapshotDocument

	var err error

	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &doc)
	case FormatTOML:
		err = toml.Unmarshal(data, &doc)
	case FormatJSON:
		err = json.Unmarshal(data, &doc)
	case FormatGob:
		err = gob.NewDecoder(bytes.NewReader(data)).Decode(&doc)
	default:
		err = fmt.Errorf("unsupported snapshot format %q", format)
	}

	return doc, err
}
