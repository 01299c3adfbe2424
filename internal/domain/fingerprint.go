package domain

import (
	"gooze.dev/pkg/rescan/internal/adapter"
	m "gooze.dev/pkg/rescan/internal/model"
)

// Fingerprinter turns walker metadata into fingerprints.
//
// Metadata and content are read at different instants, so a file written
// during a scan may pair old metadata with new content or the reverse. The
// next rescan sees the settled state.
type Fingerprinter struct {
	fs  adapter.SourceFSAdapter
	alg m.HashAlgorithm
}

// NewFingerprinter creates a Fingerprinter. With HashNone no content is read.
func NewFingerprinter(fs adapter.SourceFSAdapter, alg m.HashAlgorithm) *Fingerprinter {
	return &Fingerprinter{fs: fs, alg: alg}
}

// Algorithm returns the configured content digest.
func (f *Fingerprinter) Algorithm() m.HashAlgorithm {
	return f.alg
}

// Fingerprint summarizes the file described by entry.
func (f *Fingerprinter) Fingerprint(entry WalkEntry) (m.Fingerprint, error) {
	fp := FromMetadata(entry.Info)

	if f.alg == m.HashNone {
		return fp, nil
	}

	digest, err := f.fs.HashFile(entry.Path, f.alg)
	if err != nil {
		return m.Fingerprint{}, err
	}

	fp.Hash = digest
	fp.Algorithm = f.alg

	return fp, nil
}

// FromMetadata builds a metadata-only fingerprint.
func FromMetadata(info m.Metadata) m.Fingerprint {
	size := info.Size
	if size < 0 {
		size = 0
	}

	return m.Fingerprint{
		Size:    uint64(size),
		ModTime: info.ModTime,
	}
}
