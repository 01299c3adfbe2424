package domain

import (
	"fmt"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	m "gooze.dev/pkg/rescan/internal/model"
)

// Candidate is a file the walker offers to a PathMatcher. Rel is the
// slash-separated path relative to the walk root. Info is nil when the matcher
// does not ask for metadata.
type Candidate struct {
	Path m.Path
	Rel  string
	Info *m.Metadata
}

// PathMatcher decides which files a walk reports. Implementations must be pure.
type PathMatcher interface {
	Match(c Candidate) bool
}

// MetadataMatcher is implemented by matchers that need file metadata. The
// walker skips the metadata read for matchers that don't implement it.
type MetadataMatcher interface {
	PathMatcher
	NeedsMetadata() bool
}

func needsMetadata(matcher PathMatcher) bool {
	mm, ok := matcher.(MetadataMatcher)
	return ok && mm.NeedsMetadata()
}

// MatcherFunc adapts a path-only function.
type MatcherFunc func(c Candidate) bool

// Match implements PathMatcher.
func (f MatcherFunc) Match(c Candidate) bool {
	return f(c)
}

// MetadataMatcherFunc adapts a function that inspects Candidate.Info.
type MetadataMatcherFunc func(c Candidate) bool

// Match implements PathMatcher.
func (f MetadataMatcherFunc) Match(c Candidate) bool {
	return f(c)
}

// NeedsMetadata implements MetadataMatcher.
func (f MetadataMatcherFunc) NeedsMetadata() bool {
	return true
}

// MatchAll accepts every file.
func MatchAll() PathMatcher {
	return MatcherFunc(func(Candidate) bool { return true })
}

// Extensions matches files by extension, case-insensitively. The leading dot
// is optional.
func Extensions(exts ...string) PathMatcher {
	set := make(map[string]bool, len(exts))

	for _, ext := range exts {
		ext = strings.TrimSpace(ext)
		if ext == "" {
			continue
		}

		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}

		set[strings.ToLower(ext)] = true
	}

	return MatcherFunc(func(c Candidate) bool {
		return set[strings.ToLower(filepath.Ext(string(c.Path)))]
	})
}

// Names matches files whose base name is one of names.
func Names(names ...string) PathMatcher {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}

	return MatcherFunc(func(c Candidate) bool {
		return set[c.Path.Base()]
	})
}

// Glob matches the relative path against doublestar patterns: `**` spans any
// number of directories and `{a,b}` lists alternatives. Patterns without a
// slash match the base name at any depth.
func Glob(patterns ...string) (PathMatcher, error) {
	cleaned := make([]string, 0, len(patterns))

	for _, p := range patterns {
		p = strings.TrimSpace(filepath.ToSlash(p))
		if p == "" {
			continue
		}

		p = strings.TrimPrefix(p, "./")
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid glob %q: %w", p, doublestar.ErrBadPattern)
		}

		cleaned = append(cleaned, p)
	}

	return MatcherFunc(func(c Candidate) bool {
		for _, p := range cleaned {
			if matchGlob(p, c.Rel) {
				return true
			}
		}

		return false
	}), nil
}

func matchGlob(pattern, rel string) bool {
	if !strings.Contains(pattern, "/") {
		rel = path.Base(rel)
	}

	ok, _ := doublestar.Match(pattern, rel)

	return ok
}

// Regexp matches when any expression matches the relative path.
func Regexp(exprs ...string) (PathMatcher, error) {
	compiled := make([]*regexp.Regexp, 0, len(exprs))

	for _, expr := range exprs {
		if strings.TrimSpace(expr) == "" {
			continue
		}

		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", expr, err)
		}

		compiled = append(compiled, re)
	}

	return MatcherFunc(func(c Candidate) bool {
		for _, re := range compiled {
			if re.MatchString(c.Rel) {
				return true
			}
		}

		return false
	}), nil
}

// Not inverts a matcher.
func Not(matcher PathMatcher) PathMatcher {
	return combined{
		match: func(c Candidate) bool { return !matcher.Match(c) },
		meta:  needsMetadata(matcher),
	}
}

// AllOf matches when every matcher matches. An empty list matches everything.
func AllOf(matchers ...PathMatcher) PathMatcher {
	return combined{
		match: func(c Candidate) bool {
			for _, mt := range matchers {
				if !mt.Match(c) {
					return false
				}
			}

			return true
		},
		meta: anyNeedsMetadata(matchers),
	}
}

// AnyOf matches when at least one matcher matches.
func AnyOf(matchers ...PathMatcher) PathMatcher {
	return combined{
		match: func(c Candidate) bool {
			for _, mt := range matchers {
				if mt.Match(c) {
					return true
				}
			}

			return false
		},
		meta: anyNeedsMetadata(matchers),
	}
}

// MinSize matches files of at least size bytes.
func MinSize(size int64) PathMatcher {
	return MetadataMatcherFunc(func(c Candidate) bool {
		return c.Info != nil && c.Info.Size >= size
	})
}

type combined struct {
	match func(Candidate) bool
	meta  bool
}

func (c combined) Match(cand Candidate) bool { return c.match(cand) }

func (c combined) NeedsMetadata() bool { return c.meta }

func anyNeedsMetadata(matchers []PathMatcher) bool {
	for _, mt := range matchers {
		if needsMetadata(mt) {
			return true
		}
	}

	return false
}
