package model

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
)

// IOErrorKind classifies a filesystem failure.
type IOErrorKind int

const (
	// ErrKindOther is any failure that is neither NotFound nor PermissionDenied.
	ErrKindOther IOErrorKind = iota
	// ErrKindNotFound means the entry does not exist (or vanished).
	ErrKindNotFound
	// ErrKindPermissionDenied means access was refused.
	ErrKindPermissionDenied
)

func (k IOErrorKind) String() string {
	switch k {
	case ErrKindNotFound:
		return "not found"
	case ErrKindPermissionDenied:
		return "permission denied"
	default:
		return "other"
	}
}

// IOError is returned by every filesystem access.
type IOError struct {
	Kind IOErrorKind
	Op   string
	Path Path
	Err  error
}

// NewIOError classifies err. A nil err yields nil; an existing *IOError is
// returned as is.
func NewIOError(op string, path Path, err error) error {
	if err == nil {
		return nil
	}

	var ioErr *IOError
	if errors.As(err, &ioErr) {
		return ioErr
	}

	kind := ErrKindOther

	switch {
	case errors.Is(err, fs.ErrNotExist):
		kind = ErrKindNotFound
	case errors.Is(err, fs.ErrPermission):
		kind = ErrKindPermissionDenied
	}

	return &IOError{Kind: kind, Op: op, Path: path, Err: err}
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %s: %v", e.Op, e.Path, e.Kind, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is an IOError of kind NotFound.
func IsNotFound(err error) bool {
	var ioErr *IOError
	return errors.As(err, &ioErr) && ioErr.Kind == ErrKindNotFound
}

// IsPermissionDenied reports whether err is an IOError of kind PermissionDenied.
func IsPermissionDenied(err error) bool {
	var ioErr *IOError
	return errors.As(err, &ioErr) && ioErr.Kind == ErrKindPermissionDenied
}

// TraversalError is a non-fatal failure on a single entry during a walk.
type TraversalError struct {
	Path Path
	Err  error
}

func (e *TraversalError) Error() string {
	return fmt.Sprintf("skipped %s: %v", e.Path, e.Err)
}

func (e *TraversalError) Unwrap() error {
	return e.Err
}

// FatalScanError means a whole root could not be scanned.
type FatalScanError struct {
	Root Path
	Err  error
}

func (e *FatalScanError) Error() string {
	return fmt.Sprintf("scan root %s: %v", e.Root, e.Err)
}

func (e *FatalScanError) Unwrap() error {
	return e.Err
}

// MissingNamesError lists requested file names a search never found.
type MissingNamesError struct {
	Names []string
}

func (e *MissingNamesError) Error() string {
	return "missing files: " + strings.Join(e.Names, ", ")
}

// Diagnostics collects non-fatal traversal failures.
type Diagnostics []*TraversalError

// Err joins the diagnostics into a single error, or nil when empty.
func (d Diagnostics) Err() error {
	if len(d) == 0 {
		return nil
	}

	errs := make([]error, 0, len(d))
	for _, e := range d {
		errs = append(errs, e)
	}

	return errors.Join(errs...)
}
