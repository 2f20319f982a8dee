package engine

import (
	"errors"
	"fmt"

	"github.com/danieljhkim/c3crawl/internal/layout"
	"github.com/danieljhkim/c3crawl/internal/manifest"
)

var (
	// ErrNotFound indicates a missing project root, manifest or layout.
	ErrNotFound = errors.New("not found")

	// ErrParse indicates malformed manifest markup or layout JSON.
	ErrParse = errors.New("parse error")

	// ErrIO indicates a read or write failure.
	ErrIO = errors.New("i/o failure")

	// ErrValidation indicates an invalid request.
	ErrValidation = errors.New("validation failed")
)

// WarningKind classifies a non-fatal problem.
type WarningKind string

const (
	// WarnStaleEntry: the manifest references a layout missing on disk.
	WarnStaleEntry WarningKind = "stale_entry"

	// WarnUnreadable: a layout exists but could not be read or parsed.
	WarnUnreadable WarningKind = "unreadable"

	// WarnInvalidPath: a layout path escapes the project root.
	WarnInvalidPath WarningKind = "invalid_path"

	// WarnNoMatch: a conversion targeted uids that matched nothing.
	WarnNoMatch WarningKind = "no_match"
)

// Warning is a non-fatal problem reported alongside a result.
type Warning struct {
	Kind    WarningKind `json:"kind"`
	Path    string      `json:"path"`
	Message string      `json:"message"`
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Path, w.Message)
}

// classify attaches the engine sentinel matching a leaf package error. The
// leaf error stays in the chain.
func classify(err error) error {
	switch {
	case errors.Is(err, layout.ErrNotFound), errors.Is(err, manifest.ErrNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, layout.ErrParse), errors.Is(err, manifest.ErrParse):
		return fmt.Errorf("%w: %w", ErrParse, err)
	default:
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
}

// loadWarning turns a per-file load failure into a warning.
func loadWarning(path string, err error) Warning {
	kind := WarnUnreadable
	if errors.Is(err, layout.ErrNotFound) {
		kind = WarnStaleEntry
	}
	return Warning{Kind: kind, Path: path, Message: err.Error()}
}
