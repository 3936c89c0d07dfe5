// Package dialog defines the contract to the host's native file pickers.
// The engine never talks to the window system itself; the editor shell
// supplies an implementation and the engine only consumes the outcome.
// Cancellation is an ordinary outcome, never an error.
package dialog

import "context"

// FileFilter narrows a picker to one artifact family, e.g. project files.
type FileFilter struct {
	Name       string
	Extensions []string
}

// SaveResult is the outcome of a save picker.
type SaveResult struct {
	Canceled bool
	Path     string
}

// OpenResult is the outcome of an open picker. Paths holds one entry for a
// single-select picker.
type OpenResult struct {
	Canceled bool
	Paths    []string
}

// Picker is the host-side dialog surface.
type Picker interface {
	// PickSave asks for a destination path. defaultName seeds the file name
	// field.
	PickSave(ctx context.Context, defaultName string, filters []FileFilter) (SaveResult, error)

	// PickOpen asks for one or more existing files.
	PickOpen(ctx context.Context, multiple bool, filters []FileFilter) (OpenResult, error)
}

// ProjectFilter matches the project container files the engine reads and
// writes.
func ProjectFilter() []FileFilter {
	return []FileFilter{{Name: "R5V Project", Extensions: []string{"r5vp"}}}
}

// Static is a Picker with pre-decided answers, used headless and in tests.
type Static struct {
	SavePath  string
	OpenPaths []string
}

func (s Static) PickSave(ctx context.Context, defaultName string, filters []FileFilter) (SaveResult, error) {
	if s.SavePath == "" {
		return SaveResult{Canceled: true}, nil
	}
	return SaveResult{Path: s.SavePath}, nil
}

func (s Static) PickOpen(ctx context.Context, multiple bool, filters []FileFilter) (OpenResult, error) {
	if len(s.OpenPaths) == 0 {
		return OpenResult{Canceled: true}, nil
	}
	paths := s.OpenPaths
	if !multiple {
		paths = paths[:1]
	}
	return OpenResult{Paths: paths}, nil
}
