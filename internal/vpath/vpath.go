// Package vpath implements the virtual folder convention used by project
// collections: a display name containing '/' separators denotes nesting, and
// a folder is nothing more than a shared string prefix. There is no real
// tree; every operation here is a pure string function and is total on
// arbitrary input, including names with no separator at all.
package vpath

import "strings"

// Separator is the folder separator inside display names.
const Separator = "/"

// IsDescendant reports whether path is ancestor itself or nested anywhere
// beneath it. An empty ancestor is an ancestor of nothing but itself.
func IsDescendant(path, ancestor string) bool {
	if path == ancestor {
		return true
	}
	return strings.HasPrefix(path, ancestor+Separator)
}

// Rebase replaces a leading oldPrefix with newPrefix. Paths that are not
// descendants of oldPrefix are returned unchanged. Rebase(oldPrefix,
// oldPrefix, newPrefix) yields newPrefix.
func Rebase(path, oldPrefix, newPrefix string) string {
	if path == oldPrefix {
		return newPrefix
	}
	if strings.HasPrefix(path, oldPrefix+Separator) {
		return newPrefix + Separator + path[len(oldPrefix)+len(Separator):]
	}
	return path
}

// ParentOf strips the last segment of path. The second return is false when
// path has no parent (no separator present).
func ParentOf(path string) (string, bool) {
	idx := strings.LastIndex(path, Separator)
	if idx < 0 {
		return "", false
	}
	return path[:idx], true
}

// Base returns the last segment of path, or path itself when it has no
// separator.
func Base(path string) string {
	idx := strings.LastIndex(path, Separator)
	if idx < 0 {
		return path
	}
	return path[idx+len(Separator):]
}

// Depth counts how many folders deep path sits. A bare name has depth 0.
func Depth(path string) int {
	if path == "" {
		return 0
	}
	return strings.Count(path, Separator)
}
