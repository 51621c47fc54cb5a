// Package discover finds media files below a root directory.
package discover

import (
	"io/fs"
	"path/filepath"
	"regexp"
	"strings"
)

// DefaultPattern matches the media container formats whisper can ingest.
// It is applied to the full path, case-sensitively.
var DefaultPattern = regexp.MustCompile(`.*\.(wav|mp3|mp4|avi|mov|flv|mkv|wmv)$`)

type Options struct {
	// Pattern filters paths; nil means DefaultPattern.
	Pattern *regexp.Regexp
	// Ignore drops any path containing the substring. Empty disables it.
	Ignore string
	// Transform, when set, is applied to each surviving path.
	Transform func(string) string
}

// Files walks root recursively and returns the matching file paths in
// traversal order. Directories themselves are never returned. Walk errors,
// including a non-existent root, propagate unchanged.
func Files(root string, opts Options) ([]string, error) {
	pattern := opts.Pattern
	if pattern == nil {
		pattern = DefaultPattern
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !pattern.MatchString(path) {
			return nil
		}
		if opts.Ignore != "" && strings.Contains(path, opts.Ignore) {
			return nil
		}
		if opts.Transform != nil {
			path = opts.Transform(path)
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return files, nil
}
