package pathrunner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
)

// Matcher reports whether a path matches a set of ignore patterns. A
// Matcher is immutable after construction and safe for concurrent use.
type Matcher interface {
	Match(path string) bool
}

// gitignoreMatcher wraps a compiled gitignore pattern set.
type gitignoreMatcher struct {
	patterns *gitignore.GitIgnore
}

func (m *gitignoreMatcher) Match(path string) bool {
	return m.patterns.MatchesPath(path)
}

// nothingMatcher matches no path. Used when a root has no ignore file.
type nothingMatcher struct{}

func (nothingMatcher) Match(string) bool { return false }

// Gitignore builds a Matcher from the ignore file in the given directory.
//
// If the directory contains no ignore file, a matcher that matches
// nothing is returned. Only the single ignore file directly inside dir is
// consulted; nested ignore files are intentionally not merged, since each
// walk builds its matcher from the project root located for that walk.
// Returns a NotDirectoryError if dir is not a directory.
func (r *Runner) Gitignore(dir string) (Matcher, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, &NotDirectoryError{Path: dir}
	}

	ignorePath := filepath.Join(dir, r.ignoreFile)
	data, err := os.ReadFile(ignorePath)
	if os.IsNotExist(err) {
		return nothingMatcher{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", ignorePath, err)
	}

	lines := strings.Split(string(data), "\n")
	return &gitignoreMatcher{patterns: gitignore.CompileIgnoreLines(lines...)}, nil
}
