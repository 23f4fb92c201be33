package pathrunner

import (
	"fmt"
	"os"
	"path/filepath"
)

// ProjectRoot finds the project root, looking upward from the given path.
//
// The path is resolved to its canonical absolute form first, following
// symlinks where the path exists. The search walks the ancestor chain
// from nearest to farthest, starting at the path itself when it is a
// directory, and returns the first directory that directly contains any
// of the runner's root markers. If no ancestor contains a marker, the
// filesystem root is returned.
//
// The path does not need to exist: markers are checked by existence,
// which is simply false under a removed directory.
func (r *Runner) ProjectRoot(path string) (string, error) {
	real, err := resolvePath(path)
	if err != nil {
		return "", err
	}

	dir := real
	if info, err := os.Stat(real); err != nil || !info.IsDir() {
		dir = filepath.Dir(real)
	}

	for {
		for _, marker := range r.markers {
			if _, err := os.Lstat(filepath.Join(dir, marker)); err == nil {
				return dir, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached the filesystem root without finding a marker.
			return dir, nil
		}
		dir = parent
	}
}

// resolvePath returns the canonical absolute form of path with symlinks
// resolved. Unlike filepath.EvalSymlinks it tolerates paths that do not
// exist: the longest existing ancestor is resolved and the non-existent
// remainder is rejoined unchanged.
func resolvePath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}

	var tail []string
	dir := abs
	for {
		parent := filepath.Dir(dir)
		if parent == dir {
			// Hit the filesystem root without finding an existing
			// ancestor; the absolute form is as canonical as it gets.
			return abs, nil
		}
		tail = append([]string{filepath.Base(dir)}, tail...)
		dir = parent

		if resolved, err := filepath.EvalSymlinks(dir); err == nil {
			return filepath.Join(append([]string{resolved}, tail...)...), nil
		}
	}
}
