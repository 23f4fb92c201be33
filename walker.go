package pathrunner

import (
	"iter"
	"os"
	"path/filepath"
)

// Walk generates all significant file paths, starting from the given
// path.
//
// It finds the project root for the path, builds an ignore matcher from
// the root's ignore file, and recursively descends from the path,
// yielding every file that matches the runner's include rule. Entries
// matched by the ignore matcher are pruned entirely: children of an
// ignored directory are never visited.
//
// Yielded paths keep the form of the input: a relative starting path
// yields relative paths, an absolute one yields absolute paths. Ignore
// patterns are evaluated against that same form, so patterns anchored to
// the root behave consistently however the walk was started.
//
// The returned sequence is lazy and finite. Ranging over it again
// performs an independent fresh traversal. Symlinks to regular files are
// yielded like files; symlinked directories are not descended into, so
// traversal stays finite on cyclic links. A subdirectory that cannot be
// read ends the traversal with a WalkError rather than silently
// truncating the file set.
func (r *Runner) Walk(path string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		root, err := r.ProjectRoot(path)
		if err != nil {
			yield("", err)
			return
		}
		ignore, err := r.Gitignore(root)
		if err != nil {
			yield("", err)
			return
		}

		r.walk(path, ignore, yield)
	}
}

// walk descends from path, yielding included files. Returns false once
// the consumer stops or an error ends the traversal.
func (r *Runner) walk(path string, ignore Matcher, yield func(string, error) bool) bool {
	if ignore.Match(path) {
		return true
	}

	info, err := os.Lstat(path)
	if err != nil {
		// Entries that vanished or were never there are not files and
		// not directories; they are skipped like any other special entry.
		return true
	}

	if info.Mode()&os.ModeSymlink != 0 {
		target, err := os.Stat(path)
		if err != nil || target.IsDir() {
			return true
		}
		info = target
	}

	switch {
	case info.Mode().IsRegular():
		if r.include(path) {
			return yield(path, nil)
		}
		return true

	case info.IsDir():
		// Directory-only patterns carry a trailing slash and must still
		// prune the directory itself.
		if ignore.Match(path + string(filepath.Separator)) {
			return true
		}

		entries, err := os.ReadDir(path)
		if err != nil {
			yield("", &WalkError{Path: path, Err: err})
			return false
		}
		for _, entry := range entries {
			if !r.walk(filepath.Join(path, entry.Name()), ignore, yield) {
				return false
			}
		}
		return true

	default:
		// Sockets, devices and the like are skipped silently.
		return true
	}
}
