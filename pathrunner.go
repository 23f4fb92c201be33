// Package pathrunner locates project roots, walks file trees with
// gitignore-aware filtering, and runs functions over the matched files
// on a pool of isolated workers.
//
// The three pieces compose into a walk-then-run pipeline: a Runner finds
// the project root above a starting path, filters the subtree through
// the root's ignore file and an inclusion rule, and maps a caller
// function over every matched file, returning results keyed by path.
package pathrunner

import (
	"regexp"
	"slices"
)

// DefaultIgnoreFile is the ignore file consulted in the project root.
const DefaultIgnoreFile = ".gitignore"

// DefaultRootMarkers are the files and directories whose presence
// identifies a project root. Any single match is sufficient.
var DefaultRootMarkers = []string{"pyproject.toml", ".git", ".hg"}

// defaultInclude matches source files and their typed-stub variants.
var defaultInclude = regexp.MustCompile(`.+\.pyi?$`)

// Runner walks project trees and runs functions over the files found.
// A Runner is immutable after construction and safe for concurrent use;
// every Walk builds its own matcher and every Run acquires its own
// executor.
type Runner struct {
	factory    ExecutorFactory
	markers    []string
	ignoreFile string
	include    func(path string) bool
}

// Option configures a Runner during construction.
type Option func(*Runner)

// WithExecutorFactory sets the factory used to acquire an executor for
// each Run call. The default is a CPU-sized worker pool.
func WithExecutorFactory(factory ExecutorFactory) Option {
	return func(r *Runner) { r.factory = factory }
}

// WithRootMarkers replaces the marker set used for project root
// discovery.
func WithRootMarkers(markers ...string) Option {
	return func(r *Runner) { r.markers = slices.Clone(markers) }
}

// WithIgnoreFile sets the name of the ignore file looked up in the
// project root.
func WithIgnoreFile(name string) Option {
	return func(r *Runner) { r.ignoreFile = name }
}

// WithIncludeExtensions replaces the inclusion rule with a suffix match
// over the given extensions (e.g. ".go", ".py").
func WithIncludeExtensions(exts ...string) Option {
	cloned := slices.Clone(exts)
	return WithInclude(func(path string) bool {
		for _, ext := range cloned {
			if len(path) > len(ext) && path[len(path)-len(ext):] == ext {
				return true
			}
		}
		return false
	})
}

// WithInclude replaces the inclusion rule with an arbitrary predicate
// over file paths. The predicate is applied to files only, never to
// directories.
func WithInclude(include func(path string) bool) Option {
	return func(r *Runner) { r.include = include }
}

// NewRunner creates a Runner. Without options it looks for
// pyproject.toml, .git and .hg markers, filters through .gitignore, and
// includes .py and .pyi files.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		factory:    DefaultExecutorFactory,
		markers:    slices.Clone(DefaultRootMarkers),
		ignoreFile: DefaultIgnoreFile,
		include:    defaultInclude.MatchString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// DefaultRunner is the runner behind the package-level convenience
// functions. It is constructed once at init and never mutated.
var DefaultRunner = NewRunner()
