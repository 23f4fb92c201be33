package pathrunner

import (
	"context"
	"fmt"
	"iter"
	"slices"
)

// Func is the caller-supplied function run once per path. It must be
// pure with respect to the batch: no ordering dependency on other tasks
// and no shared mutable state with the caller beyond what it captures by
// value.
type Func[T any] func(path string) (T, error)

// RunWith runs fn once for each path on the runner's executor and
// returns a mapping from path to result.
//
// Paths are materialized up front, so a lazy input is only traversed
// once. A fresh executor is acquired from the runner's factory and
// closed before returning, on every exit path. The first failing task
// aborts the batch: RunWith returns a TaskError and no partial mapping.
// If paths contains duplicates, the later result wins for that key.
func RunWith[T any](ctx context.Context, r *Runner, paths []string, fn Func[T]) (map[string]T, error) {
	ordered := slices.Clone(paths)

	tasks := make([]Task, len(ordered))
	for i, path := range ordered {
		tasks[i] = bindTask(path, fn)
	}

	executor := r.factory()
	defer executor.Close()

	results, err := executor.Map(ctx, tasks)
	if err != nil {
		return nil, err
	}

	mapping := make(map[string]T, len(ordered))
	for i, path := range ordered {
		value, ok := results[i].(T)
		if !ok && results[i] != nil {
			return nil, fmt.Errorf("unexpected result type %T for %s", results[i], path)
		}
		mapping[path] = value
	}
	return mapping, nil
}

// bindTask captures one path by value into an executor task. Failures,
// including panics in fn, surface as a TaskError naming the path.
func bindTask[T any](path string, fn Func[T]) Task {
	return func() (result any, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = &TaskError{Path: path, Err: fmt.Errorf("panic: %v", r)}
			}
		}()

		value, err := fn(path)
		if err != nil {
			return nil, &TaskError{Path: path, Err: err}
		}
		return value, nil
	}
}

// WalkAndRunWith walks each starting path in order, gathers the full
// output (duplicates across starting paths preserved), and runs fn over
// the aggregate in a single executor batch. Batching into one run
// amortizes worker startup instead of paying it per starting path.
func WalkAndRunWith[T any](ctx context.Context, r *Runner, paths []string, fn Func[T]) (map[string]T, error) {
	var all []string
	for _, path := range paths {
		files, err := collect(r.Walk(path))
		if err != nil {
			return nil, err
		}
		all = append(all, files...)
	}

	return RunWith(ctx, r, all, fn)
}

// collect drains a walk sequence, failing on the first traversal error.
func collect(seq iter.Seq2[string, error]) ([]string, error) {
	var paths []string
	for path, err := range seq {
		if err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// ProjectRoot finds the project root above path using the default
// runner.
func ProjectRoot(path string) (string, error) {
	return DefaultRunner.ProjectRoot(path)
}

// Gitignore builds an ignore matcher for the given directory using the
// default runner.
func Gitignore(dir string) (Matcher, error) {
	return DefaultRunner.Gitignore(dir)
}

// Walk walks from path using the default runner.
func Walk(path string) iter.Seq2[string, error] {
	return DefaultRunner.Walk(path)
}

// Run runs fn over paths using the default runner.
func Run[T any](ctx context.Context, paths []string, fn Func[T]) (map[string]T, error) {
	return RunWith(ctx, DefaultRunner, paths, fn)
}

// WalkAndRun walks each starting path and runs fn over the gathered
// files using the default runner.
func WalkAndRun[T any](ctx context.Context, paths []string, fn Func[T]) (map[string]T, error) {
	return WalkAndRunWith(ctx, DefaultRunner, paths, fn)
}
