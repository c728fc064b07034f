// Package execxtest provides a scripted execx.Runner for tests.
package execxtest

import (
	"context"
	"strings"
	"sync"

	"github.com/dataspace-k8s/dsctl/internal/execx"
)

// Call records one invocation observed by the fake.
type Call struct {
	Program string
	Args    []string
	Dir     string
}

// Line renders the call as a single command line for assertions.
func (c Call) Line() string {
	return strings.Join(append([]string{c.Program}, c.Args...), " ")
}

// Runner is a scripted execx.Runner. Commands are matched against stubbed
// prefixes of the full command line; the longest matching prefix wins.
// Unmatched commands succeed with an empty Result.
type Runner struct {
	mu      sync.Mutex
	calls   []Call
	results map[string]execx.Result
	errs    map[string]error
	missing map[string]bool
}

// NewRunner constructs an empty fake runner.
func NewRunner() *Runner {
	return &Runner{
		results: make(map[string]execx.Result),
		errs:    make(map[string]error),
		missing: make(map[string]bool),
	}
}

// Stub registers a Result for command lines starting with prefix.
func (r *Runner) Stub(prefix string, res execx.Result) *Runner {
	r.results[prefix] = res
	return r
}

// StubError registers a launch error for command lines starting with prefix.
func (r *Runner) StubError(prefix string, err error) *Runner {
	r.errs[prefix] = err
	return r
}

// SetMissing marks an executable as absent for LookPath.
func (r *Runner) SetMissing(name string) *Runner {
	r.missing[name] = true
	return r
}

// Calls returns a copy of all recorded invocations.
func (r *Runner) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, len(r.calls))
	copy(out, r.calls)
	return out
}

// CallLines returns the recorded invocations rendered as command lines.
func (r *Runner) CallLines() []string {
	calls := r.Calls()
	lines := make([]string, len(calls))
	for i, c := range calls {
		lines[i] = c.Line()
	}
	return lines
}

// Run records the call and replays the longest matching stub.
func (r *Runner) Run(_ context.Context, cmd execx.Command) (execx.Result, error) {
	r.mu.Lock()
	r.calls = append(r.calls, Call{Program: cmd.Program, Args: cmd.Args, Dir: cmd.Dir})
	r.mu.Unlock()

	line := strings.Join(append([]string{cmd.Program}, cmd.Args...), " ")

	if prefix, ok := longestPrefix(r.errs, line); ok {
		return execx.Result{}, r.errs[prefix]
	}
	if prefix, ok := longestPrefix(r.results, line); ok {
		return r.results[prefix], nil
	}
	return execx.Result{}, nil
}

// LookPath fails for executables registered via SetMissing.
func (r *Runner) LookPath(name string) error {
	if r.missing[name] {
		return &execx.Error{Program: name, Err: errNotFound}
	}
	return nil
}

var errNotFound = notFoundError{}

type notFoundError struct{}

func (notFoundError) Error() string { return "executable file not found in $PATH" }

func longestPrefix[V any](m map[string]V, line string) (string, bool) {
	best := ""
	found := false
	for prefix := range m {
		if strings.HasPrefix(line, prefix) && len(prefix) >= len(best) {
			best = prefix
			found = true
		}
	}
	return best, found
}
