// Package tooldoubles provides test doubles for the external-tool runner so
// packager tests never spawn real processes.
package tooldoubles

import (
	"context"

	"github.com/pkgpatch/pkgpatch/infrastructure/tools"
)

// Call records one invocation passed to the fake runner.
type Call struct {
	Command   tools.Command
	Streaming bool
}

// FakeRunner records every command and replies from canned results.
type FakeRunner struct {
	Calls []Call

	// Results maps a step name to its canned result. Steps without an entry
	// succeed with empty output.
	Results map[string]*tools.Result
	// Errors maps a step name to the error it should fail with.
	Errors map[string]error
}

// NewFakeRunner creates an empty fake runner where every command succeeds.
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{
		Results: make(map[string]*tools.Result),
		Errors:  make(map[string]error),
	}
}

func (f *FakeRunner) Run(_ context.Context, cmd tools.Command) (*tools.Result, error) {
	f.Calls = append(f.Calls, Call{Command: cmd})
	if err, ok := f.Errors[cmd.Step]; ok {
		result := f.Results[cmd.Step]
		if result == nil {
			result = &tools.Result{}
		}
		return result, err
	}
	if result, ok := f.Results[cmd.Step]; ok {
		return result, nil
	}
	return &tools.Result{}, nil
}

func (f *FakeRunner) RunStreaming(_ context.Context, cmd tools.Command) error {
	f.Calls = append(f.Calls, Call{Command: cmd, Streaming: true})
	return f.Errors[cmd.Step]
}

// Steps returns the step names of all recorded calls in order.
func (f *FakeRunner) Steps() []string {
	steps := make([]string, 0, len(f.Calls))
	for _, call := range f.Calls {
		steps = append(steps, call.Command.Step)
	}
	return steps
}
