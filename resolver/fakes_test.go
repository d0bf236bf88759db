package resolver

import (
	"context"
	"errors"
	"sync"

	"github.com/richinex/resolvai/tools"
)

// scriptedOracle answers queries from a fixed list. The last answer repeats
// once the list is used up.
type scriptedOracle struct {
	answers []string
	errs    map[int]error // keyed by zero-based call index
	systems []string
	prompts []string
}

func (o *scriptedOracle) Query(_ context.Context, system, user string) (string, error) {
	call := len(o.prompts)
	o.systems = append(o.systems, system)
	o.prompts = append(o.prompts, user)
	if err, ok := o.errs[call]; ok {
		return "", err
	}
	if len(o.answers) == 0 {
		return "", errors.New("no scripted answer")
	}
	if call >= len(o.answers) {
		return o.answers[len(o.answers)-1], nil
	}
	return o.answers[call], nil
}

// scriptedRunner returns canned results per command. Unknown commands
// succeed with no output. For each command the last result repeats.
type scriptedRunner struct {
	mu      sync.Mutex
	results map[string][]tools.ExecutionResult
	calls   []string
}

func newScriptedRunner() *scriptedRunner {
	return &scriptedRunner{results: map[string][]tools.ExecutionResult{}}
}

func (r *scriptedRunner) on(command string, results ...tools.ExecutionResult) *scriptedRunner {
	r.results[command] = append(r.results[command], results...)
	return r
}

func (r *scriptedRunner) Run(_ context.Context, command string) tools.ExecutionResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, command)

	queue := r.results[command]
	if len(queue) == 0 {
		return tools.ExecutionResult{Command: command}
	}
	result := queue[0]
	if len(queue) > 1 {
		r.results[command] = queue[1:]
	}
	result.Command = command
	return result
}

func ok() tools.ExecutionResult { return tools.ExecutionResult{ExitCode: 0} }

func fail(code int, stderr string) tools.ExecutionResult {
	return tools.ExecutionResult{ExitCode: code, Stderr: stderr}
}

// scriptedGate replays answers; once they run out it keeps proceeding.
type scriptedGate struct {
	answers   []bool
	err       error
	questions []string
}

func (g *scriptedGate) Confirm(_ context.Context, question string) (bool, error) {
	g.questions = append(g.questions, question)
	if g.err != nil {
		return false, g.err
	}
	if len(g.answers) == 0 {
		return true, nil
	}
	answer := g.answers[0]
	g.answers = g.answers[1:]
	return answer, nil
}
