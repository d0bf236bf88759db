package resolver

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richinex/resolvai/tools"
)

var fixedNow = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func newTestEngine(oracle *scriptedOracle, runner Runner, gate Gate, opts ...Option) (*Engine, *bytes.Buffer) {
	var out bytes.Buffer
	opts = append([]Option{WithOutput(&out), WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewEngine(oracle, runner, gate, opts...), &out
}

func pythonTarget(spec string) Target {
	return Target{Kind: KindPython, Spec: spec, Env: EnvVenv}
}

func TestRunDeduplicatesBeforeConfirmation(t *testing.T) {
	oracle := &scriptedOracle{answers: []string{
		"pip install requests\npython -m pip install requests\npip install reqeusts",
	}}
	runner := newScriptedRunner()
	gate := &scriptedGate{answers: []bool{false}}
	engine, out := newTestEngine(oracle, runner, gate)

	s, err := engine.Run(context.Background(), pythonTarget("requests==2.31.0"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeAborted, s.Outcome)
	assert.Contains(t, out.String(), "  1. pip install requests\n  2. python -m pip install requests\n")
	assert.NotContains(t, out.String(), "reqeusts")
}

func TestRunHappyPath(t *testing.T) {
	oracle := &scriptedOracle{answers: []string{"pip install requests==2.31.0"}}
	runner := newScriptedRunner().on("pip install requests==2.31.0", ok())
	gate := &scriptedGate{}
	engine, out := newTestEngine(oracle, runner, gate, WithSystemPrompt("you are a resolver"))

	s, err := engine.Run(context.Background(), pythonTarget("requests==2.31.0"))
	require.NoError(t, err)

	assert.Equal(t, OutcomeSuccess, s.Outcome)
	assert.Equal(t, 1, s.Attempts)
	assert.True(t, s.Verified)
	assert.Empty(t, s.History)
	assert.Empty(t, s.Batch)
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, fixedNow, s.StartedAt)
	assert.Equal(t, fixedNow, s.FinishedAt)

	assert.Equal(t, []string{"pip install requests==2.31.0", "pip show requests"}, runner.calls)
	require.Len(t, oracle.prompts, 1)
	assert.Equal(t, "you are a resolver", oracle.systems[0])
	assert.Contains(t, oracle.prompts[0], "'requests==2.31.0'")
	assert.Equal(t, []string{"Execute these resolution commands?"}, gate.questions)
	assert.Contains(t, out.String(), "Package 'requests==2.31.0' successfully installed and verified")
}

func TestRunRecoversAfterReplan(t *testing.T) {
	oracle := &scriptedOracle{answers: []string{
		"pip install fooo==1.0.0",
		"pip install foo==1.0.0",
	}}
	runner := newScriptedRunner().
		on("pip install fooo==1.0.0", fail(1, "ERROR: No matching distribution found for fooo==1.0.0")).
		on("pip install foo==1.0.0", ok())
	gate := &scriptedGate{}
	engine, _ := newTestEngine(oracle, runner, gate)

	s, err := engine.Run(context.Background(), pythonTarget("foo==1.0.0"))
	require.NoError(t, err)

	assert.Equal(t, OutcomeSuccess, s.Outcome)
	assert.Equal(t, 2, s.Attempts)
	assert.Equal(t, 1, s.Replans)
	assert.True(t, s.Verified)
	assert.True(t, s.InstallFailed)
	require.Len(t, s.History, 1)
	assert.Equal(t, ErrorRecord{
		Kind:     FailureExecution,
		Command:  "pip install fooo==1.0.0",
		ExitCode: 1,
		Stderr:   "ERROR: No matching distribution found for fooo==1.0.0",
	}, s.History[0])

	require.Len(t, oracle.prompts, 2)
	assert.Contains(t, oracle.prompts[1], "No matching distribution found for fooo")
	assert.Contains(t, oracle.prompts[1], "Command 'pip install fooo==1.0.0' failed with exit code 1")
	assert.Equal(t, []string{
		"Execute these resolution commands?",
		"Execute these new resolution commands?",
	}, gate.questions)
	assert.Equal(t, []string{"pip install fooo==1.0.0", "pip install foo==1.0.0", "pip show foo"}, runner.calls)
}

func TestRunExhaustsAttemptBudget(t *testing.T) {
	oracle := &scriptedOracle{answers: []string{"pip install nosuchpkg==9.9.9"}}
	runner := newScriptedRunner().on("pip install nosuchpkg==9.9.9", fail(1, "ERROR: Could not find a version"))
	engine, out := newTestEngine(oracle, runner, &scriptedGate{})

	s, err := engine.Run(context.Background(), pythonTarget("nosuchpkg==9.9.9"))
	require.Error(t, err)

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, MaxAttempts, exhausted.Attempts)
	assert.Len(t, exhausted.History, MaxAttempts)

	assert.Equal(t, OutcomeExhausted, s.Outcome)
	assert.True(t, s.Outcome.Failed())
	assert.Equal(t, MaxAttempts, s.Attempts)
	assert.Len(t, s.History, MaxAttempts)
	assert.Len(t, runner.calls, MaxAttempts)
	assert.Len(t, oracle.prompts, MaxAttempts, "one initial query plus a replan after every attempt but the last")
	assert.Equal(t, MaxAttempts-1, s.Replans)
	assert.Contains(t, out.String(), "Maximum resolution attempts (15) reached")
}

func TestRunHonoursLowerAttemptBudget(t *testing.T) {
	oracle := &scriptedOracle{answers: []string{"pip install broken==1.0"}}
	runner := newScriptedRunner().on("pip install broken==1.0", fail(1, "boom"))
	engine, _ := newTestEngine(oracle, runner, &scriptedGate{}, WithMaxAttempts(3))

	s, err := engine.Run(context.Background(), pythonTarget("broken==1.0"))
	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 3, s.Attempts)
	assert.Len(t, oracle.prompts, 3)
}

func TestWithMaxAttemptsIgnoresOutOfRange(t *testing.T) {
	for _, n := range []int{0, -1, MaxAttempts + 1} {
		e := NewEngine(&scriptedOracle{}, newScriptedRunner(), &scriptedGate{}, WithMaxAttempts(n))
		assert.Equal(t, MaxAttempts, e.maxAttempts, n)
	}
}

func TestRunDeclinedAtFirstGate(t *testing.T) {
	oracle := &scriptedOracle{answers: []string{"pip install requests==2.31.0"}}
	runner := newScriptedRunner()
	engine, out := newTestEngine(oracle, runner, &scriptedGate{answers: []bool{false}})

	s, err := engine.Run(context.Background(), pythonTarget("requests==2.31.0"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeAborted, s.Outcome)
	assert.False(t, s.Outcome.Failed())
	assert.Zero(t, s.Attempts)
	assert.Empty(t, runner.calls)
	assert.Contains(t, out.String(), "Resolution commands not executed.")
}

func TestRunDeclinedAfterReplan(t *testing.T) {
	oracle := &scriptedOracle{answers: []string{"pip install fooo==1.0.0", "pip install foo==1.0.0"}}
	runner := newScriptedRunner().on("pip install fooo==1.0.0", fail(1, "not found"))
	engine, _ := newTestEngine(oracle, runner, &scriptedGate{answers: []bool{true, false}})

	s, err := engine.Run(context.Background(), pythonTarget("foo==1.0.0"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeAborted, s.Outcome)
	assert.Equal(t, 1, s.Attempts)
	assert.Len(t, s.History, 1)
	assert.Equal(t, []string{"pip install fooo==1.0.0"}, runner.calls)
}

func TestRunGateErrorAborts(t *testing.T) {
	oracle := &scriptedOracle{answers: []string{"pip install requests==2.31.0"}}
	runner := newScriptedRunner()
	engine, _ := newTestEngine(oracle, runner, &scriptedGate{err: io.ErrUnexpectedEOF})

	s, err := engine.Run(context.Background(), pythonTarget("requests==2.31.0"))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Equal(t, OutcomeAborted, s.Outcome)
	assert.Empty(t, runner.calls)
}

func TestRunNoCommands(t *testing.T) {
	oracle := &scriptedOracle{answers: []string{"Sure! You should be able to install it with your package manager."}}
	runner := newScriptedRunner()
	gate := &scriptedGate{}
	engine, out := newTestEngine(oracle, runner, gate)

	s, err := engine.Run(context.Background(), pythonTarget("requests==2.31.0"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoCommands, s.Outcome)
	assert.Zero(t, s.Attempts)
	assert.Empty(t, gate.questions)
	assert.Empty(t, runner.calls)
	assert.Contains(t, out.String(), "No executable commands found")
	assert.Contains(t, out.String(), "install it with your package manager")
}

func TestRunInitialOracleFailure(t *testing.T) {
	cause := errors.New("connection refused")
	oracle := &scriptedOracle{errs: map[int]error{0: cause}}
	runner := newScriptedRunner()
	gate := &scriptedGate{}
	engine, _ := newTestEngine(oracle, runner, gate)

	s, err := engine.Run(context.Background(), pythonTarget("requests==2.31.0"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOracle)
	assert.ErrorIs(t, err, cause)

	var oerr *OracleError
	require.ErrorAs(t, err, &oerr)
	assert.Equal(t, "initial", oerr.Stage)
	assert.Equal(t, OutcomeOracleFailed, s.Outcome)
	assert.Empty(t, gate.questions)
	assert.Empty(t, runner.calls)
}

func TestRunReplanOracleFailure(t *testing.T) {
	oracle := &scriptedOracle{
		answers: []string{"pip install requests==2.31.0"},
		errs:    map[int]error{1: errors.New("rate limited")},
	}
	runner := newScriptedRunner().on("pip install requests==2.31.0", fail(1, "network unreachable"))
	engine, _ := newTestEngine(oracle, runner, &scriptedGate{})

	s, err := engine.Run(context.Background(), pythonTarget("requests==2.31.0"))
	var oerr *OracleError
	require.ErrorAs(t, err, &oerr)
	assert.Equal(t, "replan", oerr.Stage)
	assert.Equal(t, OutcomeOracleFailed, s.Outcome)
	assert.Equal(t, 1, s.Attempts)
	assert.Len(t, s.History, 1)
	assert.Len(t, oracle.prompts, 2, "oracle failures are not retried")
}

func TestRunUnresolvedWhenReplanIsEmpty(t *testing.T) {
	oracle := &scriptedOracle{answers: []string{"pip install requests==2.31.0", "I am not sure what else to try."}}
	runner := newScriptedRunner().on("pip install requests==2.31.0", fail(1, "SSL error"))
	engine, out := newTestEngine(oracle, runner, &scriptedGate{})

	s, err := engine.Run(context.Background(), pythonTarget("requests==2.31.0"))
	require.NoError(t, err, "an unresolved session is reported, not returned as an error")
	assert.Equal(t, 1, s.Attempts)
	assert.Equal(t, OutcomeUnresolved, s.Outcome)
	assert.True(t, s.Outcome.Failed())
	assert.False(t, s.Verified)
	assert.Contains(t, out.String(), "no further commands were proposed")
}

func TestRunProbeFailureTriggersReplan(t *testing.T) {
	oracle := &scriptedOracle{answers: []string{
		"pip install requests==2.31.0",
		"pip install --force-reinstall requests==2.31.0",
	}}
	runner := newScriptedRunner().
		on("pip show requests", fail(1, "WARNING: Package(s) not found: requests"), ok())
	engine, _ := newTestEngine(oracle, runner, &scriptedGate{})

	s, err := engine.Run(context.Background(), pythonTarget("requests==2.31.0"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, s.Outcome)
	assert.Equal(t, 2, s.Attempts)
	require.Len(t, s.History, 1)
	assert.Equal(t, FailureVerification, s.History[0].Kind)
	assert.Equal(t, "pip show requests", s.History[0].Probe)
	assert.Contains(t, oracle.prompts[1], "verification 'pip show requests' failed")
	assert.Equal(t, []string{
		"pip install requests==2.31.0",
		"pip show requests",
		"pip install --force-reinstall requests==2.31.0",
		"pip show requests",
	}, runner.calls)
}

func TestRunNonInstallFailureIsInformational(t *testing.T) {
	oracle := &scriptedOracle{answers: []string{"npm cache clean --force\nnpm install react@18.2.0"}}
	runner := newScriptedRunner().on("npm cache clean --force", fail(1, "EPERM"))
	engine, _ := newTestEngine(oracle, runner, &scriptedGate{})

	s, err := engine.Run(context.Background(), Target{Kind: KindNPM, Spec: "react@18.2.0"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, s.Outcome)
	assert.Equal(t, 1, s.Attempts)
	assert.False(t, s.InstallFailed)
	require.Len(t, s.History, 1)
	assert.Equal(t, "npm cache clean --force", s.History[0].Command)
	assert.Len(t, oracle.prompts, 1, "non-install failures never replan")
	assert.Equal(t, []string{"npm cache clean --force", "npm install react@18.2.0", "npm list react"}, runner.calls)
}

func TestRunVerifiedInstallStopsBatch(t *testing.T) {
	oracle := &scriptedOracle{answers: []string{"pip install requests==2.31.0\npip list"}}
	runner := newScriptedRunner()
	engine, _ := newTestEngine(oracle, runner, &scriptedGate{})

	s, err := engine.Run(context.Background(), pythonTarget("requests==2.31.0"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, s.Outcome)
	assert.Equal(t, []string{"pip install requests==2.31.0", "pip show requests"}, runner.calls)
}

func TestRunBatchWithoutInstallSucceeds(t *testing.T) {
	oracle := &scriptedOracle{answers: []string{"pip list"}}
	runner := newScriptedRunner()
	engine, out := newTestEngine(oracle, runner, &scriptedGate{})

	s, err := engine.Run(context.Background(), pythonTarget("requests==2.31.0"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, s.Outcome)
	assert.False(t, s.Verified)
	assert.Contains(t, out.String(), "All resolution commands completed")
}

func TestRunMergesReplansWithinBatch(t *testing.T) {
	oracle := &scriptedOracle{answers: []string{
		"pip install requests==2.31.0\npython -m pip install requests==2.31.0",
		"pip install --no-cache-dir requests==2.31.0",
	}}
	runner := newScriptedRunner().
		on("pip install requests==2.31.0", fail(1, "hash mismatch")).
		on("python -m pip install requests==2.31.0", fail(1, "hash mismatch"))
	engine, out := newTestEngine(oracle, runner, &scriptedGate{})

	s, err := engine.Run(context.Background(), pythonTarget("requests==2.31.0"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, s.Outcome)
	assert.Equal(t, 2, s.Attempts)
	assert.Equal(t, 2, s.Replans)
	assert.Contains(t, out.String(), "New resolution commands (1):")
}

type cancellingRunner struct {
	cancel context.CancelFunc
	calls  int
}

func (r *cancellingRunner) Run(_ context.Context, command string) tools.ExecutionResult {
	r.calls++
	r.cancel()
	return tools.ExecutionResult{Command: command, ExitCode: tools.ExitAbnormal}
}

func TestRunCancelledMidBatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	oracle := &scriptedOracle{answers: []string{"pip install requests==2.31.0\npip list"}}
	runner := &cancellingRunner{cancel: cancel}
	engine, _ := newTestEngine(oracle, runner, &scriptedGate{})

	s, err := engine.Run(ctx, pythonTarget("requests==2.31.0"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, OutcomeAborted, s.Outcome)
	assert.Equal(t, 1, runner.calls)
	assert.Empty(t, s.History)
}

func TestRunFileTarget(t *testing.T) {
	oracle := &scriptedOracle{answers: []string{"pip install -r requirements.txt"}}
	runner := newScriptedRunner()
	engine, out := newTestEngine(oracle, runner, &scriptedGate{})

	target := Target{Kind: KindPython, Spec: "requirements.txt", FileMode: true, Env: EnvVenv}
	s, err := engine.Run(context.Background(), target)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, s.Outcome)
	assert.Equal(t, []string{"pip install -r requirements.txt", "pip list"}, runner.calls)
	assert.Contains(t, out.String(), "Dependency file: requirements.txt")
	assert.Contains(t, out.String(), "Dependencies from 'requirements.txt' successfully installed and verified")
}
