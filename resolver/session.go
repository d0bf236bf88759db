package resolver

import (
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// MaxAttempts is the hard ceiling on batch executions per session.
const MaxAttempts = 15

// DefaultStderrExcerpt bounds the stderr kept in each ErrorRecord.
const DefaultStderrExcerpt = 2000

// Outcome is the terminal state of a session.
type Outcome int

const (
	OutcomePending Outcome = iota
	OutcomeSuccess
	OutcomeAborted
	OutcomeNoCommands
	OutcomeExhausted
	OutcomeUnresolved
	OutcomeOracleFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomePending:
		return "pending"
	case OutcomeSuccess:
		return "success"
	case OutcomeAborted:
		return "aborted"
	case OutcomeNoCommands:
		return "no_commands"
	case OutcomeExhausted:
		return "exhausted"
	case OutcomeUnresolved:
		return "unresolved"
	case OutcomeOracleFailed:
		return "oracle_failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether the session has finished.
func (o Outcome) Terminal() bool { return o != OutcomePending }

// Failed reports whether the outcome should surface as a failure to the caller.
func (o Outcome) Failed() bool {
	return o == OutcomeExhausted || o == OutcomeUnresolved || o == OutcomeOracleFailed
}

// FailureKind tells execution failures apart from failed verification probes.
type FailureKind string

const (
	FailureExecution    FailureKind = "execution"
	FailureVerification FailureKind = "verification"
)

// ErrorRecord is one failed command or probe.
type ErrorRecord struct {
	Kind     FailureKind
	Command  string
	Probe    string // set for verification failures
	ExitCode int
	Stderr   string // tail excerpt
}

func (r ErrorRecord) String() string {
	if r.Kind == FailureVerification {
		return fmt.Sprintf("Command '%s' succeeded but verification '%s' failed with exit code %d: %s",
			r.Command, r.Probe, r.ExitCode, r.Stderr)
	}
	return fmt.Sprintf("Command '%s' failed with exit code %d: %s", r.Command, r.ExitCode, r.Stderr)
}

// ErrorHistory is the append-only, ordered list of failures in a session.
type ErrorHistory []ErrorRecord

// Append returns a new history with r added. The receiver is never modified,
// so session values taken earlier keep their own view.
func (h ErrorHistory) Append(r ErrorRecord) ErrorHistory {
	return append(slices.Clip(h), r)
}

// String renders one record per line, as sent to the oracle.
func (h ErrorHistory) String() string {
	lines := make([]string, len(h))
	for i, r := range h {
		lines[i] = r.String()
	}
	return strings.Join(lines, "\n")
}

// Numbered renders the history as a numbered list for reports.
func (h ErrorHistory) Numbered() string {
	var sb strings.Builder
	for i, r := range h {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, r.String())
	}
	return sb.String()
}

// Session is the state of one resolution run. The loop treats it as a value:
// every step takes a Session and returns the next one.
type Session struct {
	ID       string
	Target   Target
	Batch    []Command
	Attempts int
	History  ErrorHistory
	Outcome  Outcome
	// Verified is set when a probe confirmed the install.
	Verified bool
	// InstallFailed is set once any installation command or probe failed.
	InstallFailed bool
	Replans       int
	StartedAt     time.Time
	FinishedAt    time.Time
}

// NewSession starts a pending session for target.
func NewSession(target Target, now time.Time) Session {
	return Session{
		ID:        uuid.NewString(),
		Target:    target,
		StartedAt: now,
	}
}

func (s Session) finish(outcome Outcome, now time.Time) Session {
	s.Outcome = outcome
	s.Batch = nil
	s.FinishedAt = now
	return s
}

// excerpt keeps the last limit bytes of s, cut on a rune boundary.
func excerpt(s string, limit int) string {
	s = strings.TrimRight(s, "\n")
	if limit <= 0 || len(s) <= limit {
		return s
	}
	cut := len(s) - limit
	for cut < len(s) && !utf8.RuneStart(s[cut]) {
		cut++
	}
	return "..." + s[cut:]
}
