package resolver

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Gate asks the user whether to run a batch.
type Gate interface {
	Confirm(ctx context.Context, question string) (bool, error)
}

// ParseAnswer maps one line of user input to proceed/abort. Only "n" and
// "no" abort; empty input, "y", "yes" and anything unrecognized proceed.
func ParseAnswer(line string) bool {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "n", "no":
		return false
	default:
		return true
	}
}

// LineGate reads answers line by line from a reader. It serves
// non-interactive stdin and tests.
type LineGate struct {
	in  *bufio.Reader
	out io.Writer
}

// NewLineGate creates a gate that prompts on out and reads from in.
func NewLineGate(in io.Reader, out io.Writer) *LineGate {
	return &LineGate{in: bufio.NewReader(in), out: out}
}

// Confirm prints the question and reads one line. EOF counts as empty input.
func (g *LineGate) Confirm(ctx context.Context, question string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	fmt.Fprintf(g.out, "%s [Y/n]: ", question)

	line, err := g.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("read confirmation: %w", err)
	}
	if errors.Is(err, io.EOF) && line == "" {
		fmt.Fprintln(g.out)
	}
	return ParseAnswer(line), nil
}

// AutoGate approves every batch without asking.
type AutoGate struct {
	Out io.Writer
}

// Confirm always proceeds, echoing the question so the transcript shows it.
func (g AutoGate) Confirm(ctx context.Context, question string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if g.Out != nil {
		fmt.Fprintf(g.Out, "%s [Y/n]: y (--yes)\n", question)
	}
	return true, nil
}
