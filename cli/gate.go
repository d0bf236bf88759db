package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/chzyer/readline"
	"golang.org/x/term"

	"github.com/richinex/resolvai/resolver"
)

// readlineGate asks for confirmation on an interactive terminal.
type readlineGate struct {
	rl *readline.Instance
}

func newReadlineGate() (*readlineGate, error) {
	rl, err := readline.NewEx(&readline.Config{
		HistoryLimit:    -1,
		InterruptPrompt: "^C",
	})
	if err != nil {
		return nil, err
	}
	return &readlineGate{rl: rl}, nil
}

// Confirm reads one answer. Ctrl+C declines; Ctrl+D counts as empty input.
func (g *readlineGate) Confirm(ctx context.Context, question string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	g.rl.SetPrompt(question + " [Y/n]: ")

	line, err := g.rl.Readline()
	switch {
	case errors.Is(err, readline.ErrInterrupt):
		return false, nil
	case errors.Is(err, io.EOF):
		return true, nil
	case err != nil:
		return false, fmt.Errorf("read confirmation: %w", err)
	}
	return resolver.ParseAnswer(line), nil
}

func (g *readlineGate) Close() error {
	return g.rl.Close()
}

// selectGate picks how batches are confirmed. The returned cleanup is never nil.
func selectGate(opts Options) (resolver.Gate, func()) {
	if opts.Yes {
		return resolver.AutoGate{Out: opts.out()}, func() {}
	}

	in := opts.in()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		g, err := newReadlineGate()
		if err == nil {
			return g, func() { _ = g.Close() }
		}
		opts.logger().Warn("readline unavailable, falling back to plain input")
	}
	return resolver.NewLineGate(in, opts.out()), func() {}
}
