//go:build linux

package tools

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// processGone reports whether pid has exited. A zombie counts as gone.
func processGone(pid int) bool {
	stat, err := os.ReadFile(filepath.Join("/proc", strconv.Itoa(pid), "stat"))
	if errors.Is(err, fs.ErrNotExist) {
		return true
	}
	if err != nil {
		return false
	}
	_, rest, ok := strings.Cut(string(stat), ") ")
	return ok && strings.HasPrefix(rest, "Z")
}

func TestShellToolRunTimeoutKillsBackgroundChildren(t *testing.T) {
	pidFile := filepath.Join(t.TempDir(), "pid")
	shell, _, _ := newTestShell(WithCommandTimeout(200 * time.Millisecond))

	start := time.Now()
	result := shell.Run(context.Background(), "sleep 30 & echo $! > "+pidFile+"; wait")

	assert.True(t, result.TimedOut)
	assert.Less(t, time.Since(start), waitDelay, "no grandchild holds stdout open")

	raw, err := os.ReadFile(pidFile)
	require.NoError(t, err)
	pid, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	require.NoError(t, err)
	assert.Eventually(t, func() bool { return processGone(pid) }, 5*time.Second, 50*time.Millisecond,
		"background sleep %d survived the timeout", pid)
}
