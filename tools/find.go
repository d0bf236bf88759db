package tools

import "strings"

// RewriteFindExec turns the batching terminator of `find ... -exec ... +`
// into `\;`. The rewrite only applies when `+` is the final token, so a `+`
// inside a path or pattern is left alone.
func RewriteFindExec(command string) string {
	if !strings.HasPrefix(strings.TrimLeft(command, " \t"), "find ") || !strings.Contains(command, "-exec") {
		return command
	}
	trimmed := strings.TrimRight(command, " \t")
	if !strings.HasSuffix(trimmed, " +") {
		return command
	}
	return strings.TrimSuffix(trimmed, " +") + ` \;`
}
