package resolver

import "strings"

// commandPrefixes is the whitelist of command families we will run.
var commandPrefixes = []string{
	"cp ",
	"grep ",
	"find ",
	"ps ",
	"mkdir ",
	"rm -rf ",
	"npm ",
	"pip ",
	"python -m pip ",
	"conda ",
	"pyenv ",
	"nvm ",
	"brew ",
	"yarn ",
	"poetry ",
	"pipenv ",
}

// Extract scans oracle text line by line and keeps the trimmed lines that
// start with a whitelisted prefix, in order. Code fence lines are skipped.
// An empty result means the text held no executable commands.
func Extract(text string) []Command {
	var commands []Command
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "```") {
			continue
		}
		if hasCommandPrefix(line) {
			commands = append(commands, NewCommand(line))
		}
	}
	return commands
}

func hasCommandPrefix(line string) bool {
	for _, prefix := range commandPrefixes {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}
