package resolver

import "strings"

// PackagePlaceholder stands in for the package token in a structural pattern.
const PackagePlaceholder = "PACKAGE"

// installFamilies are the command shapes whose package token is normalized
// away for structural deduplication.
var installFamilies = [][]string{
	{"pip", "install"},
	{"python", "-m", "pip", "install"},
	{"conda", "install"},
	{"npm", "install"},
}

// Command is one candidate shell command. It is immutable once built.
type Command struct {
	text    string
	key     string
	pattern string
}

// NewCommand trims text and derives its dedup key and structural pattern.
func NewCommand(text string) Command {
	text = strings.TrimSpace(text)
	key := strings.ToLower(text)
	return Command{text: text, key: key, pattern: structuralPattern(key)}
}

// String returns the command as it will be executed.
func (c Command) String() string { return c.text }

// Key is the case- and trim-insensitive identity used for exact duplicates.
func (c Command) Key() string { return c.key }

// Pattern is the command with its package token replaced by
// PackagePlaceholder. Outside the install families it equals Key.
func (c Command) Pattern() string { return c.pattern }

// structuralPattern takes a lowercased command. When it starts with one of
// the install families, the token right after the install verb is the package
// token and every whole-token occurrence of it becomes PackagePlaceholder.
func structuralPattern(key string) string {
	tokens := strings.Fields(key)
	verb := familyVerbIndex(tokens)
	if verb < 0 || verb+1 >= len(tokens) {
		return key
	}

	pkg := tokens[verb+1]
	for i, tok := range tokens {
		if tok == pkg {
			tokens[i] = PackagePlaceholder
		}
	}
	return strings.Join(tokens, " ")
}

// familyVerbIndex returns the index of the install verb, or -1 when the
// command is not in an install family.
func familyVerbIndex(tokens []string) int {
	for _, family := range installFamilies {
		if len(tokens) < len(family) {
			continue
		}
		matched := true
		for i, word := range family {
			if tokens[i] != word {
				matched = false
				break
			}
		}
		if matched {
			return len(family) - 1
		}
	}
	return -1
}
