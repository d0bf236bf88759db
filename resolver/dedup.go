package resolver

// Deduplicate drops commands that exactly or structurally repeat an earlier
// accepted command. Survivors keep their input order, and the first of any
// colliding group wins. Applying it twice gives the same result as once.
func Deduplicate(commands []Command) []Command {
	out := make([]Command, 0, len(commands))
	seenKeys := make(map[string]struct{}, len(commands))
	seenPatterns := make(map[string]struct{}, len(commands))

	for _, cmd := range commands {
		if _, dup := seenKeys[cmd.Key()]; dup {
			continue
		}
		if _, dup := seenPatterns[cmd.Pattern()]; dup {
			continue
		}
		seenKeys[cmd.Key()] = struct{}{}
		seenPatterns[cmd.Pattern()] = struct{}{}
		out = append(out, cmd)
	}
	return out
}

// Merge appends more to batch and deduplicates the result.
func Merge(batch, more []Command) []Command {
	combined := make([]Command, 0, len(batch)+len(more))
	combined = append(combined, batch...)
	combined = append(combined, more...)
	return Deduplicate(combined)
}
