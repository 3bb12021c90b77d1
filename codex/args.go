package codex

const (
	subcmdExec      = "exec"
	subcmdResume    = "resume"
	subcmdExecAlias = "e"
	flagJSON        = "--json"
	stdinMarker     = "-"

	defaultBinaryName = "codex"
)

// filterControlTokens strips the tokens the wrapper manages itself. Resume
// invocations rebuild the subcommand from scratch, so any exec/resume tokens
// in the configured base arguments would conflict with the composed argv.
func filterControlTokens(args []string) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		switch a {
		case subcmdExec, subcmdResume, subcmdExecAlias, stdinMarker:
			continue
		}
		out = append(out, a)
	}
	return out
}

// removeToken returns args without any occurrence of tok.
func removeToken(args []string, tok string) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		if a == tok {
			continue
		}
		out = append(out, a)
	}
	return out
}

// ensureSingle returns args with tok appearing exactly once, at the end.
func ensureSingle(args []string, tok string) []string {
	return append(removeToken(args, tok), tok)
}

func hasExecSubcommand(args []string) bool {
	for _, a := range args {
		if a == subcmdExec || a == subcmdExecAlias {
			return true
		}
	}
	return false
}

// BuildCommand composes the argv for one turn. A fresh invocation keeps the
// configured base arguments as-is, prepending "exec" only when no exec
// subcommand (or its "e" alias) is already present. A non-empty resumeHandle
// instead rebuilds the subcommand as "exec resume <handle>" with control
// tokens filtered from the base arguments. Either way the "--json" flag
// appears exactly once, and when promptViaStdin is set a trailing "-" marker
// tells the child to read the prompt from stdin.
func BuildCommand(binary string, baseArgs []string, promptViaStdin bool, resumeHandle string) []string {
	if binary == "" {
		binary = defaultBinaryName
	}
	var rest []string
	if resumeHandle != "" {
		rest = filterControlTokens(baseArgs)
		rest = append([]string{subcmdExec, subcmdResume, resumeHandle}, ensureSingle(rest, flagJSON)...)
	} else {
		rest = removeToken(baseArgs, stdinMarker)
		if !hasExecSubcommand(rest) {
			rest = append([]string{subcmdExec}, rest...)
		}
		rest = ensureSingle(rest, flagJSON)
	}

	argv := append([]string{binary}, rest...)
	if promptViaStdin {
		argv = append(argv, stdinMarker)
	}
	return argv
}
