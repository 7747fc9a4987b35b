package compiledb

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/shlex"
)

// FlagMode selects how compiler flags are derived from an entry.
type FlagMode string

const (
	// FlagModeParsed tokenizes with shell quoting and drops output-related flags by name.
	FlagModeParsed FlagMode = "parsed"
	// FlagModePositional splits on whitespace and drops the first token and the last four.
	FlagModePositional FlagMode = "positional"
)

// positionalTail is how many trailing tokens positional mode discards
// (typically "-o out.o -c file.c").
const positionalTail = 4

// ParseFlagMode validates a mode name. Empty means parsed.
func ParseFlagMode(s string) (FlagMode, error) {
	switch FlagMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", FlagModeParsed:
		return FlagModeParsed, nil
	case FlagModePositional:
		return FlagModePositional, nil
	}
	return "", fmt.Errorf("unknown flag mode %q (valid: parsed, positional)", s)
}

// flags that take the next token as their argument and are dropped with it
var droppedWithArg = map[string]bool{
	"-o":  true,
	"-MF": true,
	"-MT": true,
	"-MQ": true,
}

var droppedAlone = map[string]bool{
	"-c":   true,
	"-S":   true,
	"-E":   true,
	"-M":   true,
	"-MM":  true,
	"-MD":  true,
	"-MMD": true,
	"-MP":  true,
}

// DeriveFlags returns the compiler flags of e, without the compiler, the source file
// and output options.
func DeriveFlags(e Entry, mode FlagMode) ([]string, error) {
	switch mode {
	case FlagModePositional:
		return positionalFlags(e)
	case FlagModeParsed, "":
		return parsedFlags(e)
	}
	return nil, fmt.Errorf("unknown flag mode %q", mode)
}

func positionalFlags(e Entry) ([]string, error) {
	tokens := e.Arguments
	if strings.TrimSpace(e.Command) != "" {
		tokens = strings.Fields(e.Command)
	}
	if len(tokens) < 1+positionalTail {
		return nil, fmt.Errorf("command has %d tokens, positional mode needs at least %d", len(tokens), 1+positionalTail)
	}
	return append([]string(nil), tokens[1:len(tokens)-positionalTail]...), nil
}

func parsedFlags(e Entry) ([]string, error) {
	tokens := e.Arguments
	if len(tokens) == 0 {
		var err error
		tokens, err = shlex.Split(e.Command)
		if err != nil {
			return nil, fmt.Errorf("tokenize command: %w", err)
		}
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("empty command")
	}

	source := filepath.Clean(e.File)
	sourceAbs := e.SourcePath()

	flags := make([]string, 0, len(tokens))
	for i := 1; i < len(tokens); i++ {
		tok := tokens[i]
		switch {
		case droppedWithArg[tok]:
			i++
		case droppedAlone[tok]:
		case strings.HasPrefix(tok, "-o") && len(tok) > 2:
		case !strings.HasPrefix(tok, "-") && isSource(tok, source, sourceAbs, e.Directory):
		default:
			flags = append(flags, tok)
		}
	}
	return flags, nil
}

func isSource(tok, source, sourceAbs, dir string) bool {
	if filepath.Clean(tok) == source {
		return true
	}
	if filepath.IsAbs(tok) {
		return filepath.Clean(tok) == sourceAbs
	}
	return filepath.Join(dir, tok) == sourceAbs
}
