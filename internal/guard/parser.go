package guard

import (
	"path/filepath"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// Call is one command invocation found in a bash command line, with
// original casing preserved (commit messages are case-sensitive).
type Call struct {
	Name       string
	Args       []string
	Subcommand string
}

// ParseCalls extracts every command invocation from a bash command,
// including those nested in substitutions and compound statements. Input
// the parser rejects yields nil; callers treat that as "nothing to
// inspect".
func ParseCalls(command string) []Call {
	parser := syntax.NewParser(
		syntax.Variant(syntax.LangBash),
		syntax.KeepComments(false),
	)

	file, err := parser.Parse(strings.NewReader(command), "")
	if err != nil {
		return nil
	}

	var calls []Call
	syntax.Walk(file, func(node syntax.Node) bool {
		call, ok := node.(*syntax.CallExpr)
		if !ok || len(call.Args) == 0 {
			return true
		}

		words := make([]string, 0, len(call.Args))
		for _, arg := range call.Args {
			words = append(words, wordToString(arg))
		}

		c := Call{
			Name: filepath.Base(words[0]),
			Args: words[1:],
		}
		for _, arg := range c.Args {
			if !strings.HasPrefix(arg, "-") {
				c.Subcommand = arg
				break
			}
		}
		calls = append(calls, c)
		return true
	})

	return calls
}

func wordToString(word *syntax.Word) string {
	var sb strings.Builder
	for _, part := range word.Parts {
		partToString(&sb, part)
	}
	return sb.String()
}

func partToString(sb *strings.Builder, part syntax.WordPart) {
	switch p := part.(type) {
	case *syntax.Lit:
		sb.WriteString(p.Value)
	case *syntax.SglQuoted:
		sb.WriteString(p.Value)
	case *syntax.DblQuoted:
		for _, sub := range p.Parts {
			partToString(sb, sub)
		}
	case *syntax.ParamExp:
		sb.WriteString("$" + p.Param.Value)
	case *syntax.CmdSubst:
		sb.WriteString("$()")
	}
}

// FindCalls filters parsed calls by command name.
func FindCalls(calls []Call, name string) []Call {
	var out []Call
	for _, c := range calls {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}
