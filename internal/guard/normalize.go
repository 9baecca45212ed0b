package guard

import (
	"path/filepath"
	"strconv"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// interpreters are the pipe targets that turn a download into code
// execution. A pipe whose right side resolves to one of these is split into
// its own segment during normalization.
var interpreters = map[string]bool{
	"sh":      true,
	"bash":    true,
	"zsh":     true,
	"fish":    true,
	"dash":    true,
	"python":  true,
	"python3": true,
	"perl":    true,
	"ruby":    true,
	"node":    true,
}

// Normalize canonicalizes a raw shell command for pattern matching: escape
// sequences expanded, surrounding quotes stripped per token, compound
// operators split into independent sub-commands, everything lower-cased.
//
// The result is for detection only; the original command is what executes.
// Normalizing an already-normalized segment yields the segment unchanged.
func Normalize(command string) []string {
	expanded := expandEscapes(command)

	segs := splitSegments(expanded)
	segs = mergePlainPipes(segs)

	var out []string
	for _, s := range segs {
		norm := normalizeSegment(s.text)
		if norm != "" {
			out = append(out, norm)
		}
	}
	return out
}

// normalizeFlat canonicalizes without compound splitting. Used for checks
// that need to see operators in place (fork bombs, pipe chains).
func normalizeFlat(command string) string {
	return normalizeSegment(expandEscapes(command))
}

// expandEscapes resolves \xNN hex and \NNN octal sequences to their
// characters and drops every other backslash, so obfuscated commands
// (`rm\x20-rf\x20/`, `r\m`) compare equal to their plain spelling. The
// output never contains a backslash, which keeps normalization idempotent.
func expandEscapes(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))

	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			sb.WriteByte(c)
			continue
		}
		if i+1 >= len(s) {
			break
		}

		next := s[i+1]
		switch {
		case next == 'x' && i+3 < len(s) && isHexDigit(s[i+2]) && isHexDigit(s[i+3]):
			v, _ := strconv.ParseUint(s[i+2:i+4], 16, 8)
			sb.WriteByte(byte(v))
			i += 3
		case isOctalDigit(next) && i+3 < len(s) && isOctalDigit(s[i+2]) && isOctalDigit(s[i+3]):
			v, _ := strconv.ParseUint(s[i+1:i+4], 8, 16)
			sb.WriteByte(byte(v))
			i += 3
		default:
			sb.WriteByte(next)
			i++
		}
	}

	return strings.ReplaceAll(sb.String(), "\\", "")
}

func isHexDigit(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F'
}

func isOctalDigit(c byte) bool {
	return c >= '0' && c <= '7'
}

// rawSegment is one piece of a compound command plus the operator that
// joined it to the previous piece ("", "&&", "||", ";", "|").
type rawSegment struct {
	text string
	op   string
}

// splitSegments breaks a command at compound operators. The bash AST is
// authoritative; input the parser rejects falls back to a quote-aware
// scanner so obfuscated commands still get segmented.
func splitSegments(command string) []rawSegment {
	parser := syntax.NewParser(
		syntax.Variant(syntax.LangBash),
		syntax.KeepComments(false),
	)

	file, err := parser.Parse(strings.NewReader(command), "")
	if err != nil {
		return scanSegments(command)
	}

	printer := syntax.NewPrinter()
	var segs []rawSegment

	var flatten func(stmt *syntax.Stmt, op string)
	flatten = func(stmt *syntax.Stmt, op string) {
		if bin, ok := stmt.Cmd.(*syntax.BinaryCmd); ok {
			switch bin.Op {
			case syntax.AndStmt, syntax.OrStmt, syntax.Pipe, syntax.PipeAll:
				flatten(bin.X, op)
				nextOp := bin.Op.String()
				if bin.Op == syntax.PipeAll {
					nextOp = "|"
				}
				flatten(bin.Y, nextOp)
				return
			}
		}

		var sb strings.Builder
		if err := printer.Print(&sb, stmt); err != nil {
			return
		}
		segs = append(segs, rawSegment{text: sb.String(), op: op})
	}

	for i, stmt := range file.Stmts {
		op := ";"
		if i == 0 {
			op = ""
		}
		flatten(stmt, op)
	}

	return segs
}

// scanSegments splits on &&, ||, ;, and | while respecting quotes. Fallback
// for input the bash parser cannot handle.
func scanSegments(command string) []rawSegment {
	var segs []rawSegment
	var current strings.Builder
	op := ""
	inSingleQuote := false
	inDoubleQuote := false

	push := func(nextOp string) {
		segs = append(segs, rawSegment{text: current.String(), op: op})
		current.Reset()
		op = nextOp
	}

	runes := []rune(command)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]

		if ch == '\'' && !inDoubleQuote {
			inSingleQuote = !inSingleQuote
			current.WriteRune(ch)
			continue
		}
		if ch == '"' && !inSingleQuote {
			inDoubleQuote = !inDoubleQuote
			current.WriteRune(ch)
			continue
		}
		if inSingleQuote || inDoubleQuote {
			current.WriteRune(ch)
			continue
		}

		switch {
		case ch == '&' && i+1 < len(runes) && runes[i+1] == '&':
			push("&&")
			i++
		case ch == '|' && i+1 < len(runes) && runes[i+1] == '|':
			push("||")
			i++
		case ch == '|':
			push("|")
		case ch == ';':
			push(";")
		default:
			current.WriteRune(ch)
		}
	}

	if strings.TrimSpace(current.String()) != "" || len(segs) == 0 {
		segs = append(segs, rawSegment{text: current.String(), op: op})
	}
	return segs
}

// mergePlainPipes rejoins pipe segments whose right side is not an
// interpreter: `ps aux | grep foo` stays one sub-command, `curl x | sh`
// stays two.
func mergePlainPipes(segs []rawSegment) []rawSegment {
	var out []rawSegment
	for _, s := range segs {
		if s.op == "|" && len(out) > 0 && !interpreters[baseCommand(s.text)] {
			out[len(out)-1].text += " | " + strings.TrimSpace(s.text)
			continue
		}
		out = append(out, s)
	}
	return out
}

// normalizeSegment strips surrounding quotes per token, collapses
// whitespace, and lower-cases.
func normalizeSegment(text string) string {
	fields := strings.Fields(text)
	for i, f := range fields {
		fields[i] = stripTokenQuotes(f)
	}
	return strings.ToLower(strings.Join(fields, " "))
}

func stripTokenQuotes(tok string) string {
	for len(tok) >= 2 {
		first, last := tok[0], tok[len(tok)-1]
		if (first == '\'' && last == '\'') || (first == '"' && last == '"') {
			tok = tok[1 : len(tok)-1]
			continue
		}
		break
	}
	return tok
}

// baseCommand gets the first command word of a segment, lower-cased, with
// env var assignments, env, sudo, and leading paths stripped.
func baseCommand(segment string) string {
	words := strings.Fields(segment)

	for len(words) > 0 {
		w := words[0]
		switch {
		case w == "sudo" || w == "env" || w == "command" || w == "exec":
			words = words[1:]
		case strings.Contains(w, "=") && !strings.HasPrefix(w, "-") &&
			!strings.HasPrefix(w, "/") && !strings.HasPrefix(w, "."):
			// FOO=bar prefix assignment
			words = words[1:]
		case strings.HasPrefix(w, "-"):
			// a flag to sudo/env; skip it
			words = words[1:]
		default:
			return strings.ToLower(filepath.Base(w))
		}
	}
	return ""
}
