package guard

import (
	"regexp"
	"strings"
)

// RuleKind tags how a catalog entry is evaluated.
type RuleKind int

const (
	// KindLiteral matches when the rule value appears anywhere in a
	// normalized segment.
	KindLiteral RuleKind = iota
	// KindAnchoredRegex matches a compiled pattern against a normalized
	// segment. Patterns that target paths are anchored so that
	// `rm -rf /tmp/x` never trips a rule written for `rm -rf /`.
	KindAnchoredRegex
	// KindKeywordCombo runs a scanner predicate over the whole command.
	// Used where a single regex would be fragile or quadratic.
	KindKeywordCombo
)

// Rule is one entry in the danger catalog. Label is what denial messages
// name; Value documents the match for literals and regexes.
type Rule struct {
	Kind  RuleKind
	Value string
	Label string

	re *regexp.Regexp
	fn func(command string) (detail string, ok bool)
}

// rmFlags matches one or more rm option tokens. Permutations like -rf,
// -fr, -r -f, and long options all reduce to this.
const rmFlags = `(-[a-z]+\s+|--[a-z-]+(=\S+)?\s+)`

func literalRule(value, label string) Rule {
	return Rule{Kind: KindLiteral, Value: value, Label: label}
}

func regexRule(pattern, label string) Rule {
	return Rule{
		Kind:  KindAnchoredRegex,
		Value: pattern,
		Label: label,
		re:    regexp.MustCompile(pattern),
	}
}

func comboRule(value, label string, fn func(string) (string, bool)) Rule {
	return Rule{Kind: KindKeywordCombo, Value: value, Label: label, fn: fn}
}

// catalog is the ordered deny list for shell commands. Evaluation order is
// literals, then anchored regexes, then keyword combos; the first match
// wins. New patterns are data entries here, not new code paths.
var catalog = []Rule{
	// Device and filesystem destruction.
	literalRule("dd if=/dev/zero", "dd from /dev/zero"),
	literalRule("dd if=/dev/random", "dd from /dev/random"),
	literalRule("mkfs", "filesystem format (mkfs)"),
	literalRule("mkswap", "swap format (mkswap)"),

	// Destructive git operations. Force pushes are a separate check so
	// that --force-with-lease can pass with an advisory.
	literalRule("git reset --hard", "git reset --hard"),
	literalRule("git clean -fd", "git clean -fd"),
	literalRule("git checkout --orphan", "git checkout --orphan"),
	literalRule("git filter-branch", "git filter-branch"),
	literalRule("git update-ref -d", "git update-ref -d"),
	literalRule("git reflog expire", "git reflog expire"),

	// Database destruction.
	literalRule("drop database", "DROP DATABASE"),
	literalRule("drop schema", "DROP SCHEMA"),
	literalRule("drop table", "DROP TABLE"),
	literalRule("truncate table", "TRUNCATE TABLE"),
	literalRule(".dropdatabase(", "MongoDB dropDatabase"),
	literalRule(".deletemany({})", "MongoDB deleteMany with empty filter"),
	literalRule("flushall", "Redis FLUSHALL"),
	literalRule("flushdb", "Redis FLUSHDB"),

	// Root and system path deletion. Anchored on the whole segment so
	// deletions under /tmp or a project dir stay allowed.
	regexRule(`^(sudo\s+)?rm\s+`+rmFlags+`+/\*?\s*$`,
		"rm targeting filesystem root"),
	regexRule(`^(sudo\s+)?rm\s+`+rmFlags+`+(~/?|\$home/?)\s*$`,
		"rm targeting home directory"),
	regexRule(`^(sudo\s+)?rm\s+`+rmFlags+`+/(etc|var|usr|bin|sbin|lib|boot|root|home)/?\*?\s*$`,
		"rm targeting system directory"),
	regexRule(`^(sudo\s+)?rm\s+`+rmFlags+`+(\.\.?/?|\*)\s*$`,
		"rm wiping current or parent directory"),
	regexRule(`(^|\s)rm\s+`+rmFlags+`*\S*\.git(/\S*)?\s*$`,
		"rm of a .git directory"),

	// Writes to raw block devices.
	regexRule(`(^|\s)of=/dev/(sd|hd|nvme|vd|xvd|disk)`,
		"dd to a raw disk device"),
	regexRule(`(^|\s)>\s*/dev/(sd|hd|nvme|vd|xvd|disk)`,
		"redirect to a raw disk device"),

	// Recursive permission changes on /.
	regexRule(`^(sudo\s+)?(chmod|chown)\s+-[a-z]*r[a-z]*\s+\S+\s+/\s*$`,
		"recursive chmod/chown on /"),

	// Fork bomb, in both its raw spelling and the parser's printed form.
	regexRule(`:\(\)\s*\{\s*:\s*\|\s*:\s*&\s*;?\s*\}`,
		"fork bomb"),

	// Remote code piped straight into an interpreter.
	comboRule("curl|wget|fetch piped to an interpreter",
		"remote script piped to interpreter", pipeToInterpreter),
}

// downloaders are the fetch commands that make a pipe-to-interpreter a
// remote code execution.
var downloaders = []string{"curl", "wget", "fetch"}

// pipeToInterpreter walks pipe chains with the segment scanner and flags
// any chain that starts at a downloader and ends in an interpreter. Plain
// keyword checks only; a single regex over the whole command would be easy
// to slip past and easy to blow up.
func pipeToInterpreter(command string) (string, bool) {
	segs := scanSegments(expandEscapes(command))

	for i, s := range segs {
		if i == 0 || s.op != "|" {
			continue
		}
		base := baseCommand(s.text)
		if !interpreters[base] {
			continue
		}

		// Walk back through the pipe chain feeding this interpreter.
		for j := i - 1; j >= 0; j-- {
			lhs := strings.ToLower(segs[j].text)
			for _, dl := range downloaders {
				if strings.Contains(lhs, dl) {
					return dl + " piped to " + base, true
				}
			}
			if segs[j].op != "|" {
				break
			}
		}
	}
	return "", false
}
