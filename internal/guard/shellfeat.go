package guard

import (
	"regexp"
	"strings"
)

// braceAlternatives matches brace expansion with comma alternatives, the
// form that can reassemble a blocked token piecewise (`{r,}m`, `rm -rf
// {/,}`). Ranges like {1..10} and awk bodies with spaces do not match.
var braceAlternatives = regexp.MustCompile(`\{[a-z0-9_./*~-]*,[a-z0-9_./*~,-]*\}`)

// CheckShellFeatures vets a command for shell constructs that smuggle
// content past pattern matching. Returns the name of the first offending
// feature. These are denied outright: the normalizer cannot see through
// them, so a command using them cannot be cleared.
func CheckShellFeatures(command string) (string, bool) {
	if strings.Contains(command, "<(") || strings.Contains(command, ">(") {
		return "process substitution", true
	}
	if strings.Contains(command, "<<<") {
		return "here-string", true
	}
	if hasIFSManipulation(command) {
		return "IFS manipulation", true
	}
	if braceAlternatives.MatchString(strings.ToLower(command)) {
		return "brace expansion with alternatives", true
	}
	if hasNestedSubstitution(command) {
		return "nested command substitution", true
	}
	return "", false
}

func hasIFSManipulation(command string) bool {
	for offset := 0; ; {
		idx := strings.Index(command[offset:], "IFS=")
		if idx < 0 {
			return false
		}
		idx += offset
		if idx == 0 {
			return true
		}
		switch command[idx-1] {
		case ' ', '\t', ';', '(', '{', '&', '|', '\n':
			return true
		}
		offset = idx + 4
	}
}

// hasNestedSubstitution reports a $() inside another $(), or backticks
// mixed with $() in the same command. Either nesting evaluates text the
// outer command never shows.
func hasNestedSubstitution(command string) bool {
	depth := 0
	backtickInside := false

	for i := 0; i < len(command); i++ {
		switch {
		case command[i] == '$' && i+1 < len(command) && command[i+1] == '(':
			depth++
			if depth >= 2 {
				return true
			}
			i++
		case command[i] == ')' && depth > 0:
			depth--
		case command[i] == '`' && depth > 0:
			backtickInside = true
		}
	}

	if backtickInside {
		return true
	}

	// Backticks wrapping a $() nest the other way around.
	if strings.Contains(command, "`") && strings.Contains(command, "$(") {
		first := strings.Index(command, "`")
		last := strings.LastIndex(command, "`")
		if first < last {
			inner := command[first:last]
			if strings.Contains(inner, "$(") {
				return true
			}
		}
	}

	return false
}
