package guard

import (
	"strings"
)

// Detection is the result of running a command against the danger catalog.
// SubCommand is the normalized segment that matched, so denial messages
// can point at the offending piece of a compound command.
type Detection struct {
	Matches    bool
	Pattern    string
	SubCommand string
}

// DetectDangerous checks a raw shell command against the catalog. Every
// segment of a compound command is checked; one dangerous segment is
// enough. Checks run in a fixed order: literal matches, anchored path
// regexes, keyword combos, then force pushes.
func DetectDangerous(command string) Detection {
	segments := Normalize(command)
	flat := normalizeFlat(command)

	for _, kind := range []RuleKind{KindLiteral, KindAnchoredRegex} {
		for _, rule := range catalog {
			if rule.Kind != kind {
				continue
			}
			for _, seg := range segments {
				if evalRule(rule, seg) {
					return Detection{Matches: true, Pattern: rule.Label, SubCommand: seg}
				}
			}
			// The flat form catches constructs the segment split hides,
			// like a fork bomb whose pipe sits inside a function body.
			if rule.Kind == KindAnchoredRegex && evalRule(rule, flat) {
				return Detection{Matches: true, Pattern: rule.Label, SubCommand: flat}
			}
		}
	}

	for _, rule := range catalog {
		if rule.Kind != KindKeywordCombo {
			continue
		}
		if detail, ok := rule.fn(command); ok {
			return Detection{Matches: true, Pattern: rule.Label, SubCommand: detail}
		}
	}

	if seg, ok := detectForcePush(segments); ok {
		return Detection{Matches: true, Pattern: "git push --force", SubCommand: seg}
	}

	return Detection{}
}

func evalRule(rule Rule, segment string) bool {
	switch rule.Kind {
	case KindLiteral:
		return strings.Contains(segment, rule.Value)
	case KindAnchoredRegex:
		return rule.re.MatchString(segment)
	default:
		return false
	}
}

// detectForcePush flags git push with --force or -f. --force-with-lease is
// not a match; it refuses to clobber unseen work and passes with an
// advisory instead.
func detectForcePush(segments []string) (string, bool) {
	for _, seg := range segments {
		if isForcePush(seg) {
			return seg, true
		}
	}
	return "", false
}

func isForcePush(segment string) bool {
	fields := strings.Fields(segment)
	if len(fields) < 2 {
		return false
	}
	if fields[0] == "sudo" {
		fields = fields[1:]
	}
	if len(fields) < 2 || fields[0] != "git" {
		return false
	}

	push, force := false, false
	for _, f := range fields[1:] {
		switch {
		case f == "push":
			push = true
		case strings.HasPrefix(f, "--force-with-lease"):
			// not forced in the destructive sense
		case f == "--force" || f == "-f":
			force = true
		}
	}
	return push && force
}

// HasForcePushWithLease reports a push that uses --force-with-lease, which
// is allowed but worth a note.
func HasForcePushWithLease(command string) bool {
	for _, seg := range Normalize(command) {
		fields := strings.Fields(seg)
		if len(fields) < 2 || fields[0] != "git" {
			continue
		}
		push, lease := false, false
		for _, f := range fields[1:] {
			if f == "push" {
				push = true
			}
			if strings.HasPrefix(f, "--force-with-lease") {
				lease = true
			}
		}
		if push && lease {
			return true
		}
	}
	return false
}
