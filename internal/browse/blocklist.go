package browse

import (
	"regexp"
	"strings"
)

// urlRule pairs a compiled pattern with the label surfaced in denials.
type urlRule struct {
	re    *regexp.Regexp
	label string
}

// urlBlocklist covers hosts a browser automation must not touch: loopback
// and private ranges, internal-only suffixes, local files, and
// auth-provider login pages (credential entry stays with the operator).
var urlBlocklist = []urlRule{
	{regexp.MustCompile(`(?i)^https?://(localhost|127\.0\.0\.1|0\.0\.0\.0|\[::1\])([:/]|$)`),
		"localhost"},
	{regexp.MustCompile(`(?i)^https?://10\.\d+\.\d+\.\d+([:/]|$)`),
		"private address range"},
	{regexp.MustCompile(`(?i)^https?://192\.168\.\d+\.\d+([:/]|$)`),
		"private address range"},
	{regexp.MustCompile(`(?i)^https?://172\.(1[6-9]|2\d|3[01])\.\d+\.\d+([:/]|$)`),
		"private address range"},
	{regexp.MustCompile(`(?i)^https?://[^/\s]+\.(local|internal|intranet|corp|lan)([:/]|$)`),
		"internal hostname"},
	{regexp.MustCompile(`(?i)^file://`),
		"local file"},
	{regexp.MustCompile(`(?i)^https?://(accounts\.google\.com|login\.microsoftonline\.com|login\.live\.com|appleid\.apple\.com|signin\.aws\.amazon\.com|github\.com/login|login\.yahoo\.com|[^/\s]+\.okta\.com|[^/\s]+\.auth0\.com)`),
		"authentication provider login"},
}

// shellMetachars are rejected in URLs outright: a URL that reaches any
// command line must not be able to carry an injection.
const shellMetachars = ";|&$`()<>'\"\\ \t\n"

// CheckURL vets a URL against the blocklist. Returns the label of the
// matched rule.
func CheckURL(rawURL string) (string, bool) {
	if strings.ContainsAny(rawURL, shellMetachars) {
		return "shell metacharacters", true
	}
	for _, rule := range urlBlocklist {
		if rule.re.MatchString(rawURL) {
			return rule.label, true
		}
	}
	return "", false
}
