package browse

import (
	"net/url"
	"strings"
)

// sensitiveGroups map navigation keywords to the action label surfaced in
// the advisory. Matching is advisory only; navigation proceeds.
var sensitiveGroups = []struct {
	label    string
	keywords []string
}{
	{"a destructive action", []string{"delete", "remove", "destroy"}},
	{"credential entry", []string{"password", "credential", "secret", "token", "apikey", "api-key"}},
	{"a payment flow", []string{"payment", "checkout", "billing", "purchase"}},
}

// SensitiveAction reports whether the navigation looks like an action
// warranting operator attention, with a label describing it. The URL's
// path and query and the raw command text are both scanned; the host is
// not, so a vendor name never trips the check.
func SensitiveAction(rawURL, command string) (string, bool) {
	var subjects []string
	if u, err := url.Parse(rawURL); err == nil {
		s := strings.ToLower(u.Path)
		if u.RawQuery != "" {
			s += "?" + strings.ToLower(u.RawQuery)
		}
		subjects = append(subjects, s)
	}
	if command != "" {
		subjects = append(subjects, strings.ToLower(command))
	}

	for _, group := range sensitiveGroups {
		for _, kw := range group.keywords {
			for _, s := range subjects {
				if strings.Contains(s, kw) {
					return group.label, true
				}
			}
		}
	}
	return "", false
}
