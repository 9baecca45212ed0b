// Package browse gates automated browser navigation. Three checks can
// deny: a URL blocklist, a per-domain sliding-window rate limiter, and
// cached robots.txt enforcement. A fourth pass annotates navigation to
// sensitive pages without blocking it.
package browse

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/ork-ai/orkhooks/internal/config"
	"github.com/ork-ai/orkhooks/internal/event"
	"github.com/ork-ai/orkhooks/internal/hook"
	"github.com/ork-ai/orkhooks/internal/store"
)

// Gate evaluates browser-tool calls against the navigation policies.
type Gate struct {
	cfg     *config.Config
	limiter *RateLimiter
	robots  *RobotsChecker
}

func New(cfg *config.Config, st *store.Store) *Gate {
	return &Gate{
		cfg:     cfg,
		limiter: NewRateLimiter(st, cfg.Browser),
		robots:  NewRobotsChecker(st, cfg.Robots),
	}
}

// Handles reports whether toolName is one of the configured browser
// navigation tools.
func (g *Gate) Handles(toolName string) bool {
	for _, prefix := range g.cfg.Browser.ToolPrefixes {
		if strings.HasPrefix(toolName, prefix) {
			return true
		}
	}
	return false
}

// Check runs the navigation pipeline: blocklist, rate limiter, robots.txt,
// then the sensitive-action advisory. The first deny wins. Calls without a
// URL (screenshots, element clicks) pass through silently.
func (g *Gate) Check(ctx context.Context, in *hook.Input) *hook.Result {
	rawURL := ExtractURL(in)
	if rawURL == "" {
		return hook.Allow()
	}

	if label, bad := CheckURL(rawURL); bad {
		return g.deny(in, "url-blocklist", label,
			fmt.Sprintf("Navigation blocked (%s): %s", label, rawURL))
	}

	domain := domainOf(rawURL)
	verdict := g.limiter.Check(domain)
	if !verdict.Allowed {
		return g.deny(in, "rate-limit", verdict.Window, rateMessage(domain, verdict))
	}

	if ok, rule := g.robots.Allowed(ctx, rawURL); !ok {
		return g.deny(in, "robots", rule,
			fmt.Sprintf("Navigation blocked by robots.txt: %s disallows %q.", domain, rule))
	}

	g.publishAllow(in)
	res := hook.Allow()
	if label, ok := SensitiveAction(rawURL, in.ToolInput.Command); ok {
		advisory := fmt.Sprintf("This page involves %s: %s", label, rawURL)
		if quota := quotaLine(verdict); quota != "" {
			advisory += "\n" + quota
		}
		res.AddGuidance(advisory)
		event.PublishSync(event.Event{
			Type: event.GateAdvisory,
			Data: event.GateAdvisoryData{
				SessionID: in.SessionID,
				Tool:      in.ToolName,
				Category:  "browser",
				Message:   advisory,
			},
		})
	}
	return res
}

var urlPattern = regexp.MustCompile(`(?i)\b(?:https?|file)://[^\s"'<>]+`)

// ExtractURL pulls the navigation target out of a tool call: the explicit
// url field when present, otherwise the first URL-shaped token in the
// command or description.
func ExtractURL(in *hook.Input) string {
	if u := strings.TrimSpace(in.ToolInput.URL); u != "" {
		return u
	}
	for _, field := range []string{in.ToolInput.Command, in.ToolInput.Description} {
		if m := urlPattern.FindString(field); m != "" {
			return m
		}
	}
	if raw := in.ToolInput.Raw(); len(raw) > 0 {
		if m := urlPattern.FindString(string(raw)); m != "" {
			return m
		}
	}
	return ""
}

// domainOf keys the rate limiter. Ports are dropped so
// host:8080 and host:9090 share one budget.
func domainOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return strings.ToLower(rawURL)
	}
	return strings.ToLower(u.Hostname())
}

func rateMessage(domain string, v RateVerdict) string {
	return fmt.Sprintf(
		"Rate limit reached for %s: %d requests in the last %s (limit %d). Wait before navigating again.",
		domain, v.Count, windowPhrase(v.Window), v.Limit)
}

func windowPhrase(window string) string {
	switch window {
	case "minute":
		return "minute"
	case "hour":
		return "hour"
	case "burst":
		return "3 seconds"
	}
	return window
}

func quotaLine(v RateVerdict) string {
	if v.RemainingMinute < 0 && v.RemainingHour < 0 {
		return ""
	}
	return fmt.Sprintf("Remaining quota: %d requests this minute, %d this hour.",
		v.RemainingMinute, v.RemainingHour)
}

func (g *Gate) deny(in *hook.Input, category, rule, message string) *hook.Result {
	event.PublishSync(event.Event{
		Type: event.GateDenied,
		Data: event.GateDeniedData{
			SessionID: in.SessionID,
			Tool:      in.ToolName,
			Category:  category,
			Rule:      rule,
			Reason:    firstLine(message),
		},
	})
	return hook.Deny(message)
}

func (g *Gate) publishAllow(in *hook.Input) {
	event.PublishSync(event.Event{
		Type: event.GateAllowed,
		Data: event.GateAllowedData{
			SessionID: in.SessionID,
			Tool:      in.ToolName,
			Category:  "browser",
			Source:    "default",
		},
	})
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
