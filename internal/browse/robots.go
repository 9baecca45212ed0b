package browse

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/ork-ai/orkhooks/internal/config"
	"github.com/ork-ai/orkhooks/internal/logging"
	"github.com/ork-ai/orkhooks/internal/store"
)

const (
	// robotsFetchBudget bounds one robots.txt lookup, retries included. The
	// gate runs inside a hook invocation and cannot stall the tool call.
	robotsFetchBudget = 5 * time.Second

	robotsRetryDelay = 500 * time.Millisecond
	robotsMaxRetries = 1
	robotsMaxBody    = 512 << 10
)

// RobotsChecker enforces robots.txt for browser navigation. Rules are
// cached per origin in the store with a TTL. Everything fails open: an
// unreachable or malformed robots.txt never blocks navigation, and the
// empty rule set is cached so a dead origin is not re-fetched on every
// call.
type RobotsChecker struct {
	cfg    config.RobotsConfig
	st     *store.Store
	client *http.Client
}

func NewRobotsChecker(st *store.Store, cfg config.RobotsConfig) *RobotsChecker {
	return &RobotsChecker{
		cfg:    cfg,
		st:     st,
		client: &http.Client{Timeout: robotsFetchBudget},
	}
}

type robotsCacheDoc struct {
	Origins map[string]robotsEntry `json:"origins"`
}

type robotsEntry struct {
	DisallowedPaths []string `json:"disallowedPaths"`

	// Rules keeps the raw lines the paths came from, for debugging a
	// surprising block.
	Rules []string `json:"rules,omitempty"`

	FetchedAt time.Time `json:"fetchedAt"`
	Expires   time.Time `json:"expires"`
}

// Allowed reports whether rawURL may be fetched under the origin's
// robots.txt rules for the wildcard agent. The second return names the
// matched Disallow rule when the answer is no.
func (rc *RobotsChecker) Allowed(ctx context.Context, rawURL string) (bool, string) {
	if rc.cfg.Disabled {
		return true, ""
	}

	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return true, ""
	}
	origin := u.Scheme + "://" + u.Host

	path := u.Path
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}

	for _, rule := range rc.pathsFor(ctx, origin) {
		if matchRobotsRule(rule, path) {
			return false, rule
		}
	}
	return true, ""
}

// pathsFor returns the cached disallowed paths for origin, fetching and
// caching them when absent or expired.
func (rc *RobotsChecker) pathsFor(ctx context.Context, origin string) []string {
	var doc robotsCacheDoc
	if err := rc.st.ReadDoc(store.RobotsCacheFile, &doc); err != nil && err != store.ErrNotFound {
		logging.Warn().Err(err).Msg("Robots cache unreadable")
	}
	if doc.Origins == nil {
		doc.Origins = make(map[string]robotsEntry)
	}

	if entry, ok := doc.Origins[origin]; ok && time.Now().Before(entry.Expires) {
		return entry.DisallowedPaths
	}

	paths, lines := rc.fetch(ctx, origin)
	now := time.Now()
	doc.Origins[origin] = robotsEntry{
		DisallowedPaths: paths,
		Rules:           lines,
		FetchedAt:       now,
		Expires:         now.Add(rc.ttl()),
	}
	if err := rc.st.WriteDoc(store.RobotsCacheFile, &doc); err != nil {
		logging.Warn().Err(err).Msg("Failed to persist robots cache")
	}
	return paths
}

func (rc *RobotsChecker) ttl() time.Duration {
	if rc.cfg.TTLMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(rc.cfg.TTLMinutes) * time.Minute
}

// fetch retrieves and parses origin's robots.txt. Server errors are
// retried once; anything else resolves to the empty rule set.
func (rc *RobotsChecker) fetch(ctx context.Context, origin string) (paths, lines []string) {
	ctx, cancel := context.WithTimeout(ctx, robotsFetchBudget)
	defer cancel()

	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, origin+"/robots.txt", nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := rc.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode >= 500:
			return fmt.Errorf("robots.txt fetch: %s", resp.Status)
		case resp.StatusCode != http.StatusOK:
			// Missing or forbidden robots.txt means no restrictions.
			return nil
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, robotsMaxBody))
		if err != nil {
			return backoff.Permanent(err)
		}
		paths, lines = parseRobots(body)
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(robotsRetryDelay), robotsMaxRetries), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		logging.Debug().Err(err).Str("origin", origin).Msg("robots.txt unavailable, allowing")
		return nil, nil
	}
	return paths, lines
}

// parseRobots extracts the Disallow rules that apply to the wildcard
// agent, returning both the path prefixes and the raw lines they came
// from. Groups addressed to specific crawlers are ignored.
func parseRobots(body []byte) (paths, lines []string) {
	inWildcard := false
	sawAgentLine := false

	scanner := bufio.NewScanner(strings.NewReader(string(body)))
	for scanner.Scan() {
		raw := scanner.Text()
		line := raw
		if i := strings.Index(line, "#"); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		field, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		field = strings.ToLower(strings.TrimSpace(field))
		value = strings.TrimSpace(value)

		switch field {
		case "user-agent":
			// A run of User-agent lines opens a new group; hitting one
			// after rule lines closes the previous group first.
			if !sawAgentLine {
				inWildcard = false
			}
			sawAgentLine = true
			if value == "*" {
				inWildcard = true
			}
		case "disallow":
			sawAgentLine = false
			if inWildcard && value != "" {
				paths = append(paths, value)
				lines = append(lines, strings.TrimSpace(raw))
			}
		default:
			sawAgentLine = false
		}
	}
	return paths, lines
}

// matchRobotsRule reports whether path falls under rule. The rule is a
// path prefix where * matches any run of characters; everything else is
// literal, so rule metacharacters cannot form an unintended expression.
func matchRobotsRule(rule, path string) bool {
	pattern := "^" + strings.ReplaceAll(regexp.QuoteMeta(rule), `\*`, ".*")
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false
	}
	return re.MatchString(path)
}
