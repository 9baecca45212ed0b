package browse

import (
	"time"

	"github.com/ork-ai/orkhooks/internal/config"
	"github.com/ork-ai/orkhooks/internal/logging"
	"github.com/ork-ai/orkhooks/internal/store"
)

// burstWindow catches rapid-fire loops that would sail under the
// per-minute limit.
const burstWindow = 3 * time.Second

// RateLimiter enforces sliding-window request limits per domain. State
// lives in the store so limits span hook invocations; reads and writes
// are not locked across processes, so two concurrent invocations can
// each admit a request. The windows are sized to tolerate that slack.
type RateLimiter struct {
	cfg config.BrowserConfig
	st  *store.Store
}

func NewRateLimiter(st *store.Store, cfg config.BrowserConfig) *RateLimiter {
	return &RateLimiter{cfg: cfg, st: st}
}

// RateVerdict is the outcome of one admission check. When Allowed is
// false, Window names the exhausted window and Count/Limit describe it.
type RateVerdict struct {
	Allowed bool
	Window  string
	Count   int
	Limit   int

	RemainingMinute int
	RemainingHour   int
}

type rateLimitDoc struct {
	Domains map[string]domainWindow `json:"domains"`
}

type domainWindow struct {
	Timestamps  []time.Time `json:"timestamps"`
	LastUpdated time.Time   `json:"lastUpdated"`
}

// Check admits or refuses one request to domain. Timestamps older than an
// hour are pruned on every pass; a refused request consumes no quota.
// Store failures fail open: a broken state file never blocks navigation.
func (rl *RateLimiter) Check(domain string) RateVerdict {
	now := time.Now()

	var doc rateLimitDoc
	if err := rl.st.ReadDoc(store.RateLimitsFile, &doc); err != nil && err != store.ErrNotFound {
		logging.Warn().Err(err).Msg("Rate limit state unreadable, admitting")
		doc = rateLimitDoc{}
	}
	if doc.Domains == nil {
		doc.Domains = make(map[string]domainWindow)
	}

	cutoff := now.Add(-time.Hour)
	var stamps []time.Time
	for _, ts := range doc.Domains[domain].Timestamps {
		if ts.After(cutoff) {
			stamps = append(stamps, ts)
		}
	}

	minuteCount := countSince(stamps, now.Add(-time.Minute))
	hourCount := len(stamps)
	burstCount := countSince(stamps, now.Add(-burstWindow))

	if rl.cfg.RequestsPerMinute > 0 && minuteCount >= rl.cfg.RequestsPerMinute {
		return RateVerdict{Window: "minute", Count: minuteCount, Limit: rl.cfg.RequestsPerMinute}
	}
	if rl.cfg.RequestsPerHour > 0 && hourCount >= rl.cfg.RequestsPerHour {
		return RateVerdict{Window: "hour", Count: hourCount, Limit: rl.cfg.RequestsPerHour}
	}
	if rl.cfg.BurstLimit > 0 && burstCount >= rl.cfg.BurstLimit {
		return RateVerdict{Window: "burst", Count: burstCount, Limit: rl.cfg.BurstLimit}
	}

	doc.Domains[domain] = domainWindow{Timestamps: append(stamps, now), LastUpdated: now}
	if err := rl.st.WriteDoc(store.RateLimitsFile, &doc); err != nil {
		logging.Warn().Err(err).Msg("Failed to persist rate limit state")
	}

	return RateVerdict{
		Allowed:         true,
		RemainingMinute: remaining(rl.cfg.RequestsPerMinute, minuteCount+1),
		RemainingHour:   remaining(rl.cfg.RequestsPerHour, hourCount+1),
	}
}

func countSince(stamps []time.Time, cutoff time.Time) int {
	n := 0
	for _, ts := range stamps {
		if ts.After(cutoff) {
			n++
		}
	}
	return n
}

func remaining(limit, used int) int {
	if limit <= 0 {
		return -1
	}
	if used > limit {
		return 0
	}
	return limit - used
}
