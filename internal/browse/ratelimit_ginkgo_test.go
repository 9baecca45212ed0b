package browse_test

import (
	"os"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ork-ai/orkhooks/internal/browse"
	"github.com/ork-ai/orkhooks/internal/config"
	"github.com/ork-ai/orkhooks/internal/store"
)

func TestBrowseSuite(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Browse Suite")
}

// rateDoc mirrors the on-disk rate-limit document so specs can seed and
// inspect persisted state through the store.
type rateDoc struct {
	Domains map[string]rateDomain `json:"domains"`
}

type rateDomain struct {
	Timestamps  []time.Time `json:"timestamps"`
	LastUpdated time.Time   `json:"lastUpdated"`
}

var _ = Describe("RateLimiter", func() {
	var (
		st  *store.Store
		cfg config.BrowserConfig
	)

	BeforeEach(func() {
		st = store.New(GinkgoT().TempDir())
		cfg = config.BrowserConfig{
			RequestsPerMinute: 3,
			RequestsPerHour:   100,
		}
	})

	seed := func(domain string, stamps ...time.Time) {
		doc := rateDoc{Domains: map[string]rateDomain{
			domain: {Timestamps: stamps, LastUpdated: time.Now()},
		}}
		Expect(st.WriteDoc(store.RateLimitsFile, &doc)).To(Succeed())
	}

	readBack := func() rateDoc {
		var doc rateDoc
		Expect(st.ReadDoc(store.RateLimitsFile, &doc)).To(Succeed())
		return doc
	}

	Describe("the per-minute window", func() {
		It("denies the request that exceeds the limit", func() {
			rl := browse.NewRateLimiter(st, cfg)
			for i := 0; i < 3; i++ {
				Expect(rl.Check("example.com").Allowed).To(BeTrue())
			}

			verdict := rl.Check("example.com")
			Expect(verdict.Allowed).To(BeFalse())
			Expect(verdict.Window).To(Equal("minute"))
			Expect(verdict.Count).To(Equal(3))
			Expect(verdict.Limit).To(Equal(3))
		})

		It("leaves other domains unaffected", func() {
			rl := browse.NewRateLimiter(st, cfg)
			for i := 0; i < 3; i++ {
				rl.Check("example.com")
			}

			Expect(rl.Check("example.com").Allowed).To(BeFalse())
			Expect(rl.Check("other.org").Allowed).To(BeTrue())
		})

		It("reports the remaining quota on allow", func() {
			rl := browse.NewRateLimiter(st, cfg)

			verdict := rl.Check("example.com")
			Expect(verdict.Allowed).To(BeTrue())
			Expect(verdict.RemainingMinute).To(Equal(2))
			Expect(verdict.RemainingHour).To(Equal(99))
		})
	})

	Describe("the burst window", func() {
		BeforeEach(func() {
			cfg = config.BrowserConfig{
				RequestsPerMinute: 100,
				RequestsPerHour:   100,
				BurstLimit:        2,
			}
		})

		It("trips on rapid fire before the minute limit does", func() {
			rl := browse.NewRateLimiter(st, cfg)
			Expect(rl.Check("example.com").Allowed).To(BeTrue())
			Expect(rl.Check("example.com").Allowed).To(BeTrue())

			verdict := rl.Check("example.com")
			Expect(verdict.Allowed).To(BeFalse())
			Expect(verdict.Window).To(Equal("burst"))
			Expect(verdict.Limit).To(Equal(2))
		})
	})

	Describe("the hourly window", func() {
		BeforeEach(func() {
			cfg = config.BrowserConfig{
				RequestsPerMinute: 100,
				RequestsPerHour:   5,
			}
		})

		It("counts history persisted by earlier invocations", func() {
			stamps := make([]time.Time, 5)
			for i := range stamps {
				stamps[i] = time.Now().Add(-10 * time.Minute)
			}
			seed("example.com", stamps...)

			verdict := browse.NewRateLimiter(st, cfg).Check("example.com")
			Expect(verdict.Allowed).To(BeFalse())
			Expect(verdict.Window).To(Equal("hour"))
			Expect(verdict.Count).To(Equal(5))
		})

		It("prunes timestamps older than an hour", func() {
			old := time.Now().Add(-2 * time.Hour)
			seed("example.com", old, old, old, old, old)

			verdict := browse.NewRateLimiter(st, cfg).Check("example.com")
			Expect(verdict.Allowed).To(BeTrue())

			doc := readBack()
			Expect(doc.Domains["example.com"].Timestamps).To(HaveLen(1))
		})
	})

	Describe("persistence", func() {
		It("carries counts across limiter instances", func() {
			for i := 0; i < 3; i++ {
				Expect(browse.NewRateLimiter(st, cfg).Check("example.com").Allowed).To(BeTrue())
			}

			Expect(browse.NewRateLimiter(st, cfg).Check("example.com").Allowed).To(BeFalse())
		})

		It("does not charge quota for a denied request", func() {
			cfg.RequestsPerMinute = 1
			rl := browse.NewRateLimiter(st, cfg)

			Expect(rl.Check("example.com").Allowed).To(BeTrue())
			Expect(rl.Check("example.com").Allowed).To(BeFalse())

			doc := readBack()
			Expect(doc.Domains["example.com"].Timestamps).To(HaveLen(1))
		})
	})

	Context("when the state file is unreadable", func() {
		It("admits the request", func() {
			path := st.Path(store.RateLimitsFile)
			Expect(os.WriteFile(path, []byte("{definitely not json"), 0o644)).To(Succeed())

			verdict := browse.NewRateLimiter(st, cfg).Check("example.com")
			Expect(verdict.Allowed).To(BeTrue())

			doc := readBack()
			Expect(doc.Domains["example.com"].Timestamps).To(HaveLen(1))
		})
	})
})
